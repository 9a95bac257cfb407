package payment

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

// Handler exposes payment HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/api/payments/webhook", h.webhook)

	router.Group(func(r chi.Router) {
		r.Use(identity.RequireUser)
		r.Post("/api/payments/initialize", h.initialize)
	})
}

func (h *Handler) initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Initialize(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, t)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.RespondError(w, httpx.Validation("INVALID_BODY", "unreadable request body"))
		return
	}
	signature := r.Header.Get("x-paystack-signature")
	if err := h.service.HandleWebhook(r.Context(), ProviderPaystack, signature, body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "processed"})
}
