package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

// Handler exposes cart HTTP endpoints. Guests and users share the same
// routes; the identity middleware decides which cart is in scope.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addItem)
		r.Patch("/items/{itemID}", h.updateQuantity)
		r.Delete("/items/{itemID}", h.removeItem)

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireUser)
			r.Post("/merge", h.merge)
		})
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCart(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.AddItem(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateQuantity(r.Context(), identity.FromContext(r.Context()),
		chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.RemoveItem(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), identity.FromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "cart cleared"})
}

// merge lets an authenticated client re-run the login-time merge, e.g. when
// the guest cookie outlived a previous session.
func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())

	guestCookie, err := r.Cookie(identity.CookieGuestSession)
	if err != nil || guestCookie.Value == "" {
		// Nothing to merge; return the user cart as-is.
		c, err := h.service.GetCart(r.Context(), id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.Respond(w, http.StatusOK, c)
		return
	}

	c, err := h.service.MergeGuestToUser(r.Context(), guestCookie.Value, id.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}
