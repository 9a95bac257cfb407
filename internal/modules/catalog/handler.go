package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
	"github.com/sokoplace/soko-backend/internal/policy"
)

// Handler exposes product HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/api/products", h.listPublic)
	router.Get("/api/products/{id}", h.getProduct)

	router.Group(func(r chi.Router) {
		r.Use(identity.RequireAction(policy.ActionCreateProduct))
		r.Post("/api/products", h.createProduct)
		r.Put("/api/products/{id}", h.updateProduct)
		r.Delete("/api/products/{id}", h.archiveProduct)
	})

	router.Group(func(r chi.Router) {
		r.Use(identity.RequireAction(policy.ActionUpdateProduct))
		r.Get("/api/vendor/products", h.listVendorProducts)
	})

	router.Group(func(r chi.Router) {
		r.Use(identity.RequireAction(policy.ActionListAllProducts))
		r.Get("/api/admin/products", h.listAll)
	})
}

func (h *Handler) listPublic(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListPublic(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.CreateProduct(r.Context(), identity.FromContext(r.Context()), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, res)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.UpdateProduct(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}

func (h *Handler) archiveProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ArchiveProduct(r.Context(), identity.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "product archived"})
}

func (h *Handler) listVendorProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListVendorProducts(r.Context(), identity.FromContext(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, products)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, products)
}
