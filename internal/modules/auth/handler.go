package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sokoplace/soko-backend/internal/httpx"
	"github.com/sokoplace/soko-backend/internal/modules/cart"
	"github.com/sokoplace/soko-backend/internal/modules/identity"
)

// Handler exposes login/logout endpoints and owns session cookie wiring.
type Handler struct {
	service      Service
	carts        cart.Service
	tokenTTL     time.Duration
	secureCookie bool
}

func NewHandler(service Service, carts cart.Service, tokenTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{service: service, carts: carts, tokenTTL: tokenTTL, secureCookie: secureCookie}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/login", h.login)
	router.Post("/auth/logout", h.logout)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	// A guest cart folds into the user cart exactly once; the merge is
	// idempotent so a retried login cannot double quantities. A failed merge
	// keeps the guest cookie so the next request can try again.
	if c, cookieErr := r.Cookie(identity.CookieGuestSession); cookieErr == nil && c.Value != "" {
		if _, mergeErr := h.carts.MergeGuestToUser(r.Context(), c.Value, session.User.ID); mergeErr != nil {
			log.Printf("auth: cart merge for user %s failed: %v", session.User.ID, mergeErr)
		} else {
			h.clearCookie(w, identity.CookieGuestSession, true)
		}
	}

	maxAge := int(h.tokenTTL.Seconds())
	h.setCookie(w, identity.CookieSessionToken, session.Token, maxAge, true)
	h.setCookie(w, identity.CookieUserRole, string(session.User.Role), maxAge, false)
	h.setCookie(w, identity.CookieIsAuthenticated, "true", maxAge, false)

	httpx.Respond(w, http.StatusOK, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, identity.CookieSessionToken, true)
	h.clearCookie(w, identity.CookieGuestSession, true)
	h.clearCookie(w, identity.CookieUserRole, false)
	h.clearCookie(w, identity.CookieIsAuthenticated, false)
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge int, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
