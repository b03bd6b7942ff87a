package web

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/yard/internal/auth"
	"github.com/desertthunder/yard/internal/models"
)

type identityKey struct{}

// IdentityFrom returns the identity attached by the auth guard.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func (h *Handler) token(r *http.Request) string {
	c, err := r.Cookie(h.cookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) setSession(w http.ResponseWriter, s *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// identity resolves the caller without enforcing authentication.
func (h *Handler) identity(r *http.Request) (models.Identity, bool) {
	token := h.token(r)
	if token == "" {
		return models.Identity{}, false
	}

	id, err := h.gate.RequireAuthenticated(r.Context(), token)
	if err != nil {
		return models.Identity{}, false
	}
	return id, true
}

// requireAuth redirects callers without a live session to /login.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.token(r)

		id, err := h.gate.RequireAuthenticated(r.Context(), token)
		if err != nil {
			if token != "" {
				h.clearSession(w)
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}
