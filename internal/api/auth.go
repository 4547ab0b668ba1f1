package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/hjiwane/apartment-society-backend/internal/apperr"
	"github.com/hjiwane/apartment-society-backend/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticate требует Authorization: Bearer <token> и кладёт пользователя в контекст.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const p = "bearer "
		auth := r.Header.Get("Authorization")
		if len(auth) <= len(p) || !strings.EqualFold(auth[:len(p)], p) {
			h.fail(w, r, apperr.Unauthorized("Not authenticated"))
			return
		}
		u, err := h.svc.Accounts.Authenticate(r.Context(), strings.TrimSpace(auth[len(p):]))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser: пользователь, прошедший Authenticate.
func CurrentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey).(*models.User)
	return u
}

func callerID(r *http.Request) uint {
	if u := CurrentUser(r); u != nil {
		return u.ID
	}
	return 0
}
