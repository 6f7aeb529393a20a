package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"finboard/internal/auth"
	"finboard/internal/identity"
)

type contextKey int

const userContextKey contextKey = iota

// UserFromContext returns the authenticated user attached by RequireUser.
func UserFromContext(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(userContextKey).(identity.User)
	return u, ok
}

// RequireUser verifies the bearer access token, loads the user, and attaches
// it to the request context. A missing or invalid token yields 401, a valid
// token for a deactivated account 403.
func (h *Handler) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		u, err := h.svc.Authenticate(r.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrForbidden):
				writeError(w, http.StatusForbidden, "account_inactive", "account is deactivated")
			case errors.Is(err, auth.ErrUnauthorized):
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			default:
				h.log.Error("auth.require_user.fail", "err", err)
				writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			}
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
