package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/pkg/httpx"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

// AuthnMiddleware resolves the bearer token to a session and injects the
// user's identity into the request context. A session still waiting on its
// second factor is rejected unless allowPending is set; only the challenge
// endpoints run with allowPending.
func AuthnMiddleware(sessions *service.SessionService, users UserLoader, allowPending bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid_token", "Missing bearer token")
				return
			}

			session, err := sessions.Resolve(ctx, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid or expired session")
				return
			}

			if session.Pending2FA && !allowPending {
				writeError(w, http.StatusUnauthorized, "second_factor_required", "Complete verification to continue")
				return
			}

			user, err := users.GetUserByID(ctx, session.UserID)
			if err != nil {
				slogx.FromContext(ctx).Error("session user missing", "user_id", session.UserID, "err", err)
				writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid or expired session")
				return
			}

			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, user.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeyRole, user.Role)
			ctx = context.WithValue(ctx, httpx.CtxKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserLoader is the slice of the user repository the middleware needs.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// RequireRole gates a route behind a minimum role. Runs after
// AuthnMiddleware.
func RequireRole(required domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(httpx.CtxKeyRole).(domain.Role)
			if !ok || !role.AtLeast(required) {
				writeError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
