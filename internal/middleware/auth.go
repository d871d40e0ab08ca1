package middleware

import (
	"net/http"

	"zeus-backend/internal/auth"
	"zeus-backend/pkg/api"
	pkgauth "zeus-backend/pkg/auth"
)

// SessionSource reports the current signed-in session.
type SessionSource interface {
	Session() (auth.Session, bool)
}

// RequireSession rejects requests with 401 while no unexpired session exists
// and otherwise attaches the signed-in user to the request context.
func RequireSession(sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessions.Session()
			if !ok {
				api.Error(w, http.StatusUnauthorized, "sign in required")
				return
			}

			ctx := pkgauth.SetUserInContext(r.Context(), &pkgauth.UserContext{
				UserID: session.UserID,
				Email:  session.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
