package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"zeus-backend/pkg/api"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Timeout bounds the request context. Handlers observe the deadline through
// their store calls; if one returns without writing after the deadline passed,
// a 504 is written on its behalf.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if ww.Status() == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				api.Error(w, http.StatusGatewayTimeout, "Request timeout")
			}
		})
	}
}
