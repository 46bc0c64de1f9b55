package middleware

import (
	"net/http"

	"github.com/doneduardo/storefront/pkg/logger"
)

// Session tags every request log with the cart session this process serves.
func Session(logg *logger.Logger, sessionID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg == nil || sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(logg.WithSessionID(r.Context(), sessionID)))
		})
	}
}
