package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin gates the management surface. The store only knows one
// privileged role, so any other role on the token is rejected.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			if role != "admin" {
				logger.Warn("Non-admin token on admin endpoint", zap.String("role", role))
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
