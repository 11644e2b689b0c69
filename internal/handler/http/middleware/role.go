package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireRole admits tokens whose role claim is one of roles. Raw role
// strings go through the same normalization as stored user records.
func RequireRole(roles ...analytics.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, analytics.ErrInvalidToken)
				return
			}

			raw, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, analytics.ErrInsufficientRole)
				return
			}

			role, known := analytics.UserRoleFromRaw(raw)
			if known {
				for _, allowed := range roles {
					if role == allowed {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			response.HandleError(w, analytics.ErrInsufficientRole)
		})
	}
}
