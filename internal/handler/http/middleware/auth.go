package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/teamflow-analytics/internal/domain/analytics"
	"github.com/cmlabs-hris/teamflow-analytics/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired admits requests carrying a verified access token. It expects
// jwtauth.Verifier to run first.
func AuthRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.HandleError(w, analytics.ErrMissingToken)
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != "access" {
			response.HandleError(w, analytics.ErrInvalidToken)
			return
		}

		if userID, ok := claims["user_id"].(string); !ok || userID == "" {
			response.HandleError(w, analytics.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hfn)
}
