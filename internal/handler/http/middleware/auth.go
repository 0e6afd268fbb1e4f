package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/handler/http/response"
	"github.com/cmlabs-hris/dayflow/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a valid, unrevoked access token and
// attaches the caller to the request context. It must run after jwtauth.Verifier.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims[jwt.ClaimType].(string)
			if !ok || tokenType != jwt.TokenTypeAccess {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if jwtService.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			employeeID, _ := claims[jwt.ClaimEmployeeID].(string)
			role, _ := claims[jwt.ClaimRole].(string)
			name, _ := claims[jwt.ClaimName].(string)
			email, _ := claims[jwt.ClaimEmail].(string)
			if employeeID == "" {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			ctx := auth.WithCaller(r.Context(), auth.Caller{
				EmployeeID: employeeID,
				Role:       employee.Role(role),
				Name:       name,
				Email:      email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}
