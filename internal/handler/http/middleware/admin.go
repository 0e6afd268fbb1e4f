package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/handler/http/response"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireAdmin(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
