package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cloo-solutions/groundqa/internal/api"
	"github.com/cloo-solutions/groundqa/internal/domain"
)

type contextKey string

// AdminToken guards operator endpoints with a static bearer token. An empty
// token disables the guarded routes entirely.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				api.HandleError(w, domain.NewDomainError(domain.ErrCodeUnauthorized, "admin endpoints are disabled"))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.HandleError(w, domain.NewDomainError(domain.ErrCodeUnauthorized, "missing authorization header"))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.HandleError(w, domain.NewDomainError(domain.ErrCodeUnauthorized, "invalid authorization format"))
				return
			}

			presented := strings.TrimPrefix(authHeader, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				api.HandleError(w, domain.ErrInvalidAdminToken)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
