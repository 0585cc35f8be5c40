package httpapi

import (
	"net/http"
	"strings"
)

// AuthMiddleware validates the bearer token on every request.
// If the token is missing or invalid, it responds 401.
// An empty validToken disables authentication entirely (local use).
// The health endpoint is always reachable so probes need no credentials.
func AuthMiddleware(validToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validToken == "" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header || token != validToken {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
