package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSHandler allows the staff dashboard origins. A "*" entry opens the API to
// any origin but then credentials are not allowed, as browsers reject that pair.
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		// no PUT: every update route is a PATCH
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "X-Total-Count", "Retry-After"},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	})
}
