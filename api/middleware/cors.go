package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the listed browser origins call the API. The idempotency replay marker and
// request id are exposed so clients can read them.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", IdempotencyKeyHeader, requestIDHeader, correlationIDHeader},
		ExposedHeaders: []string{requestIDHeader, correlationIDHeader, replayHeader, "Retry-After"},
		// credentials travel in the Authorization header, not cookies
		AllowCredentials: false,
		MaxAge:           600,
	})
}
