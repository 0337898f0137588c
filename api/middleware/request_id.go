package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

const (
	requestIDHeader     = "X-Request-Id"
	correlationIDHeader = "X-Correlation-Id"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID tags every request with an id for logs and error envelopes.
// X-Correlation-Id is used when X-Request-Id is missing or malformed, and is
// echoed back under its own name as well.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID, header := callerRequestID(r)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)
			if header == correlationIDHeader {
				w.Header().Set(correlationIDHeader, reqID)
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerRequestID returns the first well-formed id the caller supplied and the header it came from.
func callerRequestID(r *http.Request) (string, string) {
	for _, header := range []string{requestIDHeader, correlationIDHeader} {
		id := strings.TrimSpace(r.Header.Get(header))
		if requestIDPattern.MatchString(id) {
			return id, header
		}
	}
	return "", ""
}
