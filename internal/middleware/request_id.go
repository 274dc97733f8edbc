package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// maxRequestIDLen caps client supplied IDs before they reach the logs
const maxRequestIDLen = 64

// RequestID reuses a sane client X-Request-ID or mints one, echoes it back and
// stores it in the context for the logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the request ID stored by RequestID
func GetRequestID(ctx context.Context) string {
	return logger.RequestID(ctx)
}
