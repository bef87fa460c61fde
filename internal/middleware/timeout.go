package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds request handling when no explicit
// timeout is configured.
const DefaultRequestTimeout = 30 * time.Second

// Timeout deadlines the request context and cuts off slow handlers.
// The context deadline propagates into store and queue calls so they
// abort alongside the response.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			handler := http.TimeoutHandler(next, timeout, "Request Timeout")
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
