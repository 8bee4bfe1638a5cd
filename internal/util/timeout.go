package util

import (
	"context"
	"net/http"
	"time"
)

// WithRequestTimeout bounds the request context so store calls made by the
// handler are canceled once d elapses. A non-positive d disables the bound.
func WithRequestTimeout(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
