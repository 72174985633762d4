package mid

import (
	"net/http"
	"strconv"

	"github.com/WessleyAI/vehicle-select/pkg/resilience"
)

// RateLimit rejects requests with 429 once l runs out of tokens.
// A nil limiter disables limiting.
func RateLimit(l *resilience.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(l.Delay().Seconds()))))
				http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
