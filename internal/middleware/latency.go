package middleware

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/config"
)

// Latency delays each request by a fixed duration or a uniformly
// random one in [min, max] ms, per spec.md §4.9. The delay is
// cancellable by request (and therefore server) shutdown via the
// request's context.
func Latency(opts config.LatencyOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			delay := time.Duration(opts.Fixed) * time.Millisecond
			if opts.Fixed == 0 && opts.Max >= opts.Min {
				delay = time.Duration(opts.Min+rand.Intn(opts.Max-opts.Min+1)) * time.Millisecond
			}

			select {
			case <-time.After(delay):
				next.ServeHTTP(w, r)
			case <-r.Context().Done():
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		})
	}
}
