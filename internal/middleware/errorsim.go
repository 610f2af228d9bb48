package middleware

import (
	"math/rand"
	"net/http"
	"strconv"

	"github.com/alexberriman/pretendo-sub001/internal/config"
)

// ErrorSimulation short-circuits a configured fraction of requests
// with a random configured status code, or any request that carries
// the configured trigger query parameter set to a status code
// (spec.md §4.9).
func ErrorSimulation(opts config.ErrorSimulationOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			if trigger := r.URL.Query().Get(opts.QueryParamTrigger); trigger != "" {
				if status, err := strconv.Atoi(trigger); err == nil {
					w.WriteHeader(status)
					return
				}
			}

			if len(opts.StatusCodes) > 0 && rand.Float64() < opts.Rate {
				status := opts.StatusCodes[rand.Intn(len(opts.StatusCodes))]
				w.WriteHeader(status)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
