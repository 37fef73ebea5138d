/**
 * @description
 * This file sets up the operational HTTP router for the account-service
 * using the `chi` routing library. The service's functional API is the
 * event bus; HTTP exposes only the health and readiness probes every
 * service in the platform provides.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates and configures a new HTTP router. The ready func
// reports whether the bus consumer is up and consuming.
func NewRouter(ready func() bool) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("consumer not running"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	return r
}
