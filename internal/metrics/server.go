package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// NewServer builds an HTTP server exposing the Prometheus scrape endpoint
// and a liveness probe. The caller owns its lifecycle.
func NewServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
