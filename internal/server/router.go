package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns the HTTP handler serving the API.
func NewRouter(s *ServerContext) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	r.Get("/", s.HandleIndex)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(
			s.Config.Server.RequestsPerMin,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))

		r.Get("/boundary", s.HandleBoundary)
		r.Get("/boundary/preview.webp", s.HandleBoundaryPreview)
		r.Get("/uk-geography", s.HandleUKGeography)
		r.Post("/uk-geography", s.HandleUKGeographyBatch)
		r.Get("/geocode", s.HandleGeocode)
		r.Get("/reverse", s.HandleReverse)
	})

	return r
}
