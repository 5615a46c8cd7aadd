package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"estymator/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Get("/", handler(s.getRoot))
	r.Get("/health", handler(s.getHealth))

	r.Post("/predict", handler(s.postPredict))

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", handler(s.getCacheStats))
		r.Post("/invalidate", handler(s.postCacheInvalidate))
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
