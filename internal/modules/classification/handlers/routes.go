package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the classification routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/classify", func(r chi.Router) {
		r.Post("/", h.HandleClassify)
		r.Get("/categories", h.HandleGetCategories)
	})
}
