package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the expediente routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/expedientes", func(r chi.Router) {
		r.Get("/", h.HandleList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpsert)
			r.Get("/records", h.HandleGetRecords)
			r.Put("/records", h.HandleReplaceRecords)
			r.Post("/classify", h.HandleClassify)
			r.Get("/verdicts", h.HandleGetVerdicts)
			r.Get("/verdicts/latest", h.HandleGetLatestVerdict)
		})
	})
}
