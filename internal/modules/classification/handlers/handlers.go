// Package handlers provides HTTP handlers for stateless classification.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/classification"
	"github.com/rs/zerolog"
)

// Handler handles classification HTTP requests
type Handler struct {
	service *classification.Service
	log     zerolog.Logger
}

// NewHandler creates a new classification handler
func NewHandler(service *classification.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "classification").Logger(),
	}
}

// ClassifyRequest is the body of POST /api/classify
type ClassifyRequest struct {
	Records []domain.MonthlyRecord `json:"records"`
}

// VerdictResponse wraps a verdict with its cache metadata
type VerdictResponse struct {
	Verdict     *domain.ClassificationResult `json:"verdict"`
	Fingerprint string                       `json:"fingerprint"`
	Cached      bool                         `json:"cached"`
}

// CategoryInfo describes one verdict category
type CategoryInfo struct {
	Name        domain.Category `json:"name"`
	Description string          `json:"description"`
}

// HandleClassify handles POST /api/classify
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, cached, err := h.service.Classify(r.Context(), req.Records)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSeries) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to classify series")
		http.Error(w, "Failed to classify series", http.StatusInternalServerError)
		return
	}

	fingerprint, err := h.service.Fingerprint(req.Records)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to fingerprint series")
	}

	h.writeJSON(w, http.StatusOK, envelope(VerdictResponse{
		Verdict:     result,
		Fingerprint: fingerprint,
		Cached:      cached,
	}))
}

// HandleGetCategories handles GET /api/classify/categories
func (h *Handler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	categories := make([]CategoryInfo, 0, len(domain.AllCategories))
	for _, c := range domain.AllCategories {
		categories = append(categories, CategoryInfo{Name: c, Description: c.Description()})
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	}))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
