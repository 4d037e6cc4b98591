// Package handlers provides HTTP handlers for expedientes and their verdict history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/expedientes"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles expediente HTTP requests
type Handler struct {
	service *expedientes.Service
	log     zerolog.Logger
}

// NewHandler creates a new expediente handler
func NewHandler(service *expedientes.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "expedientes").Logger(),
	}
}

// UpsertRequest is the body of PUT /api/expedientes/{id}
type UpsertRequest struct {
	Name string `json:"name"`
}

// RecordsRequest is the body of PUT /api/expedientes/{id}/records
type RecordsRequest struct {
	Records []domain.MonthlyRecord `json:"records"`
}

// ClassifyResponse is returned by POST /api/expedientes/{id}/classify
type ClassifyResponse struct {
	Verdict *expedientes.StoredVerdict `json:"verdict"`
	Cached  bool                       `json:"cached"`
}

// HandleUpsert handles PUT /api/expedientes/{id}
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	e, err := h.service.Repository().Upsert(id, req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("expediente", id).Msg("Failed to upsert expediente")
		http.Error(w, "Failed to save expediente", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(e))
}

// HandleList handles GET /api/expedientes
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Repository().List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expedientes")
		http.Error(w, "Failed to list expedientes", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"expedientes": list,
		"count":       len(list),
	}))
}

// HandleGet handles GET /api/expedientes/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := h.service.Repository().Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("expediente", id).Msg("Failed to get expediente")
		http.Error(w, "Failed to get expediente", http.StatusInternalServerError)
		return
	}
	if e == nil {
		http.Error(w, "Expediente not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(e))
}

// HandleReplaceRecords handles PUT /api/expedientes/{id}/records
func (h *Handler) HandleReplaceRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	series, err := h.service.ReplaceSeries(id, req.Records)
	if err != nil {
		h.writeError(w, err, id, "Failed to store records")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"expediente_id": id,
		"count":         len(series),
	}))
}

// HandleGetRecords handles GET /api/expedientes/{id}/records
func (h *Handler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.exists(w, id) {
		return
	}

	series, err := h.service.Repository().GetSeries(id)
	if err != nil {
		h.log.Error().Err(err).Str("expediente", id).Msg("Failed to get records")
		http.Error(w, "Failed to get records", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"records": series,
		"count":   len(series),
	}))
}

// HandleClassify handles POST /api/expedientes/{id}/classify
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stored, cached, err := h.service.Classify(r.Context(), id)
	if err != nil {
		h.writeError(w, err, id, "Failed to classify expediente")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(ClassifyResponse{Verdict: stored, Cached: cached}))
}

// HandleGetVerdicts handles GET /api/expedientes/{id}/verdicts?limit=N
func (h *Handler) HandleGetVerdicts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := expedientes.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	if !h.exists(w, id) {
		return
	}

	history, err := h.service.Repository().VerdictHistory(id, limit)
	if err != nil {
		h.log.Error().Err(err).Str("expediente", id).Msg("Failed to get verdicts")
		http.Error(w, "Failed to get verdicts", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"verdicts": history,
		"count":    len(history),
	}))
}

// HandleGetLatestVerdict handles GET /api/expedientes/{id}/verdicts/latest
func (h *Handler) HandleGetLatestVerdict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.exists(w, id) {
		return
	}

	latest, err := h.service.Repository().LatestVerdict(id)
	if err != nil {
		h.log.Error().Err(err).Str("expediente", id).Msg("Failed to get latest verdict")
		http.Error(w, "Failed to get latest verdict", http.StatusInternalServerError)
		return
	}
	if latest == nil {
		http.Error(w, "No verdict recorded", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(latest))
}

// exists writes a 404 or 500 and returns false when id cannot be served
func (h *Handler) exists(w http.ResponseWriter, id string) bool {
	e, err := h.service.Repository().Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("expediente", id).Msg("Failed to get expediente")
		http.Error(w, "Failed to get expediente", http.StatusInternalServerError)
		return false
	}
	if e == nil {
		http.Error(w, "Expediente not found", http.StatusNotFound)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, id, msg string) {
	switch {
	case errors.Is(err, expedientes.ErrNotFound):
		http.Error(w, "Expediente not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidSeries):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Str("expediente", id).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
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
