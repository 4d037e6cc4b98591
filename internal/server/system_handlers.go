package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/aristath/meterwatch/internal/database"
	"github.com/aristath/meterwatch/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CacheCounter reports the number of cached verdicts
type CacheCounter interface {
	Count() (int, error)
}

// SystemHandlers handles system status and maintenance endpoints
type SystemHandlers struct {
	log          zerolog.Logger
	startupTime  time.Time
	databases    []*database.DB
	scheduler    *scheduler.Scheduler
	jobs         map[string]scheduler.Job
	cacheCounter CacheCounter
}

// NewSystemHandlers creates system handlers. Nil databases are skipped.
func NewSystemHandlers(
	log zerolog.Logger,
	databases []*database.DB,
	sched *scheduler.Scheduler,
	jobs []scheduler.Job,
	cacheCounter CacheCounter,
) *SystemHandlers {
	h := &SystemHandlers{
		log:          log.With().Str("handler", "system").Logger(),
		startupTime:  time.Now(),
		scheduler:    sched,
		jobs:         make(map[string]scheduler.Job, len(jobs)),
		cacheCounter: cacheCounter,
	}
	for _, db := range databases {
		if db != nil {
			h.databases = append(h.databases, db)
		}
	}
	for _, job := range jobs {
		h.jobs[job.Name()] = job
	}
	return h
}

// RegisterRoutes registers the system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Post("/jobs/{name}", h.HandleRunJob)
	})
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	databases := make([]map[string]interface{}, 0, len(h.databases))
	for _, db := range h.databases {
		databases = append(databases, map[string]interface{}{
			"name":    db.Name(),
			"profile": db.Profile(),
			"path":    db.Path(),
		})
	}

	status := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
		"started_at":     h.startupTime.Format(time.RFC3339),
		"databases":      databases,
		"jobs":           h.jobNames(),
	}
	if h.scheduler != nil {
		status["scheduled_jobs"] = h.scheduler.JobCount()
	}
	if h.cacheCounter != nil {
		count, err := h.cacheCounter.Count()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count cached verdicts")
		} else {
			status["cached_verdicts"] = count
		}
	}

	writeJSON(w, http.StatusOK, envelope(status), h.log)
}

// HandleRunJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	job, ok := h.jobs[name]
	if !ok {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	start := time.Now()
	var err error
	if h.scheduler != nil {
		err = h.scheduler.RunNow(job)
	} else {
		err = job.Run()
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, "Job failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"job":         name,
		"status":      "completed",
		"duration_ms": time.Since(start).Milliseconds(),
	}), h.log)
}

func (h *SystemHandlers) jobNames() []string {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
