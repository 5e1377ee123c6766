package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodbridge/tracegen/internal/config"
	"github.com/foodbridge/tracegen/internal/engine"
	"github.com/foodbridge/tracegen/internal/metrics"
	"github.com/foodbridge/tracegen/internal/timeline"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/datasets", h.generateDataset)
	h.mux.HandleFunc("GET /v1/datasets/preview", h.previewDataset)
	h.mux.HandleFunc("GET /v1/config", h.showConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// generateRequest carries optional per-request overrides of the loaded
// config; zero-valued fields keep the configured value.
type generateRequest struct {
	Seed            *int64 `json:"seed,omitempty"`
	Start           string `json:"start,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Mode            string `json:"mode,omitempty"`
}

func (h *Handler) requestConfig(r *http.Request) (*config.Config, error) {
	// Value copy: request overrides must not leak into the shared config.
	cfg := *h.loader.Config()

	if r.Body == nil || r.ContentLength == 0 {
		return &cfg, nil
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.Start != "" {
		cfg.Window.Start = req.Start
	}
	if req.DurationMinutes != 0 {
		cfg.Window.DurationMinutes = req.DurationMinutes
	}
	if req.Mode != "" {
		cfg.Window.Mode = req.Mode
	}
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// POST /v1/datasets — generate a dataset. With ?async=1 the job is
// queued for background generation and persistence; otherwise the full
// dataset is returned inline.
func (h *Handler) generateDataset(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.requestConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("async") == "1" {
		runID, ok := h.eng.SubmitAsync(cfg)
		if !ok {
			writeError(w, http.StatusTooManyRequests, "generation queue full")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"run_id": runID,
			"queued": true,
		})
		return
	}

	runID, ds, err := h.eng.GenerateSync(r.Context(), cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"dataset": ds,
	})
}

// GET /v1/datasets/preview — a small fixed-seed dataset for dashboard
// smoke tests; never persisted.
func (h *Handler) previewDataset(w http.ResponseWriter, r *http.Request) {
	cfg := *h.loader.Config()
	cfg.Seed = 1
	cfg.Window.Mode = "animation"
	cfg.Window.DurationMinutes = 30
	cfg.Lanes = config.LanesConf{FarmToProcessing: 1, ProcessingToWarehouse: 1, WarehouseToNGO: 1}
	cfg.Storage.DSN = ""

	// Preview bypasses the engine so nothing reaches storage.
	ds, err := timeline.New(&cfg, nil).Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dataset": ds})
}

// GET /v1/config — the currently loaded configuration.
func (h *Handler) showConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loader.Config())
}

// POST /v1/config/reload — re-read the config file from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"version":  cfg.Version,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the job queue is >80% full or storage is down.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.eng.Ready(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "storage unreachable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
