// Package api implements the read-only solarrank HTTP query layer. Runs are
// read from blob storage and kept in an LRU cache; every query is answered
// from the run's ranked catalog.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/solarrank/solarrank/internal/storage"
	"github.com/solarrank/solarrank/pkg/config"
)

// Handler serves stored runs over HTTP.
type Handler struct {
	store     storage.Client
	namespace string
	cache     *RunCache
	cfg       config.ServerConfig
}

// NewHandler creates a handler reading runs from namespace in store.
func NewHandler(store storage.Client, namespace string, cfg config.ServerConfig) *Handler {
	if namespace == "" {
		namespace = config.DefaultNamespace
	}
	return &Handler{
		store:     store,
		namespace: namespace,
		cache:     NewRunCache(cfg.CacheSize),
		cfg:       cfg,
	}
}

// Routes returns the router with all middleware installed.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS())

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(APIKeyAuth(h.cfg.APIKey))
		r.Use(RateLimit(h.cfg.RateLimit, h.cfg.RateBurst))

		r.Get("/runs", h.handleListRuns)
		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Get("/", h.handleGetRun)
			r.Get("/buildings", h.handleListBuildings)
			r.Get("/buildings/{buildingID}", h.handleGetBuilding)
			r.Get("/buildings/{buildingID}/explain", h.handleExplain)
			r.Get("/buildings/{buildingID}/neighbors", h.handleNeighbors)
			r.Get("/priority", h.handlePriority)
			r.Get("/threshold", h.handleThreshold)
			r.Get("/geojson", h.handleGeoJSON)
		})
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"cached_runs": h.cache.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
