package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/solarrank/solarrank/internal/storage"
	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/catalog"
	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/scoring"
)

// DefaultTopN is the priority list length when top_n is not given.
const DefaultTopN = 100

// RunSummary is the run metadata returned without the building list.
type RunSummary struct {
	RunID      string                  `json:"run_id"`
	SnapshotID string                  `json:"snapshot_id"`
	CreatedAt  time.Time               `json:"created_at"`
	WeightSet  string                  `json:"weight_set,omitempty"`
	Weights    scoring.Weights         `json:"weights"`
	Params     pipeline.Params         `json:"params"`
	Population scoring.PopulationStats `json:"population"`
	Stats      pipeline.RunStats       `json:"stats"`
	Summary    catalog.Summary         `json:"summary"`
	Rejections []building.Rejection    `json:"rejections"`
}

// loadRun returns a run from the cache, falling back to storage.
func (h *Handler) loadRun(ctx context.Context, runID string) (*CachedRun, error) {
	if run := h.cache.Get(runID); run != nil {
		return run, nil
	}
	res, err := storage.LoadRun(ctx, h.store, h.namespace, runID)
	if err != nil {
		return nil, err
	}
	return h.cache.Put(res), nil
}

// run loads the run named in the path, writing the error response itself
// when it cannot.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*CachedRun, bool) {
	runID := chi.URLParam(r, "runID")
	run, err := h.loadRun(r.Context(), runID)
	switch {
	case err == nil:
		return run, true
	case eris.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	default:
		zap.L().Error("loading run", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
	}
	return nil, false
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.List(r.Context(), h.namespace, storage.KindRuns)
	if err != nil {
		zap.L().Error("listing runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"namespace": h.namespace, "runs": ids})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	res := run.Result
	writeJSON(w, http.StatusOK, RunSummary{
		RunID:      res.RunID,
		SnapshotID: res.SnapshotID,
		CreatedAt:  res.CreatedAt,
		WeightSet:  res.WeightSet,
		Weights:    res.Weights,
		Params:     res.Params,
		Population: res.Population,
		Stats:      res.Stats,
		Summary:    res.Summary,
		Rejections: res.Rejections,
	})
}

func (h *Handler) handleListBuildings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Catalog.Query(filter))
}

func (h *Handler) handleGetBuilding(w http.ResponseWriter, r *http.Request) {
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	b, found := run.Catalog.Get(chi.URLParam(r, "buildingID"))
	if !found {
		writeError(w, http.StatusNotFound, "building not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handlePriority(w http.ResponseWriter, r *http.Request) {
	topN := DefaultTopN
	if v := r.URL.Query().Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "top_n must be a positive integer")
			return
		}
		topN = n
	}
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	top := run.Catalog.Top(topN)
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":    run.Result.RunID,
		"top_n":     topN,
		"count":     len(top),
		"buildings": top,
	})
}

func (h *Handler) handleThreshold(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("score")
	if v == "" {
		writeError(w, http.StatusBadRequest, "score is required")
		return
	}
	target, err := strconv.ParseFloat(v, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "score must be a number")
		return
	}
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	b, err := run.Catalog.FindByScoreThreshold(target)
	switch {
	case eris.Is(err, catalog.ErrEmpty):
		writeError(w, http.StatusNotFound, "run has no ranked buildings")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"target":   target,
		"building": b,
	})
}

func (h *Handler) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	page := run.Catalog.Query(filter)
	fc, err := building.FeatureCollection(page.Buildings)
	var data []byte
	if err == nil {
		data, err = fc.MarshalJSON()
	}
	if err != nil {
		zap.L().Error("encoding geojson", zap.String("run_id", run.Result.RunID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to encode features")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DefaultNeighbors is the neighbour count when k is not given.
const DefaultNeighbors = 5

// Explanation is a building's score broken down by factor.
type Explanation struct {
	ID       string                 `json:"id"`
	Rank     int                    `json:"rank"`
	Score    float64                `json:"score"`
	Category building.Category      `json:"category"`
	Factors  []scoring.FactorResult `json:"factors"`
}

// NeighborHit is a ranked building near the queried one.
type NeighborHit struct {
	ID       string            `json:"id"`
	Rank     int               `json:"rank"`
	Score    float64           `json:"score"`
	Category building.Category `json:"category"`
	Distance float64           `json:"distance_m"`
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	b, found := run.Catalog.Get(chi.URLParam(r, "buildingID"))
	if !found {
		writeError(w, http.StatusNotFound, "building not found")
		return
	}
	engine, err := scoring.NewEngine(run.Result.Weights)
	if err != nil {
		zap.L().Error("run has invalid weights", zap.String("run_id", run.Result.RunID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "run has invalid weights")
		return
	}
	writeJSON(w, http.StatusOK, Explanation{
		ID:       b.ID,
		Rank:     b.Rank,
		Score:    b.Score,
		Category: b.Category,
		Factors:  engine.Explain(b),
	})
}

// handleNeighbors lists the k ranked buildings whose centroids are closest
// to the queried building, excluding the building itself. k is capped at
// the number of other buildings in the run.
func (h *Handler) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	k := DefaultNeighbors
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	b, found := run.Catalog.Get(chi.URLParam(r, "buildingID"))
	if !found {
		writeError(w, http.StatusNotFound, "building not found")
		return
	}
	if others := run.Catalog.Len() - 1; k > others {
		k = others
	}

	hits := make([]NeighborHit, 0, k)
	for _, n := range run.Index.Nearest(b.Centroid, k+1) {
		if n.ID == b.ID || len(hits) == k {
			continue
		}
		nb, ok := run.Catalog.At(n.Ref)
		if !ok {
			continue
		}
		hits = append(hits, NeighborHit{
			ID:       nb.ID,
			Rank:     nb.Rank,
			Score:    nb.Score,
			Category: nb.Category,
			Distance: n.Distance,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        b.ID,
		"k":         k,
		"neighbors": hits,
	})
}
