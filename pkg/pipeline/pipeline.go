// Package pipeline runs the suitability engine over one snapshot: geometry,
// spatial index, shading and energy (pass 1), the normalization barrier,
// scoring (pass 2), and ranking.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/catalog"
	"github.com/solarrank/solarrank/pkg/energy"
	"github.com/solarrank/solarrank/pkg/scoring"
	"github.com/solarrank/solarrank/pkg/shading"
	"github.com/solarrank/solarrank/pkg/spatial"
)

// Options configures a pipeline.
type Options struct {
	WeightSet  string // informational; Weights is what is applied
	Weights    scoring.Weights
	Shading    shading.Model
	Efficiency float64
	Economics  energy.Economics
	Workers    int  // <= 0 means GOMAXPROCS
	Verify     bool // cross-check the catalog against the reference sort
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		WeightSet:  scoring.DefaultWeightSet,
		Weights:    scoring.DefaultWeights(),
		Shading:    shading.Default(),
		Efficiency: energy.DefaultEfficiency,
		Economics:  energy.DefaultEconomics(),
	}
}

// Pipeline scores snapshots. It holds no per-run state and may run several
// snapshots concurrently.
type Pipeline struct {
	opts   Options
	scorer *scoring.Engine
}

// New validates opts and builds a pipeline. An invalid weight set is
// reported here, before any building is touched.
func New(opts Options) (*Pipeline, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	scorer, err := scoring.NewEngine(opts.Weights)
	if err != nil {
		return nil, err
	}
	if err := opts.Shading.Validate(); err != nil {
		return nil, eris.Wrap(err, "shading model")
	}
	if opts.Efficiency <= 0 || opts.Efficiency > 1 {
		return nil, eris.Errorf("panel efficiency must be in (0,1], got %g", opts.Efficiency)
	}
	return &Pipeline{opts: opts, scorer: scorer.WithWorkers(opts.Workers)}, nil
}

// Run scores a snapshot. The snapshot itself is not modified: buildings are
// copied before derived fields are attached. Per-building failures become
// rejections; only cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, snap *building.Snapshot) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("snapshot", snap.ID))

	res := &Result{
		RunID:      uuid.New().String(),
		SnapshotID: snap.ID,
		CreatedAt:  start.UTC(),
		WeightSet:  p.opts.WeightSet,
		Weights:    p.opts.Weights,
		Params: Params{
			SearchRadius: p.opts.Shading.SearchRadius,
			ShadowLength: p.opts.Shading.ShadowLength,
			HeightScale:  p.opts.Shading.HeightScale,
			SizeCurve:    p.opts.Shading.Curve.Name(),
			Efficiency:   p.opts.Efficiency,
			Economics:    p.opts.Economics,
		},
		Buildings:  []*building.Building{},
		Rejections: []building.Rejection{},
	}
	res.Stats.InputCount = len(snap.Buildings)

	pop, rejected := dedupe(snap.Buildings)
	res.Rejections = append(res.Rejections, rejected...)

	// Geometry.
	stageStart := time.Now()
	errs := make([]error, len(pop))
	if err := p.each(ctx, pop, func(i int, b *building.Building) {
		errs[i] = building.Derive(b)
	}); err != nil {
		return nil, err
	}
	pop, rejected = partition(pop, errs, building.StageGeometry)
	res.Rejections = append(res.Rejections, rejected...)
	log.Info("geometry derived",
		zap.Int("accepted", len(pop)),
		zap.Int("rejected", len(rejected)),
		zap.Duration("took", time.Since(stageStart)),
	)

	// Spatial index over every building with valid geometry. Buildings
	// rejected later still cast shade.
	entries := make([]spatial.Entry, len(pop))
	for i, b := range pop {
		entries[i] = spatial.Entry{ID: b.ID, Ref: i, Point: b.Centroid}
	}
	idx := spatial.Build(entries)
	res.Stats.IndexDepth = idx.Depth()

	// Pass 1: shading, energy, economics. Neighbour fields read here
	// (ID, height, roof area) are never written in this pass.
	stageStart = time.Now()
	errs = make([]error, len(pop))
	if err := p.each(ctx, pop, func(i int, b *building.Building) {
		errs[i] = p.yield(b, p.opts.Shading.Factor(b, pop, idx).Factor)
	}); err != nil {
		return nil, err
	}
	scored, rejected := partition(pop, errs, building.StageEnergy)
	res.Rejections = append(res.Rejections, rejected...)
	for _, b := range scored {
		if b.HeightClamped() {
			res.Stats.HeightImputed++
		}
	}
	log.Info("shading and energy computed",
		zap.Int("accepted", len(scored)),
		zap.Int("rejected", len(rejected)),
		zap.Int("height_imputed", res.Stats.HeightImputed),
		zap.Duration("took", time.Since(stageStart)),
	)

	// Barrier: normalization needs the whole population.
	res.Population = scoring.Aggregate(scored)

	// Pass 2.
	stageStart = time.Now()
	if err := p.scorer.Score(ctx, scored, res.Population); err != nil {
		return nil, eris.Wrap(err, "scoring")
	}

	cat := catalog.New(scored)
	if p.opts.Verify {
		if err := catalog.Verify(cat); err != nil {
			return nil, err
		}
	}
	log.Info("ranked",
		zap.Int("buildings", cat.Len()),
		zap.Duration("took", time.Since(stageStart)),
	)

	sort.SliceStable(res.Rejections, func(i, j int) bool {
		return res.Rejections[i].ID < res.Rejections[j].ID
	})
	for _, r := range res.Rejections {
		log.Debug("building rejected",
			zap.String("id", r.ID),
			zap.String("stage", r.Stage),
			zap.String("reason", r.Reason),
		)
	}

	res.Buildings = cat.All()
	res.Summary = cat.Summary()
	res.Stats.ScoredCount = cat.Len()
	res.Stats.RejectedCount = len(res.Rejections)
	res.Stats.DurationMs = time.Since(start).Milliseconds()
	return res, nil
}

// yield attaches energy and economics to b.
func (p *Pipeline) yield(b *building.Building, shade float64) error {
	b.ShadingFactor = shade

	e, err := energy.AnnualYield(b.RoofArea, b.Irradiance, p.opts.Efficiency, shade)
	if err != nil {
		return err
	}
	b.EnergyKWh = e
	b.AnnualSavings = p.opts.Economics.AnnualSavings(e)

	years, err := p.opts.Economics.Payback(e, b.RoofArea)
	switch {
	case err == nil:
		b.PaybackYears = &years
	case eris.Is(err, energy.ErrPaybackUndefined):
		b.PaybackYears = nil
	default:
		return err
	}

	roi, err := p.opts.Economics.ROI(e, b.RoofArea)
	switch {
	case err == nil:
		b.ROIPercent = &roi
	case eris.Is(err, energy.ErrROIUndefined):
		b.ROIPercent = nil
	default:
		return err
	}
	return nil
}

// each runs fn for every building on the worker pool. fn must only write to
// its own building and index.
func (p *Pipeline) each(ctx context.Context, pop []*building.Building, fn func(int, *building.Building)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, b := range pop {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i, b)
			return nil
		})
	}
	return g.Wait()
}

// dedupe copies the input population, keeping the first building for each
// ID and rejecting later ones.
func dedupe(in []*building.Building) ([]*building.Building, []building.Rejection) {
	seen := make(map[string]bool, len(in))
	out := make([]*building.Building, 0, len(in))
	var rejected []building.Rejection
	for _, b := range in {
		if b == nil {
			continue
		}
		if seen[b.ID] {
			rejected = append(rejected, building.Rejection{
				ID:     b.ID,
				Stage:  building.StageIdentity,
				Reason: building.ErrDuplicateID.Error(),
			})
			continue
		}
		seen[b.ID] = true
		out = append(out, clone(b))
	}
	return out, rejected
}

// clone copies the input fields of b. Derived fields start from zero so a
// snapshot that was already scored is rescored from scratch.
func clone(b *building.Building) *building.Building {
	c := &building.Building{
		ID:         b.ID,
		Footprint:  append([]building.Point(nil), b.Footprint...),
		Irradiance: b.Irradiance,
		RoofType:   b.RoofType,
	}
	if b.Height != nil {
		c.Height = building.Float(*b.Height)
	}
	return c
}

// partition splits pop by errs, turning each error into a rejection.
func partition(pop []*building.Building, errs []error, stage string) ([]*building.Building, []building.Rejection) {
	ok := make([]*building.Building, 0, len(pop))
	var rejected []building.Rejection
	for i, b := range pop {
		if errs[i] != nil {
			rejected = append(rejected, building.Rejection{ID: b.ID, Stage: stage, Reason: errs[i].Error()})
			continue
		}
		ok = append(ok, b)
	}
	return ok, rejected
}
