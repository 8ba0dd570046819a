package scoring

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/solarrank/solarrank/pkg/building"
)

// Factor is the interface that all suitability factors implement.
type Factor interface {
	// Key returns the machine-readable factor identifier.
	Key() string
	// Name returns the human-readable factor name.
	Name() string
	// Value returns the factor for b in [0,1], higher is better.
	Value(b *building.Building, stats PopulationStats) float64
}

// Engine applies a validated weight set to the configured factors.
type Engine struct {
	weights Weights
	factors []Factor
	workers int
}

// NewEngine creates a scoring engine. With no factors the default four are
// used. Weights are validated here so a bad set fails before any scoring.
func NewEngine(w Weights, factors ...Factor) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if len(factors) == 0 {
		factors = DefaultFactors()
	}
	return &Engine{weights: w, factors: factors, workers: runtime.GOMAXPROCS(0)}, nil
}

// WithWorkers bounds the parallelism of Score. n <= 0 keeps the default.
func (e *Engine) WithWorkers(n int) *Engine {
	if n > 0 {
		e.workers = n
	}
	return e
}

// ScoreOne writes Factors, Score and Category on b. stats must come from
// Aggregate over the whole population b belongs to.
func (e *Engine) ScoreOne(b *building.Building, stats PopulationStats) {
	factors := make(map[string]float64, len(e.factors))
	var total float64
	for _, f := range e.factors {
		v := clampUnit(f.Value(b, stats))
		factors[f.Key()] = v
		total += e.weights.Of(f.Key()) * v
	}

	score := 100 * total
	switch {
	case score < 0:
		score = 0
	case score > 100:
		score = 100
	}

	b.Factors = factors
	b.Score = score
	b.Category = Classify(score)
}

// Score runs ScoreOne over buildings on a bounded worker pool. Each building
// is written by exactly one worker.
func (e *Engine) Score(ctx context.Context, buildings []*building.Building, stats PopulationStats) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, b := range buildings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.ScoreOne(b, stats)
			return nil
		})
	}
	return g.Wait()
}

// Explain breaks a scored building's score down by factor.
func (e *Engine) Explain(b *building.Building) []FactorResult {
	out := make([]FactorResult, 0, len(e.factors))
	for _, f := range e.factors {
		v := b.Factors[f.Key()]
		w := e.weights.Of(f.Key())
		out = append(out, FactorResult{
			Key:          f.Key(),
			Name:         f.Name(),
			Value:        v,
			Weight:       w,
			Contribution: 100 * w * v,
		})
	}
	return out
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
