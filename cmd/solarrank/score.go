package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/solarrank/solarrank/internal/storage"
	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/scoring"
	"github.com/solarrank/solarrank/pkg/surface"
)

func newScoreCmd(a *app) *cobra.Command {
	var opts scoreOpts

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score and rank every building of a snapshot",
		Long: `Runs the suitability pipeline: footprint geometry, neighbour shading, annual
yield and economics, population normalization, weighted scoring and ranking.
The run is stored so that top, threshold, diff and serve can query it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.weightSetChanged = cmd.Flags().Changed("weights")
			opts.workersChanged = cmd.Flags().Changed("workers")
			opts.sunChanged = cmd.Flags().Changed("sun-elevation")
			return a.runScore(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.snapshotID, "snapshot", "", "ID of a stored snapshot")
	cmd.Flags().StringVar(&opts.snapshotFile, "snapshot-file", "", "Path to a snapshot JSON file")
	cmd.Flags().StringVar(&opts.input, "input", "", "Path to a GeoJSON or shapefile of footprints to import and score")
	cmd.Flags().StringVar(&opts.weightSet, "weights", "", "Weight set name (see 'solarrank config')")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Worker goroutines (default: config, then GOMAXPROCS)")
	cmd.Flags().Float64Var(&opts.sunElevation, "sun-elevation", 0, "Sun elevation in degrees used to derive shadow length")
	cmd.Flags().StringVar(&opts.outputFmt, "output", "text", "Output format: text, json, geojson, markdown or xlsx")
	cmd.Flags().IntVar(&opts.topN, "top", 20, "Buildings to list in text, markdown and geojson output (0 = all)")
	cmd.Flags().StringVar(&opts.outFile, "out", "", "Write the rendered output to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Do not store the run")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "snapshot-file", "input")
	cmd.MarkFlagsOneRequired("snapshot", "snapshot-file", "input")

	return cmd
}

type scoreOpts struct {
	snapshotID   string
	snapshotFile string
	input        string
	weightSet    string
	workers      int
	sunElevation float64
	outputFmt    string
	topN         int
	outFile      string
	noSave       bool

	weightSetChanged bool
	workersChanged   bool
	sunChanged       bool
}

func (a *app) runScore(cmd *cobra.Command, opts scoreOpts) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	renderer, err := surface.ForFormat(opts.outputFmt, opts.topN)
	if err != nil {
		return err
	}
	if _, isXLSX := renderer.(*surface.XLSXRenderer); isXLSX && opts.outFile == "" {
		return eris.New("xlsx output needs --out")
	}

	cfg := *a.cfg
	if opts.weightSetChanged {
		cfg.Scoring.WeightSet = opts.weightSet
		cfg.Scoring.Weights = scoring.Weights{}
	}
	if opts.workersChanged {
		cfg.Engine.Workers = opts.workers
	}
	if opts.sunChanged {
		cfg.Engine.SunElevation = opts.sunElevation
	}
	pipeOpts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	p, err := pipeline.New(pipeOpts)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Step 1/3: Loading snapshot...\n")
	snap, err := a.loadScoreInput(ctx, stderr, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "  %s: %d buildings\n", snap.ID, len(snap.Buildings))

	fmt.Fprintf(stderr, "Step 2/3: Scoring with weight set %q...\n", pipeOpts.WeightSet)
	res, err := p.Run(ctx, snap)
	if err != nil {
		return eris.Wrap(err, "scoring")
	}
	fmt.Fprintf(stderr, "  %d ranked, %d rejected in %dms\n",
		res.Stats.ScoredCount, res.Stats.RejectedCount, res.Stats.DurationMs)

	if opts.noSave {
		fmt.Fprintf(stderr, "Step 3/3: Not storing run (--no-save)\n")
	} else {
		fmt.Fprintf(stderr, "Step 3/3: Storing run...\n")
		store, err := a.store(ctx)
		if err != nil {
			return err
		}
		err = storage.SaveRun(ctx, store, a.namespace, res)
		_ = storage.Close(store)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "  Run saved: %s/%s\n", a.namespace, res.RunID)
	}

	return render(cmd.OutOrStdout(), opts.outFile, func(w io.Writer) error {
		return renderer.Render(w, res)
	})
}

// loadScoreInput resolves the snapshot named by exactly one of the input flags.
func (a *app) loadScoreInput(ctx context.Context, stderr io.Writer, opts scoreOpts) (*building.Snapshot, error) {
	switch {
	case opts.snapshotFile != "":
		return building.LoadSnapshot(opts.snapshotFile)
	case opts.input != "":
		snap, rejections, err := readSnapshot(opts.input, "auto", a.cfg.ImportOptions())
		if err != nil {
			return nil, err
		}
		if len(rejections) > 0 {
			fmt.Fprintf(stderr, "  %d features could not be imported\n", len(rejections))
		}
		return snap, nil
	default:
		store, err := a.store(ctx)
		if err != nil {
			return nil, err
		}
		defer func() { _ = storage.Close(store) }()
		return storage.LoadSnapshot(ctx, store, a.namespace, opts.snapshotID)
	}
}

// render writes through fn to outFile, or to stdout when outFile is empty.
func render(stdout io.Writer, outFile string, fn func(io.Writer) error) error {
	if outFile == "" {
		return fn(stdout)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return eris.Wrap(err, "creating output file")
	}
	if err := fn(f); err != nil {
		f.Close()
		return eris.Wrap(err, "rendering")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "closing output file")
	}
	fmt.Fprintf(os.Stderr, "Output written: %s\n", outFile)
	return nil
}
