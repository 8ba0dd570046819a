package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/solarrank/solarrank/internal/storage"
	"github.com/solarrank/solarrank/pkg/building"
	"github.com/solarrank/solarrank/pkg/catalog"
	"github.com/solarrank/solarrank/pkg/pipeline"
	"github.com/solarrank/solarrank/pkg/surface"
)

func newTopCmd(a *app) *cobra.Command {
	var (
		n         int
		category  string
		minScore  float64
		outputFmt string
		outFile   string
	)

	cmd := &cobra.Command{
		Use:   "top <run-id>",
		Short: "List the highest-priority buildings of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.loadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			filter := catalog.Filter{Limit: n}
			if cmd.Flags().Changed("min-score") {
				filter.MinScore = &minScore
			}
			if category != "" {
				c, ok := building.ParseCategory(category)
				if !ok {
					return eris.Errorf("unknown category %q", category)
				}
				filter.Category = c
			}

			view := *res
			view.Buildings = res.Catalog().Query(filter).Buildings
			renderer, err := surface.ForFormat(outputFmt, 0)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outFile, func(w io.Writer) error {
				return renderer.Render(w, &view)
			})
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 10, "Number of buildings to list")
	cmd.Flags().StringVar(&category, "category", "", "Only list buildings in this category")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Only list buildings scoring at least this much")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text, json, geojson, markdown or xlsx")
	cmd.Flags().StringVar(&outFile, "out", "", "Write the output to this file instead of stdout")

	return cmd
}

func newThresholdCmd(a *app) *cobra.Command {
	var (
		score     float64
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "threshold <run-id>",
		Short: "Find the building whose score is closest to a target",
		Long: `Binary-searches the ranked catalog for the building whose score is closest
to --score. Ties go to the higher-ranked building, so the answer is also the
cut-off for "every building at least this good".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.loadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := res.Catalog().FindByScoreThreshold(score)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFmt == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			fmt.Fprintf(out, "Closest to %.1f: %s (rank %d of %d, score %.1f, %s)\n",
				score, b.ID, b.Rank, len(res.Buildings), b.Score, b.Category)
			fmt.Fprintf(out, "%d buildings score at least %.1f\n", b.Rank, b.Score)
			return nil
		},
	}

	cmd.Flags().Float64Var(&score, "score", 0, "Target score (required)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func newDiffCmd(a *app) *cobra.Command {
	var (
		maxMoves  int
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "diff <base-run-id> <head-run-id>",
		Short: "Compare the rankings of two runs",
		Long: `Compares two runs by building ID, e.g. the same snapshot under two weight
sets, or two snapshots of the same area. Reports added and removed buildings,
rank movements and category changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			base, err := a.loadRun(ctx, args[0])
			if err != nil {
				return err
			}
			head, err := a.loadRun(ctx, args[1])
			if err != nil {
				return err
			}

			cmp := catalog.Compare(base.Catalog(), head.Catalog())
			cmp.BaseRunID, cmp.HeadRunID = base.RunID, head.RunID

			out := cmd.OutOrStdout()
			switch strings.ToLower(outputFmt) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cmp)
			case "text", "":
				return surface.RenderComparison(out, cmp, maxMoves)
			default:
				return eris.Errorf("unknown format %q (want text or json)", outputFmt)
			}
		},
	}

	cmd.Flags().IntVar(&maxMoves, "max", 20, "Rank movements to list (0 = all)")
	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")

	return cmd
}

// loadRun reads a run from storage, or from disk when ref names a file.
func (a *app) loadRun(ctx context.Context, ref string) (*pipeline.Result, error) {
	if strings.HasSuffix(ref, ".json") {
		return pipeline.LoadResult(ref)
	}
	store, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = storage.Close(store) }()
	return storage.LoadRun(ctx, store, a.namespace, ref)
}
