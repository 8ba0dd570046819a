package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/solarrank/solarrank/internal/storage"
	"github.com/solarrank/solarrank/pkg/building"
)

func newImportCmd(a *app) *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import <footprints.geojson|footprints.shp>",
		Short: "Import building footprints into a snapshot",
		Long: `Reads building footprints from a GeoJSON FeatureCollection or an ESRI
shapefile, stores them as a snapshot and prints the snapshot ID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.path = args[0]
			return a.runImport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.snapshotID, "id", "", "Snapshot ID (default: random UUID)")
	cmd.Flags().StringVar(&opts.name, "name", "", "Human-readable snapshot name (default: file name)")
	cmd.Flags().StringVar(&opts.crs, "crs", "", "Coordinate reference system of the input, e.g. EPSG:28992")
	cmd.Flags().StringVar(&opts.format, "format", "auto", "Input format: auto, geojson or shapefile")
	cmd.Flags().StringVar(&opts.out, "out", "", "Also write the snapshot JSON to this file")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "Do not write the snapshot to storage")

	return cmd
}

type importOpts struct {
	path       string
	snapshotID string
	name       string
	crs        string
	format     string
	out        string
	noStore    bool
}

func (a *app) runImport(cmd *cobra.Command, opts importOpts) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	snap, rejections, err := readSnapshot(opts.path, opts.format, a.cfg.ImportOptions())
	if err != nil {
		return err
	}
	snap.ID = firstNonEmpty(opts.snapshotID, snap.ID)
	snap.Name = firstNonEmpty(opts.name, snap.Name)
	snap.CRS = opts.crs

	fmt.Fprintf(stderr, "Imported %d buildings from %s (%d rejected)\n",
		len(snap.Buildings), opts.path, len(rejections))
	for i, r := range rejections {
		if i == 10 {
			fmt.Fprintf(stderr, "  ... and %d more\n", len(rejections)-10)
			break
		}
		fmt.Fprintf(stderr, "  %s: %s\n", r.ID, r.Reason)
	}

	if opts.out != "" {
		if err := building.SaveSnapshot(opts.out, snap); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Snapshot written: %s\n", opts.out)
	}
	if !opts.noStore {
		if err := a.saveSnapshot(ctx, snap); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Snapshot stored: %s/%s\n", a.namespace, snap.ID)
	}

	fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
	return nil
}

func (a *app) saveSnapshot(ctx context.Context, snap *building.Snapshot) error {
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close(store) }()
	return storage.SaveSnapshot(ctx, store, a.namespace, snap)
}

// readSnapshot builds a new snapshot from a footprint file.
func readSnapshot(path, format string, opts building.ImportOptions) (*building.Snapshot, []building.Rejection, error) {
	if format == "" || format == "auto" {
		format = detectFormat(path)
	}

	var (
		buildings  []*building.Building
		rejections []building.Rejection
		err        error
	)
	switch format {
	case "geojson":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, nil, eris.Wrap(openErr, "opening footprints")
		}
		defer f.Close()
		buildings, rejections, err = building.ReadGeoJSON(f, opts)
	case "shapefile":
		buildings, rejections, err = building.ReadShapefile(path, opts)
	default:
		return nil, nil, eris.Errorf("unknown input format %q (want geojson or shapefile)", format)
	}
	if err != nil {
		return nil, nil, err
	}

	snap := &building.Snapshot{
		ID:        uuid.New().String(),
		Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Buildings: buildings,
		CreatedAt: time.Now().UTC(),
	}
	snap.ComputeStats()
	return snap, rejections, nil
}

func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return "shapefile"
	default:
		return "geojson"
	}
}
