// Package main provides the solarrank CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solarrank/solarrank/internal/storage"
	"github.com/solarrank/solarrank/pkg/config"
)

var version = "dev"

// app carries what the persistent pre-run resolved for every command.
type app struct {
	configPath string
	namespace  string
	cfg        *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	_ = zap.L().Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "solarrank",
		Short: "Rank rooftops by solar suitability",
		Long: `Solarrank imports building footprints, estimates shading from neighbouring
buildings, computes annual solar yield and payback, and ranks every roof by a
weighted suitability score.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default: search for .solarrank/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.namespace, "namespace", "", "Storage namespace (default: storage.namespace from config)")

	rootCmd.AddCommand(
		newImportCmd(a),
		newScoreCmd(a),
		newTopCmd(a),
		newThresholdCmd(a),
		newDiffCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// init loads configuration and installs the global logger.
func (a *app) init() error {
	path := a.configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(wd)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	a.cfg = cfg
	a.configPath = path
	a.namespace = firstNonEmpty(a.namespace, cfg.Storage.Namespace, config.DefaultNamespace)
	return nil
}

func (a *app) store(ctx context.Context) (storage.Client, error) {
	return storage.New(ctx, a.cfg.Storage)
}

// firstNonEmpty returns the first non-empty string from the arguments.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
