package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solarrank/solarrank/pkg/scoring"
)

func newConfigCmd(a *app) *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration and the available weight sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.configPath != "" {
				fmt.Fprintf(out, "# config file: %s\n", a.configPath)
			} else {
				fmt.Fprintln(out, "# config file: none (defaults and SOLARRANK_* environment)")
			}

			cfg := a.cfg
			if !showSecrets {
				cfg = cfg.Redacted()
			}
			if err := cfg.Dump(out); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "# weight sets (energy / orientation / shading / area):")
			for _, name := range scoring.WeightSetNames() {
				w, _ := scoring.LookupWeightSet(name)
				marker := " "
				if strings.EqualFold(name, a.cfg.Scoring.WeightSet) && a.cfg.Scoring.Weights.IsZero() {
					marker = "*"
				}
				fmt.Fprintf(out, "# %s %-12s %.2f / %.2f / %.2f / %.2f\n",
					marker, name, w.Energy, w.Orientation, w.Shading, w.Area)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print credentials instead of masking them")

	return cmd
}
