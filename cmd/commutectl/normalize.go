package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/smartcity/commute/internal/heatmap"
)

var normalizeCmd = &cobra.Command{
	Use:     "normalize [flags] [--] weights...",
	Short:   "Normalize raw delay weights into heatmap intensities",
	Example: "  commutectl normalize --gamma 0.5 -- -1.5 2 3 100",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := heatmap.DefaultNormalizeOptions()
		opts.LowPct, _ = cmd.Flags().GetFloat64("low")
		opts.HighPct, _ = cmd.Flags().GetFloat64("high")
		opts.Floor, _ = cmd.Flags().GetFloat64("floor")
		opts.Gamma, _ = cmd.Flags().GetFloat64("gamma")
		opts.MaxScale, _ = cmd.Flags().GetFloat64("max-scale")
		if err := opts.Validate(); err != nil {
			return err
		}

		raw := make([]float64, len(args))
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return eris.Wrapf(err, "normalize: weight %q", a)
			}
			raw[i] = v
		}

		out := cmd.OutOrStdout()
		for i, v := range heatmap.Normalize(raw, opts) {
			if _, err := fmt.Fprintf(out, "%g\t%.4f\n", raw[i], v); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	// Flags stop at the first weight; put "--" before a leading negative weight.
	normalizeCmd.Flags().SetInterspersed(false)

	d := heatmap.DefaultNormalizeOptions()
	normalizeCmd.Flags().Float64("low", d.LowPct, "lower percentile")
	normalizeCmd.Flags().Float64("high", d.HighPct, "upper percentile")
	normalizeCmd.Flags().Float64("floor", d.Floor, "minimum normalized value before the gamma stretch")
	normalizeCmd.Flags().Float64("gamma", d.Gamma, "gamma exponent")
	normalizeCmd.Flags().Float64("max-scale", d.MaxScale, "intensity of the top of the scale")
}
