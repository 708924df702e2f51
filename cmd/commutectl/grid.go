package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/geo"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Generate the heatmap sampling grid",
	Long:  "Prints the number of lattice points for a bounding box and step, or the points themselves with --json.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var b domain.Bounds
		b.North, _ = cmd.Flags().GetFloat64("north")
		b.South, _ = cmd.Flags().GetFloat64("south")
		b.East, _ = cmd.Flags().GetFloat64("east")
		b.West, _ = cmd.Flags().GetFloat64("west")
		step, _ := cmd.Flags().GetFloat64("step")
		asJSON, _ := cmd.Flags().GetBool("json")

		points, err := geo.GenerateGrid(b, step)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(points)
		}
		_, err = fmt.Fprintf(out, "%d points\n", len(points))
		return err
	},
}

func init() {
	b := domain.ChicagoCoreBounds
	gridCmd.Flags().Float64("north", b.North, "northern latitude")
	gridCmd.Flags().Float64("south", b.South, "southern latitude")
	gridCmd.Flags().Float64("east", b.East, "eastern longitude")
	gridCmd.Flags().Float64("west", b.West, "western longitude")
	gridCmd.Flags().Float64("step", 0.006, "lattice step in degrees")
	gridCmd.Flags().Bool("json", false, "print the points as JSON")
}
