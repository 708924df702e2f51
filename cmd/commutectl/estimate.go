package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/service"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Route then predict a commute",
	Long:  "Asks the routing oracle for a route, feeds its features to the travel time model and prints the base/delay/total breakdown.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		req := service.CommuteRequest{Origin: from, Destination: to}
		if cmd.Flags().Changed("speed") {
			speed, _ := cmd.Flags().GetFloat64("speed")
			req.SpeedMph = &speed
		}
		if cmd.Flags().Changed("congestion") {
			level, _ := cmd.Flags().GetFloat64("congestion")
			req.CongestionLevel = &level
		}
		if depart, _ := cmd.Flags().GetString("depart"); depart != "" {
			t, err := time.Parse(time.RFC3339, depart)
			if err != nil {
				return err
			}
			req.DepartAt = t
		}

		c := *cfg
		if demo, _ := cmd.Flags().GetBool("demo"); demo {
			c.ML.ServiceURL = ""
			c.Directions.APIKey = ""
		}
		collab := service.NewCollaborators(&c, nil)
		svc := service.NewCommuteService(collab.Oracle, collab.Predictor, nil, service.CommuteDefaultsFrom(c.Commute), nil)

		res, _, err := svc.Estimate(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "route:     %.2f mi heading %.1f° (%s)\n", res.Summary.LengthMiles, res.Summary.HeadingDeg, res.Summary.Cardinal)
		fmt.Fprintf(out, "base:      %s\n", res.Formatted.Base)
		fmt.Fprintf(out, "delay:     %s\n", res.Formatted.Delay)
		fmt.Fprintf(out, "total:     %s\n", res.Formatted.Total)
		fmt.Fprintf(out, "reference: %s\n", domain.FormatMinutes(res.Summary.ReferenceMinutes))
		return nil
	},
}

func init() {
	estimateCmd.Flags().String("from", "", "origin address or \"lat,lng\"")
	estimateCmd.Flags().String("to", "", "destination address or \"lat,lng\"")
	estimateCmd.Flags().Float64("speed", 0, "reference speed in mph (default from config)")
	estimateCmd.Flags().Float64("congestion", 0, "congestion level 0-4 (default from config)")
	estimateCmd.Flags().String("depart", "", "departure time, RFC 3339 (default now)")
	estimateCmd.Flags().Bool("demo", false, "use straight-line routing and the mock predictor")
	_ = estimateCmd.MarkFlagRequired("from")
	_ = estimateCmd.MarkFlagRequired("to")
}
