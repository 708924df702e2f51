package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/smartcity/commute/internal/domain"
	"github.com/smartcity/commute/internal/geo"
	"github.com/smartcity/commute/pkg/utils"
)

var bearingCmd = &cobra.Command{
	Use:   "bearing <lat1> <lng1> <lat2> <lng2>",
	Short: "Print the initial bearing and cardinal direction between two points",
	Args:  cobra.ExactArgs(4),
	// Longitudes west of Greenwich are negative; flag parsing would read them as shorthands.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var v [4]float64
		for i, a := range args {
			f, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return eris.Wrapf(err, "bearing: argument %d", i+1)
			}
			v[i] = f
		}

		p1 := domain.GeoPoint{Lat: v[0], Lng: v[1]}
		p2 := domain.GeoPoint{Lat: v[2], Lng: v[3]}
		deg, card := geo.Heading(p1, p2)
		km := utils.Haversine(p1.Lat, p1.Lng, p2.Lat, p2.Lng)

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.1f° %s (code %d), %.2f km\n", deg, card, card.Code(), km)
		return err
	},
}
