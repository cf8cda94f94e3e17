package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Open-S2/gis-tools-sub000/index"
	"github.com/Open-S2/gis-tools-sub000/s2"
)

func (a *app) radiusCmd() *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "radius LON LAT DEGREES",
		Short: "List the points within an angular radius of a location",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			lon, lat, err := parseLonLat(args[0], args[1])
			if err != nil {
				return err
			}
			deg, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.Wrapf(err, "radius %q", args[2])
			}
			x, closer, err := a.openQueryIndex(snapshot)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, closer()) }()

			res, err := x.SearchRadiusLonLat(cmd.Context(), lon, lat, degrees(deg), a.searchOptions()...)
			if err != nil {
				return err
			}
			printShapes(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Query this snapshot file instead of the store.")
	return cmd
}

func (a *app) rangeCmd() *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "range LOW HIGH",
		Short: "List the points whose cells lie between two cell tokens",
		Long: `
Lists the points whose leaf cells lie in [LOW, HIGH]. Non-leaf tokens are
widened to the leaf range they cover.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			low, err := parseToken(args[0])
			if err != nil {
				return err
			}
			high, err := parseToken(args[1])
			if err != nil {
				return err
			}
			x, closer, err := a.openQueryIndex(snapshot)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, closer()) }()

			res, err := x.SearchRange(cmd.Context(), low.RangeMin(), high.RangeMax(), a.searchOptions()...)
			if err != nil {
				return err
			}
			printShapes(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Query this snapshot file instead of the store.")
	return cmd
}

func (a *app) coverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cover LON LAT DEGREES",
		Short: "Print the cells covering a spherical cap",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lon, lat, err := parseLonLat(args[0], args[1])
			if err != nil {
				return err
			}
			deg, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.Wrapf(err, "radius %q", args[2])
			}
			c := s2.CapFromChordAngle(s2.PointFromLonLat(lon, lat), degrees(deg), struct{}{})
			cells := c.IntersectingCells()
			if rc := a.coverer(); rc != nil {
				cells = rc.CellCovering(c)
			}
			w := cmd.OutOrStdout()
			for _, id := range cells {
				fmt.Fprintf(w, "%s\t%d\t%v\n", id.ToToken(), id.Level(), id)
			}
			return nil
		},
	}
}

func parseToken(tok string) (s2.CellID, error) {
	id := s2.CellIDFromToken(tok)
	if !id.IsValid() {
		return 0, errors.Errorf("invalid cell token %q", tok)
	}
	return id, nil
}

func printShapes(w io.Writer, res []index.PointShape[string]) {
	for _, s := range res {
		lon, lat := s.LonLat()
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%s\n", s.Cell.ToToken(), lon, lat, s.Data)
	}
}
