package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

func (a *app) cellCmd() *cobra.Command {
	var level int
	cmd := &cobra.Command{
		Use:   "cell LON LAT",
		Short: "Describe the cell containing a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lon, lat, err := parseLonLat(args[0], args[1])
			if err != nil {
				return err
			}
			if level < 0 || level > s2.MaxLevel {
				return errors.Errorf("level must be in [0, %d], got %d", s2.MaxLevel, level)
			}
			id := s2.CellIDFromLonLat(lon, lat).Parent(level)
			lo, hi := id.Range()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "id:        %d\n", uint64(id))
			fmt.Fprintf(w, "token:     %s\n", id.ToToken())
			fmt.Fprintf(w, "cell:      %v\n", id)
			fmt.Fprintf(w, "face:      %d\n", id.Face())
			fmt.Fprintf(w, "level:     %d\n", id.Level())
			fmt.Fprintf(w, "range:     %s %s\n", lo.ToToken(), hi.ToToken())
			if id.Level() > 0 {
				fmt.Fprintf(w, "parent:    %s\n", id.ImmediateParent().ToToken())
			}
			if !id.IsLeaf() {
				fmt.Fprintf(w, "children: ")
				for _, c := range id.Children() {
					fmt.Fprintf(w, " %s", c.ToToken())
				}
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "neighbors:")
			for _, n := range id.EdgeNeighbors() {
				fmt.Fprintf(w, " %s", n.ToToken())
			}
			fmt.Fprintln(w)
			return nil
		},
	}
	cmd.Flags().IntVar(&level, "level", s2.MaxLevel, "Cell level.")
	return cmd
}

func parseLonLat(lonArg, latArg string) (lon, lat float64, err error) {
	if lon, err = strconv.ParseFloat(lonArg, 64); err != nil {
		return 0, 0, errors.Wrapf(err, "longitude %q", lonArg)
	}
	if lat, err = strconv.ParseFloat(latArg, 64); err != nil {
		return 0, 0, errors.Wrapf(err, "latitude %q", latArg)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, errors.Errorf("latitude %v out of range", lat)
	}
	return lon, lat, nil
}
