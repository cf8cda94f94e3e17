package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

type labelledPoint struct {
	point s2.Point
	label string
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load lon,lat,label lines from stdin into the store",
		Long: `
Reads CSV records of the form lon,lat[,label] from stdin, with coordinates
in degrees, and appends them to the Badger store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			x, b, err := a.openIndex()
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, b.Close()) }()

			start := time.Now()
			points := make(chan labelledPoint, 1024)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				defer close(points)
				return readPoints(ctx, cmd.InOrStdin(), points)
			})
			n := 0
			g.Go(func() error {
				for p := range points {
					if err := x.Insert(ctx, p.point, p.label); err != nil {
						return err
					}
					n++
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}
			a.logger.Info("loaded points", zap.Int("count", n), zap.Duration("took", time.Since(start)))
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d points\n", n)
			return nil
		},
	}
}

// readPoints parses records from r and sends them on out until r is
// exhausted or ctx is done.
func readPoints(ctx context.Context, r io.Reader, out chan<- labelledPoint) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read points")
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 2 {
			return errors.Errorf("line %d: want lon,lat[,label], got %d fields", line, len(rec))
		}
		lon, lat, err := parseLonLat(rec[0], rec[1])
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		p := labelledPoint{point: s2.PointFromLonLat(lon, lat)}
		if len(rec) > 2 {
			p.label = rec[2]
		}
		select {
		case out <- p:
		case <-ctx.Done():
			return nil
		}
	}
}
