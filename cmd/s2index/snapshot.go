package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Open-S2/gis-tools-sub000/index/store"
)

func (a *app) snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot OUT",
		Short: "Freeze the store into a memory mapped snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			out := args[0]
			x, b, err := a.openIndex()
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, b.Close()) }()

			if err := store.WriteSnapshot(cmd.Context(), out, x, labelCodec); err != nil {
				return err
			}
			fi, err := os.Stat(out)
			if err != nil {
				return errors.Wrap(err, "stat snapshot")
			}
			n, err := x.Len(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("wrote snapshot", zap.String("path", out), zap.Int("entries", n), zap.Int64("bytes", fi.Size()))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s points to %s (%s)\n",
				humanize.Comma(int64(n)), out, humanize.Bytes(uint64(fi.Size())))
			return nil
		},
	}
}
