package main

import (
	"strings"

	"github.com/golang/geo/s1"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Open-S2/gis-tools-sub000/index"
	"github.com/Open-S2/gis-tools-sub000/index/store"
	"github.com/Open-S2/gis-tools-sub000/s2"
)

// app holds what every subcommand shares: configuration and the logger
// built from it.
type app struct {
	conf   *viper.Viper
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{conf: viper.New(), logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "s2index",
		Short: "Build and query S2 point indexes",
		Long: `
s2index stores labelled points keyed by their S2 leaf cell in a Badger
database, answers cell range and radius queries over them, and freezes
them into memory mapped snapshots.

Configuration is read from flags, then S2INDEX_* environment variables,
then the file named by --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Configuration file. Flags and environment variables take precedence.")
	flags.String("dir", "s2index.db", "Badger directory holding the point store.")
	flags.String("log-level", "info", "Log level: debug, info, warn or error.")
	flags.Int("max-results", 0, "Cap on the entries scanned per covering cell. Zero means no cap.")
	flags.Int64("cache-size", 1<<16, "Covering cache size in cells.")
	flags.Int("max-cells", 0, "Cover query caps with at most about this many cells. Zero covers depth first.")

	for key, flag := range map[string]string{
		"config":             "config",
		"dir":                "dir",
		"log.level":          "log-level",
		"max_results":        "max-results",
		"cache.size":         "cache-size",
		"covering.max_cells": "max-cells",
	} {
		_ = a.conf.BindPFlag(key, flags.Lookup(flag))
	}
	a.conf.SetEnvPrefix("S2INDEX")
	a.conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.conf.AutomaticEnv()

	root.AddCommand(
		a.cellCmd(),
		a.loadCmd(),
		a.radiusCmd(),
		a.rangeCmd(),
		a.snapshotCmd(),
		a.coverCmd(),
	)
	return root
}

// init reads the config file, if any, and builds the logger.
func (a *app) init() error {
	if cfg := a.conf.GetString("config"); cfg != "" {
		a.conf.SetConfigFile(cfg)
		if err := a.conf.ReadInConfig(); err != nil {
			return errors.Wrap(err, "reading config")
		}
	}
	lvl, err := zapcore.ParseLevel(a.conf.GetString("log.level"))
	if err != nil {
		return errors.Wrap(err, "log.level")
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zc.Build()
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	a.logger = logger
	return nil
}

// labelCodec encodes point labels.
var labelCodec = index.JSONCodec[string]{}

// openIndex opens the Badger store under the configured directory and
// returns an index over it. The caller closes the store.
func (a *app) openIndex() (*index.PointIndex[string], *store.Badger[string], error) {
	dir := a.conf.GetString("dir")
	b, err := store.OpenBadger[string](dir, labelCodec, store.WithLogger(a.logger))
	if err != nil {
		return nil, nil, err
	}
	return index.NewWithStore[string](b, index.WithLogger(a.logger)), b, nil
}

// openQueryIndex returns an index over the snapshot at path, or over the
// Badger store when path is empty, with the configured covering cache.
func (a *app) openQueryIndex(path string) (x *index.PointIndex[string], closer func() error, err error) {
	var (
		s      index.Store[string]
		closeS func() error
	)
	if path != "" {
		snap, err := store.OpenSnapshot[string](path, labelCodec)
		if err != nil {
			return nil, nil, err
		}
		s, closeS = snap, snap.Close
	} else {
		b, err := store.OpenBadger[string](a.conf.GetString("dir"), labelCodec, store.WithLogger(a.logger))
		if err != nil {
			return nil, nil, err
		}
		s, closeS = b, b.Close
	}
	cache, err := index.NewCoveringCache(a.conf.GetInt64("cache.size"))
	if err != nil {
		return nil, nil, multierr.Append(err, closeS())
	}
	closer = func() error {
		cache.Close()
		return closeS()
	}
	opts := []index.Option{index.WithLogger(a.logger), index.WithCoveringCache(cache)}
	if rc := a.coverer(); rc != nil {
		opts = append(opts, index.WithRegionCoverer(rc))
	}
	return index.NewWithStore(s, opts...), closer, nil
}

// coverer returns the configured bounded coverer, or nil for depth first
// coverings.
func (a *app) coverer() *s2.RegionCoverer {
	n := a.conf.GetInt("covering.max_cells")
	if n <= 0 {
		return nil
	}
	rc := s2.NewRegionCoverer()
	rc.MaxCells = n
	return rc
}

// searchOptions returns the per query options from the configuration.
func (a *app) searchOptions() []index.SearchOption {
	return []index.SearchOption{index.WithMaxResults(a.conf.GetInt("max_results"))}
}

// degrees converts a radius in degrees to a chord angle.
func degrees(d float64) s1.ChordAngle {
	return s1.ChordAngleFromAngle(s1.Angle(d) * s1.Degree)
}
