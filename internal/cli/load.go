//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-etl/internal/db"
	"github.com/pgEdge/pgedge-etl/internal/loader"
	"github.com/pgEdge/pgedge-etl/internal/logging"
)

var (
	loadDataDir     string
	loadParallelism int
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Stage raw CSV files into the staging schema",
	Long: `Stage every *.csv file in the data directory as a table of the same
name in the staging schema. Column types are inferred from the values;
existing staging tables are replaced.

Example:
  pgedge-etl load --data-dir ./data`,
	RunE: runLoad,
}

func init() {
	addLoadFlags(loadCmd)
}

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&loadDataDir, "data-dir", "",
		"directory containing the raw CSV files")
	cmd.Flags().IntVar(&loadParallelism, "parallelism", 0,
		"maximum number of files or steps processed at once")
}

func applyLoadFlags() {
	if loadDataDir != "" {
		cfg.Load.DataDir = loadDataDir
	}
	if loadParallelism > 0 {
		cfg.Pipeline.Parallelism = loadParallelism
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	applyLoadFlags()
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx, cfg.Pipeline.Parallelism)
	if err != nil {
		return err
	}
	defer store.Close()

	return stage(ctx, cmd, store)
}

func stage(ctx context.Context, cmd *cobra.Command, store *db.Store) error {
	start := time.Now()
	logging.Info().
		Str("data_dir", cfg.Load.DataDir).
		Str("schema", store.StagingSchema()).
		Msg("Staging raw files")

	summaries, err := loader.New(store, store.StagingSchema(), cfg.Pipeline.Parallelism).
		LoadDir(ctx, cfg.Load.DataDir)

	for _, s := range summaries {
		state := "ok"
		if s.Err != nil {
			state = "failed"
		}
		cmd.Printf("  %-24s %8d rows  %s\n", s.Table, s.Rows, state)
	}

	if err != nil {
		return err
	}
	logging.Info().
		Int("files", len(summaries)).
		Dur("duration", time.Since(start)).
		Msg("Staging complete")
	return nil
}
