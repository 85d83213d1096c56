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
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-etl/internal/db"
	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/internal/pipeline"
)

var runTimeout int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stage the raw files and run every transform step",
	Long: `Run the whole pipeline: stage every raw CSV file, then build the
warehouse. The start, finish and outcome of the run are recorded in the
warehouse metadata table. Interrupt with Ctrl+C to stop; steps already
running finish their current statement and the rest are skipped.

Example:
  pgedge-etl run --data-dir ./data --parallelism 4
  pgedge-etl run --timeout 30`,
	RunE: runRun,
}

func init() {
	addLoadFlags(runCmd)
	runCmd.Flags().IntVar(&runTimeout, "timeout", 0,
		"abort the run after this many minutes (0 = no limit)")
}

func runRun(cmd *cobra.Command, args []string) error {
	applyLoadFlags()
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}
	if err := cfg.ValidateTransform(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if runTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, time.Duration(runTimeout)*time.Minute)
		defer timeoutCancel()
	}

	store, err := openStore(ctx, cfg.Pipeline.Parallelism)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RunStarted(ctx); err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}

	// A file that failed to stage only fails the steps that read it.
	runErr := stage(ctx, cmd, store)
	if !errors.Is(runErr, db.ErrUnavailable) && ctx.Err() == nil {
		runErr = errors.Join(runErr, execute(ctx, cmd, store, pipeline.ETL()))
	}

	// The run context may be cancelled already; the outcome is still
	// recorded.
	if err := store.RunFinished(context.WithoutCancel(ctx), runErr); err != nil {
		logging.Error().Err(err).Msg("Failed to record run outcome")
	}

	switch {
	case runErr == nil:
		logging.Info().Msg("Pipeline run completed")
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		logging.Info().Msg("Duration limit reached, run aborted")
	case ctx.Err() != nil:
		logging.Info().Msg("Pipeline run stopped")
	}
	return runErr
}
