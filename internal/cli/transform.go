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
	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/internal/pipeline"
)

var (
	transformOnly           []string
	transformWithDependents bool
	transformList           bool
	transformParallelism    int
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Build the dimension, calendar and fact tables from staging",
	Long: `Run the transform steps against the staged tables. Every warehouse
table is dropped and rebuilt. Independent steps run concurrently up to
--parallelism; a failed step skips only the steps that depend on it.

Examples:
  pgedge-etl transform
  pgedge-etl transform --only payments --only users
  pgedge-etl transform --only users --with-dependents
  pgedge-etl transform --list`,
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringSliceVar(&transformOnly, "only", nil,
		"run only these steps and the steps they depend on")
	transformCmd.Flags().BoolVar(&transformWithDependents, "with-dependents", false,
		"with --only, also rebuild the steps that depend on the selected ones")
	transformCmd.Flags().BoolVar(&transformList, "list", false,
		"print the selected steps without running them")
	transformCmd.Flags().IntVar(&transformParallelism, "parallelism", 0,
		"maximum number of steps run at once")
}

func runTransform(cmd *cobra.Command, args []string) error {
	if transformParallelism > 0 {
		cfg.Pipeline.Parallelism = transformParallelism
	}

	g, err := selectSteps(pipeline.ETL())
	if err != nil {
		return err
	}
	if transformList {
		printSteps(cmd, g)
		return nil
	}

	if err := cfg.ValidateTransform(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx, cfg.Pipeline.Parallelism)
	if err != nil {
		return err
	}
	defer store.Close()

	return execute(ctx, cmd, store, g)
}

// selectSteps narrows full to the --only targets. When dependents are
// left out, their tables are named in a warning: rebuilding a parent
// drops it with CASCADE, which removes the child's foreign keys.
func selectSteps(full *pipeline.Graph) (*pipeline.Graph, error) {
	if len(transformOnly) == 0 {
		return full, nil
	}
	if transformWithDependents {
		return full.SelectWithDependents(transformOnly...)
	}

	g, err := full.Select(transformOnly...)
	if err != nil {
		return nil, err
	}
	if stale := full.Downstream(g); len(stale) > 0 {
		var tables []string
		for _, name := range stale {
			s, _ := full.Get(name)
			tables = append(tables, s.Tables...)
		}
		logging.Warn().
			Strs("steps", stale).
			Strs("tables", tables).
			Msg("Dependent steps not selected; their tables keep old rows and lose foreign keys until rebuilt (use --with-dependents)")
	}
	return g, nil
}

// execute runs g against store and prints one line per step.
func execute(ctx context.Context, cmd *cobra.Command, store *db.Store, g *pipeline.Graph) error {
	start, end, err := cfg.CalendarRange()
	if err != nil {
		return err
	}

	env := &pipeline.Env{
		Store:         store,
		Artifacts:     pipeline.NewArtifacts(),
		CalendarStart: start,
		CalendarEnd:   end,
	}

	logging.Info().
		Int("steps", g.Len()).
		Int("parallelism", cfg.Pipeline.Parallelism).
		Str("schema", store.WarehouseSchema()).
		Msg("Starting transform")

	began := time.Now()
	results, runErr := pipeline.NewRunner(g, cfg.Pipeline.Parallelism).Run(ctx, env)

	for _, r := range results {
		cmd.Printf("  %-12s %-10s %8d rows  %s\n",
			r.Step, r.Status, r.Rows, r.Duration.Round(time.Millisecond))
	}

	if runErr != nil {
		return runErr
	}
	logging.Info().
		Dur("duration", time.Since(began)).
		Msg("Transform complete")
	return nil
}
