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
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-etl/internal/db"
	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/pkg/version"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the staging and warehouse schemas",
	Long: `Create the staging and warehouse schemas and the run metadata table.
Every other command does this on demand; init is useful to prepare a
database ahead of time or, with --drop-existing, to clear out the
warehouse tables and run history.

Example:
  pgedge-etl init --connection "postgres://..." --drop-existing`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing warehouse tables and run metadata first")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, 1)
	if err != nil {
		return err
	}
	defer store.Close()

	if initDropExisting {
		logging.Info().
			Str("schema", store.WarehouseSchema()).
			Msg("Dropping existing warehouse tables")
		if err := store.DropWarehouse(ctx); err != nil {
			return fmt.Errorf("failed to drop warehouse: %w", err)
		}
		err := store.WithConn(ctx, func(conn *pgxpool.Conn) error {
			if err := db.DropMetadata(ctx, conn, store.WarehouseSchema()); err != nil {
				return err
			}
			return db.EnsureMetadata(ctx, conn, store.WarehouseSchema())
		})
		if err != nil {
			return fmt.Errorf("failed to reset metadata: %w", err)
		}
	}

	if err := store.SaveMetadata(ctx, map[string]string{db.MetaVersion: version.Short()}); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Str("staging", store.StagingSchema()).
		Str("warehouse", store.WarehouseSchema()).
		Msg("Database initialization complete")

	return nil
}
