//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

// Store is the handle every pipeline step receives. It owns no global
// state: connections are acquired per operation and released on return.
type Store struct {
	pool      *pgxpool.Pool
	staging   string
	warehouse string
}

// NewStore wraps pool with the staging and warehouse schema names.
func NewStore(pool *pgxpool.Pool, staging, warehouse string) *Store {
	return &Store{pool: pool, staging: staging, warehouse: warehouse}
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// StagingSchema returns the schema raw tables are loaded into.
func (s *Store) StagingSchema() string {
	return s.staging
}

// WarehouseSchema returns the schema dimension and fact tables live in.
func (s *Store) WarehouseSchema() string {
	return s.warehouse
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// WithConn acquires a connection, runs fn, and releases the connection on
// every exit path. Failure to acquire is reported as ErrUnavailable.
func (s *Store) WithConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to acquire connection: %w", ErrUnavailable, err)
	}
	defer conn.Release()

	return classify(fn(conn))
}

// EnsureSchemas creates the staging and warehouse schemas and the
// metadata table if they do not exist.
func (s *Store) EnsureSchemas(ctx context.Context) error {
	return s.WithConn(ctx, func(conn *pgxpool.Conn) error {
		for _, schema := range []string{s.staging, s.warehouse} {
			sql := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{schema}.Sanitize())
			if _, err := conn.Exec(ctx, sql); err != nil {
				return fmt.Errorf("failed to create schema %s: %w", schema, err)
			}
			logging.Debug().Str("schema", schema).Msg("Schema checked")
		}
		return EnsureMetadata(ctx, conn, s.warehouse)
	})
}

// TableSpec is the storage-level description of a table to replace.
type TableSpec struct {
	Identifier pgx.Identifier
	DropSQL    string
	CreateSQL  string
	Columns    []string
}

// WarehouseSpec builds the TableSpec of a warehouse table in schema.
func WarehouseSpec(t warehouse.Table, schema string) TableSpec {
	return TableSpec{
		Identifier: t.Identifier(schema),
		DropSQL:    t.DropSQL(schema),
		CreateSQL:  t.CreateSQL(schema),
		Columns:    t.Columns,
	}
}

// Replace drops and recreates a table and bulk loads rows into it with
// COPY, all in one transaction. Readers see either the old table or the
// complete new one.
func (s *Store) Replace(ctx context.Context, spec TableSpec, rows [][]any) (int64, error) {
	start := time.Now()
	var copied int64

	err := s.WithConn(ctx, func(conn *pgxpool.Conn) error {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if _, err := tx.Exec(ctx, spec.DropSQL); err != nil {
			return fmt.Errorf("failed to drop %s: %w", spec.Identifier.Sanitize(), err)
		}
		if _, err := tx.Exec(ctx, spec.CreateSQL); err != nil {
			return fmt.Errorf("failed to create %s: %w", spec.Identifier.Sanitize(), err)
		}

		copied, err = tx.CopyFrom(ctx, spec.Identifier, spec.Columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy into %s: %w", spec.Identifier.Sanitize(), err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit %s: %w", spec.Identifier.Sanitize(), err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.Debug().
		Str("table", spec.Identifier.Sanitize()).
		Int64("rows", copied).
		Dur("duration", time.Since(start)).
		Msg("Table replaced")

	return copied, nil
}

// ReplaceTable replaces a warehouse table with rows.
func (s *Store) ReplaceTable(ctx context.Context, t warehouse.Table, rows [][]any) (int64, error) {
	return s.Replace(ctx, WarehouseSpec(t, s.warehouse), rows)
}

// DropWarehouse drops every warehouse table.
func (s *Store) DropWarehouse(ctx context.Context) error {
	return s.WithConn(ctx, func(conn *pgxpool.Conn) error {
		tables := warehouse.Tables()
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := conn.Exec(ctx, tables[i].DropSQL(s.warehouse)); err != nil {
				return fmt.Errorf("failed to drop %s: %w", tables[i].Name, err)
			}
		}
		return nil
	})
}
