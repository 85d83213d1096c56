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
	"github.com/pgEdge/pgedge-etl/pkg/version"
)

const metadataTable = "etl_metadata"

// Well-known metadata keys.
const (
	MetaVersion       = "version"
	MetaRunStarted    = "last_run_started"
	MetaRunFinished   = "last_run_finished"
	MetaRunStatus     = "last_run_status"
	metaRowsKeyPrefix = "rows."
)

// RowsKey is the metadata key holding the row count of table.
func RowsKey(table string) string {
	return metaRowsKeyPrefix + table
}

func metadataIdent(schema string) string {
	return pgx.Identifier{schema, metadataTable}.Sanitize()
}

// EnsureMetadata creates the metadata table if it doesn't exist.
func EnsureMetadata(ctx context.Context, q Querier, schema string) error {
	_, err := q.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`, metadataIdent(schema)))
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	return nil
}

// SaveMetadata upserts the given key/value pairs.
func SaveMetadata(ctx context.Context, q Querier, schema string, metadata map[string]string) error {
	sql := fmt.Sprintf(`
        INSERT INTO %s (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
    `, metadataIdent(schema))

	for key, value := range metadata {
		if _, err := q.Exec(ctx, sql, key, value); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Int("keys", len(metadata)).
		Msg("Saved metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, q Querier, schema, key string) (string, error) {
	var value string
	err := q.QueryRow(ctx, fmt.Sprintf(`
        SELECT value FROM %s WHERE key = $1
    `, metadataIdent(schema)), key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, q Querier, schema string) (map[string]string, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT key, value FROM %s`, metadataIdent(schema)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, q Querier, schema string) error {
	_, err := q.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataIdent(schema)))
	return err
}

// MetadataExists checks if the metadata table exists.
func MetadataExists(ctx context.Context, q Querier, schema string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_schema = $1 AND table_name = $2
        )
    `, schema, metadataTable).Scan(&exists)
	return exists, err
}

// SaveMetadata records metadata in the warehouse schema.
func (s *Store) SaveMetadata(ctx context.Context, metadata map[string]string) error {
	return s.WithConn(ctx, func(conn *pgxpool.Conn) error {
		return SaveMetadata(ctx, conn, s.warehouse, metadata)
	})
}

// Metadata returns all metadata recorded in the warehouse schema.
func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	var metadata map[string]string
	err := s.WithConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		metadata, err = GetAllMetadata(ctx, conn, s.warehouse)
		return err
	})
	return metadata, err
}

// RunStarted records the start of a pipeline run.
func (s *Store) RunStarted(ctx context.Context) error {
	return s.SaveMetadata(ctx, map[string]string{
		MetaVersion:    version.Short(),
		MetaRunStarted: time.Now().UTC().Format(time.RFC3339),
		MetaRunStatus:  "running",
	})
}

// RunFinished records the end of a pipeline run and its outcome.
func (s *Store) RunFinished(ctx context.Context, runErr error) error {
	status := "succeeded"
	if runErr != nil {
		status = "failed"
	}
	return s.SaveMetadata(ctx, map[string]string{
		MetaRunFinished: time.Now().UTC().Format(time.RFC3339),
		MetaRunStatus:   status,
	})
}
