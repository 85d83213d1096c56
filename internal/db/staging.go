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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-etl/internal/record"
)

// ReadStaging reads a whole staging table into a record set. The set is
// named after the table and keeps the table's column order.
func (s *Store) ReadStaging(ctx context.Context, table string) (*record.RecordSet, error) {
	var set *record.RecordSet

	err := s.WithConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		set, err = ReadTable(ctx, conn, pgx.Identifier{s.staging, table}, table)
		return err
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// ReadTable selects every row of ident into a record set called name.
func ReadTable(ctx context.Context, q Querier, ident pgx.Identifier, name string) (*record.RecordSet, error) {
	rows, err := q.Query(ctx, fmt.Sprintf("SELECT * FROM %s", ident.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ident.Sanitize(), err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	set := record.New(name, columns...)

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", ident.Sanitize(), err)
		}
		r := make(record.Record, len(columns))
		for i, col := range columns {
			r[col] = normalize(values[i])
		}
		set.Append(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ident.Sanitize(), err)
	}
	return set, nil
}

// normalize maps driver values onto the small set of types the record
// coercion helpers understand.
func normalize(v any) any {
	switch x := v.(type) {
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case pgtype.Numeric:
		if !x.Valid || x.NaN || x.InfinityModifier != pgtype.Finite {
			return nil
		}
		return decimal.NewFromBigInt(x.Int, x.Exp)
	}
	return v
}
