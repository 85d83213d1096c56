//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader stages raw CSV files as loosely typed tables.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-etl/internal/db"
	"github.com/pgEdge/pgedge-etl/internal/logging"
)

// ErrNoFiles is returned when a directory holds no CSV files.
var ErrNoFiles = errors.New("no csv files found")

// Column is a staged column and its inferred type.
type Column struct {
	Name string
	Type ColumnType
}

// Table is a parsed CSV file ready to be staged.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in file order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Spec describes how the table is dropped, created and copied in schema.
func (t *Table) Spec(schema string) db.TableSpec {
	ident := pgx.Identifier{schema, t.Name}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c.Name}.Sanitize(), c.Type.SQL())
	}

	return db.TableSpec{
		Identifier: ident,
		DropSQL:    fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", ident.Sanitize()),
		CreateSQL:  fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", ident.Sanitize(), strings.Join(defs, ",\n    ")),
		Columns:    t.ColumnNames(),
	}
}

// ReadCSV parses a CSV stream with a header row into a table called name.
// Every cell is read as text, then each column is converted to its
// inferred type.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("%s: duplicate column %q", name, h)
		}
		seen[h] = true
		header[i] = h
	}

	var raw [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		raw = append(raw, rec)
	}

	t := &Table{Name: name, Columns: make([]Column, len(header))}
	values := make([]string, len(raw))
	for c, h := range header {
		for i, rec := range raw {
			values[i] = rec[c]
		}
		t.Columns[c] = Column{Name: h, Type: Infer(values)}
	}

	t.Rows = make([][]any, len(raw))
	for i, rec := range raw {
		row := make([]any, len(header))
		for c, col := range t.Columns {
			row[c] = Convert(col.Type, rec[c])
		}
		t.Rows[i] = row
	}
	return t, nil
}

// ReadFile parses the CSV file at path. The table is named after the file.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(name, f)
}

// Discover returns the CSV files in dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	slices.Sort(files)
	return files, nil
}

// Replacer replaces a table with new rows. *db.Store satisfies it.
type Replacer interface {
	Replace(ctx context.Context, spec db.TableSpec, rows [][]any) (int64, error)
}

// Summary reports one staged file.
type Summary struct {
	File     string
	Table    string
	Columns  []Column
	Rows     int64
	Duration time.Duration
	Err      error
}

// Loader stages CSV files into one schema.
type Loader struct {
	store       Replacer
	schema      string
	parallelism int
}

// New creates a loader writing into schema, staging up to parallelism
// files at once.
func New(store Replacer, schema string, parallelism int) *Loader {
	return &Loader{store: store, schema: schema, parallelism: max(parallelism, 1)}
}

// LoadFile stages a single CSV file, replacing its table.
func (l *Loader) LoadFile(ctx context.Context, path string) Summary {
	start := time.Now()
	s := Summary{File: path}

	t, err := ReadFile(path)
	if err != nil {
		s.Err = err
		return s
	}
	s.Table = t.Name
	s.Columns = t.Columns

	for _, c := range t.Columns {
		logging.Debug().
			Str("table", t.Name).
			Str("column", c.Name).
			Str("type", c.Type.String()).
			Msg("Inferred column type")
	}

	s.Rows, s.Err = l.store.Replace(ctx, t.Spec(l.schema), t.Rows)
	s.Duration = time.Since(start)
	return s
}

// LoadDir stages every CSV file in dir. A file that fails does not stop
// the others unless the database becomes unavailable. Summaries are
// returned in file name order with the joined errors of failed files.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]Summary, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	summaries := make([]Summary, len(files))
	var mu sync.Mutex
	var errs []error

	var g errgroup.Group
	g.SetLimit(l.parallelism)
	for i, path := range files {
		g.Go(func() error {
			if ctx.Err() != nil {
				summaries[i] = Summary{File: path, Err: context.Cause(ctx)}
				return nil
			}

			s := l.LoadFile(ctx, path)
			summaries[i] = s

			if s.Err != nil {
				logging.Error().
					Err(s.Err).
					Str("file", path).
					Str("table", s.Table).
					Str("operation", "load").
					Msg("Failed to stage file")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), s.Err))
				mu.Unlock()
				if errors.Is(s.Err, db.ErrUnavailable) {
					cancel(s.Err)
				}
				return nil
			}

			logging.Info().
				Str("table", s.Table).
				Int("columns", len(s.Columns)).
				Int64("rows", s.Rows).
				Dur("duration", s.Duration).
				Msg("Staged file")
			return nil
		})
	}
	_ = g.Wait()

	return summaries, errors.Join(errs...)
}
