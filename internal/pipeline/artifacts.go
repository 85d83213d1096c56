//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pgEdge/pgedge-etl/internal/record"
	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

// ErrMissingArtifact is returned when a step asks for the output of a
// step that has not produced it.
var ErrMissingArtifact = errors.New("missing artifact")

// Storage is the slice of db.Store the steps need.
type Storage interface {
	ReadStaging(ctx context.Context, table string) (*record.RecordSet, error)
	ReplaceTable(ctx context.Context, t warehouse.Table, rows [][]any) (int64, error)
	SaveMetadata(ctx context.Context, metadata map[string]string) error
}

// Env is what every step receives.
type Env struct {
	Store         Storage
	Artifacts     *Artifacts
	CalendarStart time.Time
	CalendarEnd   time.Time
}

// Artifacts holds the typed outputs of finished steps so dependents can
// consume them without reading them back from the database.
type Artifacts struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewArtifacts returns an empty artifact store.
func NewArtifacts() *Artifacts {
	return &Artifacts{values: make(map[string]any)}
}

// Put stores v under name, replacing any previous value.
func (a *Artifacts) Put(name string, v any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[name] = v
}

// Get retrieves the artifact stored under name as a T.
func Get[T any](a *Artifacts, name string) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var zero T
	v, ok := a.values[name]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingArtifact, name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, not %T", ErrMissingArtifact, name, v, zero)
	}
	return t, nil
}
