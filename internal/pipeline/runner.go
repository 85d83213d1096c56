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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-etl/internal/db"
	"github.com/pgEdge/pgedge-etl/internal/logging"
)

// Status is the outcome of a step.
type Status int

const (
	Succeeded Status = iota + 1
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Result reports what happened to one step.
type Result struct {
	Step     string
	Status   Status
	Rows     int64
	Duration time.Duration
	Err      error
}

// OpError records which operation of a step failed and on which table.
type OpError struct {
	Op    string
	Table string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op, table string, err error) error {
	return &OpError{Op: op, Table: table, Err: err}
}

// Runner executes a graph, running independent steps concurrently.
type Runner struct {
	graph       *Graph
	parallelism int
}

// NewRunner creates a runner that keeps at most parallelism steps in
// flight. parallelism < 1 runs one step at a time.
func NewRunner(g *Graph, parallelism int) *Runner {
	return &Runner{graph: g, parallelism: max(parallelism, 1)}
}

// Run executes every step of the graph. A failed step does not stop
// independent steps, but all of its dependents are skipped. A step failing
// with db.ErrUnavailable aborts the run: steps not yet started are
// skipped. Results are returned in topological order along with the joined
// errors of every failed step.
func (r *Runner) Run(ctx context.Context, env *Env) ([]Result, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	steps := r.graph.order
	indegree := make(map[string]int, len(steps))
	for _, s := range steps {
		indegree[s.Name] = len(s.DependsOn)
	}

	results := make(map[string]Result, len(steps))
	done := make(chan Result, len(steps))

	var g errgroup.Group
	g.SetLimit(r.parallelism)

	var ready []Step
	for _, s := range steps {
		if indegree[s.Name] == 0 {
			ready = append(ready, s)
		}
	}

	running := 0
	for len(results) < len(steps) {
		for _, s := range ready {
			running++
			g.Go(func() error {
				done <- r.execute(ctx, cancel, env, s)
				return nil
			})
		}
		ready = ready[:0]

		if running == 0 {
			break
		}
		res := <-done
		running--
		results[res.Step] = res

		if res.Status != Succeeded {
			for _, name := range r.graph.Dependents(res.Step) {
				if _, ok := results[name]; ok {
					continue
				}
				results[name] = Result{
					Step:   name,
					Status: Skipped,
					Err:    fmt.Errorf("dependency %s %s", res.Step, res.Status),
				}
				logging.Warn().
					Str("step", name).
					Str("dependency", res.Step).
					Msg("Step skipped")
			}
			continue
		}

		for _, child := range r.graph.children[res.Step] {
			indegree[child]--
			if _, skipped := results[child]; skipped || indegree[child] > 0 {
				continue
			}
			ready = append(ready, r.graph.order[r.graph.position[child]])
		}
	}
	_ = g.Wait()

	ordered := make([]Result, 0, len(steps))
	var errs []error
	for _, s := range steps {
		res := results[s.Name]
		ordered = append(ordered, res)
		if res.Status == Failed {
			errs = append(errs, fmt.Errorf("step %s: %w", s.Name, res.Err))
		}
	}
	if cause := context.Cause(ctx); cause != nil && len(errs) == 0 {
		errs = append(errs, cause)
	}

	return ordered, errors.Join(errs...)
}

func (r *Runner) execute(ctx context.Context, cancel context.CancelCauseFunc, env *Env, s Step) Result {
	if ctx.Err() != nil {
		logging.Warn().Str("step", s.Name).Msg("Step skipped, run aborted")
		return Result{Step: s.Name, Status: Skipped, Err: context.Cause(ctx)}
	}

	logging.Info().
		Str("step", s.Name).
		Strs("table", s.Tables).
		Msg("Step started")

	start := time.Now()
	rows, err := s.Run(ctx, env)
	res := Result{Step: s.Name, Rows: rows, Duration: time.Since(start)}

	if err != nil {
		res.Status = Failed
		res.Err = err

		event := logging.Error().Err(err).Str("step", s.Name)
		var opErr *OpError
		if errors.As(err, &opErr) {
			event = event.Str("table", opErr.Table).Str("operation", opErr.Op)
		} else {
			event = event.Strs("table", s.Tables)
		}
		event.Dur("duration", res.Duration).Msg("Step failed")

		if errors.Is(err, db.ErrUnavailable) {
			cancel(err)
		}
		return res
	}

	res.Status = Succeeded
	logging.Info().
		Str("step", s.Name).
		Strs("table", s.Tables).
		Int64("rows", rows).
		Dur("duration", res.Duration).
		Msg("Step finished")

	return res
}
