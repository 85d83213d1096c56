//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline schedules the transform steps as a dependency graph.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Step is one unit of the pipeline. A step runs only after every step it
// depends on has succeeded.
type Step struct {
	Name      string
	Tables    []string
	DependsOn []string
	Run       func(ctx context.Context, env *Env) (int64, error)
}

var (
	// ErrUnknownStep is returned when a step name is not in the graph.
	ErrUnknownStep = errors.New("unknown step")

	// ErrCycle is returned when steps depend on each other in a loop.
	ErrCycle = errors.New("dependency cycle")
)

// Graph is a validated set of steps held in a stable topological order.
type Graph struct {
	order    []Step
	position map[string]int
	children map[string][]string
}

// NewGraph validates steps and orders them so that every step follows its
// dependencies. Among steps that are ready at the same time, registration
// order is kept.
func NewGraph(steps ...Step) (*Graph, error) {
	byName := make(map[string]Step, len(steps))
	for _, s := range steps {
		if s.Name == "" {
			return nil, fmt.Errorf("step without a name")
		}
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate step: %s", s.Name)
		}
		byName[s.Name] = s
	}

	indegree := make(map[string]int, len(steps))
	children := make(map[string][]string, len(steps))
	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownStep, s.Name, dep)
			}
			indegree[s.Name]++
			children[dep] = append(children[dep], s.Name)
		}
	}

	g := &Graph{
		position: make(map[string]int, len(steps)),
		children: children,
	}
	done := make(map[string]bool, len(steps))
	for len(g.order) < len(steps) {
		progressed := false
		for _, s := range steps {
			if done[s.Name] || indegree[s.Name] > 0 {
				continue
			}
			done[s.Name] = true
			g.position[s.Name] = len(g.order)
			g.order = append(g.order, s)
			for _, child := range children[s.Name] {
				indegree[child]--
			}
			progressed = true
			break
		}
		if !progressed {
			var stuck []string
			for _, s := range steps {
				if !done[s.Name] {
					stuck = append(stuck, s.Name)
				}
			}
			return nil, fmt.Errorf("%w between %s", ErrCycle, strings.Join(stuck, ", "))
		}
	}

	return g, nil
}

// Steps returns the steps in topological order.
func (g *Graph) Steps() []Step {
	return slices.Clone(g.order)
}

// Names returns the step names in topological order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.order))
	for i, s := range g.order {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of steps.
func (g *Graph) Len() int {
	return len(g.order)
}

// Get retrieves a step by name.
func (g *Graph) Get(name string) (Step, error) {
	i, ok := g.position[name]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}
	return g.order[i], nil
}

// Dependents returns every step that directly or transitively depends on
// name, in topological order.
func (g *Graph) Dependents(name string) []string {
	seen := make(map[string]bool)
	var visit func(string)
	visit = func(n string) {
		for _, child := range g.children[n] {
			if !seen[child] {
				seen[child] = true
				visit(child)
			}
		}
	}
	visit(name)
	return g.sorted(seen)
}

// Select returns the subgraph made of targets and all of their ancestors.
func (g *Graph) Select(targets ...string) (*Graph, error) {
	keep := make(map[string]bool)
	var visit func(string) error
	visit = func(n string) error {
		if keep[n] {
			return nil
		}
		s, err := g.Get(n)
		if err != nil {
			return err
		}
		keep[n] = true
		for _, dep := range s.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, t := range targets {
		if err := visit(t); err != nil {
			return nil, err
		}
	}

	var steps []Step
	for _, s := range g.order {
		if keep[s.Name] {
			steps = append(steps, s)
		}
	}
	return NewGraph(steps...)
}

// SelectWithDependents returns the subgraph made of targets, every step
// that depends on them, and all of their ancestors.
func (g *Graph) SelectWithDependents(targets ...string) (*Graph, error) {
	all := slices.Clone(targets)
	for _, t := range targets {
		if _, err := g.Get(t); err != nil {
			return nil, err
		}
		all = append(all, g.Dependents(t)...)
	}
	return g.Select(all...)
}

// Downstream returns the steps of g, in run order, that depend on a step
// of sub but are not part of it. Their tables keep stale rows and lose the
// foreign keys dropped when sub rebuilds their parents.
func (g *Graph) Downstream(sub *Graph) []string {
	stale := make(map[string]bool)
	for _, s := range sub.order {
		for _, d := range g.Dependents(s.Name) {
			if _, ok := sub.position[d]; !ok {
				stale[d] = true
			}
		}
	}
	return g.sorted(stale)
}

func (g *Graph) sorted(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		return g.position[a] - g.position[b]
	})
	return names
}
