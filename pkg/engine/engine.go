// Package engine is the caller-facing API of repodeps. It ties the relation
// store, the dependency index, the conflict resolver, the closure builder and
// the build order sorter together.
//
// The engine never logs. Callers that want progress output subscribe to
// Hooks.
package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/glorpus-work/repodeps/pkg/buildorder"
	"github.com/glorpus-work/repodeps/pkg/closure"
	"github.com/glorpus-work/repodeps/pkg/conflict"
	"github.com/glorpus-work/repodeps/pkg/depindex"
	"github.com/glorpus-work/repodeps/pkg/evr"
	"github.com/glorpus-work/repodeps/pkg/relation"
)

// Event represents a simple progress notification.
type Event struct {
	Phase string // closure|indexing|conflicts|sorting|done
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Engine answers dependency queries against one relation store. An Engine
// holds no per-query state; concurrent calls are safe as long as the store
// is.
type Engine struct {
	Store relation.Store

	// MaxClosureRounds bounds closure expansion; zero means unbounded.
	MaxClosureRounds int
	// TieBreak selects how mutual dependencies are broken when sorting.
	TieBreak buildorder.TieBreak

	Hooks Hooks
}

// New returns an Engine reading from store with default settings.
func New(store relation.Store) *Engine {
	return &Engine{Store: store}
}

// CompareVersions parses a and b as version strings and returns -1, 0 or 1.
func CompareVersions(a, b string) (int, error) {
	return evr.CompareStrings(a, b)
}

// FindConflicts returns the pairs that conflict. One index is built over all
// packages named by pairs.
func (e *Engine) FindConflicts(ctx context.Context, pairs []conflict.Pair) ([]conflict.Pair, error) {
	findings, err := e.ExplainConflicts(ctx, pairs)
	if err != nil {
		return nil, err
	}
	out := make([]conflict.Pair, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Pair)
	}
	return out, nil
}

// ExplainConflicts is like FindConflicts but reports the relations that
// caused each conflict.
func (e *Engine) ExplainConflicts(ctx context.Context, pairs []conflict.Pair) ([]conflict.Finding, error) {
	if len(pairs) == 0 {
		return []conflict.Finding{}, nil
	}
	ids := relation.NewIDSet()
	for _, p := range pairs {
		ids.Add(p.A, p.B)
	}

	idx, err := e.index(ctx, ids.Sorted())
	if err != nil {
		return nil, err
	}
	e.emit("conflicts", "checking %d pairs", len(pairs))
	findings, err := conflict.Findings(pairs, idx)
	if err != nil {
		return nil, err
	}
	e.emit("done", "%d conflicts", len(findings))
	return nonNil(findings), nil
}

// SetConflicts expands seed and reports every conflict between two packages
// of the closure.
func (e *Engine) SetConflicts(ctx context.Context, seed []relation.PackageID, branch string, archs []string) ([]conflict.Finding, error) {
	set, err := e.ExpandClosure(ctx, seed, branch, archs)
	if err != nil {
		return nil, err
	}
	idx, err := e.index(ctx, set.Sorted())
	if err != nil {
		return nil, err
	}

	pairs := conflict.CandidatePairs(idx)
	e.emit("conflicts", "checking %d candidate pairs", len(pairs))
	findings, err := conflict.Findings(pairs, idx)
	if err != nil {
		return nil, err
	}
	e.emit("done", "%d conflicts", len(findings))
	return nonNil(findings), nil
}

// ExpandClosure returns seed plus every package it transitively requires
// within branch and archs.
func (e *Engine) ExpandClosure(ctx context.Context, seed []relation.PackageID, branch string, archs []string) (relation.IDSet, error) {
	set, err := e.builder(branch, archs).Expand(ctx, seed)
	if err != nil {
		return nil, err
	}
	e.emit("closure", "closure of %d packages has %d members", len(seed), len(set))
	return set, nil
}

// WhatDepends returns every package of branch and archs that transitively
// requires something seed provides. Seed members are not included.
func (e *Engine) WhatDepends(ctx context.Context, seed []relation.PackageID, branch string, archs []string) (relation.IDSet, error) {
	set, err := e.builder(branch, archs).ExpandReverse(ctx, seed)
	if err != nil {
		return nil, err
	}
	e.emit("closure", "%d packages depend on %d seed packages", len(set), len(seed))
	return set, nil
}

// SortBuildOrder orders a name to dependency-names mapping.
func (e *Engine) SortBuildOrder(deps map[string][]string) buildorder.Result {
	e.emit("sorting", "sorting %d packages", len(deps))
	res := buildorder.Sorter{TieBreak: e.TieBreak}.Sort(deps)
	e.emit("done", "%d packages ordered, %d cycles broken", len(res.Order), len(res.Cycles))
	return res
}

// BuildOrderFor expands seed and sorts the closure by package name. A
// package depends on every other package of the closure that provides one
// of its requires; requires satisfied only by the package itself, or by
// nothing in the closure, are dropped.
func (e *Engine) BuildOrderFor(ctx context.Context, seed []relation.PackageID, branch string, archs []string) (buildorder.Result, error) {
	set, err := e.ExpandClosure(ctx, seed, branch, archs)
	if err != nil {
		return buildorder.Result{}, err
	}
	idx, err := e.index(ctx, set.Sorted())
	if err != nil {
		return buildorder.Result{}, err
	}
	return e.SortBuildOrder(DependencyGraph(idx)), nil
}

// DependencyGraph derives a name-keyed dependency mapping from idx. Packages
// sharing a name are merged.
func DependencyGraph(idx *depindex.Index) map[string][]string {
	sets := make(map[string]map[string]struct{}, idx.Len())
	for _, id := range idx.IDs() {
		name := idx.Name(id)
		if sets[name] == nil {
			sets[name] = make(map[string]struct{})
		}
		e, _ := idx.Entry(id)
		for _, r := range e.Require {
			for _, p := range idx.Providers(r.Name) {
				if dep := idx.Name(p); dep != name {
					sets[name][dep] = struct{}{}
				}
			}
		}
	}

	deps := make(map[string][]string, len(sets))
	for name, s := range sets {
		deps[name] = slices.Sorted(maps.Keys(s))
	}
	return deps
}

func (e *Engine) builder(branch string, archs []string) *closure.Builder {
	return &closure.Builder{
		Store:     e.Store,
		Branch:    branch,
		Archs:     archs,
		MaxRounds: e.MaxClosureRounds,
		OnRound: func(r closure.Round) {
			e.emit("closure", "round %d: followed %d, discovered %d", r.Number, r.Frontier, r.Discovered)
		},
	}
}

func (e *Engine) index(ctx context.Context, ids []relation.PackageID) (*depindex.Index, error) {
	e.emit("indexing", "indexing %d packages", len(ids))
	return depindex.Build(ctx, e.Store, ids)
}

func (e *Engine) emit(phase, format string, args ...any) {
	if e.Hooks.OnEvent != nil {
		e.Hooks.OnEvent(Event{Phase: phase, Msg: fmt.Sprintf(format, args...)})
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
