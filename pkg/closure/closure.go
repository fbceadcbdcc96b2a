// Package closure computes transitive package closures over the
// require/provide relation.
package closure

import (
	"context"
	"maps"
	"slices"

	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/relation"
)

// Round describes one completed expansion round.
type Round struct {
	Number     int // 1-based
	Frontier   int // packages whose relations were followed
	Discovered int // packages new to the result
}

// Builder expands package sets against a relation store, scoped to one
// branch and architecture filter.
type Builder struct {
	Store  relation.Store
	Branch string
	Archs  []string

	// MaxRounds bounds the number of rounds; zero means unbounded.
	MaxRounds int

	// OnRound, when set, is called after every round.
	OnRound func(Round)
}

// step follows one layer of edges out of frontier.
type step func(ctx context.Context, frontier []relation.PackageID) ([]relation.PackageID, error)

// Expand returns seed plus every package reachable from it by following
// Require relations to the packages that provide them. Each round only the
// packages discovered in the previous round are followed; the expansion stops
// when a round discovers nothing new.
func (b *Builder) Expand(ctx context.Context, seed []relation.PackageID) (relation.IDSet, error) {
	return b.run(ctx, seed, b.requires)
}

// ExpandReverse returns every package that transitively requires something
// provided by seed, i.e. what may break if the seed is rebuilt. Seed members
// are never part of the result.
func (b *Builder) ExpandReverse(ctx context.Context, seed []relation.PackageID) (relation.IDSet, error) {
	all, err := b.run(ctx, seed, b.requirers)
	if err != nil {
		return nil, err
	}
	for _, id := range seed {
		delete(all, id)
	}
	return all, nil
}

func (b *Builder) run(ctx context.Context, seed []relation.PackageID, follow step) (relation.IDSet, error) {
	result := relation.NewIDSet(seed...)
	frontier := result.Sorted()

	for round := 1; len(frontier) > 0; round++ {
		if b.MaxRounds > 0 && round > b.MaxRounds {
			return nil, errutils.ErrClosureRoundLimitWithRounds(b.MaxRounds)
		}

		found, err := follow(ctx, frontier)
		if err != nil {
			return nil, errutils.Wrapf(err, "closure round %d", round)
		}

		var next []relation.PackageID
		for _, id := range found {
			if !result.Has(id) {
				result.Add(id)
				next = append(next, id)
			}
		}
		if b.OnRound != nil {
			b.OnRound(Round{Number: round, Frontier: len(frontier), Discovered: len(next)})
		}
		frontier = next
	}

	return result, nil
}

func (b *Builder) requires(ctx context.Context, frontier []relation.PackageID) ([]relation.PackageID, error) {
	names, err := b.relationNames(ctx, frontier, relation.Require)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	byName, err := b.Store.ResolveProvides(ctx, names, b.Branch, b.Archs)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to resolve provides")
	}
	return flatten(byName), nil
}

func (b *Builder) requirers(ctx context.Context, frontier []relation.PackageID) ([]relation.PackageID, error) {
	names, err := b.relationNames(ctx, frontier, relation.Provide)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	byName, err := b.Store.ResolveRequirers(ctx, names, b.Branch, b.Archs)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to resolve requirers")
	}
	return flatten(byName), nil
}

func (b *Builder) relationNames(ctx context.Context, ids []relation.PackageID, kind relation.Kind) ([]string, error) {
	rels, err := b.Store.FetchRelations(ctx, ids, []relation.Kind{kind})
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to fetch %s relations", kind)
	}
	seen := make(map[string]struct{}, len(rels))
	for _, r := range rels {
		if r.Kind == kind {
			seen[r.Name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// flatten returns the distinct ids of byName in ascending order.
func flatten(byName map[string][]relation.PackageID) []relation.PackageID {
	s := make(relation.IDSet)
	for _, ids := range byName {
		s.Add(ids...)
	}
	return s.Sorted()
}
