// Package depindex builds the per-query index of declared relations that the
// conflict resolver and the set operations read from.
//
// An Index is immutable after construction and owned by the query that built
// it; nothing in it is shared across requests.
package depindex

import (
	"context"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/evr"
	"github.com/glorpus-work/repodeps/pkg/relation"
)

// Entry holds the relations of one package, grouped by kind. Obsoletes are
// folded into Conflict.
type Entry struct {
	Require  []relation.Relation
	Provide  []relation.Relation
	Conflict []relation.Relation
}

// Index maps packages to their relations and version keys.
type Index struct {
	entries  map[relation.PackageID]*Entry
	versions map[relation.PackageID]evr.Key
	names    map[relation.PackageID]string
	// relation name -> owners, per kind
	provides  map[string][]relation.PackageID
	conflicts map[string][]relation.PackageID
}

// Build fetches the relations and version info of ids from store and indexes
// them. The two fetches run concurrently.
func Build(ctx context.Context, store relation.Store, ids []relation.PackageID) (*Index, error) {
	if len(ids) == 0 {
		return New(nil, nil, nil)
	}

	var (
		rels  []relation.Relation
		infos map[relation.PackageID]relation.VersionInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rels, err = store.FetchRelations(gctx, ids, relation.AllKinds)
		return errutils.Wrap(err, "failed to fetch relations")
	})
	g.Go(func() error {
		var err error
		infos, err = store.FetchVersionInfo(gctx, ids)
		return errutils.Wrap(err, "failed to fetch version info")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(ids, rels, infos)
}

// New indexes already materialized records. Every id needs version info, and
// every relation must be owned by one of ids; anything else is reported as
// errutils.ErrInconsistentRelation.
func New(ids []relation.PackageID, rels []relation.Relation, infos map[relation.PackageID]relation.VersionInfo) (*Index, error) {
	idx := &Index{
		entries:   make(map[relation.PackageID]*Entry, len(ids)),
		versions:  make(map[relation.PackageID]evr.Key, len(ids)),
		names:     make(map[relation.PackageID]string, len(ids)),
		provides:  make(map[string][]relation.PackageID),
		conflicts: make(map[string][]relation.PackageID),
	}

	for _, id := range ids {
		if _, ok := idx.entries[id]; ok {
			continue
		}
		info, ok := infos[id]
		if !ok {
			return nil, errutils.Wrap(errutils.ErrInconsistentRelationWithPackage(id), "no version info")
		}
		key, err := info.Key()
		if err != nil {
			return nil, errutils.Wrapf(err, "package %s", id)
		}
		idx.entries[id] = &Entry{}
		idx.versions[id] = key
		idx.names[id] = info.Name
	}

	for _, r := range rels {
		e, ok := idx.entries[r.Owner]
		if !ok {
			return nil, errutils.Wrapf(errutils.ErrInconsistentRelationWithPackage(r.Owner), "%s %s", r.Kind, r.Name)
		}
		switch r.Kind {
		case relation.Require:
			e.Require = append(e.Require, r)
		case relation.Provide:
			e.Provide = append(e.Provide, r)
			idx.provides[r.Name] = appendOnce(idx.provides[r.Name], r.Owner)
		case relation.Conflict, relation.Obsolete:
			e.Conflict = append(e.Conflict, r)
			idx.conflicts[r.Name] = appendOnce(idx.conflicts[r.Name], r.Owner)
		default:
			return nil, errutils.Wrapf(errutils.ErrUnknownRelationKind, "package %s: %d", r.Owner, r.Kind)
		}
	}

	return idx, nil
}

func appendOnce(ids []relation.PackageID, id relation.PackageID) []relation.PackageID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// Len returns the number of indexed packages.
func (idx *Index) Len() int { return len(idx.entries) }

// Has reports whether id is indexed.
func (idx *Index) Has(id relation.PackageID) bool {
	_, ok := idx.entries[id]
	return ok
}

// IDs returns the indexed packages in ascending order.
func (idx *Index) IDs() []relation.PackageID {
	return slices.Sorted(maps.Keys(idx.entries))
}

// Entry returns the relations of id.
func (idx *Index) Entry(id relation.PackageID) (Entry, bool) {
	e, ok := idx.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Version returns the version key of id.
func (idx *Index) Version(id relation.PackageID) (evr.Key, bool) {
	k, ok := idx.versions[id]
	return k, ok
}

// Name returns the package name of id.
func (idx *Index) Name(id relation.PackageID) string {
	return idx.names[id]
}

// Providers returns the indexed packages that provide name.
func (idx *Index) Providers(name string) []relation.PackageID {
	return slices.Clone(idx.provides[name])
}

// Conflicters returns the indexed packages that declare a conflict with, or
// obsolete, name.
func (idx *Index) Conflicters(name string) []relation.PackageID {
	return slices.Clone(idx.conflicts[name])
}

// RequireNames returns the distinct names required by ids, sorted.
func (idx *Index) RequireNames(ids ...relation.PackageID) []string {
	seen := make(map[string]struct{})
	for _, id := range ids {
		e, ok := idx.entries[id]
		if !ok {
			continue
		}
		for _, r := range e.Require {
			seen[r.Name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
