// Package memory implements relation.Store over snapshots held in memory.
package memory

import (
	"context"
	"slices"

	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/relation"
	"github.com/glorpus-work/repodeps/pkg/snapshot"
)

type pkg struct {
	branches map[string]struct{}
	info     relation.VersionInfo
	rels     []relation.Relation
}

// Store is a read-only relation store. It is safe for concurrent use.
type Store struct {
	pkgs map[relation.PackageID]*pkg
	// relation name -> declaring packages
	provides map[string][]relation.PackageID
	requires map[string][]relation.PackageID
}

var _ relation.Store = (*Store)(nil)

// New indexes the packages of snaps. The same build may be part of several
// branches; its name and version must then agree in every snapshot.
func New(snaps ...*snapshot.Snapshot) (*Store, error) {
	s := &Store{
		pkgs:     make(map[relation.PackageID]*pkg),
		provides: make(map[string][]relation.PackageID),
		requires: make(map[string][]relation.PackageID),
	}
	for _, snap := range snaps {
		for _, p := range snap.Packages {
			if known, ok := s.pkgs[p.Hash]; ok {
				if known.info != p.Info() {
					return nil, errutils.Wrapf(errutils.ErrSnapshotParse, "package %s differs between branches", p.Hash)
				}
				known.branches[snap.Branch] = struct{}{}
				continue
			}
			rels := p.Relations()
			s.pkgs[p.Hash] = &pkg{
				branches: map[string]struct{}{snap.Branch: {}},
				info:     p.Info(),
				rels:     rels,
			}
			for _, r := range rels {
				switch r.Kind {
				case relation.Provide:
					s.provides[r.Name] = appendOnce(s.provides[r.Name], p.Hash)
				case relation.Require:
					s.requires[r.Name] = appendOnce(s.requires[r.Name], p.Hash)
				}
			}
		}
	}
	for _, ids := range s.provides {
		slices.Sort(ids)
	}
	for _, ids := range s.requires {
		slices.Sort(ids)
	}
	return s, nil
}

func appendOnce(ids []relation.PackageID, id relation.PackageID) []relation.PackageID {
	if len(ids) > 0 && ids[len(ids)-1] == id {
		return ids
	}
	return append(ids, id)
}

// Len returns the number of stored packages.
func (s *Store) Len() int { return len(s.pkgs) }

// FetchRelations implements relation.Store. Unknown ids are ignored.
func (s *Store) FetchRelations(ctx context.Context, ids []relation.PackageID, kinds []relation.Kind) ([]relation.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []relation.Relation
	for _, id := range ids {
		p, ok := s.pkgs[id]
		if !ok {
			continue
		}
		for _, r := range p.rels {
			if slices.Contains(kinds, r.Kind) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// FetchVersionInfo implements relation.Store. Unknown ids are absent from
// the result.
func (s *Store) FetchVersionInfo(ctx context.Context, ids []relation.PackageID) (map[relation.PackageID]relation.VersionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[relation.PackageID]relation.VersionInfo, len(ids))
	for _, id := range ids {
		if p, ok := s.pkgs[id]; ok {
			out[id] = p.info
		}
	}
	return out, nil
}

// ResolveProvides implements relation.Store. An empty branch or arch list
// matches everything. Names nothing provides are absent from the result.
func (s *Store) ResolveProvides(ctx context.Context, names []string, branch string, archs []string) (map[string][]relation.PackageID, error) {
	return s.resolve(ctx, s.provides, names, branch, archs)
}

// ResolveRequirers implements relation.Store with the same filtering as
// ResolveProvides.
func (s *Store) ResolveRequirers(ctx context.Context, names []string, branch string, archs []string) (map[string][]relation.PackageID, error) {
	return s.resolve(ctx, s.requires, names, branch, archs)
}

func (s *Store) resolve(ctx context.Context, byName map[string][]relation.PackageID, names []string, branch string, archs []string) (map[string][]relation.PackageID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]relation.PackageID, len(names))
	for _, name := range names {
		for _, id := range byName[name] {
			p := s.pkgs[id]
			if _, ok := p.branches[branch]; branch != "" && !ok {
				continue
			}
			if len(archs) > 0 && !slices.Contains(archs, p.info.Arch) {
				continue
			}
			out[name] = append(out[name], id)
		}
	}
	return out, nil
}
