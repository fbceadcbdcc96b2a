// Package conflict decides whether two packages can be installed together.
//
// A package X conflicts with Y when one of X's Conflict (or Obsolete)
// relations names something Y provides and, for a versioned relation, Y's own
// version satisfies the relation's comparison flag. Both directions are
// checked for every pair.
package conflict

import (
	"cmp"
	"slices"

	"github.com/glorpus-work/repodeps/pkg/depindex"
	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/evr"
	"github.com/glorpus-work/repodeps/pkg/relation"
)

// Pair is an unordered pair of packages.
type Pair struct {
	A relation.PackageID `json:"a"`
	B relation.PackageID `json:"b"`
}

// key returns the pair with its members in ascending order.
func (p Pair) key() Pair {
	if p.B < p.A {
		return Pair{A: p.B, B: p.A}
	}
	return p
}

// Finding is a detected conflict together with the relations that caused it.
type Finding struct {
	Pair     Pair               `json:"pair"`
	Declarer relation.PackageID `json:"declarer"`
	Target   relation.PackageID `json:"target"`
	Conflict relation.Relation  `json:"conflict"`
	Provide  relation.Relation  `json:"provide"`
}

// Detect returns the pairs that conflict, in input order. A pair is reported
// once no matter how many relations match or in which direction; repeated
// input pairs, in either orientation, are reported once.
func Detect(pairs []Pair, idx *depindex.Index) ([]Pair, error) {
	findings, err := Findings(pairs, idx)
	if err != nil {
		return nil, err
	}
	out := make([]Pair, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Pair)
	}
	return out, nil
}

// Findings is like Detect but also reports the first matching relation of
// each conflicting pair. The pair's first member is checked as declarer
// before the second.
func Findings(pairs []Pair, idx *depindex.Index) ([]Finding, error) {
	var out []Finding
	seen := make(map[Pair]struct{}, len(pairs))
	for _, p := range pairs {
		for _, id := range []relation.PackageID{p.A, p.B} {
			if !idx.Has(id) {
				return nil, errutils.ErrInconsistentRelationWithPackage(id)
			}
		}
		if p.A == p.B {
			continue
		}
		if _, ok := seen[p.key()]; ok {
			continue
		}

		f, ok, err := match(idx, p.A, p.B)
		if err != nil {
			return nil, err
		}
		if !ok {
			if f, ok, err = match(idx, p.B, p.A); err != nil {
				return nil, err
			}
		}
		if ok {
			f.Pair = p
			out = append(out, f)
			seen[p.key()] = struct{}{}
		}
	}
	return out, nil
}

// match checks declarer's conflicts against target's provides.
func match(idx *depindex.Index, declarer, target relation.PackageID) (Finding, bool, error) {
	d, _ := idx.Entry(declarer)
	t, _ := idx.Entry(target)
	if len(d.Conflict) == 0 || len(t.Provide) == 0 {
		return Finding{}, false, nil
	}
	targetKey, _ := idx.Version(target)

	for _, c := range d.Conflict {
		for _, p := range t.Provide {
			if c.Name != p.Name {
				continue
			}
			hit, err := Applies(c, targetKey)
			if err != nil {
				return Finding{}, false, errutils.Wrapf(err, "package %s %s", declarer, c.Kind)
			}
			if hit {
				return Finding{Declarer: declarer, Target: target, Conflict: c, Provide: p}, true, nil
			}
			// Later provides of the same name cannot change the verdict: the
			// comparison uses the target package's own version.
			break
		}
	}
	return Finding{}, false, nil
}

// Applies reports whether conflict relation c hits a package whose version is
// target. Unconditional relations always apply; otherwise target is compared
// against c.Version and the result is checked against c.Flag.
func Applies(c relation.Relation, target evr.Key) (bool, error) {
	if c.Unconditional() {
		return true, nil
	}
	want, err := evr.Parse(c.Version)
	if err != nil {
		return false, err
	}
	return c.Flag.Matches(evr.Compare(target, want)), nil
}

// CandidatePairs returns every pair of distinct indexed packages where one
// declares a conflict or obsolete on a name the other provides, sorted.
func CandidatePairs(idx *depindex.Index) []Pair {
	seen := make(map[Pair]struct{})
	for _, id := range idx.IDs() {
		e, _ := idx.Entry(id)
		for _, c := range e.Conflict {
			for _, other := range idx.Providers(c.Name) {
				if other == id {
					continue
				}
				seen[Pair{A: id, B: other}.key()] = struct{}{}
			}
		}
	}

	out := make([]Pair, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.SortFunc(out, func(x, y Pair) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}
