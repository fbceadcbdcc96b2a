package relation

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// PackageID identifies one package build: the header hash assigned by the
// repository. It is stable within a snapshot and never reused.
type PackageID uint64

// String implements fmt.Stringer.
func (id PackageID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParsePackageID parses a decimal package hash.
func ParsePackageID(s string) (PackageID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return PackageID(n), nil
}

// IDSet is a set of package IDs.
type IDSet map[PackageID]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...PackageID) IDSet {
	s := make(IDSet, len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids into the set.
func (s IDSet) Add(ids ...PackageID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports whether id is in the set.
func (s IDSet) Has(id PackageID) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of o to s.
func (s IDSet) Union(o IDSet) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Clone returns a copy of s.
func (s IDSet) Clone() IDSet {
	return maps.Clone(s)
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []PackageID {
	return slices.Sorted(maps.Keys(s))
}
