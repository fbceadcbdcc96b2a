// Package snapshot reads repository snapshot files: the package list of one
// branch with every package's version identity and declared relations.
//
// A snapshot is YAML or JSON and may be compressed with any format
// github.com/mholt/archives recognizes (gz, xz, zstd, bz2, ...).
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-version"
	"github.com/mholt/archives"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/relation"
)

// SupportedFormats is the constraint a snapshot's format_version must meet.
const SupportedFormats = ">= 1.0, < 2.0"

// CurrentFormat is the format version written by this package.
const CurrentFormat = "1.0"

// Snapshot is the content of a snapshot file.
type Snapshot struct {
	FormatVersion string    `yaml:"format_version" json:"format_version"`
	Branch        string    `yaml:"branch" json:"branch"`
	Packages      []Package `yaml:"packages" json:"packages"`
}

// Package is one package build of a snapshot.
type Package struct {
	Hash    relation.PackageID `yaml:"hash" json:"hash"`
	Name    string             `yaml:"name" json:"name"`
	Epoch   uint64             `yaml:"epoch,omitempty" json:"epoch,omitempty"`
	Version string             `yaml:"version" json:"version"`
	Release string             `yaml:"release,omitempty" json:"release,omitempty"`
	Disttag string             `yaml:"disttag,omitempty" json:"disttag,omitempty"`
	Arch    string             `yaml:"arch" json:"arch"`

	Requires  []Dep `yaml:"requires,omitempty" json:"requires,omitempty"`
	Provides  []Dep `yaml:"provides,omitempty" json:"provides,omitempty"`
	Conflicts []Dep `yaml:"conflicts,omitempty" json:"conflicts,omitempty"`
	Obsoletes []Dep `yaml:"obsoletes,omitempty" json:"obsoletes,omitempty"`
}

// Dep is a declared relation without its owner and kind.
type Dep struct {
	Name    string        `yaml:"name" json:"name"`
	Version string        `yaml:"version,omitempty" json:"version,omitempty"`
	Flags   relation.Flag `yaml:"flags,omitempty" json:"flags,omitempty"`
}

// Info returns the version identity of p.
func (p Package) Info() relation.VersionInfo {
	return relation.VersionInfo{
		Name:    p.Name,
		Epoch:   p.Epoch,
		Version: p.Version,
		Release: p.Release,
		Disttag: p.Disttag,
		Arch:    p.Arch,
	}
}

// EVR renders p's version the way relations reference it.
func (p Package) EVR() string {
	s := p.Version
	if p.Epoch != 0 {
		s = strconv.FormatUint(p.Epoch, 10) + ":" + s
	}
	if p.Release != "" {
		s += "-" + p.Release
	}
	return s
}

// Relations returns every relation p declares, kinds in declaration order.
func (p Package) Relations() []relation.Relation {
	var out []relation.Relation
	for _, g := range []struct {
		kind relation.Kind
		deps []Dep
	}{
		{relation.Require, p.Requires},
		{relation.Provide, p.Provides},
		{relation.Conflict, p.Conflicts},
		{relation.Obsolete, p.Obsoletes},
	} {
		for _, d := range g.deps {
			out = append(out, relation.Relation{Owner: p.Hash, Kind: g.kind, Name: d.Name, Version: d.Version, Flag: d.Flags})
		}
	}
	return out
}

// Load reads the snapshot file at path.
func Load(ctx context.Context, path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to open snapshot %s", path)
	}
	defer func() { _ = f.Close() }()

	s, err := Decode(ctx, path, f)
	if err != nil {
		return nil, errutils.Wrapf(err, "snapshot %s", path)
	}
	return s, nil
}

// Decode reads a snapshot from r. name is only used to help identify the
// compression format and may be empty. The result is validated and every
// package is given a provide of its own name when it lacks one.
func Decode(ctx context.Context, name string, r io.Reader) (*Snapshot, error) {
	rc, err := decompress(ctx, name, r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var s Snapshot
	dec := yaml.NewDecoder(rc)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errutils.Wrap(errutils.ErrSnapshotParse, "empty input")
		}
		return nil, fmt.Errorf("%w: %w", errutils.ErrSnapshotParse, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.addSelfProvides()
	return &s, nil
}

func decompress(ctx context.Context, name string, r io.Reader) (io.ReadCloser, error) {
	format, stream, err := archives.Identify(ctx, name, r)
	if errors.Is(err, archives.NoMatch) {
		return io.NopCloser(stream), nil
	}
	if err != nil {
		return nil, errutils.Wrap(err, "failed to identify snapshot format")
	}

	dec, ok := format.(archives.Decompressor)
	if !ok {
		return nil, errutils.Wrapf(errutils.ErrSnapshotParse, "%s archives are not supported, expected a single compressed file", format.Extension())
	}
	rc, err := dec.OpenReader(stream)
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to open %s stream", format.Extension())
	}
	return rc, nil
}

// Validate checks the format version and that every package has a unique
// hash, a name and a version.
func (s *Snapshot) Validate() error {
	if err := CheckFormat(s.FormatVersion); err != nil {
		return err
	}
	seen := make(map[relation.PackageID]struct{}, len(s.Packages))
	for i, p := range s.Packages {
		switch {
		case p.Name == "":
			return errutils.Wrapf(errutils.ErrSnapshotParse, "package %d has no name", i)
		case p.Version == "":
			return errutils.Wrapf(errutils.ErrSnapshotParse, "package %s has no version", p.Name)
		}
		if _, dup := seen[p.Hash]; dup {
			return errutils.Wrapf(errutils.ErrSnapshotParse, "duplicate package hash %s", p.Hash)
		}
		seen[p.Hash] = struct{}{}
	}
	return nil
}

// CheckFormat reports whether v satisfies SupportedFormats.
func CheckFormat(v string) error {
	constraint, err := version.NewConstraint(SupportedFormats)
	if err != nil {
		return err
	}
	parsed, err := version.NewVersion(v)
	if err != nil {
		return errutils.ErrUnsupportedSnapshotWithVersion(v, SupportedFormats)
	}
	if !constraint.Check(parsed) {
		return errutils.ErrUnsupportedSnapshotWithVersion(v, SupportedFormats)
	}
	return nil
}

// addSelfProvides gives every package a versioned provide of its own name
// unless it already declares one.
func (s *Snapshot) addSelfProvides() {
	for i := range s.Packages {
		p := &s.Packages[i]
		found := false
		for _, d := range p.Provides {
			if d.Name == p.Name {
				found = true
				break
			}
		}
		if !found {
			p.Provides = append(p.Provides, Dep{Name: p.Name, Version: p.EVR(), Flags: relation.FlagEqual})
		}
	}
}

// Encode writes s as YAML.
func Encode(w io.Writer, s *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return errutils.Wrap(err, "failed to encode snapshot")
	}
	return enc.Close()
}
