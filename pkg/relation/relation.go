// Package relation defines the dependency records the engine works on and the
// store that supplies them.
package relation

import (
	"strconv"
	"strings"

	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/evr"
)

// Kind is the kind of a dependency relation.
type Kind int

// Relation kinds.
const (
	Require Kind = iota + 1
	Provide
	Conflict
	Obsolete
)

// AllKinds lists every relation kind in declaration order.
var AllKinds = []Kind{Require, Provide, Conflict, Obsolete}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Require:
		return "require"
	case Provide:
		return "provide"
	case Conflict:
		return "conflict"
	case Obsolete:
		return "obsolete"
	default:
		return "unknown"
	}
}

// ParseKind maps a kind name to a Kind. Singular, plural and the single letter
// forms used by repository dumps (R, P, C, O) are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "require", "requires", "r":
		return Require, nil
	case "provide", "provides", "p":
		return Provide, nil
	case "conflict", "conflicts", "c":
		return Conflict, nil
	case "obsolete", "obsoletes", "o":
		return Obsolete, nil
	}
	return 0, errutils.Wrapf(errutils.ErrUnknownRelationKind, "%q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Flag is the rpm sense bitmask attached to a relation.
type Flag uint32

// Comparison bits of the sense bitmask.
const (
	FlagLess    Flag = 1 << 1
	FlagGreater Flag = 1 << 2
	FlagEqual   Flag = 1 << 3

	// SenseMask selects the comparison bits; everything else (pre-requisite
	// markers and the like) is irrelevant to version matching.
	SenseMask = FlagLess | FlagGreater | FlagEqual
)

// IsLess reports whether the less-than bit is set.
func (f Flag) IsLess() bool { return f&FlagLess != 0 }

// IsGreater reports whether the greater-than bit is set.
func (f Flag) IsGreater() bool { return f&FlagGreater != 0 }

// IsEqual reports whether the equal bit is set.
func (f Flag) IsEqual() bool { return f&FlagEqual != 0 }

// Versioned reports whether any comparison bit is set.
func (f Flag) Versioned() bool { return f&SenseMask != 0 }

// Matches reports whether a three-way comparison result (-1, 0, 1) of the
// candidate version against the relation version satisfies the flag.
func (f Flag) Matches(c int) bool {
	switch {
	case c < 0:
		return f.IsLess()
	case c > 0:
		return f.IsGreater()
	default:
		return f.IsEqual()
	}
}

// String renders the comparison bits as an operator, e.g. "<=".
func (f Flag) String() string {
	var b strings.Builder
	if f.IsLess() {
		b.WriteByte('<')
	}
	if f.IsGreater() {
		b.WriteByte('>')
	}
	if f.IsEqual() {
		b.WriteByte('=')
	}
	return b.String()
}

// ParseFlag parses an operator such as "<=" or ">" into a Flag. A decimal
// number is taken as a raw sense bitmask, as found in rpm headers.
func ParseFlag(s string) (Flag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return Flag(n), nil
	}
	var f Flag
	for _, c := range s {
		var bit Flag
		switch c {
		case '<':
			bit = FlagLess
		case '>':
			bit = FlagGreater
		case '=':
			bit = FlagEqual
		default:
			return 0, errutils.Wrapf(errutils.ErrUnknownFlag, "%q", s)
		}
		if f&bit != 0 {
			return 0, errutils.Wrapf(errutils.ErrUnknownFlag, "%q", s)
		}
		f |= bit
	}
	return f, nil
}

// MarshalText implements encoding.TextMarshaler. Flags carrying bits other
// than the comparison bits are written as a number so they survive a round
// trip.
func (f Flag) MarshalText() ([]byte, error) {
	if f&^SenseMask != 0 {
		return []byte(strconv.FormatUint(uint64(f), 10)), nil
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flag) UnmarshalText(text []byte) error {
	v, err := ParseFlag(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Relation is one declared dependency of a package.
type Relation struct {
	Owner   PackageID `json:"owner" yaml:"owner"`
	Kind    Kind      `json:"kind" yaml:"kind"`
	Name    string    `json:"name" yaml:"name"`
	Version string    `json:"version,omitempty" yaml:"version,omitempty"`
	Flag    Flag      `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// Unconditional reports whether the relation matches every version of Name.
func (r Relation) Unconditional() bool {
	return r.Version == "" || !r.Flag.Versioned()
}

// String renders the relation the way rpm prints dependencies.
func (r Relation) String() string {
	if r.Unconditional() {
		return r.Name
	}
	return r.Name + " " + r.Flag.String() + " " + r.Version
}

// VersionInfo is the stored version identity of a package.
type VersionInfo struct {
	Name    string `json:"name" yaml:"name"`
	Epoch   uint64 `json:"epoch" yaml:"epoch"`
	Version string `json:"version" yaml:"version"`
	Release string `json:"release,omitempty" yaml:"release,omitempty"`
	Disttag string `json:"disttag,omitempty" yaml:"disttag,omitempty"`
	Arch    string `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// Key returns the package's version key. A missing version component is
// reported as errutils.ErrMalformedVersion.
func (v VersionInfo) Key() (evr.Key, error) {
	if v.Version == "" {
		return evr.Key{}, errutils.ErrMalformedVersionWithInput(v.Name, "package has no version")
	}
	return evr.FromFields(v.Epoch, v.Version, v.Release, v.Disttag), nil
}
