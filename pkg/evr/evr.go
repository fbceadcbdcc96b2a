// Package evr parses and orders ALT-style package versions.
//
// A version string has the canonical form
//
//	[epoch:]version[-release][:disttag]
//
// where release normally carries the ALT "alt" marker (1.0-alt1) and disttag
// names the branch build the package came from (p10+123456.100.1.1).
package evr

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/glorpus-work/repodeps/pkg/errutils"
)

// altMarker splits version from release in ALT release strings.
const altMarker = "-alt"

// Key is a parsed version. Release and Disttag are nil when the source string
// had no such segment.
type Key struct {
	Epoch   uint64
	Version string
	Release *string
	Disttag *string
}

// Parse returns the Key for raw, or an error wrapping
// errutils.ErrMalformedVersion if raw has no version component or its epoch
// is not a non-negative integer.
func Parse(raw string) (Key, error) {
	ev, rest := raw, ""
	if i := strings.Index(raw, altMarker); i != -1 {
		ev, rest = raw[:i], raw[i:]
	} else if i := strings.IndexByte(raw, '-'); i != -1 {
		ev, rest = raw[:i], raw[i:]
	}

	var k Key
	k.Version = ev
	if e, v, ok := strings.Cut(ev, ":"); ok {
		n, err := strconv.ParseUint(e, 10, 64)
		if err != nil {
			return Key{}, errutils.ErrMalformedVersionWithInput(raw, "epoch is not a non-negative integer")
		}
		k.Epoch = n
		k.Version = v
	}
	if k.Version == "" {
		return Key{}, errutils.ErrMalformedVersionWithInput(raw, "missing version component")
	}

	if rest == "" {
		return k, nil
	}
	rel, tag, hasTag := strings.Cut(rest, ":")
	if rel = strings.TrimPrefix(rel, "-"); rel != "" {
		k.Release = &rel
	}
	if hasTag && tag != "" {
		k.Disttag = &tag
	}
	return k, nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// constants and tests.
func MustParse(raw string) Key {
	k, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return k
}

// FromFields builds a Key from separately stored fields. Empty release and
// disttag are treated as absent.
func FromFields(epoch uint64, version, release, disttag string) Key {
	k := Key{Epoch: epoch, Version: version}
	if release != "" {
		k.Release = &release
	}
	if disttag != "" {
		k.Disttag = &disttag
	}
	return k
}

// String implements fmt.Stringer. A zero epoch is omitted.
func (k Key) String() string {
	var b strings.Builder
	if k.Epoch != 0 {
		b.WriteString(strconv.FormatUint(k.Epoch, 10))
		b.WriteByte(':')
	}
	b.WriteString(k.Version)
	if k.Release != nil {
		b.WriteByte('-')
		b.WriteString(*k.Release)
	}
	if k.Disttag != nil {
		b.WriteByte(':')
		b.WriteString(*k.Disttag)
	}
	return b.String()
}

// EVR returns the key formatted without its disttag.
func (k Key) EVR() string {
	k.Disttag = nil
	return k.String()
}

// HasRelease reports whether the key carries a release.
func (k Key) HasRelease() bool { return k.Release != nil }

// HasDisttag reports whether the key carries a non-empty disttag.
func (k Key) HasDisttag() bool { return k.Disttag != nil && *k.Disttag != "" }

// Compare orders two keys, returning -1, 0 or 1.
//
// Epochs compare numerically and versions with Vercmp. Releases are compared
// only when both keys have one, and disttags only when both keys have a
// non-empty one: a field defined on one side only never affects the result.
func Compare(a, b Key) int {
	if c := cmp.Compare(a.Epoch, b.Epoch); c != 0 {
		return c
	}
	if c := Vercmp(a.Version, b.Version); c != 0 {
		return c
	}
	if a.HasRelease() && b.HasRelease() {
		if c := Vercmp(*a.Release, *b.Release); c != 0 {
			return c
		}
	}
	if a.HasDisttag() && b.HasDisttag() {
		return Vercmp(*a.Disttag, *b.Disttag)
	}
	return 0
}

// CompareStrings parses both arguments and compares them.
func CompareStrings(a, b string) (int, error) {
	ka, err := Parse(a)
	if err != nil {
		return 0, err
	}
	kb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(ka, kb), nil
}
