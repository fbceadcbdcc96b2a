package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/repodeps/pkg/errutils"
)

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"require": Require, "Requires": Require, "R": Require,
		"provide": Provide, "provides": Provide, "p": Provide,
		"conflict": Conflict, "conflicts": Conflict, "C": Conflict,
		"obsolete": Obsolete, "obsoletes": Obsolete, "o": Obsolete,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("suggests")
	assert.ErrorIs(t, err, errutils.ErrUnknownRelationKind)
}

func TestKind_TextRoundTrip(t *testing.T) {
	var out struct {
		Kinds []Kind `yaml:"kinds"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("kinds: [requires, P, conflict, obsoletes]"), &out))
	assert.Equal(t, []Kind{Require, Provide, Conflict, Obsolete}, out.Kinds)

	data, err := yaml.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- obsolete")
}

func TestFlag(t *testing.T) {
	tests := []struct {
		flag                      Flag
		less, greater, equal      bool
		matchLT, matchEQ, matchGT bool
		str                       string
	}{
		{0, false, false, false, false, false, false, ""},
		{FlagLess, true, false, false, true, false, false, "<"},
		{FlagGreater, false, true, false, false, false, true, ">"},
		{FlagEqual, false, false, true, false, true, false, "="},
		{FlagLess | FlagEqual, true, false, true, true, true, false, "<="},
		{FlagGreater | FlagEqual, false, true, true, false, true, true, ">="},
		{FlagLess | 64, true, false, false, true, false, false, "<"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.less, tt.flag.IsLess())
			assert.Equal(t, tt.greater, tt.flag.IsGreater())
			assert.Equal(t, tt.equal, tt.flag.IsEqual())
			assert.Equal(t, tt.matchLT, tt.flag.Matches(-1))
			assert.Equal(t, tt.matchEQ, tt.flag.Matches(0))
			assert.Equal(t, tt.matchGT, tt.flag.Matches(1))
			assert.Equal(t, tt.str, tt.flag.String())
		})
	}
	assert.False(t, Flag(64).Versioned(), "non-comparison bits alone are unversioned")
}

func TestParseFlag(t *testing.T) {
	tests := map[string]Flag{
		"":   0,
		"<":  FlagLess,
		"<=": FlagLess | FlagEqual,
		"=<": FlagLess | FlagEqual,
		">=": FlagGreater | FlagEqual,
		" = ": FlagEqual,
		"8":  FlagEqual,
		"74": FlagEqual | 64 | FlagLess,
	}
	for in, want := range tests {
		got, err := ParseFlag(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"==", "!=", "lt", "-1"} {
		_, err := ParseFlag(in)
		assert.ErrorIs(t, err, errutils.ErrUnknownFlag, in)
	}
}

func TestFlag_YAML(t *testing.T) {
	var dep struct {
		Flag  Flag `yaml:"flag"`
		Raw   Flag `yaml:"raw"`
		Unset Flag `yaml:"unset"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("flag: '>='\nraw: 72\n"), &dep))
	assert.Equal(t, FlagGreater|FlagEqual, dep.Flag)
	assert.Equal(t, FlagEqual|64, dep.Raw)
	assert.Equal(t, Flag(0), dep.Unset)

	out, err := yaml.Marshal(dep)
	require.NoError(t, err)
	assert.Contains(t, string(out), "raw: \"72\"", "non-comparison bits are kept as a number")

	again := dep
	again.Flag, again.Raw = 0, 0
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, dep, again)
}

func TestRelation_Unconditional(t *testing.T) {
	assert.True(t, Relation{Name: "foo"}.Unconditional())
	assert.True(t, Relation{Name: "foo", Version: "1.0"}.Unconditional())
	assert.True(t, Relation{Name: "foo", Flag: FlagLess}.Unconditional())
	assert.False(t, Relation{Name: "foo", Version: "1.0", Flag: FlagLess}.Unconditional())

	assert.Equal(t, "foo", Relation{Name: "foo"}.String())
	assert.Equal(t, "foo <= 1:1.0-alt1", Relation{Name: "foo", Version: "1:1.0-alt1", Flag: FlagLess | FlagEqual}.String())
}

func TestVersionInfo_Key(t *testing.T) {
	k, err := VersionInfo{Name: "foo", Epoch: 1, Version: "2.0", Release: "alt1", Disttag: "p10+1"}.Key()
	require.NoError(t, err)
	assert.Equal(t, "1:2.0-alt1:p10+1", k.String())

	_, err = VersionInfo{Name: "broken"}.Key()
	assert.ErrorIs(t, err, errutils.ErrMalformedVersion)
}

func TestIDSet(t *testing.T) {
	s := NewIDSet(3, 1, 2, 3)
	assert.Len(t, s, 3)
	assert.True(t, s.Has(1))
	assert.False(t, s.Has(4))
	assert.Equal(t, []PackageID{1, 2, 3}, s.Sorted())

	c := s.Clone()
	c.Add(9)
	assert.False(t, s.Has(9))

	s.Union(NewIDSet(7, 8))
	assert.Equal(t, []PackageID{1, 2, 3, 7, 8}, s.Sorted())
}

func TestParsePackageID(t *testing.T) {
	id, err := ParsePackageID(" 18446744073709551615 ")
	require.NoError(t, err)
	assert.Equal(t, PackageID(18446744073709551615), id)
	assert.Equal(t, "18446744073709551615", id.String())

	_, err = ParsePackageID("abc")
	assert.Error(t, err)
}
