package buildorder

import (
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/repodeps/pkg/errutils"
)

// assertValid checks that every dependency not broken by a reported cycle
// precedes its dependent and that every name appears exactly once.
func assertValid(t *testing.T, deps map[string][]string, res Result) {
	t.Helper()
	pos := make(map[string]int, len(res.Order))
	for i, n := range res.Order {
		_, dup := pos[n]
		require.False(t, dup, "%s appears twice in %v", n, res.Order)
		pos[n] = i
	}
	broken := make(map[Edge]bool)
	for _, c := range res.Cycles {
		broken[c.Broken] = true
	}
	for p, list := range deps {
		require.Contains(t, pos, p)
		for _, d := range list {
			require.Contains(t, pos, d)
			if broken[Edge{From: p, To: d}] {
				continue
			}
			assert.Less(t, pos[d], pos[p], "%s must precede %s", d, p)
		}
	}
}

func exampleGraph() map[string][]string {
	return map[string][]string{
		"a": {},
		"b": {"c", "a"},
		"c": {"d", "b", "a"},
		"d": {"e", "a"},
		"e": {"a"},
		"f": {"b", "c", "e", "a"},
	}
}

func TestSort_Example(t *testing.T) {
	for _, tb := range []TieBreak{TieBreakSize, TieBreakLexical} {
		t.Run(tb.String(), func(t *testing.T) {
			deps := exampleGraph()
			res := Sorter{TieBreak: tb}.Sort(deps)

			assert.Equal(t, []string{"a", "e", "d", "c", "b", "f"}, res.Order)
			assert.Equal(t, []Cycle{{Members: []string{"b", "c"}, Broken: Edge{From: "c", To: "b"}}}, res.Cycles)
			assertValid(t, deps, res)
			assert.Equal(t, exampleGraph(), deps, "input must not be modified")
		})
	}
}

func TestSort_Empty(t *testing.T) {
	for _, deps := range []map[string][]string{nil, {}} {
		res := Sorter{}.Sort(deps)
		assert.NotNil(t, res.Order)
		assert.NotNil(t, res.Cycles)
		assert.Empty(t, res.Order)
		assert.Empty(t, res.Cycles)
	}
}

func TestSort_LeavesAndDuplicates(t *testing.T) {
	deps := map[string][]string{
		"app":  {"libz", "libz", "glibc"},
		"libz": {"glibc"},
	}
	res := Sorter{}.Sort(deps)
	assert.Equal(t, []string{"glibc", "libz", "app"}, res.Order)
	assert.Empty(t, res.Cycles)
}

func TestSort_SelfDependency(t *testing.T) {
	deps := map[string][]string{"a": {"a", "b"}}
	res := Sorter{}.Sort(deps)
	assert.Equal(t, []string{"b", "a"}, res.Order)
	assert.Equal(t, []Cycle{{Members: []string{"a"}, Broken: Edge{From: "a", To: "a"}}}, res.Cycles)
}

func TestSort_TieBreakPolicies(t *testing.T) {
	deps := map[string][]string{
		"a": {"b", "c", "d"},
		"b": {"a"},
	}

	size := Sorter{TieBreak: TieBreakSize}.Sort(deps)
	assert.Equal(t, []Cycle{{Members: []string{"a", "b"}, Broken: Edge{From: "a", To: "b"}}}, size.Cycles)
	assert.Equal(t, []string{"d", "c", "a", "b"}, size.Order)
	assertValid(t, deps, size)

	lexical := Sorter{TieBreak: TieBreakLexical}.Sort(deps)
	assert.Equal(t, []Cycle{{Members: []string{"a", "b"}, Broken: Edge{From: "b", To: "a"}}}, lexical.Cycles)
	assert.Equal(t, []string{"d", "c", "b", "a"}, lexical.Order)
	assertValid(t, deps, lexical)
}

func TestSort_SizeTieBreakFollowsShrinkingLists(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"a", "c"},
		"c": {"b"},
	}
	res := Sorter{}.Sort(deps)
	want := []Cycle{
		{Members: []string{"a", "b"}, Broken: Edge{From: "b", To: "a"}},
		{Members: []string{"b", "c"}, Broken: Edge{From: "c", To: "b"}},
	}
	if diff := cmp.Diff(want, res.Cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"c", "b", "a"}, res.Order)
}

func TestSort_LongCycle(t *testing.T) {
	t.Run("reachable from a leaf", func(t *testing.T) {
		deps := map[string][]string{
			"x": {"y", "base"},
			"y": {"z"},
			"z": {"x"},
		}
		res := Sorter{}.Sort(deps)
		require.Len(t, res.Cycles, 1)
		assert.Equal(t, Edge{From: "x", To: "y"}, res.Cycles[0].Broken)
		assert.ElementsMatch(t, []string{"x", "y", "z"}, res.Cycles[0].Members)
		assert.Equal(t, []string{"base", "x", "z", "y"}, res.Order)
		assertValid(t, deps, res)
	})

	t.Run("closed", func(t *testing.T) {
		deps := map[string][]string{
			"x": {"y"},
			"y": {"z"},
			"z": {"x"},
		}
		res := Sorter{}.Sort(deps)
		require.Len(t, res.Cycles, 1)
		assert.Equal(t, []string{"x", "z", "y"}, res.Order)
		assertValid(t, deps, res)
	})
}

func TestSort_DeepChain(t *testing.T) {
	const n = 200000
	deps := make(map[string][]string, n)
	name := func(i int) string { return fmt.Sprintf("p%07d", i) }
	for i := 1; i < n; i++ {
		deps[name(i)] = []string{name(i - 1)}
	}

	res := Sorter{}.Sort(deps)
	require.Len(t, res.Order, n)
	assert.Empty(t, res.Cycles)
	assert.True(t, slices.IsSorted(res.Order))
}

func TestParseTieBreak(t *testing.T) {
	for in, want := range map[string]TieBreak{"": TieBreakSize, "size": TieBreakSize, " Lexical ": TieBreakLexical} {
		got, err := ParseTieBreak(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseTieBreak("random")
	assert.ErrorIs(t, err, errutils.ErrInvalidTieBreak)

	var tb TieBreak
	require.NoError(t, tb.UnmarshalText([]byte("lexical")))
	assert.Equal(t, TieBreakLexical, tb)
	text, err := tb.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "lexical", string(text))
}
