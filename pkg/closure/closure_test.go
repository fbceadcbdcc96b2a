package closure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/repodeps/pkg/errutils"
	"github.com/glorpus-work/repodeps/pkg/relation"
	mock_relation "github.com/glorpus-work/repodeps/pkg/relation/mocks"
)

// graphStore serves a fixed relation graph; provides/requires are keyed by
// capability name.
type graphStore struct {
	requires map[relation.PackageID][]string
	provides map[relation.PackageID][]string
}

func (g *graphStore) FetchRelations(_ context.Context, ids []relation.PackageID, kinds []relation.Kind) ([]relation.Relation, error) {
	var out []relation.Relation
	for _, id := range ids {
		for _, k := range kinds {
			src := g.requires
			if k == relation.Provide {
				src = g.provides
			}
			for _, n := range src[id] {
				out = append(out, relation.Relation{Owner: id, Kind: k, Name: n})
			}
		}
	}
	return out, nil
}

func (g *graphStore) FetchVersionInfo(context.Context, []relation.PackageID) (map[relation.PackageID]relation.VersionInfo, error) {
	return nil, nil
}

func (g *graphStore) ResolveProvides(_ context.Context, names []string, _ string, _ []string) (map[string][]relation.PackageID, error) {
	return g.lookup(g.provides, names), nil
}

func (g *graphStore) ResolveRequirers(_ context.Context, names []string, _ string, _ []string) (map[string][]relation.PackageID, error) {
	return g.lookup(g.requires, names), nil
}

func (g *graphStore) lookup(src map[relation.PackageID][]string, names []string) map[string][]relation.PackageID {
	out := make(map[string][]relation.PackageID)
	for _, n := range names {
		for id, caps := range src {
			for _, c := range caps {
				if c == n {
					out[n] = append(out[n], id)
				}
			}
		}
	}
	return out
}

// app(1) -> libfoo(2) -> libc(3); libfoo -> libbar(4) -> libc; tool(5) -> libbar; 6 and 7 require each other.
func testGraph() *graphStore {
	return &graphStore{
		requires: map[relation.PackageID][]string{
			1: {"libfoo.so"},
			2: {"libc.so", "libbar.so"},
			4: {"libc.so"},
			5: {"libbar.so"},
			6: {"seven"},
			7: {"six"},
		},
		provides: map[relation.PackageID][]string{
			1: {"app"},
			2: {"libfoo.so"},
			3: {"libc.so"},
			4: {"libbar.so"},
			5: {"tool"},
			6: {"six"},
			7: {"seven"},
		},
	}
}

func TestExpand(t *testing.T) {
	b := &Builder{Store: testGraph(), Branch: "sisyphus", Archs: []string{"x86_64"}}

	got, err := b.Expand(context.Background(), []relation.PackageID{1})
	require.NoError(t, err)
	assert.Equal(t, []relation.PackageID{1, 2, 3, 4}, got.Sorted())

	got, err = b.Expand(context.Background(), []relation.PackageID{5, 6})
	require.NoError(t, err)
	assert.Equal(t, []relation.PackageID{3, 4, 5, 6, 7}, got.Sorted())
}

func TestExpand_Fixpoint(t *testing.T) {
	b := &Builder{Store: testGraph()}
	first, err := b.Expand(context.Background(), []relation.PackageID{1, 5})
	require.NoError(t, err)
	for _, id := range []relation.PackageID{1, 5} {
		assert.True(t, first.Has(id), "result must contain the seed")
	}

	second, err := b.Expand(context.Background(), first.Sorted())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpand_Rounds(t *testing.T) {
	var rounds []Round
	b := &Builder{Store: testGraph(), OnRound: func(r Round) { rounds = append(rounds, r) }}

	_, err := b.Expand(context.Background(), []relation.PackageID{1})
	require.NoError(t, err)
	assert.Equal(t, []Round{
		{Number: 1, Frontier: 1, Discovered: 1},
		{Number: 2, Frontier: 1, Discovered: 2},
		{Number: 3, Frontier: 2, Discovered: 0},
	}, rounds)
}

func TestExpand_RoundLimit(t *testing.T) {
	b := &Builder{Store: testGraph(), MaxRounds: 2}
	_, err := b.Expand(context.Background(), []relation.PackageID{1})
	assert.ErrorIs(t, err, errutils.ErrClosureRoundLimit)

	b.MaxRounds = 3
	got, err := b.Expand(context.Background(), []relation.PackageID{1})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestExpand_EmptySeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: the store must not be called.
	b := &Builder{Store: mock_relation.NewMockStore(ctrl)}
	got, err := b.Expand(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpand_NoRequiresSkipsResolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_relation.NewMockStore(ctrl)
	store.EXPECT().FetchRelations(gomock.Any(), []relation.PackageID{9}, []relation.Kind{relation.Require}).Return(nil, nil).Times(1)

	b := &Builder{Store: store, Branch: "p10"}
	got, err := b.Expand(context.Background(), []relation.PackageID{9})
	require.NoError(t, err)
	assert.Equal(t, []relation.PackageID{9}, got.Sorted())
}

func TestExpand_PassesBranchAndArchs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_relation.NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().FetchRelations(gomock.Any(), []relation.PackageID{1}, []relation.Kind{relation.Require}).
			Return([]relation.Relation{{Owner: 1, Kind: relation.Require, Name: "b"}, {Owner: 1, Kind: relation.Require, Name: "a"}}, nil),
		store.EXPECT().ResolveProvides(gomock.Any(), []string{"a", "b"}, "p10", []string{"x86_64", "noarch"}).
			Return(map[string][]relation.PackageID{"a": {2}, "b": {2, 1}}, nil),
		store.EXPECT().FetchRelations(gomock.Any(), []relation.PackageID{2}, []relation.Kind{relation.Require}).
			Return(nil, nil),
	)

	b := &Builder{Store: store, Branch: "p10", Archs: []string{"x86_64", "noarch"}}
	got, err := b.Expand(context.Background(), []relation.PackageID{1})
	require.NoError(t, err)
	assert.Equal(t, []relation.PackageID{1, 2}, got.Sorted())
}

func TestExpand_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("connection refused")
	store := mock_relation.NewMockStore(ctrl)
	store.EXPECT().FetchRelations(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]relation.Relation{{Owner: 1, Kind: relation.Require, Name: "a"}}, nil)
	store.EXPECT().ResolveProvides(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	b := &Builder{Store: store}
	_, err := b.Expand(context.Background(), []relation.PackageID{1})
	assert.ErrorIs(t, err, boom)
}

func TestExpandReverse(t *testing.T) {
	b := &Builder{Store: testGraph()}

	got, err := b.ExpandReverse(context.Background(), []relation.PackageID{3})
	require.NoError(t, err)
	assert.Equal(t, []relation.PackageID{1, 2, 4, 5}, got.Sorted())

	got, err = b.ExpandReverse(context.Background(), []relation.PackageID{1})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = b.ExpandReverse(context.Background(), []relation.PackageID{6})
	require.NoError(t, err)
	assert.Equal(t, []relation.PackageID{7}, got.Sorted())
}
