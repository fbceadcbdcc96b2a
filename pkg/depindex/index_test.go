package depindex

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

var testInfos = map[relation.PackageID]relation.VersionInfo{
	1: {Name: "foo", Version: "1.0", Release: "alt1"},
	2: {Name: "bar", Epoch: 1, Version: "2.0", Release: "alt3", Disttag: "p10+7"},
}

var testRels = []relation.Relation{
	{Owner: 1, Kind: relation.Require, Name: "libbar"},
	{Owner: 1, Kind: relation.Require, Name: "sh"},
	{Owner: 1, Kind: relation.Provide, Name: "foo", Version: "1.0-alt1", Flag: relation.FlagEqual},
	{Owner: 1, Kind: relation.Conflict, Name: "bar", Version: "1:2.0", Flag: relation.FlagLess},
	{Owner: 2, Kind: relation.Provide, Name: "bar"},
	{Owner: 2, Kind: relation.Provide, Name: "libbar"},
	{Owner: 2, Kind: relation.Obsolete, Name: "oldbar"},
	{Owner: 2, Kind: relation.Require, Name: "sh"},
}

func TestNew(t *testing.T) {
	idx, err := New([]relation.PackageID{2, 1, 1}, testRels, testInfos)
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []relation.PackageID{1, 2}, idx.IDs())
	assert.True(t, idx.Has(1))
	assert.False(t, idx.Has(3))
	assert.Equal(t, "bar", idx.Name(2))

	e, ok := idx.Entry(1)
	require.True(t, ok)
	assert.Len(t, e.Require, 2)
	assert.Len(t, e.Provide, 1)
	assert.Len(t, e.Conflict, 1)

	e, ok = idx.Entry(2)
	require.True(t, ok)
	require.Len(t, e.Conflict, 1, "obsoletes fold into conflicts")
	assert.Equal(t, relation.Obsolete, e.Conflict[0].Kind)

	v, ok := idx.Version(2)
	require.True(t, ok)
	assert.Equal(t, "1:2.0-alt3:p10+7", v.String())

	assert.Equal(t, []relation.PackageID{2}, idx.Providers("libbar"))
	assert.Empty(t, idx.Providers("nothing"))
	assert.Equal(t, []relation.PackageID{2}, idx.Conflicters("oldbar"))
	assert.Equal(t, []string{"libbar", "sh"}, idx.RequireNames(1, 2, 99))
}

func TestNew_Empty(t *testing.T) {
	idx, err := New(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.IDs())
}

func TestNew_Inconsistent(t *testing.T) {
	t.Run("relation owner not indexed", func(t *testing.T) {
		rels := append([]relation.Relation{}, testRels...)
		rels = append(rels, relation.Relation{Owner: 3, Kind: relation.Provide, Name: "x"})
		_, err := New([]relation.PackageID{1, 2}, rels, testInfos)
		assert.ErrorIs(t, err, errutils.ErrInconsistentRelation)
	})

	t.Run("missing version info", func(t *testing.T) {
		_, err := New([]relation.PackageID{1, 2, 3}, testRels, testInfos)
		assert.ErrorIs(t, err, errutils.ErrInconsistentRelation)
	})

	t.Run("package without version", func(t *testing.T) {
		infos := map[relation.PackageID]relation.VersionInfo{1: {Name: "foo"}}
		_, err := New([]relation.PackageID{1}, nil, infos)
		assert.ErrorIs(t, err, errutils.ErrMalformedVersion)
	})
}

func TestBuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ids := []relation.PackageID{1, 2}
	store := mock_relation.NewMockStore(ctrl)
	store.EXPECT().FetchRelations(gomock.Any(), ids, relation.AllKinds).Return(testRels, nil).Times(1)
	store.EXPECT().FetchVersionInfo(gomock.Any(), ids).Return(testInfos, nil).Times(1)

	idx, err := Build(context.Background(), store, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestBuild_EmptyDoesNotCallStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	idx, err := Build(context.Background(), mock_relation.NewMockStore(ctrl), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestBuild_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("store unreachable")
	store := mock_relation.NewMockStore(ctrl)
	store.EXPECT().FetchRelations(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom).AnyTimes()
	store.EXPECT().FetchVersionInfo(gomock.Any(), gomock.Any()).Return(testInfos, nil).AnyTimes()

	_, err := Build(context.Background(), store, []relation.PackageID{1})
	assert.ErrorIs(t, err, boom)
}
