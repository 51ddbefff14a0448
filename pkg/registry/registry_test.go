package registry

import (
	"path/filepath"
	"testing"

	"github.com/sacovo/vectord/pkg/index"
	"github.com/sacovo/vectord/pkg/storage"
	"github.com/sacovo/vectord/pkg/vdberr"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg, err := New(store, 2)
	require.NoError(t, err)
	return reg
}

func TestCreateInitAddQueryRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)

	ok, err := reg.CreateIndex("widgets", "l2", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, reg.IndexExists("widgets"))

	require.NoError(t, reg.InitIndex("widgets", 100, 200, 16))
	require.NoError(t, reg.AddItems("widgets", [][]float32{{1, 0, 0}, {0, 1, 0}}, []int{1, 2}))

	labels, _, err := reg.QueryIndex("widgets", [][]float32{{1, 0, 0}}, 1)
	require.NoError(t, err)
	require.Equal(t, [][]int{{1}}, labels)

	count, err := reg.Count("widgets")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestCreateIndexRejectsUnknownSpace(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("bad", "euclidean", 3)
	var unknownSpace *vdberr.UnknownSpace
	require.ErrorAs(t, err, &unknownSpace)
}

func TestCreateIndexRejectsDuplicateName(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("dup", "l2", 3)
	require.NoError(t, err)

	_, err = reg.CreateIndex("dup", "l2", 3)
	var alreadyExists *vdberr.IndexAlreadyExists
	require.ErrorAs(t, err, &alreadyExists)
}

func TestOperationsOnUnknownIndexFail(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.Count("ghost")
	var doesNotExist *vdberr.IndexDoesNotExist
	require.ErrorAs(t, err, &doesNotExist)
}

func TestOperationsOnUninitializedIndexFail(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("cold", "l2", 3)
	require.NoError(t, err)

	_, err = reg.Count("cold")
	var notInitialized *vdberr.IndexNotInitialized
	require.ErrorAs(t, err, &notInitialized)
}

func TestDeleteIndexRemovesItAndItsSnapshot(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("temp", "l2", 2)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("temp", 10, 200, 16))
	snapshot := reg.store.SnapshotPath(reg.indexes["temp"].UUID.String())

	require.NoError(t, reg.DeleteIndex("temp"))
	require.False(t, reg.IndexExists("temp"))

	_, err = reg.Count("temp")
	var doesNotExist *vdberr.IndexDoesNotExist
	require.ErrorAs(t, err, &doesNotExist)

	_, ok, err := storage.ReadSnapshot(snapshot)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteItemExcludesFromQueryButNotCount(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("del", "l2", 2)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("del", 10, 200, 16))
	require.NoError(t, reg.AddItems("del", [][]float32{{1, 1}, {2, 2}}, []int{1, 2}))

	require.NoError(t, reg.DeleteItem("del", 1))

	labels, _, err := reg.QueryIndex("del", [][]float32{{1, 1}}, 2)
	require.NoError(t, err)
	require.NotContains(t, labels[0], 1)

	count, err := reg.Count("del")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestRegistryReloadsFromStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store.db")
	store, err := storage.Open(dir)
	require.NoError(t, err)

	reg, err := New(store, 2)
	require.NoError(t, err)
	_, err = reg.CreateIndex("persisted", "ip", 2)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("persisted", 10, 200, 16))
	require.NoError(t, reg.AddItems("persisted", [][]float32{{1, 2}}, []int{7}))
	require.NoError(t, reg.Close())

	store2, err := storage.Open(dir)
	require.NoError(t, err)
	defer store2.Close()
	reg2, err := New(store2, 2)
	require.NoError(t, err)

	require.True(t, reg2.IndexExists("persisted"))
	count, err := reg2.Count("persisted")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestImportIndexAssignsFreshUUID(t *testing.T) {
	reg := newTestRegistry(t)

	external := index.New("l2", 2)
	require.NoError(t, external.Engine.Init(10, 200, 16))
	require.NoError(t, external.Engine.Add([][]float32{{3, 4}}, []int{9}))
	data, err := external.Save()
	require.NoError(t, err)

	require.NoError(t, reg.ImportIndex("imported", external.Meta(), data))

	require.True(t, reg.IndexExists("imported"))
	require.NotEqual(t, external.UUID, reg.indexes["imported"].UUID)
	count, err := reg.Count("imported")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAddItemsWrongDimensionReturnsDomainError(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("wide", "l2", 3)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("wide", 10, 200, 16))

	err = reg.AddItems("wide", [][]float32{{1, 2}}, []int{1})
	var mismatch *vdberr.DimensionMismatch
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 3, mismatch.Expected)
	require.Equal(t, 2, mismatch.Got)
}

func TestQueryWrongDimensionReturnsDomainError(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("qdim", "l2", 3)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("qdim", 10, 200, 16))
	require.NoError(t, reg.AddItems("qdim", [][]float32{{1, 2, 3}}, []int{1}))

	_, _, err = reg.QueryIndex("qdim", [][]float32{{1, 2}}, 1)
	var mismatch *vdberr.DimensionMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestAddItemsOverCapacityReturnsDomainError(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("small", "l2", 2)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("small", 1, 200, 16))
	require.NoError(t, reg.AddItems("small", [][]float32{{1, 1}}, []int{1}))

	err = reg.AddItems("small", [][]float32{{2, 2}}, []int{2})
	var capErr *vdberr.CapacityExceeded
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 1, capErr.Max)
}

func TestDeleteUnknownLabelReturnsDomainError(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("labels", "l2", 2)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("labels", 10, 200, 16))
	require.NoError(t, reg.AddItems("labels", [][]float32{{1, 1}}, []int{1}))

	err = reg.DeleteItem("labels", 999)
	var unknownLabel *vdberr.UnknownLabel
	require.ErrorAs(t, err, &unknownLabel)
	require.Equal(t, 999, unknownLabel.Label)
}

func TestGetItemsUnknownLabelReturnsDomainError(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateIndex("getitems", "l2", 2)
	require.NoError(t, err)
	require.NoError(t, reg.InitIndex("getitems", 10, 200, 16))
	require.NoError(t, reg.AddItems("getitems", [][]float32{{1, 1}}, []int{1}))

	_, err = reg.GetItems("getitems", []int{999})
	var unknownLabel *vdberr.UnknownLabel
	require.ErrorAs(t, err, &unknownLabel)
}
