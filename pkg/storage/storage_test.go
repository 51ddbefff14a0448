package storage

import (
	"path/filepath"
	"testing"

	"github.com/sacovo/vectord/pkg/index"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesLayoutAndIsReopenable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")

	m, err := Open(path)
	require.NoError(t, err)

	idx := index.New("l2", 4)
	require.NoError(t, m.Put("a", idx.Meta()))

	data, err := idx.Save()
	require.NoError(t, err)
	require.NoError(t, WriteSnapshot(m.SnapshotPath(idx.UUID.String()), data))

	require.NoError(t, m.Close())

	m2, err := Open(path)
	require.NoError(t, err)
	defer m2.Close()

	all, err := m2.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, idx.UUID, all["a"].UUID)

	got, ok, err := ReadSnapshot(m2.SnapshotPath(idx.UUID.String()))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, data, got)
}

func TestSecondProcessCannotOpenSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.db")

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	_, err = Open(path)
	require.Error(t, err)
}

func TestReadMissingSnapshotIsNotError(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := ReadSnapshot(filepath.Join(dir, "missing.bin"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteAndLoadAll(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	defer m.Close()

	idx := index.New("ip", 2)
	require.NoError(t, m.Put("b", idx.Meta()))
	require.NoError(t, m.Delete("b"))

	all, err := m.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 0)
}

func TestOpenEmptyPathIsInMemoryMode(t *testing.T) {
	m, err := Open("")
	require.NoError(t, err)
	defer m.Close()

	all, err := m.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 0)
}
