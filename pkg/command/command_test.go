package command

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sacovo/vectord/pkg/index"
	"github.com/sacovo/vectord/pkg/vdberr"
)

type fakeRegistry struct {
	existsFn func(name string) bool
	createFn func(name, space string, dim int) (bool, error)
	countFn  func(name string) (int, error)
	queryFn  func(name string, vectors [][]float32, k int) ([][]int, [][]float32, error)
}

func (f *fakeRegistry) IndexExists(name string) bool {
	if f.existsFn != nil {
		return f.existsFn(name)
	}
	return false
}

func (f *fakeRegistry) CreateIndex(name, space string, dim int) (bool, error) {
	if f.createFn != nil {
		return f.createFn(name, space, dim)
	}
	return true, nil
}

func (f *fakeRegistry) InitIndex(name string, maxElements, efConstruction, m int) error { return nil }
func (f *fakeRegistry) DeleteIndex(name string) error                                   { return nil }
func (f *fakeRegistry) ImportIndex(name string, meta index.Meta, data []byte) error      { return nil }
func (f *fakeRegistry) AddItems(name string, data [][]float32, ids []int) error          { return nil }
func (f *fakeRegistry) SetEF(name string, newEf int) error                              { return nil }
func (f *fakeRegistry) GetEF(name string) (int, error)                                  { return 10, nil }
func (f *fakeRegistry) GetEFConstruction(name string) (int, error)                      { return 200, nil }

func (f *fakeRegistry) QueryIndex(name string, vectors [][]float32, k int) ([][]int, [][]float32, error) {
	if f.queryFn != nil {
		return f.queryFn(name, vectors, k)
	}
	return nil, nil, nil
}

func (f *fakeRegistry) DeleteItem(name string, label int) error  { return nil }
func (f *fakeRegistry) ResizeIndex(name string, newSize int) error { return nil }
func (f *fakeRegistry) MaxElements(name string) (int, error)      { return 100, nil }

func (f *fakeRegistry) Count(name string) (int, error) {
	if f.countFn != nil {
		return f.countFn(name)
	}
	return 0, nil
}

func (f *fakeRegistry) Info(name string) (index.Info, error) { return index.Info{}, nil }
func (f *fakeRegistry) GetIndexes() []string                 { return []string{"a", "b"} }
func (f *fakeRegistry) GetItems(name string, ids []int) ([][]float32, error) {
	return nil, nil
}
func (f *fakeRegistry) GetIds(name string) ([]int, error) { return nil, nil }

func TestDispatchSucceeded(t *testing.T) {
	reg := &fakeRegistry{countFn: func(name string) (int, error) { return 42, nil }}
	result := Dispatch(&CountCommand{Name: "widgets"}, reg, zerolog.Nop())

	require.Equal(t, Succeeded, result.State)
	require.Equal(t, 42, result.Data)
}

func TestDispatchDomainErrorIsFailed(t *testing.T) {
	reg := &fakeRegistry{countFn: func(name string) (int, error) {
		return 0, &vdberr.IndexDoesNotExist{Name: name}
	}}
	result := Dispatch(&CountCommand{Name: "ghost"}, reg, zerolog.Nop())

	require.Equal(t, Failed, result.State)
	var notFound *vdberr.IndexDoesNotExist
	require.ErrorAs(t, result.Data.(error), &notFound)
}

func TestDispatchUnexpectedErrorIsStillFailed(t *testing.T) {
	reg := &fakeRegistry{countFn: func(name string) (int, error) {
		return 0, errors.New("disk on fire")
	}}
	result := Dispatch(&CountCommand{Name: "widgets"}, reg, zerolog.Nop())

	require.Equal(t, Failed, result.State)
	require.EqualError(t, result.Data.(error), "disk on fire")
}

func TestQueryIndexCommandWrapsTuple(t *testing.T) {
	reg := &fakeRegistry{queryFn: func(name string, vectors [][]float32, k int) ([][]int, [][]float32, error) {
		return [][]int{{1, 2}}, [][]float32{{0.1, 0.2}}, nil
	}}
	result := Dispatch(&QueryIndexCommand{Name: "widgets", Vectors: [][]float32{{1, 1}}, K: 2}, reg, zerolog.Nop())

	require.Equal(t, Succeeded, result.State)
	qr, ok := result.Data.(QueryResult)
	require.True(t, ok)
	require.Equal(t, [][]int{{1, 2}}, qr.Labels)
}

func TestStateStringer(t *testing.T) {
	require.Equal(t, "SUCCEEDED", Succeeded.String())
	require.Equal(t, "FAILED", Failed.String())
}
