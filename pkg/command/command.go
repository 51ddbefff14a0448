// Package command defines the closed set of operations a client can send
// over the wire and the dispatcher that executes them against a
// pkg/registry.Registry, mirroring the Command/Result hierarchy in
// original_source/src/luxdb/commands.py.
package command

import (
	"encoding/gob"

	"github.com/sacovo/vectord/pkg/index"
)

// State mirrors the six states a command/result can be in, matching
// CommandState in original_source/src/luxdb/commands.py.
type State int

const (
	Created State = iota
	Sent
	Received
	Executed
	Failed
	Succeeded
)

func (s State) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Sent:
		return "SENT"
	case Received:
		return "RECEIVED"
	case Executed:
		return "EXECUTED"
	case Failed:
		return "FAILED"
	case Succeeded:
		return "SUCCEEDED"
	default:
		return "UNKNOWN"
	}
}

// Result carries a command's outcome: its data on success, or an error
// value on failure. Data's concrete type varies by command (bool, int,
// [][]float32, index.Info, []string, ...) so every type ever placed here
// must be registered with encoding/gob (see init below).
type Result struct {
	State State
	Data  any
}

// Command is the interface every request variant implements. Execute
// receives the registry to operate on and returns the raw result value
// (or an error), leaving State bookkeeping to the dispatcher.
type Command interface {
	Execute(reg Registry) (any, error)
}

// Registry is the subset of pkg/registry.Registry that commands call
// into, kept as an interface so pkg/command doesn't import pkg/registry
// directly and tests can supply a fake.
type Registry interface {
	IndexExists(name string) bool
	CreateIndex(name, space string, dim int) (bool, error)
	InitIndex(name string, maxElements, efConstruction, m int) error
	DeleteIndex(name string) error
	ImportIndex(name string, meta index.Meta, data []byte) error
	AddItems(name string, data [][]float32, ids []int) error
	SetEF(name string, newEf int) error
	GetEF(name string) (int, error)
	GetEFConstruction(name string) (int, error)
	QueryIndex(name string, vectors [][]float32, k int) ([][]int, [][]float32, error)
	DeleteItem(name string, label int) error
	ResizeIndex(name string, newSize int) error
	MaxElements(name string) (int, error)
	Count(name string) (int, error)
	Info(name string) (index.Info, error)
	GetIndexes() []string
	GetItems(name string, ids []int) ([][]float32, error)
	GetIds(name string) ([]int, error)
}

func init() {
	gob.Register(&ConnectCommand{})
	gob.Register(&IndexExistsCommand{})
	gob.Register(&CreateIndexCommand{})
	gob.Register(&InitIndexCommand{})
	gob.Register(&DeleteIndexCommand{})
	gob.Register(&ImportIndexCommand{})
	gob.Register(&AddItemsCommand{})
	gob.Register(&SetEFCommand{})
	gob.Register(&GetEFCommand{})
	gob.Register(&GetEFConstructionCommand{})
	gob.Register(&QueryIndexCommand{})
	gob.Register(&DeleteItemCommand{})
	gob.Register(&ResizeIndexCommand{})
	gob.Register(&MaxElementsCommand{})
	gob.Register(&CountCommand{})
	gob.Register(&InfoCommand{})
	gob.Register(&GetIndexesCommand{})
	gob.Register(&GetItemsCommand{})
	gob.Register(&GetIdsCommand{})

	gob.Register(Result{})
	gob.Register(QueryResult{})
	gob.Register(index.Info{})
	gob.Register(index.Meta{})
	gob.Register([]string{})
	gob.Register([][]int{})
	gob.Register([][]float32{})
}
