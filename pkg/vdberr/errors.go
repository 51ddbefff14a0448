// Package vdberr defines the domain error taxonomy shared by the registry,
// command dispatcher, and wire codec, mirroring the exception hierarchy in
// original_source/src/luxdb/exceptions.py.
package vdberr

import (
	"encoding/gob"
	"fmt"
)

func init() {
	gob.Register(&IndexAlreadyExists{})
	gob.Register(&IndexDoesNotExist{})
	gob.Register(&UnknownSpace{})
	gob.Register(&NotACommand{})
	gob.Register(&IndexNotInitialized{})
	gob.Register(&CapacityExceeded{})
	gob.Register(&DimensionMismatch{})
	gob.Register(&UnknownLabel{})
	gob.Register(&InvalidToken{})
	gob.Register(&ProtocolError{})
}

// IndexAlreadyExists is returned when create_index is called for a name
// that is already registered.
type IndexAlreadyExists struct {
	Name string
}

func (e *IndexAlreadyExists) Error() string {
	return fmt.Sprintf("index already exists: %s", e.Name)
}

// IndexDoesNotExist is returned when an operation references an unknown
// index name.
type IndexDoesNotExist struct {
	Name string
}

func (e *IndexDoesNotExist) Error() string {
	return fmt.Sprintf("index does not exist: %s", e.Name)
}

// UnknownSpace is returned when create_index is given a distance metric
// outside {l2, ip, cosine}.
type UnknownSpace struct {
	Space string
}

func (e *UnknownSpace) Error() string {
	return fmt.Sprintf("unknown space: %s", e.Space)
}

// NotACommand is returned at the wire layer when a decoded value is not a
// recognized command variant.
type NotACommand struct {
	Obj any
}

func (e *NotACommand) Error() string {
	return fmt.Sprintf("not a command: %v", e.Obj)
}

// IndexNotInitialized is returned when a mutating or querying operation
// targets an index whose M is still zero.
type IndexNotInitialized struct {
	Name string
}

func (e *IndexNotInitialized) Error() string {
	return fmt.Sprintf("index not initialized: %s", e.Name)
}

// CapacityExceeded is returned when add_items would push element_count
// past max_elements.
type CapacityExceeded struct {
	Name    string
	WouldBe int
	Max     int
}

func (e *CapacityExceeded) Error() string {
	return fmt.Sprintf("capacity exceeded for %s: would be %d, max %d", e.Name, e.WouldBe, e.Max)
}

// DimensionMismatch is returned when a vector's width does not match the
// index's fixed dimension.
type DimensionMismatch struct {
	Name     string
	Expected int
	Got      int
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch for %s: expected %d, got %d", e.Name, e.Expected, e.Got)
}

// UnknownLabel is returned by get_items/mark_deleted when a label was
// never added to the index.
type UnknownLabel struct {
	Name  string
	Label int
}

func (e *UnknownLabel) Error() string {
	return fmt.Sprintf("unknown label %d in index %s", e.Label, e.Name)
}

// InvalidToken is a transport-level error: tampering, TTL expiry, or a
// wrong key. It is never returned as a wire Result — it tears down the
// connection.
type InvalidToken struct{}

func (e *InvalidToken) Error() string { return "invalid token" }

// ProtocolError is a transport-level framing error (premature close
// mid-frame, malformed length prefix). It tears down the connection
// without further I/O.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol error: %s", e.Reason) }
