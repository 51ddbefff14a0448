// Package index wraps one annengine.Engine with the identity and dirty
// tracking the registry and persistence manager need, mirroring
// original_source/src/luxdb/index.py's Index wrapper around hnswlib.Index.
package index

import (
	"github.com/google/uuid"
	"github.com/sacovo/vectord/pkg/annengine"
)

// Meta is the registry-manifest-visible metadata for one index. It
// excludes the opaque ANN payload, which lives in its own snapshot file.
type Meta struct {
	UUID           uuid.UUID
	Space          string
	Dim            int
	M              int
	EfConstruction int
	Ef             int
	MaxElements    int
	ElementCount   int
}

// Index is the in-memory wrapper the registry stores one of per name: a
// stable UUID, the ANN engine, and a dirty flag set by every mutator.
type Index struct {
	UUID  uuid.UUID
	Space string
	Dim   int

	Engine *annengine.Engine
	dirty  bool

	// loaded reports whether Engine's state reflects the on-disk
	// snapshot (or was never persisted yet). The registry uses this to
	// decide whether a cold wrapper needs a lazy load.
	loaded bool
}

// New creates a fresh, uninitialized index (M == 0) with a new UUID.
func New(space string, dim int) *Index {
	return &Index{
		UUID:   uuid.New(),
		Space:  space,
		Dim:    dim,
		Engine: annengine.New(annengine.Space(space), dim),
		loaded: true,
	}
}

// FromMeta reconstructs a cold wrapper (Engine not yet loaded from disk)
// from manifest metadata, used when the registry opens an existing store.
func FromMeta(m Meta) *Index {
	eng := annengine.New(annengine.Space(m.Space), m.Dim)
	eng.MaxElements = m.MaxElements
	eng.M = m.M
	eng.EfConstruction = m.EfConstruction
	eng.Ef = m.Ef
	return &Index{
		UUID:   m.UUID,
		Space:  m.Space,
		Dim:    m.Dim,
		Engine: eng,
		loaded: false,
	}
}

// Loaded reports whether the engine's in-memory state reflects the
// on-disk snapshot.
func (idx *Index) Loaded() bool { return idx.loaded }

// MarkLoaded records that the engine now reflects the on-disk snapshot.
func (idx *Index) MarkLoaded() { idx.loaded = true }

// Dirty reports whether the index has unsaved mutations.
func (idx *Index) Dirty() bool { return idx.dirty }

// MarkDirty flags the index as having unsaved mutations. Called by every
// mutator in pkg/registry after a successful write.
func (idx *Index) MarkDirty() { idx.dirty = true }

// ClearDirty is called after a successful snapshot save.
func (idx *Index) ClearDirty() { idx.dirty = false }

// Meta returns the manifest-visible metadata snapshot for this index.
func (idx *Index) Meta() Meta {
	return Meta{
		UUID:           idx.UUID,
		Space:          idx.Space,
		Dim:            idx.Dim,
		M:              idx.Engine.M,
		EfConstruction: idx.Engine.EfConstruction,
		Ef:             idx.Engine.Ef,
		MaxElements:    idx.Engine.GetMaxElements(),
		ElementCount:   idx.Engine.GetCurrentCount(),
	}
}

// Save serializes the engine's opaque payload for writing to
// <uuid>.bin.
func (idx *Index) Save() ([]byte, error) {
	return idx.Engine.Save()
}

// Load replaces the engine's state from a previously-saved snapshot and
// marks the wrapper as loaded.
func (idx *Index) Load(data []byte) error {
	if err := idx.Engine.Load(data); err != nil {
		return err
	}
	idx.loaded = true
	return nil
}

// Info is the wire-visible info record, matching
// original_source/src/luxdb/knn_store.py's KNNStore.info() dict keys.
type Info struct {
	Space          string
	Dim            int
	M              int
	EfConstruction int
	MaxElements    int
	ElementCount   int
	Ef             int
}

// Info builds the wire-visible info record for this index.
func (idx *Index) Info() Info {
	return Info{
		Space:          idx.Space,
		Dim:            idx.Dim,
		M:              idx.Engine.M,
		EfConstruction: idx.Engine.EfConstruction,
		MaxElements:    idx.Engine.GetMaxElements(),
		ElementCount:   idx.Engine.GetCurrentCount(),
		Ef:             idx.Engine.Ef,
	}
}
