// Package registry is the multi-tenant index store: a name-keyed map of
// index wrappers, one concurrency controller per index, and the
// persistence plumbing to load and save them. It is the Go counterpart of
// original_source/src/luxdb/knn_store.py's KNNStore.
package registry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sacovo/vectord/pkg/annengine"
	"github.com/sacovo/vectord/pkg/index"
	"github.com/sacovo/vectord/pkg/lock"
	"github.com/sacovo/vectord/pkg/log"
	"github.com/sacovo/vectord/pkg/storage"
	"github.com/sacovo/vectord/pkg/vdberr"
)

// DefaultWorkerPoolSize bounds how many CPU-heavy operations (AddItems,
// QueryIndex, ResizeIndex) run concurrently across all indexes.
const DefaultWorkerPoolSize = 4

// Registry owns every index in one store: its in-memory wrapper, its
// concurrency controller, and the manifest/snapshot persistence beneath
// it.
type Registry struct {
	mu      sync.Mutex // guards indexes/locks membership, not index content
	indexes map[string]*index.Index
	locks   map[string]*lock.IndexLock
	store   *storage.Manifest
	pool    *workerPool
	log     zerolog.Logger
}

// New loads every index's metadata from store and builds the in-memory
// registry around it. Engine state is not read from disk yet — that
// happens lazily on each index's first read or write.
func New(store *storage.Manifest, poolSize int) (*Registry, error) {
	metas, err := store.LoadAll()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		indexes: make(map[string]*index.Index, len(metas)),
		locks:   make(map[string]*lock.IndexLock, len(metas)),
		store:   store,
		pool:    newWorkerPool(poolSize),
		log:     log.WithComponent("registry"),
	}
	for name, meta := range metas {
		r.indexes[name] = index.FromMeta(meta)
		r.locks[name] = &lock.IndexLock{}
	}
	return r, nil
}

// get returns the index wrapper and lock for name, or IndexDoesNotExist.
func (r *Registry) get(name string) (*index.Index, *lock.IndexLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.indexes[name]
	if !ok {
		return nil, nil, &vdberr.IndexDoesNotExist{Name: name}
	}
	return idx, r.locks[name], nil
}

// ensureLoaded reads an index's snapshot from disk into its engine the
// first time a wrapper rebuilt from the manifest at registry startup is
// touched; wrappers made by CreateIndex or ImportIndex are already loaded.
// A never-initialized index has no snapshot yet, which is not an error at
// this layer.
func (r *Registry) ensureLoaded(idx *index.Index) error {
	if idx.Loaded() {
		return nil
	}
	data, ok, err := storage.ReadSnapshot(r.store.SnapshotPath(idx.UUID.String()))
	if err != nil {
		return err
	}
	if ok {
		return idx.Load(data)
	}
	idx.MarkLoaded()
	return nil
}

// persist writes an index's current engine state to its snapshot file and
// commits its metadata to the manifest, then clears its dirty flag.
func (r *Registry) persist(name string, idx *index.Index) error {
	data, err := idx.Save()
	if err != nil {
		return err
	}
	if err := storage.WriteSnapshot(r.store.SnapshotPath(idx.UUID.String()), data); err != nil {
		return err
	}
	if err := r.store.Put(name, idx.Meta()); err != nil {
		return err
	}
	idx.ClearDirty()
	return nil
}

// withRead runs fn with a shared read lock on name's index, after
// ensuring it is loaded and initialized.
func (r *Registry) withRead(name string, fn func(idx *index.Index) error) error {
	idx, lk, err := r.get(name)
	if err != nil {
		return err
	}
	lk.AcquireRead()
	defer lk.ReleaseRead()

	if err := r.ensureLoaded(idx); err != nil {
		return err
	}
	if !idx.Engine.Initialized() {
		return &vdberr.IndexNotInitialized{Name: name}
	}
	return fn(idx)
}

// withWrite runs fn with the exclusive write lock on name's index,
// ensures it is loaded and initialized first, and persists the result on
// success.
func (r *Registry) withWrite(name string, fn func(idx *index.Index) error) error {
	idx, lk, err := r.get(name)
	if err != nil {
		return err
	}
	lk.AcquireWrite()
	defer lk.ReleaseWrite()

	if err := r.ensureLoaded(idx); err != nil {
		return err
	}
	if !idx.Engine.Initialized() {
		return &vdberr.IndexNotInitialized{Name: name}
	}
	if err := fn(idx); err != nil {
		return err
	}
	idx.MarkDirty()
	return r.persist(name, idx)
}

// withWriteForInit is like withWrite but skips the initialized check and
// lazy-load, since InitIndex is what establishes both.
func (r *Registry) withWriteForInit(name string, fn func(idx *index.Index) error) error {
	idx, lk, err := r.get(name)
	if err != nil {
		return err
	}
	lk.AcquireWrite()
	defer lk.ReleaseWrite()

	if err := fn(idx); err != nil {
		return err
	}
	idx.MarkDirty()
	return r.persist(name, idx)
}

// IndexExists reports whether name is a registered index.
func (r *Registry) IndexExists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.indexes[name]
	return ok
}

// CreateIndex registers a new, uninitialized index under name.
func (r *Registry) CreateIndex(name, space string, dim int) (bool, error) {
	if !annengine.ValidSpace(space) {
		return false, &vdberr.UnknownSpace{Space: space}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.indexes[name]; exists {
		return false, &vdberr.IndexAlreadyExists{Name: name}
	}

	idx := index.New(space, dim)
	if err := r.store.Put(name, idx.Meta()); err != nil {
		return false, err
	}
	r.indexes[name] = idx
	r.locks[name] = &lock.IndexLock{}

	r.log.Info().Str("index", name).Str("space", space).Int("dim", dim).Msg("index created")
	return true, nil
}

// InitIndex allocates an index's graph storage and fixes its capacity and
// construction parameters.
func (r *Registry) InitIndex(name string, maxElements, efConstruction, m int) error {
	return r.withWriteForInit(name, func(idx *index.Index) error {
		return idx.Engine.Init(maxElements, efConstruction, m)
	})
}

// DeleteIndex removes an index, its manifest entry, and its snapshot
// file.
func (r *Registry) DeleteIndex(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.indexes[name]
	if !ok {
		return &vdberr.IndexDoesNotExist{Name: name}
	}
	delete(r.indexes, name)
	delete(r.locks, name)

	if err := r.store.Delete(name); err != nil {
		return err
	}
	if err := storage.DeleteSnapshot(r.store.SnapshotPath(idx.UUID.String())); err != nil {
		return err
	}
	r.log.Info().Str("index", name).Msg("index deleted")
	return nil
}

// ImportIndex atomically registers a pre-built index wrapper (received
// from another store) under name, assigning it a fresh UUID in this
// store's snapshot directory.
func (r *Registry) ImportIndex(name string, meta index.Meta, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.indexes[name]; exists {
		return &vdberr.IndexAlreadyExists{Name: name}
	}

	meta.UUID = uuid.New()
	idx := index.FromMeta(meta)
	if err := idx.Load(data); err != nil {
		return err
	}

	if err := storage.WriteSnapshot(r.store.SnapshotPath(idx.UUID.String()), data); err != nil {
		return err
	}
	if err := r.store.Put(name, idx.Meta()); err != nil {
		return err
	}
	r.indexes[name] = idx
	r.locks[name] = &lock.IndexLock{}

	r.log.Info().Str("index", name).Msg("index imported")
	return nil
}

// translateEngineErr turns an annengine error into the matching exported
// vdberr type so it can ride through command.Result.Data: annengine's
// dimErr/capErr/unknownLabelErr are unexported and never gob-registered,
// so leaving one unwrapped would fail gob.Encode instead of reaching the
// caller as a FAILED result.
func translateEngineErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if expected, got, ok := annengine.Dimensions(err); ok {
		return &vdberr.DimensionMismatch{Name: name, Expected: expected, Got: got}
	}
	if wouldBe, max, ok := annengine.Capacity(err); ok {
		return &vdberr.CapacityExceeded{Name: name, WouldBe: wouldBe, Max: max}
	}
	if label, ok := annengine.UnknownLabel(err); ok {
		return &vdberr.UnknownLabel{Name: name, Label: label}
	}
	return err
}

// AddItems inserts rows under the given labels, offloaded to the bounded
// worker pool.
func (r *Registry) AddItems(name string, data [][]float32, ids []int) error {
	return r.pool.run(func() error {
		return r.withWrite(name, func(idx *index.Index) error {
			return translateEngineErr(name, idx.Engine.Add(data, ids))
		})
	})
}

// SetEF sets the query-time search breadth.
func (r *Registry) SetEF(name string, newEf int) error {
	return r.withWrite(name, func(idx *index.Index) error {
		return idx.Engine.SetEf(newEf)
	})
}

// GetEF returns the current query-time search breadth.
func (r *Registry) GetEF(name string) (int, error) {
	var ef int
	err := r.withRead(name, func(idx *index.Index) error {
		ef = idx.Engine.Ef
		return nil
	})
	return ef, err
}

// GetEFConstruction returns the construction-time candidate breadth.
func (r *Registry) GetEFConstruction(name string) (int, error) {
	var ef int
	err := r.withRead(name, func(idx *index.Index) error {
		ef = idx.Engine.EfConstruction
		return nil
	})
	return ef, err
}

// QueryIndex returns the k nearest live neighbors for each input vector,
// offloaded to the bounded worker pool.
func (r *Registry) QueryIndex(name string, vectors [][]float32, k int) ([][]int, [][]float32, error) {
	var labels [][]int
	var dists [][]float32
	err := r.pool.run(func() error {
		return r.withRead(name, func(idx *index.Index) error {
			var err error
			labels, dists, err = idx.Engine.Query(vectors, k)
			return translateEngineErr(name, err)
		})
	})
	return labels, dists, err
}

// DeleteItem marks a label as deleted, excluding it from future queries
// without reclaiming capacity.
func (r *Registry) DeleteItem(name string, label int) error {
	return r.withWrite(name, func(idx *index.Index) error {
		return translateEngineErr(name, idx.Engine.MarkDeleted(label))
	})
}

// ResizeIndex changes an index's capacity, offloaded to the bounded
// worker pool.
func (r *Registry) ResizeIndex(name string, newSize int) error {
	return r.pool.run(func() error {
		return r.withWrite(name, func(idx *index.Index) error {
			return idx.Engine.Resize(newSize)
		})
	})
}

// MaxElements returns an index's configured capacity.
func (r *Registry) MaxElements(name string) (int, error) {
	var max int
	err := r.withRead(name, func(idx *index.Index) error {
		max = idx.Engine.GetMaxElements()
		return nil
	})
	return max, err
}

// Count returns the number of rows stored in an index, logically deleted
// ones included.
func (r *Registry) Count(name string) (int, error) {
	var count int
	err := r.withRead(name, func(idx *index.Index) error {
		count = idx.Engine.GetCurrentCount()
		return nil
	})
	return count, err
}

// Info returns the wire-visible info record for an index.
func (r *Registry) Info(name string) (index.Info, error) {
	var info index.Info
	err := r.withRead(name, func(idx *index.Index) error {
		info = idx.Info()
		return nil
	})
	return info, err
}

// GetIndexes returns the names of every registered index.
func (r *Registry) GetIndexes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.indexes))
	for name := range r.indexes {
		names = append(names, name)
	}
	return names
}

// GetItems returns the row vectors for the given labels.
func (r *Registry) GetItems(name string, ids []int) ([][]float32, error) {
	var out [][]float32
	err := r.withRead(name, func(idx *index.Index) error {
		if idx.Engine.GetCurrentCount() == 0 {
			out = [][]float32{}
			return nil
		}
		var err error
		out, err = idx.Engine.GetItems(ids)
		return translateEngineErr(name, err)
	})
	return out, err
}

// GetIds returns every live label in an index.
func (r *Registry) GetIds(name string) ([]int, error) {
	var out []int
	err := r.withRead(name, func(idx *index.Index) error {
		if idx.Engine.GetCurrentCount() == 0 {
			out = []int{}
			return nil
		}
		out = idx.Engine.GetIds()
		return nil
	})
	return out, err
}

// Close persists every index with unsaved mutations, then closes the
// underlying manifest store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, idx := range r.indexes {
		if idx.Dirty() {
			if err := r.persist(name, idx); err != nil {
				return err
			}
		}
	}
	return r.store.Close()
}
