// Package storage is the persistence manager: a transactional root
// manifest (registry metadata keyed by index name) plus one opaque
// snapshot file per index, laid out under a root directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sacovo/vectord/pkg/index"
	bolt "go.etcd.io/bbolt"
)

var bucketIndexes = []byte("indexes")

// manifestRecord is the JSON encoding of index.Meta stored in bbolt — JSON
// here rather than the gob used by the wire codec, because it is a
// different concern (a long-lived on-disk manifest, not a transient wire
// payload) and keeping the two codecs distinct avoids coupling the wire
// format's evolution to the on-disk format's.
type manifestRecord struct {
	UUID           string
	Space          string
	Dim            int
	M              int
	EfConstruction int
	Ef             int
	MaxElements    int
	ElementCount   int
}

func toRecord(m index.Meta) manifestRecord {
	return manifestRecord{
		UUID:           m.UUID.String(),
		Space:          m.Space,
		Dim:            m.Dim,
		M:              m.M,
		EfConstruction: m.EfConstruction,
		Ef:             m.Ef,
		MaxElements:    m.MaxElements,
		ElementCount:   m.ElementCount,
	}
}

// Manifest owns the bbolt-backed registry manifest and the indexes/
// snapshot directory beside it.
type Manifest struct {
	db         *bolt.DB
	indexesDir string
	lock       *fileLock
}

// Open opens (or creates) the manifest file at path, ensures an indexes/
// directory exists with mode 0700 in the directory containing that file,
// and takes the process-local file lock (a LOCK file in that same
// directory). An existing directory at path fails to open as a
// manifest. If path
// is empty, an ephemeral store backed by a fresh temp directory is
// created instead — the in-memory mode used by tests and ad-hoc runs.
func Open(path string) (*Manifest, error) {
	if path == "" {
		dir, err := os.MkdirTemp("", "vectord-store-")
		if err != nil {
			return nil, fmt.Errorf("storage: create temp dir: %w", err)
		}
		path = filepath.Join(dir, "manifest.db")
	}

	root := path
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		root = filepath.Dir(path)
	} else if os.IsNotExist(err) {
		root = filepath.Dir(path)
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create root dir: %w", err)
	}

	indexesDir := filepath.Join(root, "indexes")
	if err := os.MkdirAll(indexesDir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create indexes dir: %w", err)
	}

	fl, err := acquireFileLock(filepath.Join(root, "LOCK"))
	if err != nil {
		return nil, fmt.Errorf("storage: acquire process lock: %w", err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		fl.release()
		return nil, fmt.Errorf("storage: open manifest: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketIndexes)
		return err
	})
	if err != nil {
		db.Close()
		fl.release()
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}

	return &Manifest{db: db, indexesDir: indexesDir, lock: fl}, nil
}

// IndexesDir returns the directory holding per-index <uuid>.bin snapshots.
func (m *Manifest) IndexesDir() string { return m.indexesDir }

// SnapshotPath returns the path for a given index's opaque snapshot file.
func (m *Manifest) SnapshotPath(id string) string {
	return filepath.Join(m.indexesDir, id+".bin")
}

// Close commits any outstanding state and releases the manifest and its
// process-local file lock.
func (m *Manifest) Close() error {
	err := m.db.Close()
	m.lock.release()
	return err
}

// Put commits one index's metadata to the manifest in its own
// transaction; every registry-structural mutation commits the manifest
// before returning to the caller.
func (m *Manifest) Put(name string, meta index.Meta) error {
	data, err := json.Marshal(toRecord(meta))
	if err != nil {
		return fmt.Errorf("storage: marshal manifest record: %w", err)
	}
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIndexes).Put([]byte(name), data)
	})
}

// Delete removes one index's metadata from the manifest.
func (m *Manifest) Delete(name string) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIndexes).Delete([]byte(name))
	})
}

// LoadAll returns every registered index's metadata keyed by name, used
// to reconstruct the in-memory registry on open_store.
func (m *Manifest) LoadAll() (map[string]index.Meta, error) {
	out := make(map[string]index.Meta)
	err := m.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIndexes).ForEach(func(k, v []byte) error {
			var rec manifestRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("storage: unmarshal manifest record %s: %w", k, err)
			}
			id, err := parseUUID(rec.UUID)
			if err != nil {
				return err
			}
			out[string(k)] = index.Meta{
				UUID:           id,
				Space:          rec.Space,
				Dim:            rec.Dim,
				M:              rec.M,
				EfConstruction: rec.EfConstruction,
				Ef:             rec.Ef,
				MaxElements:    rec.MaxElements,
				ElementCount:   rec.ElementCount,
			}
			return nil
		})
	})
	return out, err
}
