package storage

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// WriteSnapshot writes an index's opaque ANN payload to path atomically
// (write-to-temp + rename). Overwriting <uuid>.bin in place would let a
// crash mid-write corrupt the snapshot; atomic.WriteFile never leaves a
// partially-written file at the destination path.
func WriteSnapshot(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("storage: write snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot reads a previously-written snapshot. A missing file is not
// an error at this layer — a newly created-but-never-initialized index
// has no snapshot yet.
func ReadSnapshot(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: read snapshot %s: %w", path, err)
	}
	return data, true, nil
}

// DeleteSnapshot unlinks an index's snapshot file. Missing files are not
// an error.
func DeleteSnapshot(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete snapshot %s: %w", path, err)
	}
	return nil
}
