package storage

import (
	"fmt"
	"os"
	"syscall"
)

// fileLock is a process-local advisory lock on a sentinel file beside the
// manifest, ensuring at most one server process opens a given store path
// at a time. Grounded on calvinalkan-agent-task/lock.go's flock-based
// exclusive lock.
type fileLock struct {
	file *os.File
}

// acquireFileLock takes a non-blocking exclusive flock on path, failing
// immediately (rather than waiting) if another process already holds it
// — a second server process on the same path is a misconfiguration, not
// a condition worth blocking on.
func acquireFileLock(path string) (*fileLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("storage: open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("storage: store already locked by another process: %w", err)
	}

	return &fileLock{file: file}, nil
}

func (l *fileLock) release() {
	if l == nil || l.file == nil {
		return
	}
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	l.file.Close()
}
