// Package storage is the on-disk persistence manager for index metadata
// and ANN snapshots:
//
//	P                    the path passed to Open: the bbolt manifest file
//	D/                   the directory containing P, mode 0700
//	D/LOCK               process lock file
//	D/indexes/           per-index snapshot directory, mode 0700
//	D/indexes/<uuid>.bin opaque ANN payload for that index
//
// The root manifest (name -> index.Meta, including each index's UUID) is
// a go.etcd.io/bbolt bucket; each structural mutation (create, delete,
// import) commits in its own transaction. Snapshot files are written
// with write-to-temp-then-rename (github.com/natefinch/atomic) so a
// crash mid-write cannot corrupt <uuid>.bin.
package storage
