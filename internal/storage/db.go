// Package storage is the key-value layer under the account store. Badger
// backs a persistent node, MemoryDB backs tests and throwaway ledgers.
package storage

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// DB is a flat byte-keyed store. Implementations are safe for concurrent use.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	// PutIfAbsent writes only when key is missing and reports whether it
	// wrote. The check and the write happen atomically.
	PutIfAbsent(key, value []byte) (bool, error)
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach calls fn in key order for every key starting with prefix.
	// fn owns the slices it receives. A non-nil error from fn stops the
	// walk and is returned.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}
