package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerDB is the persistent DB.
type BadgerDB struct {
	db *badger.DB
}

// NewBadger opens or creates a Badger directory at path. Badger's own
// logger is silenced; failures surface through returned errors.
func NewBadger(path string) (*BadgerDB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		if isDirLocked(err) {
			return nil, fmt.Errorf("ledger at %s is in use by another process (is another stakerd running?): %w", path, err)
		}
		return nil, fmt.Errorf("open ledger at %s: %w", path, err)
	}
	return &BadgerDB{db: db}, nil
}

func isDirLocked(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Cannot acquire directory lock") ||
		strings.Contains(msg, "resource temporarily unavailable")
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("badger %s: %w", op, err)
}

func (b *BadgerDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, wrap("get", err)
	}
	return out, nil
}

func (b *BadgerDB) Put(key, value []byte) error {
	return wrap("put", b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}))
}

// PutIfAbsent runs the existence check and the write in one update
// transaction. Losing a write conflict to a concurrent creator counts as
// "already present".
func (b *BadgerDB) PutIfAbsent(key, value []byte) (bool, error) {
	var wrote bool
	err := b.db.Update(func(txn *badger.Txn) error {
		switch _, err := txn.Get(key); {
		case err == nil:
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		wrote = true
		return txn.Set(key, value)
	})
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, wrap("put-if-absent", err)
	}
	return wrote, nil
}

func (b *BadgerDB) Delete(key []byte) error {
	return wrap("delete", b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}))
}

func (b *BadgerDB) Has(key []byte) (bool, error) {
	_, err := b.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (b *BadgerDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return wrap("iterate", err)
			}
			if err := fn(item.KeyCopy(nil), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerDB) Close() error {
	return b.db.Close()
}
