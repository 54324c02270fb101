package storage

import "slices"

// PrefixDB scopes every key of an underlying DB under a fixed prefix.
// Each ledger namespace lives in its own PrefixDB over one shared DB.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB scopes inner under prefix. The prefix is copied.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: slices.Clone(prefix)}
}

// NamespaceDB scopes inner under "ns/<namespace>/".
func NamespaceDB(inner DB, namespace string) *PrefixDB {
	return NewPrefixDB(inner, []byte("ns/"+namespace+"/"))
}

func (p *PrefixDB) key(k []byte) []byte {
	return append(slices.Clip(p.prefix), k...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(p.key(key)) }
func (p *PrefixDB) Put(key, value []byte) error    { return p.inner.Put(p.key(key), value) }
func (p *PrefixDB) Delete(key []byte) error        { return p.inner.Delete(p.key(key)) }
func (p *PrefixDB) Has(key []byte) (bool, error)   { return p.inner.Has(p.key(key)) }

func (p *PrefixDB) PutIfAbsent(key, value []byte) (bool, error) {
	return p.inner.PutIfAbsent(p.key(key), value)
}

// ForEach walks keys under prefix within this scope. Keys reach fn with
// the scope prefix removed.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(p.key(prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Close leaves the shared DB open; its owner closes it.
func (p *PrefixDB) Close() error { return nil }
