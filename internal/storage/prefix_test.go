package storage

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestNamespaceDB_KeyLayout(t *testing.T) {
	inner := NewMemory()
	pool1 := NamespaceDB(inner, "user1")
	pool2 := NamespaceDB(inner, "pool2")

	pool1.Put([]byte("a/owner"), []byte("acct-1"))
	pool2.Put([]byte("a/owner"), []byte("acct-2"))
	pool1.Put([]byte("n/owner"), []byte{7})

	want := []string{"ns/pool2/a/owner", "ns/user1/a/owner", "ns/user1/n/owner"}
	if got := inner.Keys(); !slices.Equal(got, want) {
		t.Fatalf("inner keys = %v, want %v", got, want)
	}

	for _, tc := range []struct {
		db   *PrefixDB
		want string
	}{{pool1, "acct-1"}, {pool2, "acct-2"}} {
		got, err := tc.db.Get([]byte("a/owner"))
		if err != nil || string(got) != tc.want {
			t.Errorf("Get(a/owner) = %q, %v; want %q", got, err, tc.want)
		}
	}

	if err := pool1.Delete([]byte("a/owner")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := pool1.Has([]byte("a/owner")); ok {
		t.Error("key still present after Delete")
	}
	if ok, _ := pool2.Has([]byte("a/owner")); !ok {
		t.Error("Delete leaked into another namespace")
	}
	if inner.Len() != 2 {
		t.Errorf("inner holds %d keys after delete, want 2", inner.Len())
	}
}

func TestPrefixDB_CopiesPrefix(t *testing.T) {
	prefix := []byte("p/")
	inner := NewMemory()
	db := NewPrefixDB(inner, prefix)
	prefix[0] = 'x'

	db.Put([]byte("k"), []byte("v"))
	if ok, _ := inner.Has([]byte("p/k")); !ok {
		t.Errorf("caller mutation changed the scope: keys = %v", inner.Keys())
	}
}

func TestPrefixDB_PutIfAbsentPerScope(t *testing.T) {
	inner := NewMemory()
	a, b := NewPrefixDB(inner, []byte("a/")), NewPrefixDB(inner, []byte("b/"))

	steps := []struct {
		db    *PrefixDB
		value string
		want  bool
	}{
		{a, "1", true},
		{a, "2", false},
		{b, "3", true},
	}
	for i, s := range steps {
		ok, err := s.db.PutIfAbsent([]byte("k"), []byte(s.value))
		if err != nil || ok != s.want {
			t.Fatalf("step %d: PutIfAbsent = %v, %v; want %v", i, ok, err, s.want)
		}
	}
	if got, _ := a.Get([]byte("k")); string(got) != "1" {
		t.Errorf("a/k = %q, want first write kept", got)
	}
}

func TestPrefixDB_ForEach(t *testing.T) {
	db := NamespaceDB(NewMemory(), "user1")
	for i := range 5 {
		db.Put(fmt.Appendf(nil, "a/%d", i), []byte("acct"))
	}
	db.Put([]byte("n/0"), []byte("nonce"))

	var keys []string
	err := db.ForEach([]byte("a/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if want := []string{"a/0", "a/1", "a/2", "a/3", "a/4"}; !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	halt := errors.New("halt")
	seen := 0
	err = db.ForEach(nil, func(_, _ []byte) error {
		if seen++; seen == 2 {
			return halt
		}
		return nil
	})
	if !errors.Is(err, halt) || seen != 2 {
		t.Fatalf("early stop: err = %v after %d calls, want halt after 2", err, seen)
	}
}
