package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func newTestKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := NewKeystore(filepath.Join(t.TempDir(), "keystore"))
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	return ks
}

func TestKeystore_CreateAndOpen(t *testing.T) {
	ks := newTestKeystore(t)

	id, err := ks.Create("alice", vectorMnemonic, "", 0, []byte("pw"), LightParams())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	master, _ := NewMasterKey(mustSeed(t, ""))
	want, _ := master.DeriveIdentity(0)
	if id.Address != want.Address() {
		t.Errorf("address = %s, want %s", id.Address, want.Address())
	}

	key, err := ks.Open("alice", []byte("pw"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if key.Address() != id.Address {
		t.Errorf("opened key address = %s, want %s", key.Address(), id.Address)
	}
}

func TestKeystore_IndexSelectsIdentity(t *testing.T) {
	ks := newTestKeystore(t)
	a, _ := ks.Create("a", vectorMnemonic, "", 0, []byte("pw"), LightParams())
	b, _ := ks.Create("b", vectorMnemonic, "", 1, []byte("pw"), LightParams())
	if a.Address == b.Address {
		t.Error("identities at different indices should differ")
	}
}

func TestKeystore_Errors(t *testing.T) {
	ks := newTestKeystore(t)
	ks.Create("alice", vectorMnemonic, "", 0, []byte("pw"), LightParams())

	if _, err := ks.Create("alice", vectorMnemonic, "", 0, []byte("pw"), LightParams()); !errors.Is(err, ErrIdentityExists) {
		t.Errorf("duplicate create: %v", err)
	}
	if _, err := ks.Open("alice", []byte("nope")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := ks.Open("bob", []byte("pw")); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("missing identity: %v", err)
	}
	if _, err := ks.Create("../evil", vectorMnemonic, "", 0, []byte("pw"), LightParams()); err == nil {
		t.Error("path-like name should be rejected")
	}
	if _, err := ks.Create("carol", "not a mnemonic", "", 0, []byte("pw"), LightParams()); !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("bad mnemonic: %v", err)
	}
}

func TestKeystore_InfoWithoutPassword(t *testing.T) {
	ks := newTestKeystore(t)
	created, _ := ks.Create("alice", vectorMnemonic, "", 3, []byte("pw"), LightParams())

	info, err := ks.Info("alice")
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if info.Address != created.Address || info.Index != 3 {
		t.Errorf("info = %+v, want address %s index 3", info, created.Address)
	}
}

func TestKeystore_ListAndDelete(t *testing.T) {
	ks := newTestKeystore(t)
	for _, name := range []string{"b", "a"} {
		if _, err := ks.Create(name, vectorMnemonic, "", 0, []byte("pw"), LightParams()); err != nil {
			t.Fatalf("Create(%s) error: %v", name, err)
		}
	}
	// Foreign files are ignored.
	os.WriteFile(filepath.Join(ks.dir, "notes.txt"), []byte("x"), 0600)

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List() = %v, want [a b]", names)
	}

	if err := ks.Delete("a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := ks.Delete("a"); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestKeystore_FilePermissions(t *testing.T) {
	ks := newTestKeystore(t)
	ks.Create("alice", vectorMnemonic, "", 0, []byte("pw"), LightParams())

	info, err := os.Stat(ks.path("alice"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func mustSeed(t *testing.T, passphrase string) []byte {
	t.Helper()
	seed, err := SeedFromMnemonic(vectorMnemonic, passphrase)
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	return seed
}
