package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	klog "github.com/Klingon-tech/klingnet-stake/internal/log"
	"github.com/Klingon-tech/klingnet-stake/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

const (
	identityExt     = ".identity"
	keystoreVersion = 1
)

// Keystore errors.
var (
	ErrIdentityExists   = errors.New("identity already exists")
	ErrIdentityNotFound = errors.New("identity not found")
)

// identityFile is the on-disk JSON form. Only the seed is encrypted; the
// address stays readable so an identity can be shown without a password.
type identityFile struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	Address       string    `json:"address"`
	Index         uint32    `json:"index"`
	EncryptedSeed []byte    `json:"encrypted_seed"`
}

// Identity describes a stored identity.
type Identity struct {
	Name      string
	Address   types.Address
	Index     uint32
	CreatedAt time.Time
}

// Keystore stores identities as files in one directory.
type Keystore struct {
	dir string
}

// NewKeystore opens dir, creating it if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+identityExt)
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid identity name %q", name)
	}
	return nil
}

// Create stores the identity derived from mnemonic at index, encrypted
// under password.
func (ks *Keystore) Create(name, mnemonic, passphrase string, index uint32, password []byte, params EncryptionParams) (*Identity, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	path := ks.path(name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrIdentityExists, name)
	}

	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	key, err := deriveIdentity(seed, index)
	if err != nil {
		return nil, err
	}

	sealed, err := Encrypt(seed, password, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt seed: %w", err)
	}
	f := identityFile{
		Version:       keystoreVersion,
		CreatedAt:     time.Now().UTC(),
		Address:       key.Address().String(),
		Index:         index,
		EncryptedSeed: sealed,
	}
	if err := writeIdentity(path, &f); err != nil {
		return nil, err
	}

	klog.Wallet.Info().Str("name", name).Str("address", f.Address).Msg("Identity stored")
	return &Identity{Name: name, Address: key.Address(), Index: index, CreatedAt: f.CreatedAt}, nil
}

// Open decrypts the identity and returns its signing key.
func (ks *Keystore) Open(name string, password []byte) (*crypto.PrivateKey, error) {
	f, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(f.EncryptedSeed, password)
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	key, err := deriveIdentity(seed, f.Index)
	if err != nil {
		return nil, err
	}
	signer, err := key.Signer()
	if err != nil {
		return nil, err
	}
	if got := signer.Address().String(); got != f.Address {
		signer.Zero()
		return nil, fmt.Errorf("identity %s: derived address %s does not match %s", name, got, f.Address)
	}
	return signer, nil
}

// Info returns identity metadata without decrypting anything.
func (ks *Keystore) Info(name string) (*Identity, error) {
	f, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	addr, err := types.ParseAddress(f.Address)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", name, err)
	}
	return &Identity{Name: name, Address: addr, Index: f.Index, CreatedAt: f.CreatedAt}, nil
}

// List returns the stored identity names.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == identityExt {
			names = append(names, strings.TrimSuffix(e.Name(), identityExt))
		}
	}
	return names, nil
}

// Delete removes an identity file.
func (ks *Keystore) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(ks.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrIdentityNotFound, name)
		}
		return err
	}
	return nil
}

func (ks *Keystore) read(name string) (*identityFile, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ks.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, name)
		}
		return nil, fmt.Errorf("read identity: %w", err)
	}
	var f identityFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}
	if f.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported identity version: %d", f.Version)
	}
	return &f, nil
}

func writeIdentity(path string, f *identityFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	// Write-then-rename so a crash never leaves a truncated file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

func deriveIdentity(seed []byte, index uint32) (*HDKey, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	return master.DeriveIdentity(index)
}
