package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/klingnet-stake/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

const hardened = bip32.FirstHardenedChild

// Identity keys live at m/44'/8889'/<index>'/0/0. 8889 is not a
// registered SLIP-44 coin type; it only keeps stake identities apart from
// chain wallets built on the same mnemonic.
const (
	PurposeBIP44  = hardened + 44
	CoinTypeStake = hardened + 8889
)

var errPublicOnly = errors.New("key has no private material")

// HDKey wraps a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey builds the root key from a 64-byte BIP-39 seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed is %d bytes, want %d", len(seed), SeedSize)
	}
	root, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	return &HDKey{key: root}, nil
}

// IdentityPath is the child index sequence for identity number index.
func IdentityPath(index uint32) []uint32 {
	return []uint32{PurposeBIP44, CoinTypeStake, hardened + index, 0, 0}
}

// FormatPath renders indices in m/44'/... notation.
func FormatPath(indices []uint32) string {
	var b strings.Builder
	b.WriteString("m")
	for _, i := range indices {
		b.WriteByte('/')
		if i >= hardened {
			b.WriteString(strconv.FormatUint(uint64(i-hardened), 10))
			b.WriteByte('\'')
		} else {
			b.WriteString(strconv.FormatUint(uint64(i), 10))
		}
	}
	return b.String()
}

// DerivePath walks indices from k. Indices at or above
// bip32.FirstHardenedChild derive hardened children.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	cur := k.key
	for depth, i := range indices {
		next, err := cur.NewChildKey(i)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", FormatPath(indices[:depth+1]), err)
		}
		cur = next
	}
	return &HDKey{key: cur}, nil
}

// DeriveIdentity derives the signing key for identity number index.
func (k *HDKey) DeriveIdentity(index uint32) (*HDKey, error) {
	return k.DerivePath(IdentityPath(index)...)
}

func (k *HDKey) IsPrivate() bool { return k.key.IsPrivate }

// PrivateKeyBytes returns the 32-byte scalar, or nil for a public key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// go-bip32 left-pads private keys to 33 bytes.
	if raw := k.key.Key; len(raw) == 33 {
		return raw[1:]
	}
	return k.key.Key
}

// PublicKeyBytes returns the 33-byte compressed public key.
func (k *HDKey) PublicKeyBytes() []byte { return k.key.PublicKey().Key }

// Signer turns the key into the Schnorr signer used for ledger operations.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	if !k.IsPrivate() {
		return nil, errPublicOnly
	}
	return crypto.PrivateKeyFromBytes(k.PrivateKeyBytes())
}

// Address is the owner address this key signs for.
func (k *HDKey) Address() types.Address {
	return crypto.AddressFromPubKey(k.PublicKeyBytes())
}
