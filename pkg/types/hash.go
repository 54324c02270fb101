// Package types defines the primitive identifiers shared by the ledger,
// its storage and its RPC surface.
package types

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash is a 256-bit digest. Operation digests and derived account
// addresses both use it.
type Hash [HashSize]byte

// IsZero reports whether every byte of h is zero.
func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Bytes returns a fresh slice holding the digest.
func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

// MarshalText renders the digest as lowercase hex. JSON encoding goes
// through this as well.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts 64 hex characters. Empty input yields the zero hash.
func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = Hash{}
		return nil
	}
	return decodeFixed(h[:], string(text), "hash")
}

// HexToHash parses exactly 64 hex characters.
func HexToHash(s string) (Hash, error) {
	var h Hash
	if err := decodeFixed(h[:], s, "hash"); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// decodeFixed hex-decodes s into dst, which must be filled exactly.
func decodeFixed(dst []byte, s, what string) error {
	if hex.DecodedLen(len(s)) != len(dst) || len(s)%2 != 0 {
		return fmt.Errorf("%s: want %d hex chars, got %d", what, 2*len(dst), len(s))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
