package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// Network prefixes. String renders the active one; ParseAddress accepts both.
const (
	MainnetPrefix = "stk"
	TestnetPrefix = "tstk"
)

var activePrefix = MainnetPrefix

// SetAddressPrefix selects the prefix String renders. The node calls it
// once during startup, before any goroutine formats an address.
func SetAddressPrefix(prefix string) { activePrefix = prefix }

// GetAddressPrefix returns the prefix String currently renders.
func GetAddressPrefix() string { return activePrefix }

// Address identifies a principal: the first 20 bytes of the BLAKE3 hash
// of its compressed public key.
type Address [AddressSize]byte

// IsZero reports whether a is the unset address.
func (a Address) IsZero() bool { return a == Address{} }

// Hex is the bare 40-character form, as used in storage keys.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// String renders "<prefix>:<hex>", e.g. "stk:8f3a...".
func (a Address) String() string { return activePrefix + ":" + a.Hex() }

// Bytes returns a fresh slice holding the address.
func (a Address) Bytes() []byte { return append([]byte(nil), a[:]...) }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts anything ParseAddress does. Empty input yields
// the zero address.
func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

var errEmptyAddress = errors.New("empty address")

// ParseAddress reads "stk:<hex>", "tstk:<hex>" or bare hex. Either
// network prefix is accepted regardless of which one is active.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, errEmptyAddress
	}
	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		if prefix != MainnetPrefix && prefix != TestnetPrefix {
			return Address{}, fmt.Errorf("unknown address prefix %q", prefix)
		}
		s = rest
	}
	return HexToAddress(s)
}

// HexToAddress parses exactly 40 hex characters with no prefix.
func HexToAddress(s string) (Address, error) {
	var a Address
	if err := decodeFixed(a[:], s, "address"); err != nil {
		return Address{}, err
	}
	return a, nil
}
