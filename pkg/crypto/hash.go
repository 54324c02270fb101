// Package crypto provides the hashing, identity and signature primitives
// used to authenticate principals and derive account addresses.
package crypto

import (
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"
)

// accountSeedTag is appended to every account address preimage.
const accountSeedTag = "stake-account"

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashParts hashes the concatenation of parts without building the
// joined slice.
func HashParts(parts ...[]byte) types.Hash {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// AddressFromPubKey derives a principal address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// CreateAccountAddress computes the account address for (namespace, owner)
// with an explicit bump. ok is false when the digest lands on the curve,
// i.e. it could be a real public key's x-coordinate and is not usable.
//
// Preimage: len(namespace)(1) | namespace | owner(20) | bump(1) | "stake-account".
func CreateAccountAddress(namespace string, owner types.Address, bump uint8) (addr types.Hash, ok bool) {
	addr = HashParts(
		[]byte{byte(len(namespace))},
		[]byte(namespace),
		owner[:],
		[]byte{bump},
		[]byte(accountSeedTag),
	)
	return addr, !onCurve(addr)
}

// DeriveAccountAddress searches bumps from 255 down to 0 and returns the
// first off-curve address together with the bump that produced it.
// found is false only if every bump lands on the curve, which for a
// 256-bit hash is practically impossible.
func DeriveAccountAddress(namespace string, owner types.Address) (addr types.Hash, bump uint8, found bool) {
	for b := 255; b >= 0; b-- {
		if a, ok := CreateAccountAddress(namespace, owner, uint8(b)); ok {
			return a, uint8(b), true
		}
	}
	return types.Hash{}, 0, false
}

// onCurve reports whether h is the x-coordinate of a secp256k1 point.
func onCurve(h types.Hash) bool {
	var buf [33]byte
	buf[0] = secp256k1.PubKeyFormatCompressedEven
	copy(buf[1:], h[:])
	_, err := secp256k1.ParsePubKey(buf[:])
	return err == nil
}
