package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

const (
	// PubKeySize is the length of a compressed secp256k1 public key.
	PubKeySize = 33
	// PrivKeySize is the length of a private scalar.
	PrivKeySize = 32
	digestSize  = 32
)

var (
	ErrBadPrivateKey = errors.New("private key is not a valid secp256k1 scalar")
	ErrBadDigest     = errors.New("digest must be 32 bytes")
)

// Signer signs operation digests for one owner.
type Signer interface {
	// Sign returns a 64-byte BIP-340 style Schnorr signature over digest.
	Sign(digest []byte) ([]byte, error)
	// PublicKey is the 33-byte compressed key verifiers check against.
	PublicKey() []byte
}

// PrivateKey is the in-process Signer.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

var _ Signer = (*PrivateKey)(nil)

// GenerateKey draws a key from crypto/rand.
func GenerateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// PrivateKeyFromBytes loads a 32-byte big-endian scalar. Zero and values
// at or above the curve order are rejected.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrBadPrivateKey, len(b))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, ErrBadPrivateKey
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&s)}, nil
}

func (pk *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if len(digest) != digestSize {
		return nil, ErrBadDigest
	}
	sig, err := schnorr.Sign(pk.key, digest)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Address is the owner address derived from the public key.
func (pk *PrivateKey) Address() types.Address {
	return AddressFromPubKey(pk.PublicKey())
}

// Serialize exposes the raw scalar. Callers must wipe the copy.
func (pk *PrivateKey) Serialize() []byte { return pk.key.Serialize() }

// Zero wipes the scalar. The key is unusable afterwards.
func (pk *PrivateKey) Zero() { pk.key.Zero() }

// ValidatePubKey accepts only a 33-byte compressed point on the curve.
func ValidatePubKey(b []byte) error {
	if len(b) != PubKeySize {
		return fmt.Errorf("pubkey is %d bytes, want %d", len(b), PubKeySize)
	}
	_, err := secp256k1.ParsePubKey(b)
	return err
}

// VerifySignature reports whether sig is a valid Schnorr signature by
// pubKey over digest. Malformed inputs verify as false.
func VerifySignature(digest, sig, pubKey []byte) bool {
	if len(digest) != digestSize {
		return false
	}
	pk, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	return err == nil && s.Verify(digest, pk)
}
