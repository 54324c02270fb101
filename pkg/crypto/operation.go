package crypto

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// operationDomain separates request digests from every other BLAKE3 use.
const operationDomain = "klingnet-stake/op/v1"

// OperationDigest returns the digest a principal signs to authorize a
// mutating ledger request.
//
// Preimage: domain | len(ns)(1) | ns | len(method)(1) | method | amount(8 BE) | nonce(8 BE).
// Operations without an amount sign zero.
func OperationDigest(namespace, method string, amount, nonce uint64) types.Hash {
	var nums [16]byte
	binary.BigEndian.PutUint64(nums[:8], amount)
	binary.BigEndian.PutUint64(nums[8:], nonce)
	return HashParts(
		[]byte(operationDomain),
		[]byte{byte(len(namespace))},
		[]byte(namespace),
		[]byte{byte(len(method))},
		[]byte(method),
		nums[:],
	)
}

// SignOperation signs the operation digest with s.
func SignOperation(s Signer, namespace, method string, amount, nonce uint64) ([]byte, error) {
	d := OperationDigest(namespace, method, amount, nonce)
	return s.Sign(d[:])
}

// VerifyOperation checks sig over the operation digest against a
// compressed public key.
func VerifyOperation(pubKey, sig []byte, namespace, method string, amount, nonce uint64) bool {
	d := OperationDigest(namespace, method, amount, nonce)
	return VerifySignature(d[:], sig, pubKey)
}
