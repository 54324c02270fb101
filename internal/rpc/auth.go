package rpc

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/Klingon-tech/klingnet-stake/internal/account"
	"github.com/Klingon-tech/klingnet-stake/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// authenticate checks a signed request and consumes its nonce. It returns
// the principal that signed it.
//
// The nonce is spent before the operation runs, so a request that is
// authentic but rejected by the ledger cannot be replayed either.
func (s *Server) authenticate(ctx context.Context, method string, p *SignedParam) (types.Address, *Error) {
	pub, err := hex.DecodeString(p.PubKey)
	if err != nil || crypto.ValidatePubKey(pub) != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "invalid pubkey: must be 33-byte compressed hex"}
	}
	sig, err := hex.DecodeString(p.Signature)
	if err != nil || len(sig) == 0 {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "invalid signature encoding"}
	}
	if p.Nonce == 0 {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "nonce must be greater than zero"}
	}

	if !crypto.VerifyOperation(pub, sig, s.ledger.Namespace(), method, p.Amount, p.Nonce) {
		return types.Address{}, &Error{Code: CodeUnauthorized, Message: "signature verification failed"}
	}

	owner := crypto.AddressFromPubKey(pub)
	if err := s.ledger.UseNonce(ctx, owner, p.Nonce); err != nil {
		if errors.Is(err, account.ErrStaleNonce) {
			return types.Address{}, &Error{Code: CodeUnauthorized, Message: err.Error()}
		}
		return types.Address{}, s.ledgerError(method, err)
	}
	return owner, nil
}
