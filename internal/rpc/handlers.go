package rpc

import (
	"context"
	"errors"

	"github.com/Klingon-tech/klingnet-stake/internal/stake"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// ── Mutating endpoints ──────────────────────────────────────────────────

func (s *Server) handleCreateAccount(ctx context.Context, req *Request) (interface{}, *Error) {
	var params SignedParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Amount != 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "amount is not accepted by " + req.Method}
	}
	owner, rpcErr := s.authenticate(ctx, req.Method, &params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	acct, err := s.ledger.CreateAccount(ctx, owner)
	if err != nil {
		return nil, s.ledgerError(req.Method, err)
	}
	return s.accountResult(acct), nil
}

func (s *Server) handleDeposit(ctx context.Context, req *Request) (interface{}, *Error) {
	return s.handleAmountOp(ctx, req, s.ledger.Stake)
}

func (s *Server) handleUnstake(ctx context.Context, req *Request) (interface{}, *Error) {
	return s.handleAmountOp(ctx, req, s.ledger.Unstake)
}

// handleAmountOp serves stake_deposit and stake_unstake. A zero amount is
// authenticated and then rejected by the ledger.
func (s *Server) handleAmountOp(ctx context.Context, req *Request,
	op func(context.Context, types.Address, uint64) (stake.Account, error)) (interface{}, *Error) {
	var params SignedParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, rpcErr := s.authenticate(ctx, req.Method, &params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	acct, err := op(ctx, owner, params.Amount)
	if err != nil {
		return nil, s.ledgerError(req.Method, err)
	}
	return s.accountResult(acct), nil
}

func (s *Server) handleClaimPoints(ctx context.Context, req *Request) (interface{}, *Error) {
	var params SignedParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Amount != 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "amount is not accepted by " + req.Method}
	}
	owner, rpcErr := s.authenticate(ctx, req.Method, &params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	acct, claimed, err := s.ledger.ClaimPoints(ctx, owner)
	if err != nil {
		return nil, s.ledgerError(req.Method, err)
	}
	return &ClaimResult{Claimed: claimed, Account: s.accountResult(acct)}, nil
}

// ── Read-only endpoints ─────────────────────────────────────────────────

func (s *Server) handleGetAccount(ctx context.Context, req *Request) (interface{}, *Error) {
	owner, rpcErr := addressParam(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	acct, err := s.ledger.GetAccount(ctx, owner)
	if err != nil {
		return nil, s.ledgerError(req.Method, err)
	}
	return s.accountResult(acct), nil
}

func (s *Server) handleGetPoints(ctx context.Context, req *Request) (interface{}, *Error) {
	owner, rpcErr := addressParam(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	points, at, err := s.ledger.PeekPointsAt(ctx, owner)
	if err != nil {
		return nil, s.ledgerError(req.Method, err)
	}
	return &PointsResult{Owner: owner.String(), Points: points, At: at}, nil
}

func (s *Server) handleGetNonce(_ context.Context, req *Request) (interface{}, *Error) {
	owner, rpcErr := addressParam(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	n, err := s.ledger.LastNonce(owner)
	if err != nil {
		return nil, s.ledgerError(req.Method, err)
	}
	return &NonceResult{Owner: owner.String(), LastNonce: n}, nil
}

func (s *Server) handleGetInfo(_ context.Context, req *Request) (interface{}, *Error) {
	count, staked, err := s.ledger.Totals()
	if err != nil {
		return nil, s.ledgerError(req.Method, err)
	}
	rate := s.ledger.Rate()
	return &InfoResult{
		Namespace:   s.ledger.Namespace(),
		Rate:        rate.String(),
		RateNum:     rate.Num,
		RateDen:     rate.Den,
		Decimals:    stake.Decimals,
		Accounts:    count,
		TotalStaked: staked,
		Now:         s.ledger.Now(),
	}, nil
}

// ── Helpers ─────────────────────────────────────────────────────────────

func addressParam(req *Request) (types.Address, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return types.Address{}, err
	}
	if params.Address == "" {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	addr, err := types.ParseAddress(params.Address)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "invalid address: " + err.Error()}
	}
	return addr, nil
}

func (s *Server) accountResult(acct stake.Account) *AccountResult {
	// Derivation only fails when every bump is on the curve; the account
	// could not have been created in that case.
	addr, _, _ := s.ledger.AccountAddress(acct.Owner)
	return NewAccountResult(acct, addr)
}

// ledgerError maps a ledger failure to a JSON-RPC error. Domain errors keep
// their message; anything else is logged and reported as internal.
func (s *Server) ledgerError(method string, err error) *Error {
	switch {
	case errors.Is(err, stake.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, stake.ErrAlreadyExists):
		return &Error{Code: CodeAlreadyExists, Message: err.Error()}
	case errors.Is(err, stake.ErrInvalidAmount):
		return &Error{Code: CodeInvalidAmount, Message: err.Error()}
	case errors.Is(err, stake.ErrInsufficientStake):
		return &Error{Code: CodeInsufficientStake, Message: err.Error()}
	case errors.Is(err, stake.ErrOverflow):
		return &Error{Code: CodeOverflow, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Code: CodeRequestTimeout, Message: "request deadline exceeded"}
	default:
		s.logger.Error().Str("method", method).Err(err).Msg("Ledger failure")
		return &Error{Code: CodeInternalError, Message: "internal error"}
	}
}
