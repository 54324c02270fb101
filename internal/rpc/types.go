package rpc

import (
	"github.com/Klingon-tech/klingnet-stake/internal/stake"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Ledger errors.
	CodeNotFound          = -32000
	CodeAlreadyExists     = -32001
	CodeInvalidAmount     = -32002
	CodeInsufficientStake = -32003
	CodeOverflow          = -32004
	CodeUnauthorized      = -32005
	CodeRequestTimeout    = -32006
)

// Method names.
const (
	MethodCreateAccount = "stake_createAccount"
	MethodDeposit       = "stake_deposit"
	MethodUnstake       = "stake_unstake"
	MethodClaimPoints   = "stake_claimPoints"
	MethodGetAccount    = "stake_getAccount"
	MethodGetPoints     = "stake_getPoints"
	MethodGetNonce      = "stake_getNonce"
	MethodGetInfo       = "stake_getInfo"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// SignedParam authorizes a mutating call. Signature is a hex Schnorr
// signature over crypto.OperationDigest(namespace, method, amount, nonce).
type SignedParam struct {
	PubKey    string `json:"pubkey"`
	Amount    uint64 `json:"amount,omitempty"` // Base units; stake_deposit and stake_unstake only.
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

// AddressParam is used by the read-only account endpoints.
type AddressParam struct {
	Address string `json:"address"`
}

// ── Result types ────────────────────────────────────────────────────────

// AccountResult is the wire form of a stake account.
type AccountResult struct {
	Owner          string `json:"owner"`
	AccountAddress string `json:"account_address"`
	StakedAmount   uint64 `json:"staked_amount"`
	Staked         string `json:"staked"` // Decimal coins.
	TotalPoints    uint64 `json:"total_points"`
	AccrualStart   int64  `json:"accrual_start"`
	Bump           uint8  `json:"bump"`
}

// NewAccountResult converts an account. accountAddr is the derived account
// address for the owner in the serving namespace.
func NewAccountResult(a stake.Account, accountAddr types.Hash) *AccountResult {
	return &AccountResult{
		Owner:          a.Owner.String(),
		AccountAddress: accountAddr.String(),
		StakedAmount:   a.StakedAmount,
		Staked:         stake.FormatAmount(a.StakedAmount),
		TotalPoints:    a.TotalPoints,
		AccrualStart:   a.AccrualStart,
		Bump:           a.Bump,
	}
}

// PointsResult is returned by stake_getPoints.
type PointsResult struct {
	Owner  string `json:"owner"`
	Points uint64 `json:"points"`
	At     int64  `json:"at"` // Clock reading the points were computed for.
}

// ClaimResult is returned by stake_claimPoints.
type ClaimResult struct {
	Claimed uint64         `json:"claimed"`
	Account *AccountResult `json:"account"`
}

// NonceResult is returned by stake_getNonce.
type NonceResult struct {
	Owner     string `json:"owner"`
	LastNonce uint64 `json:"last_nonce"`
}

// InfoResult is returned by stake_getInfo.
type InfoResult struct {
	Namespace string `json:"namespace"`
	Rate      string `json:"rate"`
	RateNum   uint64 `json:"rate_num"`
	RateDen   uint64 `json:"rate_den"`
	Decimals  int    `json:"decimals"`
	Accounts  int    `json:"accounts"`

	// TotalStaked is the sum of staked base units across the namespace.
	TotalStaked uint64 `json:"total_staked"`
	Now         int64  `json:"now"`
}
