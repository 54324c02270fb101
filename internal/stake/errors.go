package stake

import "errors"

// Ledger errors. All are deterministic caller-facing outcomes; a failed
// operation never changes the stored account.
var (
	ErrAlreadyExists     = errors.New("stake account already exists")
	ErrNotFound          = errors.New("stake account not found")
	ErrInvalidAmount     = errors.New("stake amount must be greater than zero")
	ErrInsufficientStake = errors.New("insufficient staked amount")
	ErrOverflow          = errors.New("staked amount overflows")
)
