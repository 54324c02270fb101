package stake

import (
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// Engine applies stake operations under a fixed accrual rate.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	rate Rate
}

// NewEngine creates an engine for the given rate.
func NewEngine(rate Rate) (*Engine, error) {
	if err := rate.Validate(); err != nil {
		return nil, err
	}
	return &Engine{rate: rate}, nil
}

// Rate returns the engine's accrual rate.
func (e *Engine) Rate() Rate {
	return e.rate
}

// CreateAccount returns a zero-balance account whose accrual starts at now.
// Rejecting a duplicate owner is the store's job.
func (e *Engine) CreateAccount(owner types.Address, bump uint8, now int64) Account {
	return Account{
		Owner:        owner,
		AccrualStart: now,
		Bump:         bump,
	}
}

// Stake settles accrual on the current balance, then deposits amount.
func (e *Engine) Stake(acct Account, amount uint64, now int64) (Account, error) {
	if amount == 0 {
		return acct, ErrInvalidAmount
	}
	if acct.StakedAmount > math.MaxUint64-amount {
		return acct, fmt.Errorf("%w: %d + %d", ErrOverflow, acct.StakedAmount, amount)
	}
	next := e.settle(acct, now)
	next.StakedAmount += amount
	return next, nil
}

// Unstake settles accrual on the current balance, then withdraws amount.
func (e *Engine) Unstake(acct Account, amount uint64, now int64) (Account, error) {
	if amount == 0 {
		return acct, ErrInvalidAmount
	}
	if amount > acct.StakedAmount {
		return acct, ErrInsufficientStake
	}
	next := e.settle(acct, now)
	next.StakedAmount -= amount
	return next, nil
}

// ClaimPoints settles accrual and pays out every settled point. The returned
// account always has TotalPoints == 0.
func (e *Engine) ClaimPoints(acct Account, now int64) (Account, uint64) {
	next := e.settle(acct, now)
	claimed := next.TotalPoints
	next.TotalPoints = 0
	return next, claimed
}

// PeekPoints reports what TotalPoints would be after settling at now.
func (e *Engine) PeekPoints(acct Account, now int64) uint64 {
	return e.settle(acct, now).TotalPoints
}

// settle folds accrual since AccrualStart into TotalPoints and moves
// AccrualStart forward to now. A clock reading behind AccrualStart leaves
// AccrualStart where it is.
func (e *Engine) settle(acct Account, now int64) Account {
	accrued := e.rate.Accrue(acct.StakedAmount, acct.Elapsed(now))
	acct.TotalPoints = addPoints(acct.TotalPoints, accrued)
	if now > acct.AccrualStart {
		acct.AccrualStart = now
	}
	return acct
}
