// Package ledger runs stake operations against the account store.
//
// Each mutating call takes the owner's lock, loads the record, applies the
// engine transition and writes the result back only if the transition
// succeeded.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-stake/internal/account"
	klog "github.com/Klingon-tech/klingnet-stake/internal/log"
	"github.com/Klingon-tech/klingnet-stake/internal/metrics"
	"github.com/Klingon-tech/klingnet-stake/internal/stake"
	"github.com/Klingon-tech/klingnet-stake/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// Operation names used in logs and metrics.
const (
	OpCreate  = "create"
	OpStake   = "stake"
	OpUnstake = "unstake"
	OpClaim   = "claim"
	OpPeek    = "peek"
	OpGet     = "get"
)

// ErrNoAccountAddress is returned when no bump yields an off-curve account
// address for an owner.
var ErrNoAccountAddress = errors.New("no valid account address")

// Config holds the ledger's collaborators.
type Config struct {
	Namespace string
	Store     *account.Store
	Engine    *stake.Engine
	Clock     Clock            // nil means NewMonotonicClock()
	Metrics   *metrics.Metrics // nil disables metrics
}

// Ledger serves stake operations for one namespace.
type Ledger struct {
	namespace string
	store     *account.Store
	engine    *stake.Engine
	clock     Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New creates a ledger from cfg.
func New(cfg Config) (*Ledger, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("ledger: nil account store")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("ledger: nil engine")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = NewMonotonicClock()
	}
	return &Ledger{
		namespace: cfg.Namespace,
		store:     cfg.Store,
		engine:    cfg.Engine,
		clock:     clock,
		metrics:   cfg.Metrics,
		logger:    klog.Ledger.With().Str("namespace", cfg.Namespace).Logger(),
	}, nil
}

// Namespace returns the ledger namespace.
func (l *Ledger) Namespace() string { return l.namespace }

// Rate returns the accrual rate.
func (l *Ledger) Rate() stake.Rate { return l.engine.Rate() }

// Now returns the ledger clock reading.
func (l *Ledger) Now() int64 { return l.clock.Now() }

// AccountCount returns the number of accounts in the namespace.
func (l *Ledger) AccountCount() (int, error) { return l.store.Count() }

// Totals walks every account in the namespace and returns the account
// count and the summed stake. The sum saturates at math.MaxUint64.
func (l *Ledger) Totals() (accounts int, staked uint64, err error) {
	err = l.store.ForEach(func(a stake.Account) error {
		accounts++
		sum, carry := bits.Add64(staked, a.StakedAmount, 0)
		if carry != 0 {
			sum = math.MaxUint64
		}
		staked = sum
		return nil
	})
	return accounts, staked, err
}

// AccountAddress returns the derived account address and bump for owner.
func (l *Ledger) AccountAddress(owner types.Address) (types.Hash, uint8, error) {
	addr, bump, ok := crypto.DeriveAccountAddress(l.namespace, owner)
	if !ok {
		return types.Hash{}, 0, ErrNoAccountAddress
	}
	return addr, bump, nil
}

// CreateAccount opens a zero-balance account for owner.
func (l *Ledger) CreateAccount(ctx context.Context, owner types.Address) (acct stake.Account, err error) {
	start := time.Now()
	defer func() { l.observe(OpCreate, owner, start, err) }()

	if err := ctx.Err(); err != nil {
		return stake.Account{}, err
	}
	_, bump, err := l.AccountAddress(owner)
	if err != nil {
		return stake.Account{}, err
	}

	unlock := l.store.Lock(owner)
	defer unlock()

	acct = l.engine.CreateAccount(owner, bump, l.clock.Now())
	if err := l.store.Create(acct); err != nil {
		return stake.Account{}, err
	}
	l.metrics.IncAccounts()
	l.logger.Debug().
		Str("owner", owner.String()).
		Uint8("bump", bump).
		Int64("accrual_start", acct.AccrualStart).
		Msg("Account created")
	return acct, nil
}

// Stake deposits amount base units into owner's account.
func (l *Ledger) Stake(ctx context.Context, owner types.Address, amount uint64) (stake.Account, error) {
	return l.mutate(ctx, OpStake, owner, func(a stake.Account, now int64) (stake.Account, error) {
		return l.engine.Stake(a, amount, now)
	})
}

// Unstake withdraws amount base units from owner's account.
func (l *Ledger) Unstake(ctx context.Context, owner types.Address, amount uint64) (stake.Account, error) {
	return l.mutate(ctx, OpUnstake, owner, func(a stake.Account, now int64) (stake.Account, error) {
		return l.engine.Unstake(a, amount, now)
	})
}

// ClaimPoints pays out every settled point and returns the amount claimed.
func (l *Ledger) ClaimPoints(ctx context.Context, owner types.Address) (stake.Account, uint64, error) {
	var claimed uint64
	acct, err := l.mutate(ctx, OpClaim, owner, func(a stake.Account, now int64) (stake.Account, error) {
		var next stake.Account
		next, claimed = l.engine.ClaimPoints(a, now)
		return next, nil
	})
	if err != nil {
		return stake.Account{}, 0, err
	}
	l.metrics.AddClaimed(claimed)
	return acct, claimed, nil
}

// PeekPoints reports the points owner would hold if settled now. Nothing is
// written.
func (l *Ledger) PeekPoints(ctx context.Context, owner types.Address) (uint64, error) {
	points, _, err := l.PeekPointsAt(ctx, owner)
	return points, err
}

// PeekPointsAt is PeekPoints that also returns the single clock reading
// the points were computed for.
func (l *Ledger) PeekPointsAt(ctx context.Context, owner types.Address) (points uint64, at int64, err error) {
	start := time.Now()
	defer func() { l.observe(OpPeek, owner, start, err) }()

	acct, err := l.load(ctx, owner)
	if err != nil {
		return 0, 0, err
	}
	at = l.clock.Now()
	return l.engine.PeekPoints(*acct, at), at, nil
}

// GetAccount returns a snapshot of owner's stored account.
func (l *Ledger) GetAccount(ctx context.Context, owner types.Address) (acct stake.Account, err error) {
	start := time.Now()
	defer func() { l.observe(OpGet, owner, start, err) }()

	a, err := l.load(ctx, owner)
	if err != nil {
		return stake.Account{}, err
	}
	return *a, nil
}

// UseNonce consumes a request nonce for owner. It must exceed the last
// accepted nonce.
func (l *Ledger) UseNonce(ctx context.Context, owner types.Address, nonce uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := l.store.Lock(owner)
	defer unlock()
	return l.store.UseNonce(owner, nonce)
}

// LastNonce returns the last accepted request nonce for owner.
func (l *Ledger) LastNonce(owner types.Address) (uint64, error) {
	return l.store.LastNonce(owner)
}

func (l *Ledger) load(ctx context.Context, owner types.Address) (*stake.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.store.Load(owner)
}

// mutate runs fn over owner's record under the owner lock and saves the
// result when fn succeeds.
func (l *Ledger) mutate(ctx context.Context, op string, owner types.Address,
	fn func(stake.Account, int64) (stake.Account, error)) (next stake.Account, err error) {
	start := time.Now()
	defer func() { l.observe(op, owner, start, err) }()

	if err := ctx.Err(); err != nil {
		return stake.Account{}, err
	}

	unlock := l.store.Lock(owner)
	defer unlock()

	acct, err := l.store.Load(owner)
	if err != nil {
		return stake.Account{}, err
	}
	next, err = fn(*acct, l.clock.Now())
	if err != nil {
		return stake.Account{}, err
	}
	if err := l.store.Save(next); err != nil {
		return stake.Account{}, err
	}

	l.logger.Debug().
		Str("op", op).
		Str("owner", owner.String()).
		Uint64("staked", next.StakedAmount).
		Uint64("points", next.TotalPoints).
		Msg("Account updated")
	return next, nil
}

func (l *Ledger) observe(op string, owner types.Address, start time.Time, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case IsRejection(err):
		result = metrics.ResultRejected
		l.logger.Debug().Str("op", op).Str("owner", owner.String()).Err(err).Msg("Operation rejected")
	default:
		result = metrics.ResultError
		l.logger.Warn().Str("op", op).Str("owner", owner.String()).Err(err).Msg("Operation failed")
	}
	l.metrics.ObserveOp(op, result, time.Since(start))
}

// IsRejection reports whether err is a domain rejection (a caller mistake)
// rather than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, stake.ErrAlreadyExists) ||
		errors.Is(err, stake.ErrNotFound) ||
		errors.Is(err, stake.ErrInvalidAmount) ||
		errors.Is(err, stake.ErrInsufficientStake) ||
		errors.Is(err, stake.ErrOverflow) ||
		errors.Is(err, account.ErrStaleNonce) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
