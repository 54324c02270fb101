package stake

import (
	"errors"
	"testing"

	fuzz "github.com/google/gofuzz"
)

// op is one randomly generated ledger step.
type op struct {
	Kind    uint8
	Amount  uint64
	Advance uint16
}

// applyOps runs ops against a fresh account and checks the model after each
// step: the staked balance matches the sum of accepted deposits minus
// withdrawals, rejected operations leave the account untouched, and the
// settled point total only falls on a claim.
func applyOps(t *testing.T, e *Engine, ops []op) {
	t.Helper()

	now := int64(1_700_000_000)
	acct := e.CreateAccount(testOwner, 255, now)
	var model uint64

	for i, o := range ops {
		now += int64(o.Advance)
		before := acct
		peekBefore := e.PeekPoints(acct, now)

		switch o.Kind % 4 {
		case 0:
			next, err := e.Stake(acct, o.Amount, now)
			switch {
			case o.Amount == 0:
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("step %d: stake 0 err = %v", i, err)
				}
			case err != nil:
				t.Fatalf("step %d: stake %d: %v", i, o.Amount, err)
			default:
				model += o.Amount
			}
			acct = next
		case 1:
			next, err := e.Unstake(acct, o.Amount, now)
			switch {
			case o.Amount == 0:
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("step %d: unstake 0 err = %v", i, err)
				}
			case o.Amount > model:
				if !errors.Is(err, ErrInsufficientStake) {
					t.Fatalf("step %d: unstake %d of %d err = %v", i, o.Amount, model, err)
				}
			case err != nil:
				t.Fatalf("step %d: unstake %d: %v", i, o.Amount, err)
			default:
				model -= o.Amount
			}
			acct = next
		case 2:
			next, claimed := e.ClaimPoints(acct, now)
			if claimed != peekBefore {
				t.Fatalf("step %d: claimed %d, peek said %d", i, claimed, peekBefore)
			}
			if next.TotalPoints != 0 {
				t.Fatalf("step %d: TotalPoints after claim = %d", i, next.TotalPoints)
			}
			acct = next
		case 3:
			if p := e.PeekPoints(acct, now); p < acct.TotalPoints {
				t.Fatalf("step %d: peek %d below settled %d", i, p, acct.TotalPoints)
			}
			if acct != before {
				t.Fatalf("step %d: peek changed the account", i)
			}
		}

		if acct.StakedAmount != model {
			t.Fatalf("step %d: StakedAmount = %d, model = %d", i, acct.StakedAmount, model)
		}
		if acct.Owner != testOwner || acct.Bump != 255 {
			t.Fatalf("step %d: identity fields changed: %+v", i, acct)
		}
		if o.Kind%4 != 2 && acct.TotalPoints < before.TotalPoints {
			t.Fatalf("step %d: points fell from %d to %d without a claim", i, before.TotalPoints, acct.TotalPoints)
		}
		if acct.AccrualStart < before.AccrualStart {
			t.Fatalf("step %d: AccrualStart moved backwards", i)
		}
	}
}

func TestRandomOperationSequences(t *testing.T) {
	e := newTestEngine(t, DefaultRate)
	f := fuzz.NewWithSeed(20240611).NilChance(0).NumElements(1, 64)

	for round := 0; round < 200; round++ {
		var ops []op
		f.Fuzz(&ops)
		for i := range ops {
			// Keep amounts in a range where over-unstakes and valid steps both happen.
			ops[i].Amount %= 3 * Coin
		}
		applyOps(t, e, ops)
	}
}
