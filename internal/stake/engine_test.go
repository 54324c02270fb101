package stake

import (
	"errors"
	"math"
	"testing"

	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

var testOwner = types.Address{0x11, 0x22, 0x33}

func newTestEngine(t *testing.T, rate Rate) *Engine {
	t.Helper()
	e, err := NewEngine(rate)
	if err != nil {
		t.Fatalf("NewEngine(%v): %v", rate, err)
	}
	return e
}

func TestNewEngine_RejectsZeroDenominator(t *testing.T) {
	if _, err := NewEngine(Rate{Num: 1, Den: 0}); err == nil {
		t.Fatal("NewEngine should reject a zero denominator")
	}
	if _, err := NewEngine(Rate{Num: 0, Den: 1}); err != nil {
		t.Fatalf("zero-yield rate should be valid: %v", err)
	}
}

func TestCreateAccount(t *testing.T) {
	e := newTestEngine(t, DefaultRate)
	acct := e.CreateAccount(testOwner, 254, 1_700_000_000)

	want := Account{Owner: testOwner, AccrualStart: 1_700_000_000, Bump: 254}
	if acct != want {
		t.Errorf("CreateAccount = %+v, want %+v", acct, want)
	}
}

func TestStake_SettlesBeforeDeposit(t *testing.T) {
	// 1 point per base unit per second keeps the arithmetic readable.
	e := newTestEngine(t, Rate{Num: 1, Den: 1})
	acct := Account{Owner: testOwner, StakedAmount: 10, AccrualStart: 100}

	got, err := e.Stake(acct, 1000, 105)
	if err != nil {
		t.Fatalf("Stake: %v", err)
	}
	// 10 units held for 5s; the new 1000 must not count.
	if got.TotalPoints != 50 {
		t.Errorf("TotalPoints = %d, want 50", got.TotalPoints)
	}
	if got.StakedAmount != 1010 {
		t.Errorf("StakedAmount = %d, want 1010", got.StakedAmount)
	}
	if got.AccrualStart != 105 {
		t.Errorf("AccrualStart = %d, want 105", got.AccrualStart)
	}
}

func TestUnstake_SettlesBeforeWithdraw(t *testing.T) {
	e := newTestEngine(t, Rate{Num: 1, Den: 1})
	acct := Account{Owner: testOwner, StakedAmount: 100, AccrualStart: 0}

	got, err := e.Unstake(acct, 60, 3)
	if err != nil {
		t.Fatalf("Unstake: %v", err)
	}
	if got.TotalPoints != 300 {
		t.Errorf("TotalPoints = %d, want 300", got.TotalPoints)
	}
	if got.StakedAmount != 40 {
		t.Errorf("StakedAmount = %d, want 40", got.StakedAmount)
	}
}

func TestUnstake_All(t *testing.T) {
	e := newTestEngine(t, DefaultRate)
	acct := Account{Owner: testOwner, StakedAmount: 7}
	got, err := e.Unstake(acct, 7, 0)
	if err != nil {
		t.Fatalf("Unstake full balance: %v", err)
	}
	if got.StakedAmount != 0 {
		t.Errorf("StakedAmount = %d, want 0", got.StakedAmount)
	}
}

func TestRejectedOperations_LeaveAccountUnchanged(t *testing.T) {
	e := newTestEngine(t, Rate{Num: 1, Den: 1})
	base := Account{Owner: testOwner, StakedAmount: 200, TotalPoints: 9, AccrualStart: 50, Bump: 3}

	tests := []struct {
		name    string
		op      func(Account) (Account, error)
		wantErr error
	}{
		{"stake zero", func(a Account) (Account, error) { return e.Stake(a, 0, 60) }, ErrInvalidAmount},
		{"unstake zero", func(a Account) (Account, error) { return e.Unstake(a, 0, 60) }, ErrInvalidAmount},
		{"unstake too much", func(a Account) (Account, error) { return e.Unstake(a, 201, 60) }, ErrInsufficientStake},
		{"stake overflow", func(a Account) (Account, error) { return e.Stake(a, math.MaxUint64, 60) }, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(base)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != base {
				t.Errorf("account changed on failure: got %+v, want %+v", got, base)
			}
		})
	}
}

func TestClaimPoints(t *testing.T) {
	e := newTestEngine(t, Rate{Num: 1, Den: 1})
	acct := Account{Owner: testOwner, StakedAmount: 4, TotalPoints: 10, AccrualStart: 0}

	got, claimed := e.ClaimPoints(acct, 5)
	if claimed != 30 {
		t.Errorf("claimed = %d, want 30", claimed)
	}
	if got.TotalPoints != 0 {
		t.Errorf("TotalPoints after claim = %d, want 0", got.TotalPoints)
	}
	if got.AccrualStart != 5 {
		t.Errorf("AccrualStart = %d, want 5", got.AccrualStart)
	}

	// Claiming again with no elapsed time yields nothing.
	again, claimed := e.ClaimPoints(got, 5)
	if claimed != 0 || again.TotalPoints != 0 {
		t.Errorf("second claim = %d (total %d), want 0", claimed, again.TotalPoints)
	}
}

func TestClaimPoints_EmptyAccount(t *testing.T) {
	e := newTestEngine(t, DefaultRate)
	acct := e.CreateAccount(testOwner, 255, 10)
	got, claimed := e.ClaimPoints(acct, 1_000)
	if claimed != 0 || got.TotalPoints != 0 {
		t.Errorf("claim on empty account = %d (total %d), want 0", claimed, got.TotalPoints)
	}
}

func TestPeekPoints_ReadOnly(t *testing.T) {
	e := newTestEngine(t, Rate{Num: 1, Den: 1})
	acct := Account{Owner: testOwner, StakedAmount: 3, TotalPoints: 1, AccrualStart: 10}
	before := acct

	p1 := e.PeekPoints(acct, 12)
	p2 := e.PeekPoints(acct, 20)
	if p1 != 7 {
		t.Errorf("PeekPoints(12) = %d, want 7", p1)
	}
	if p2 != 31 {
		t.Errorf("PeekPoints(20) = %d, want 31", p2)
	}
	if p2 < p1 {
		t.Error("PeekPoints decreased as time advanced")
	}
	if acct != before {
		t.Errorf("PeekPoints mutated the account: %+v", acct)
	}
}

func TestClockBehindAccrualStart(t *testing.T) {
	e := newTestEngine(t, Rate{Num: 1, Den: 1})
	acct := Account{Owner: testOwner, StakedAmount: 100, AccrualStart: 500}

	if p := e.PeekPoints(acct, 400); p != 0 {
		t.Errorf("PeekPoints with clock behind start = %d, want 0", p)
	}
	got, err := e.Stake(acct, 1, 400)
	if err != nil {
		t.Fatalf("Stake: %v", err)
	}
	if got.TotalPoints != 0 {
		t.Errorf("TotalPoints = %d, want 0", got.TotalPoints)
	}
	if got.AccrualStart != 500 {
		t.Errorf("AccrualStart moved backwards to %d", got.AccrualStart)
	}
}

func TestPointsSaturate(t *testing.T) {
	e := newTestEngine(t, Rate{Num: math.MaxUint64, Den: 1})
	acct := Account{Owner: testOwner, StakedAmount: 1, TotalPoints: 5, AccrualStart: 0}

	got, err := e.Stake(acct, 1, 1_000_000)
	if err != nil {
		t.Fatalf("Stake: %v", err)
	}
	if got.TotalPoints != math.MaxUint64 {
		t.Errorf("TotalPoints = %d, want saturation at MaxUint64", got.TotalPoints)
	}
}

// TestScenario follows the product flow: create, stake 0.5, unstake 0.3,
// reject an over-unstake, claim.
func TestScenario(t *testing.T) {
	e := newTestEngine(t, DefaultRate)
	const now = 1_700_000_000

	acct := e.CreateAccount(testOwner, 255, now)
	if acct.StakedAmount != 0 || acct.TotalPoints != 0 {
		t.Fatalf("new account = %+v, want zero balances", acct)
	}

	acct, err := e.Stake(acct, Coin/2, now)
	if err != nil {
		t.Fatalf("Stake 0.5: %v", err)
	}
	if acct.StakedAmount != 500_000_000 {
		t.Fatalf("StakedAmount = %d, want 500000000", acct.StakedAmount)
	}

	acct, err = e.Unstake(acct, 3*Coin/10, now)
	if err != nil {
		t.Fatalf("Unstake 0.3: %v", err)
	}
	if acct.StakedAmount != 200_000_000 {
		t.Fatalf("StakedAmount = %d, want 200000000", acct.StakedAmount)
	}

	if _, err := e.Unstake(acct, Coin, now); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("Unstake 1.0 = %v, want ErrInsufficientStake", err)
	}
	if acct.StakedAmount != 200_000_000 {
		t.Fatalf("StakedAmount after failed unstake = %d", acct.StakedAmount)
	}

	acct, _ = e.ClaimPoints(acct, now)
	if acct.TotalPoints != 0 {
		t.Fatalf("TotalPoints after claim = %d, want 0", acct.TotalPoints)
	}
	if p := e.PeekPoints(acct, now); p != 0 {
		t.Errorf("PeekPoints = %d, want 0", p)
	}
}
