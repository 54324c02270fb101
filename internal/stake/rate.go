package stake

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// Coin is the number of base units in one whole staked coin.
const Coin uint64 = 1_000_000_000

// Rate is the global accrual rate: Num/Den points per base unit per second.
type Rate struct {
	Num uint64 `json:"num"`
	Den uint64 `json:"den"`
}

// DefaultRate accrues one point per staked coin per second.
var DefaultRate = Rate{Num: 1, Den: Coin}

// Validate checks that the rate is usable. A zero numerator is allowed and
// disables accrual.
func (r Rate) Validate() error {
	if r.Den == 0 {
		return fmt.Errorf("rate denominator must be greater than zero")
	}
	return nil
}

// String renders the rate as "num/den".
func (r Rate) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Accrue returns floor(staked * Num * elapsed / Den). The product is
// computed in 256 bits so it cannot wrap; a quotient that does not fit in
// 64 bits saturates at math.MaxUint64. The fractional remainder is dropped
// and never carried into a later settlement.
func (r Rate) Accrue(staked, elapsed uint64) uint64 {
	if staked == 0 || elapsed == 0 || r.Num == 0 || r.Den == 0 {
		return 0
	}
	p := new(uint256.Int).SetUint64(staked)
	p.Mul(p, uint256.NewInt(r.Num))
	p.Mul(p, uint256.NewInt(elapsed))
	p.Div(p, uint256.NewInt(r.Den))
	if !p.IsUint64() {
		return math.MaxUint64
	}
	return p.Uint64()
}

// addPoints adds with saturation at math.MaxUint64.
func addPoints(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
