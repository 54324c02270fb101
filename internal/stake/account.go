// Package stake implements the stake account state machine.
//
// Every operation is a pure transition over an Account value and a clock
// reading supplied by the caller. Points accrue on the balance actually
// held during an interval, so each mutating operation first settles
// accrual up to now and only then changes the balance.
package stake

import (
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// Account is the per-principal stake record.
type Account struct {
	Owner        types.Address `json:"owner"`
	StakedAmount uint64        `json:"staked_amount"`
	TotalPoints  uint64        `json:"total_points"`
	AccrualStart int64         `json:"accrual_start"` // Unix seconds.
	Bump         uint8         `json:"bump"`          // Address derivation salt, never interpreted here.
}

// Elapsed returns the whole seconds between AccrualStart and now.
// A clock reading behind AccrualStart counts as zero elapsed time.
func (a Account) Elapsed(now int64) uint64 {
	if now <= a.AccrualStart {
		return 0
	}
	return uint64(now) - uint64(a.AccrualStart)
}
