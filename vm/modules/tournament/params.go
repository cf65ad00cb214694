// Package tournament implements the pooled-entry tournament ledger: stakes
// accumulate into a pool while pending, the tournament auto-starts the moment
// the pool hits its target exactly, scores are recorded while active, and the
// pool is split among winners, treasury and burn at settlement.
package tournament

// Ledger-wide policy constants. Amounts are in the smallest token unit.
const (
	MinEntryPrice       uint64 = 1_000_000
	MinPoolContribution uint64 = 5_000_000
	MinTargetPool       uint64 = 10_000_000
	MinDuration         uint64 = 144  // blocks
	MaxDuration         uint64 = 1008 // blocks

	WinnersPct  uint64 = 80
	TreasuryPct uint64 = 10
	BurnPct     uint64 = 10
)

// Constants is the read-only policy set exposed over RPC.
type Constants struct {
	MinEntryPrice       uint64 `json:"min_entry_price"`
	MinPoolContribution uint64 `json:"min_pool_contribution"`
	MinTargetPool       uint64 `json:"min_target_pool"`
	MinDuration         uint64 `json:"min_duration"`
	MaxDuration         uint64 `json:"max_duration"`
	WinnersPct          uint64 `json:"winners_pct"`
	TreasuryPct         uint64 `json:"treasury_pct"`
	BurnPct             uint64 `json:"burn_pct"`
}

// DefaultConstants returns the ledger's policy constants.
func DefaultConstants() Constants {
	return Constants{
		MinEntryPrice:       MinEntryPrice,
		MinPoolContribution: MinPoolContribution,
		MinTargetPool:       MinTargetPool,
		MinDuration:         MinDuration,
		MaxDuration:         MaxDuration,
		WinnersPct:          WinnersPct,
		TreasuryPct:         TreasuryPct,
		BurnPct:             BurnPct,
	}
}

// pctShare returns floor(pool * pct / 100) without 64-bit overflow for any
// pool value: pool = 100q + r, so the floor splits into q*pct + floor(r*pct/100).
func pctShare(pool, pct uint64) uint64 {
	return pool/100*pct + pool%100*pct/100
}
