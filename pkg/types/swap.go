package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Swap is a read-only snapshot of a ledger swap record. Field names match the
// contract's tuple so the ABI decoder can fill it directly.
type Swap struct {
	Id             *big.Int       `json:"id"`
	Owner          common.Address `json:"owner"`
	NotionalAmount *big.Int       `json:"notional_amount"`
	FixedRate      *big.Int       `json:"fixed_rate"` // basis points
	IsPayingFixed  bool           `json:"is_paying_fixed"`
	Duration       *big.Int       `json:"duration"` // seconds
	Margin         *big.Int       `json:"margin"`
	Matched        bool           `json:"matched"`
	MatchedWith    *big.Int       `json:"matched_with"`
	IsActive       bool           `json:"is_active"`
	LastSettlement *big.Int       `json:"last_settlement"` // unix seconds
	StartTime      *big.Int       `json:"start_time"`      // unix seconds
}

// IsOpen reports whether the swap can still be paired.
func (s *Swap) IsOpen() bool {
	return s != nil && s.IsActive && !s.Matched
}

// AccountData is what a lending pool reports for a borrower.
type AccountData struct {
	TotalCollateral *big.Int `json:"total_collateral"`
	TotalDebt       *big.Int `json:"total_debt"`
	HealthFactor    *big.Int `json:"health_factor"` // percent
}

// FixedRatePosition is a borrower's position on the fixed-rate pool.
type FixedRatePosition struct {
	Principal    *big.Int `json:"principal"`
	FixedRate    *big.Int `json:"fixed_rate"`
	Maturity     *big.Int `json:"maturity"`
	HealthFactor *big.Int `json:"health_factor"`
}

// PoolKind selects one of the two lending pools.
type PoolKind uint8

const (
	VariablePool PoolKind = iota
	FixedPool
)

func (p PoolKind) String() string {
	if p == FixedPool {
		return "fixed"
	}
	return "variable"
}
