// Package validation holds the business rules an operator applies before
// attesting to a task.
package validation

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

const (
	// DefaultMinHealthFactor is the lowest pool health factor, in percent,
	// accepted for a swap's underlying loan.
	DefaultMinHealthFactor = 150
	// DefaultMaxRateDeviation is the widest accepted gap, in basis points,
	// between a proposed rate and the pool's current rate.
	DefaultMaxRateDeviation = 200
)

// PoolReader reads borrower state from the lending pools.
type PoolReader interface {
	GetUserAccountData(ctx context.Context, pool types.PoolKind, user common.Address) (*types.AccountData, error)
	// CurrentVariableRate returns the variable pool's rate in basis points.
	CurrentVariableRate(ctx context.Context) (*big.Int, error)
}

// Thresholds are the tunable bounds of the rules.
type Thresholds struct {
	MinHealthFactor  int64
	MaxRateDeviation int64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinHealthFactor:  DefaultMinHealthFactor,
		MaxRateDeviation: DefaultMaxRateDeviation,
	}
}

// PoolForDirection picks the pool that backs a swap leg. A fixed payer hedges
// a variable-rate loan and vice versa.
func PoolForDirection(isPayingFixed bool) types.PoolKind {
	if isPayingFixed {
		return types.VariablePool
	}
	return types.FixedPool
}

// RateWithinDeviation reports whether |proposed - current| <= maxDeviation.
func RateWithinDeviation(proposed, current *big.Int, maxDeviation int64) bool {
	if proposed == nil || current == nil {
		return false
	}
	diff := new(big.Int).Sub(proposed, current)
	return diff.Abs(diff).Cmp(big.NewInt(maxDeviation)) <= 0
}

// CompatibleForMatch reports whether two swaps can be paired: both open, same
// notional and fixed rate, opposite directions.
func CompatibleForMatch(a, b *types.Swap) bool {
	if !a.IsOpen() || !b.IsOpen() {
		return false
	}
	if a.NotionalAmount == nil || b.NotionalAmount == nil || a.FixedRate == nil || b.FixedRate == nil {
		return false
	}
	return a.NotionalAmount.Cmp(b.NotionalAmount) == 0 &&
		a.FixedRate.Cmp(b.FixedRate) == 0 &&
		a.IsPayingFixed != b.IsPayingFixed
}

// Rules evaluates the checks that need remote state.
type Rules struct {
	pools      PoolReader
	thresholds Thresholds
	logger     logging.Logger
}

func NewRules(pools PoolReader, thresholds Thresholds, logger logging.Logger) *Rules {
	return &Rules{
		pools:      pools,
		thresholds: thresholds,
		logger:     logger,
	}
}

func (r *Rules) Thresholds() Thresholds {
	return r.thresholds
}

// LoanHealthy reports whether user has borrowed at least amount from pool
// while keeping the minimum health factor. Query failures count as unhealthy.
func (r *Rules) LoanHealthy(ctx context.Context, user common.Address, pool types.PoolKind, amount *big.Int) bool {
	data, err := r.pools.GetUserAccountData(ctx, pool, user)
	if err != nil {
		r.logger.Error("Failed to verify loan position", "user", user.Hex(), "pool", pool.String(), "error", err)
		return false
	}
	if data == nil || data.TotalDebt == nil || data.HealthFactor == nil || amount == nil {
		return false
	}
	return data.TotalDebt.Cmp(amount) >= 0 &&
		data.HealthFactor.Cmp(big.NewInt(r.thresholds.MinHealthFactor)) >= 0
}

// RateAcceptable compares proposed against the pool's current variable rate.
// It returns the current rate so callers can echo it.
func (r *Rules) RateAcceptable(ctx context.Context, proposed *big.Int) (bool, *big.Int, error) {
	current, err := r.pools.CurrentVariableRate(ctx)
	if err != nil {
		return false, nil, err
	}
	return RateWithinDeviation(proposed, current, r.thresholds.MaxRateDeviation), current, nil
}
