package validation

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

// SwapLedger is the read side of the swap ledger the rules depend on.
type SwapLedger interface {
	NextSwapId(ctx context.Context) (*big.Int, error)
	GetSwap(ctx context.Context, id *big.Int) (*types.Swap, error)
	CanBeSettled(ctx context.Context, id *big.Int) (bool, error)
}

const (
	StrategyLedger   = "ledger"
	StrategyInterval = "interval"
)

// SettlementStrategy decides whether a swap is due for settlement.
type SettlementStrategy interface {
	Name() string
	Eligible(ctx context.Context, swap *types.Swap) (bool, error)
}

// LedgerStrategy trusts the ledger's own canBeSettled predicate.
type LedgerStrategy struct {
	ledger SwapLedger
}

func NewLedgerStrategy(ledger SwapLedger) *LedgerStrategy {
	return &LedgerStrategy{ledger: ledger}
}

func (s *LedgerStrategy) Name() string { return StrategyLedger }

func (s *LedgerStrategy) Eligible(ctx context.Context, swap *types.Swap) (bool, error) {
	if !settleable(swap) {
		return false, nil
	}
	return s.ledger.CanBeSettled(ctx, swap.Id)
}

// IntervalStrategy recomputes the due time locally as
// lastSettlement + interval <= now.
type IntervalStrategy struct {
	Interval time.Duration
	Now      func() time.Time
}

func NewIntervalStrategy(interval time.Duration) *IntervalStrategy {
	return &IntervalStrategy{Interval: interval, Now: time.Now}
}

func (s *IntervalStrategy) Name() string { return StrategyInterval }

func (s *IntervalStrategy) Eligible(_ context.Context, swap *types.Swap) (bool, error) {
	if !settleable(swap) {
		return false, nil
	}
	last := int64(0)
	if swap.LastSettlement != nil {
		last = swap.LastSettlement.Int64()
	}
	due := time.Unix(last, 0).Add(s.Interval)
	return !due.After(s.Now()), nil
}

// NewSettlementStrategy builds a strategy by name.
func NewSettlementStrategy(name string, ledger SwapLedger, interval time.Duration) (SettlementStrategy, error) {
	switch name {
	case "", StrategyLedger:
		return NewLedgerStrategy(ledger), nil
	case StrategyInterval:
		if interval <= 0 {
			return nil, fmt.Errorf("interval settlement strategy needs a positive interval")
		}
		return NewIntervalStrategy(interval), nil
	default:
		return nil, fmt.Errorf("unknown settlement strategy %q", name)
	}
}

func settleable(swap *types.Swap) bool {
	return swap != nil && swap.IsActive && swap.Matched
}

// Settlements evaluates settlement eligibility over the ledger.
type Settlements struct {
	ledger        SwapLedger
	strategy      SettlementStrategy
	maxConcurrent int
	logger        logging.Logger
}

func NewSettlements(ledger SwapLedger, strategy SettlementStrategy, maxConcurrent int, logger logging.Logger) *Settlements {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Settlements{
		ledger:        ledger,
		strategy:      strategy,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

func (s *Settlements) Strategy() SettlementStrategy {
	return s.strategy
}

// Check evaluates each requested id. The result is index-aligned with ids and
// any lookup failure yields false for that id.
func (s *Settlements) Check(ctx context.Context, ids []*big.Int) []bool {
	mapper := iter.Mapper[*big.Int, bool]{MaxGoroutines: s.maxConcurrent}
	return mapper.Map(ids, func(id **big.Int) bool {
		ok, err := s.checkOne(ctx, *id)
		if err != nil {
			s.logger.Error("Error validating settlement", "swapId", (*id).String(), "error", err)
			return false
		}
		if !ok {
			s.logger.Infof("Swap %s cannot be settled yet", (*id).String())
		}
		return ok
	})
}

func (s *Settlements) checkOne(ctx context.Context, id *big.Int) (bool, error) {
	if id == nil {
		return false, fmt.Errorf("nil swap id")
	}
	swap, err := s.ledger.GetSwap(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get swap %s: %w", id, err)
	}
	return s.strategy.Eligible(ctx, swap)
}

// Due scans every swap in id order and returns the ids that are matched,
// active and eligible under the strategy.
func (s *Settlements) Due(ctx context.Context) ([]*big.Int, error) {
	swaps, err := ListSwaps(ctx, s.ledger)
	if err != nil {
		return nil, err
	}

	candidates := make([]*types.Swap, 0, len(swaps))
	for _, swap := range swaps {
		if settleable(swap) {
			candidates = append(candidates, swap)
		}
	}

	mapper := iter.Mapper[*types.Swap, bool]{MaxGoroutines: s.maxConcurrent}
	eligible := mapper.Map(candidates, func(swap **types.Swap) bool {
		ok, err := s.strategy.Eligible(ctx, *swap)
		if err != nil {
			s.logger.Warn("Settlement check failed", "swapId", (*swap).Id.String(), "error", err)
			return false
		}
		return ok
	})

	due := make([]*big.Int, 0, len(candidates))
	for i, swap := range candidates {
		if eligible[i] {
			due = append(due, swap.Id)
		}
	}
	return due, nil
}
