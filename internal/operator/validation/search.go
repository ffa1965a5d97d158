package validation

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/irs-avs/pkg/types"
)

// ErrNoMatch is returned when no open swap can be paired with the request.
var ErrNoMatch = errors.New("no matching swap")

// ListSwaps reads every swap record from id 0 up to nextSwapId, skipping
// empty slots.
func ListSwaps(ctx context.Context, ledger SwapLedger) ([]*types.Swap, error) {
	next, err := ledger.NextSwapId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read next swap id: %w", err)
	}

	var swaps []*types.Swap
	for id := new(big.Int); id.Cmp(next) < 0; id = new(big.Int).Add(id, big.NewInt(1)) {
		swap, err := ledger.GetSwap(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get swap %s: %w", id, err)
		}
		if swap == nil || swap.Owner == (common.Address{}) {
			continue
		}
		if swap.Id == nil {
			swap.Id = new(big.Int).Set(id)
		}
		swaps = append(swaps, swap)
	}
	return swaps, nil
}

// FindMatchingSwap returns the first open swap, in id order, that takes the
// opposite side of target with the same notional. Target itself is skipped.
func FindMatchingSwap(ctx context.Context, ledger SwapLedger, target *types.Swap) (*types.Swap, error) {
	swaps, err := ListSwaps(ctx, ledger)
	if err != nil {
		return nil, err
	}
	return firstMatch(swaps, target)
}

func firstMatch(swaps []*types.Swap, target *types.Swap) (*types.Swap, error) {
	if target == nil || target.NotionalAmount == nil {
		return nil, ErrNoMatch
	}
	for _, swap := range swaps {
		if !swap.IsOpen() || swap.NotionalAmount == nil {
			continue
		}
		if target.Id != nil && swap.Id != nil && swap.Id.Cmp(target.Id) == 0 {
			continue
		}
		if swap.IsPayingFixed != target.IsPayingFixed && swap.NotionalAmount.Cmp(target.NotionalAmount) == 0 {
			return swap, nil
		}
	}
	return nil, ErrNoMatch
}
