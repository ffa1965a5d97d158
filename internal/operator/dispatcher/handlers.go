package dispatcher

import (
	"context"
	"fmt"

	"github.com/trigg3rX/irs-avs/internal/operator/codec"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

func halt(o TaskOutcome) ([]byte, *TaskOutcome) {
	return nil, &o
}

// handleSwap checks the requester's loan on the pool matching their side of
// the swap and echoes the request payload back.
func (d *Dispatcher) handleSwap(ctx context.Context, logger logging.Logger, task types.Task) ([]byte, *TaskOutcome) {
	d.setState(Decoding)
	req, err := codec.DecodeSwapRequest(task.Payload)
	if err != nil {
		return halt(DecodeFailed(err))
	}
	logger.Info("Swap request details",
		"user", req.User.Hex(),
		"notionalAmount", validation.FormatEther(req.NotionalAmount)+" ETH",
		"fixedRate", validation.FormatBasisPoints(req.FixedRate),
		"isPayingFixed", req.IsPayingFixed,
		"duration", validation.FormatDays(req.Duration),
		"margin", validation.FormatEther(req.Margin)+" ETH")

	d.setState(Validating)
	pool := validation.PoolForDirection(req.IsPayingFixed)
	if !d.deps.Rules.LoanHealthy(ctx, req.User, pool, req.NotionalAmount) {
		return halt(Rejected(fmt.Sprintf("invalid loan position on %s pool", pool)))
	}
	logger.Info("Valid loan position", "pool", pool.String())
	return task.Payload, nil
}

func (d *Dispatcher) handleMatch(ctx context.Context, logger logging.Logger, task types.Task) ([]byte, *TaskOutcome) {
	d.setState(Decoding)
	req, err := codec.DecodeMatchRequest(task.Payload)
	if err != nil {
		return halt(DecodeFailed(err))
	}
	logger.Info("Match request details", "swap1Id", req.Swap1Id, "swap2Id", req.Swap2Id, "matcher", req.Matcher.Hex())

	d.setState(Validating)
	swap1, err := d.deps.Swaps.GetSwap(ctx, req.Swap1Id)
	if err != nil {
		return halt(Failed(Validating, fmt.Errorf("failed to read swap %s: %w", req.Swap1Id, err)))
	}
	swap2, err := d.deps.Swaps.GetSwap(ctx, req.Swap2Id)
	if err != nil {
		return halt(Failed(Validating, fmt.Errorf("failed to read swap %s: %w", req.Swap2Id, err)))
	}
	if !validation.CompatibleForMatch(swap1, swap2) {
		return halt(Rejected(fmt.Sprintf("swaps %s and %s cannot be matched", req.Swap1Id, req.Swap2Id)))
	}

	response, err := codec.EncodeMatchResponse(types.MatchResponse{
		Swap1Id: req.Swap1Id,
		Swap2Id: req.Swap2Id,
		IsValid: true,
		Matcher: req.Matcher,
	})
	if err != nil {
		return halt(Failed(Signing, err))
	}
	return response, nil
}

// handleSettlement answers a v1 settlement task with the pool's current
// reserve rate and one eligibility flag per swap.
func (d *Dispatcher) handleSettlement(ctx context.Context, logger logging.Logger, task types.Task) ([]byte, *TaskOutcome) {
	d.setState(Decoding)
	req, err := codec.DecodeSettlementRequest(task.Payload)
	if err != nil {
		return halt(DecodeFailed(err))
	}
	logger.Info("Settlement request details", "swaps", len(req.SwapIds), "settler", req.Settler.Hex())

	d.setState(Validating)
	rate, err := d.deps.Rates.ReserveRate(ctx)
	if err != nil {
		return halt(Failed(Validating, fmt.Errorf("failed to read reserve rate: %w", err)))
	}
	logger.Info("Current variable rate", "rate", validation.FormatBasisPoints(validation.RayToBasisPoints(rate)))

	results := d.deps.Settlements.Check(ctx, req.SwapIds)
	response, err := codec.EncodeSettlementResponse(types.SettlementResponse{
		SwapIds:     req.SwapIds,
		CurrentRate: rate,
		Results:     results,
		Settler:     req.Settler,
	})
	if err != nil {
		return halt(Failed(Signing, err))
	}
	return response, nil
}

// handleRateSettlement answers a v2 task only when the proposed rate is
// within the allowed deviation of the pool's rate.
func (d *Dispatcher) handleRateSettlement(ctx context.Context, logger logging.Logger, task types.Task) ([]byte, *TaskOutcome) {
	d.setState(Decoding)
	req, err := codec.DecodeRateSettlementRequest(task.Payload)
	if err != nil {
		return halt(DecodeFailed(err))
	}
	logger.Info("Rate and settlement request details",
		"swaps", len(req.SwapIds),
		"proposedRate", validation.FormatBasisPoints(req.ProposedRate))

	d.setState(Validating)
	ok, current, err := d.deps.Rules.RateAcceptable(ctx, req.ProposedRate)
	if err != nil {
		return halt(Failed(Validating, fmt.Errorf("failed to read current rate: %w", err)))
	}
	if !ok {
		return halt(Rejected(fmt.Sprintf("proposed rate %s is more than %d bps away from current rate %s",
			validation.FormatBasisPoints(req.ProposedRate),
			d.deps.Rules.Thresholds().MaxRateDeviation,
			validation.FormatBasisPoints(current))))
	}

	results := d.deps.Settlements.Check(ctx, req.SwapIds)
	response, err := codec.EncodeRateSettlementResponse(types.RateSettlementResponse{
		SwapIds:      req.SwapIds,
		ProposedRate: req.ProposedRate,
		Results:      results,
	})
	if err != nil {
		return halt(Failed(Signing, err))
	}
	return response, nil
}
