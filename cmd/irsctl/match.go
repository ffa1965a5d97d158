package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator/codec"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

func MatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Submit a match validation task for two swaps",
		ArgsUsage: "<swap-id> [counterparty-id]",
		Description: "With a single id the counterparty is the first open swap, in id order,\n" +
			"that takes the opposite side with the same notional.",
		Action: withCtl(submitMatch),
	}
}

func parseSwapId(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid swap id %q", s)
	}
	return id, nil
}

// resolveMatch returns the pair to submit from one or two ids.
func resolveMatch(ctx context.Context, ledger validation.SwapLedger, args []string) (*big.Int, *big.Int, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, nil, fmt.Errorf("expected one or two swap ids, got %d", len(args))
	}
	first, err := parseSwapId(args[0])
	if err != nil {
		return nil, nil, err
	}
	if len(args) == 2 {
		second, err := parseSwapId(args[1])
		if err != nil {
			return nil, nil, err
		}
		if first.Cmp(second) == 0 {
			return nil, nil, fmt.Errorf("cannot match swap %s with itself", first)
		}
		return first, second, nil
	}

	target, err := ledger.GetSwap(ctx, first)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get swap %s: %w", first, err)
	}
	if target.Id == nil {
		target.Id = first
	}
	counterparty, err := validation.FindMatchingSwap(ctx, ledger, target)
	if errors.Is(err, validation.ErrNoMatch) {
		return nil, nil, fmt.Errorf("no open swap matches swap %s", first)
	}
	if err != nil {
		return nil, nil, err
	}
	return first, counterparty.Id, nil
}

func submitMatch(c *cli.Context, x *ctl) error {
	if x.node.Protocol() == types.ProtocolV2 {
		return fmt.Errorf("the v2 task protocol has no match tasks")
	}
	swap1, swap2, err := resolveMatch(c.Context, x.reader, c.Args().Slice())
	if err != nil {
		return err
	}
	payload, err := codec.EncodeMatchRequest(types.MatchRequest{
		Swap1Id: swap1,
		Swap2Id: swap2,
		Matcher: x.primary.address,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(x.out, "Requesting match of swap %s with swap %s\n", swap1, swap2)
	receipt, err := x.primary.tasks.CreateNewTask(c.Context, types.MatchValidation, payload, nil)
	if err != nil {
		return err
	}
	x.printCreated(receipt)
	return nil
}
