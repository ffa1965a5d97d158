package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator/codec"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

const oneYear = 365 * 24 * 60 * 60

func SwapCommand() *cli.Command {
	return &cli.Command{
		Name:  "swap",
		Usage: "Submit a swap validation task",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "notional", Value: "10", Usage: "Notional amount in ETH"},
			&cli.Uint64Flag{Name: "rate", Value: 600, Usage: "Fixed rate in basis points"},
			&cli.Uint64Flag{Name: "duration", Value: oneYear, Usage: "Swap duration in seconds"},
			&cli.StringFlag{Name: "margin", Value: "1", Usage: "Margin in ETH, sent as msg.value"},
			&cli.BoolFlag{Name: "pay-fixed", Usage: "Pay the fixed leg instead of the variable leg"},
			&cli.BoolFlag{Name: "second-wallet", Usage: "Submit from PRIVATE_KEY_2"},
		},
		Action: withCtl(submitSwap),
	}
}

type swapParams struct {
	notional string
	margin   string
	rate     uint64
	duration uint64
	payFixed bool
}

func buildSwapRequest(user common.Address, p swapParams) (types.SwapRequest, error) {
	notional, err := validation.ParseEther(p.notional)
	if err != nil {
		return types.SwapRequest{}, fmt.Errorf("notional: %w", err)
	}
	margin, err := validation.ParseEther(p.margin)
	if err != nil {
		return types.SwapRequest{}, fmt.Errorf("margin: %w", err)
	}
	if notional.Sign() == 0 {
		return types.SwapRequest{}, fmt.Errorf("notional must be positive")
	}
	if p.duration == 0 {
		return types.SwapRequest{}, fmt.Errorf("duration must be positive")
	}
	return types.SwapRequest{
		User:           user,
		NotionalAmount: notional,
		FixedRate:      new(big.Int).SetUint64(p.rate),
		IsPayingFixed:  p.payFixed,
		Duration:       new(big.Int).SetUint64(p.duration),
		Margin:         margin,
	}, nil
}

func describeSwap(req types.SwapRequest) string {
	leg := "Variable->Fixed"
	if !req.IsPayingFixed {
		leg = "Fixed->Variable"
	}
	return fmt.Sprintf("%s swap: notional %s ETH, fixed rate %s, duration %s, paying fixed %t, margin %s ETH",
		leg,
		validation.FormatEther(req.NotionalAmount),
		validation.FormatBasisPoints(req.FixedRate),
		validation.FormatDays(req.Duration),
		req.IsPayingFixed,
		validation.FormatEther(req.Margin))
}

func submitSwap(c *cli.Context, x *ctl) error {
	from := x.primary
	if c.Bool("second-wallet") {
		var err error
		if from, err = x.secondary(); err != nil {
			return err
		}
	}

	req, err := buildSwapRequest(from.address, swapParams{
		notional: c.String("notional"),
		margin:   c.String("margin"),
		rate:     c.Uint64("rate"),
		duration: c.Uint64("duration"),
		payFixed: c.Bool("pay-fixed"),
	})
	if err != nil {
		return err
	}
	payload, err := codec.EncodeSwapRequest(req)
	if err != nil {
		return err
	}

	fmt.Fprintf(x.out, "Creating swap request from %s (%s)\n", from.address.Hex(), from.name)
	fmt.Fprintln(x.out, describeSwap(req))
	receipt, err := from.tasks.CreateNewTask(c.Context, types.SwapValidation, payload, req.Margin)
	if err != nil {
		return err
	}
	x.printCreated(receipt)
	return nil
}
