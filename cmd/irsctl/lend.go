package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

func LendCommand() *cli.Command {
	return &cli.Command{
		Name:  "lend",
		Usage: "Open a variable-rate loan for wallet 1 and a fixed-rate loan for wallet 2",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "collateral", Value: "15", Usage: "Collateral per wallet in ETH"},
			&cli.StringFlag{Name: "borrow", Value: "10", Usage: "Borrowed amount per wallet in ETH"},
			&cli.Uint64Flag{Name: "duration", Value: oneYear, Usage: "Fixed-rate loan duration in seconds"},
		},
		Action: withCtl(setupLending),
	}
}

type lendParams struct {
	collateral *big.Int
	borrow     *big.Int
	duration   *big.Int
}

func parseLendParams(collateral, borrow string, duration uint64) (lendParams, error) {
	c, err := validation.ParseEther(collateral)
	if err != nil {
		return lendParams{}, fmt.Errorf("collateral: %w", err)
	}
	b, err := validation.ParseEther(borrow)
	if err != nil {
		return lendParams{}, fmt.Errorf("borrow: %w", err)
	}
	if duration == 0 {
		return lendParams{}, fmt.Errorf("duration must be positive")
	}
	return lendParams{collateral: c, borrow: b, duration: new(big.Int).SetUint64(duration)}, nil
}

func setupLending(c *cli.Context, x *ctl) error {
	p, err := parseLendParams(c.String("collateral"), c.String("borrow"), c.Uint64("duration"))
	if err != nil {
		return err
	}
	second, err := x.secondary()
	if err != nil {
		return err
	}
	ctx := c.Context

	fmt.Fprintln(x.out, "Initial balances:")
	if err := x.printBalances(ctx, x.primary, second); err != nil {
		return err
	}

	if err := x.openVariableLoan(ctx, x.primary, p); err != nil {
		return fmt.Errorf("variable-rate setup for %s: %w", x.primary.name, err)
	}
	if err := x.openFixedLoan(ctx, second, p); err != nil {
		return fmt.Errorf("fixed-rate setup for %s: %w", second.name, err)
	}

	fmt.Fprintln(x.out, "Final balances:")
	if err := x.printBalances(ctx, x.primary, second); err != nil {
		return err
	}
	fmt.Fprintln(x.out, "All lending positions set up")
	return nil
}

func (x *ctl) openVariableLoan(ctx context.Context, a *account, p lendParams) error {
	fmt.Fprintf(x.out, "Setting up variable-rate position for %s (%s)\n", a.name, a.address.Hex())
	fmt.Fprintf(x.out, "Depositing %s ETH as collateral\n", validation.FormatEther(p.collateral))
	if _, err := a.loans.Deposit(ctx, p.collateral); err != nil {
		return err
	}
	fmt.Fprintf(x.out, "Borrowing %s ETH\n", validation.FormatEther(p.borrow))
	if _, err := a.loans.Borrow(ctx, p.borrow); err != nil {
		return err
	}

	position, err := x.pools.GetUserAccountData(ctx, types.VariablePool, a.address)
	if err != nil {
		return err
	}
	fmt.Fprintf(x.out, "Variable-rate position: collateral %s ETH, debt %s ETH, health factor %s\n",
		validation.FormatEther(position.TotalCollateral),
		validation.FormatEther(position.TotalDebt),
		position.HealthFactor)
	return nil
}

func (x *ctl) openFixedLoan(ctx context.Context, a *account, p lendParams) error {
	fmt.Fprintf(x.out, "Setting up fixed-rate position for %s (%s)\n", a.name, a.address.Hex())
	fmt.Fprintf(x.out, "Depositing %s ETH as collateral\n", validation.FormatEther(p.collateral))
	if _, err := a.loans.DepositCollateral(ctx, p.collateral); err != nil {
		return err
	}
	fmt.Fprintf(x.out, "Borrowing %s ETH for %s\n", validation.FormatEther(p.borrow), validation.FormatDays(p.duration))
	if _, err := a.loans.OpenFixedPosition(ctx, p.borrow, p.duration); err != nil {
		return err
	}

	position, err := x.pools.GetUserFixedRatePosition(ctx, a.address)
	if err != nil {
		return err
	}
	maturity := "-"
	if position.Maturity != nil {
		maturity = time.Unix(position.Maturity.Int64(), 0).UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(x.out, "Fixed-rate position: principal %s ETH, fixed rate %s, maturity %s, health factor %s\n",
		validation.FormatEther(position.Principal),
		position.FixedRate,
		maturity,
		position.HealthFactor)
	return nil
}

func (x *ctl) printBalances(ctx context.Context, accounts ...*account) error {
	for _, a := range accounts {
		bal, err := x.balance(ctx, a.address)
		if err != nil {
			return fmt.Errorf("failed to read balance of %s: %w", a.address.Hex(), err)
		}
		fmt.Fprintf(x.out, "  %s: %s ETH\n", a.name, validation.FormatEther(bal))
	}
	return nil
}
