package main

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "Print every swap on the ledger",
		Action: withCtl(listSwaps),
	}
}

func listSwaps(c *cli.Context, x *ctl) error {
	swaps, err := validation.ListSwaps(c.Context, x.reader)
	if err != nil {
		return err
	}
	if len(swaps) == 0 {
		fmt.Fprintln(x.out, "No swaps found")
		return nil
	}
	renderSwaps(x.out, swaps)
	return nil
}

func renderSwaps(w io.Writer, swaps []*types.Swap) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Owner", "Notional (ETH)", "Fixed Rate", "Pays Fixed", "Duration", "Margin (ETH)", "Matched With", "Active", "Last Settlement"})
	table.SetAutoWrapText(false)
	for _, s := range swaps {
		matched := "-"
		if s.Matched && s.MatchedWith != nil {
			matched = s.MatchedWith.String()
		}
		table.Append([]string{
			s.Id.String(),
			s.Owner.Hex(),
			validation.FormatEther(s.NotionalAmount),
			validation.FormatBasisPoints(s.FixedRate),
			strconv.FormatBool(s.IsPayingFixed),
			validation.FormatDays(s.Duration),
			validation.FormatEther(s.Margin),
			matched,
			strconv.FormatBool(s.IsActive),
			formatUnix(s.LastSettlement),
		})
	}
	table.Render()
}

func formatUnix(ts *big.Int) string {
	if ts == nil || ts.Sign() == 0 {
		return "-"
	}
	return time.Unix(ts.Int64(), 0).UTC().Format(time.RFC3339)
}
