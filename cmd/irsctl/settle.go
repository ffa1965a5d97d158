package main

import (
	"context"
	"fmt"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator/settlement"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

func SettleCommand() *cli.Command {
	return &cli.Command{
		Name:   "settle",
		Usage:  "Submit one settlement task covering every swap that is due",
		Action: withCtl(submitSettlement),
	}
}

// receiptRecorder keeps the receipt of the task the poller creates.
type receiptRecorder struct {
	settlement.TaskCreator
	receipt *gethtypes.Receipt
}

func (r *receiptRecorder) CreateNewTask(ctx context.Context, taskType types.TaskType, payload []byte, value *big.Int) (*gethtypes.Receipt, error) {
	receipt, err := r.TaskCreator.CreateNewTask(ctx, taskType, payload, value)
	r.receipt = receipt
	return receipt, err
}

func submitSettlement(c *cli.Context, x *ctl) error {
	strategy, err := validation.NewSettlementStrategy(x.node.Settlement.Strategy, x.reader, x.node.Settlement.Interval)
	if err != nil {
		return err
	}
	settlements := validation.NewSettlements(x.reader, strategy, x.node.Settlement.MaxConcurrent, x.logger)
	recorder := &receiptRecorder{TaskCreator: x.primary.tasks}
	poller := settlement.NewPoller(x.node.Protocol(), x.node.Settlement.Schedule, settlements, x.pools, recorder,
		x.primary.address, nil, x.logger)

	due, err := poller.Scan(c.Context)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		fmt.Fprintf(x.out, "No swaps due for settlement (strategy %s)\n", strategy.Name())
		return nil
	}
	fmt.Fprintf(x.out, "Requested settlement of %d swap(s): %v\n", len(due), due)
	if recorder.receipt != nil {
		x.printCreated(recorder.receipt)
	}
	return nil
}
