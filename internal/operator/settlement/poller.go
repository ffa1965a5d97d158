// Package settlement periodically creates settlement tasks for swaps that
// are due.
package settlement

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/robfig/cron/v3"

	"github.com/trigg3rX/irs-avs/internal/operator/codec"
	"github.com/trigg3rX/irs-avs/internal/operator/metrics"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

type TaskCreator interface {
	CreateNewTask(ctx context.Context, taskType types.TaskType, payload []byte, value *big.Int) (*gethtypes.Receipt, error)
}

// RateSource gives the current variable rate in basis points.
type RateSource interface {
	CurrentVariableRate(ctx context.Context) (*big.Int, error)
}

type Poller struct {
	protocol    types.ProtocolVariant
	settlements *validation.Settlements
	rates       RateSource
	creator     TaskCreator
	settler     common.Address
	schedule    string
	cron        *cron.Cron
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewPoller(
	protocol types.ProtocolVariant,
	schedule string,
	settlements *validation.Settlements,
	rates RateSource,
	creator TaskCreator,
	settler common.Address,
	m *metrics.Metrics,
	logger logging.Logger,
) *Poller {
	if m == nil {
		m = metrics.NewNoop()
	}
	cl := cronLogger{logger}
	return &Poller{
		protocol:    protocol,
		settlements: settlements,
		rates:       rates,
		creator:     creator,
		settler:     settler,
		schedule:    schedule,
		cron:        cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		metrics:     m,
		logger:      logger,
	}
}

// Start schedules Scan and stops the scheduler when ctx is done.
func (p *Poller) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.Scan(ctx); err != nil {
			p.logger.Error("Settlement scan failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid settlement schedule %q: %w", p.schedule, err)
	}
	p.cron.Start()
	p.logger.Info("Settlement poller started", "schedule", p.schedule, "strategy", p.settlements.Strategy().Name())

	go func() {
		<-ctx.Done()
		<-p.cron.Stop().Done()
		p.logger.Info("Settlement poller stopped")
	}()
	return nil
}

// Scan finds the swaps due for settlement and, when there are any, creates
// one settlement task covering all of them.
func (p *Poller) Scan(ctx context.Context) ([]*big.Int, error) {
	due, err := p.settlements.Due(ctx)
	if err != nil {
		p.metrics.SettlementScans.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to scan swaps: %w", err)
	}
	p.metrics.DueSwaps.Set(float64(len(due)))
	if len(due) == 0 {
		p.metrics.SettlementScans.WithLabelValues("none_due").Inc()
		p.logger.Debug("No swaps due for settlement")
		return nil, nil
	}

	payload, err := p.payload(ctx, due)
	if err != nil {
		p.metrics.SettlementScans.WithLabelValues("error").Inc()
		return nil, err
	}
	p.logger.Info("Creating settlement task", "swaps", len(due), "protocol", string(p.protocol))
	receipt, err := p.creator.CreateNewTask(ctx, p.protocol.SettlementTaskType(), payload, nil)
	if err != nil {
		p.metrics.SettlementScans.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create settlement task: %w", err)
	}
	p.metrics.SettlementScans.WithLabelValues("created").Inc()
	p.metrics.SettlementTasks.Inc()
	p.logger.Info("Settlement task created", "txHash", receipt.TxHash.Hex())
	return due, nil
}

func (p *Poller) payload(ctx context.Context, due []*big.Int) ([]byte, error) {
	if p.protocol != types.ProtocolV2 {
		return codec.EncodeSettlementRequest(types.SettlementRequest{SwapIds: due, Settler: p.settler})
	}
	rate, err := p.rates.CurrentVariableRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current rate: %w", err)
	}
	return codec.EncodeRateSettlementRequest(types.RateSettlementRequest{SwapIds: due, ProposedRate: rate})
}

// cronLogger routes robfig/cron's own logging through our logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
