// Package dispatcher validates, signs and answers tasks one at a time.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/trigg3rX/irs-avs/internal/operator/metrics"
	"github.com/trigg3rX/irs-avs/internal/operator/signer"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

var errNoReceipt = errors.New("respondToTask returned no receipt")

// SwapReader is the ledger read the match handler needs.
type SwapReader interface {
	GetSwap(ctx context.Context, id *big.Int) (*types.Swap, error)
}

// RateReader returns the variable pool's raw reserve rate.
type RateReader interface {
	ReserveRate(ctx context.Context) (*big.Int, error)
}

type Responder interface {
	RespondToTask(ctx context.Context, task types.Task, taskIndex uint32, signature []byte) (*gethtypes.Receipt, error)
}

// OutcomeStore remembers processed tasks. Seen lets the dispatcher skip
// events replayed by the listener.
type OutcomeStore interface {
	Seen(taskIndex uint32) bool
	Record(outcome TaskOutcome)
}

type Deps struct {
	Swaps       SwapReader
	Rates       RateReader
	Responder   Responder
	Rules       *validation.Rules
	Settlements *validation.Settlements
	Signer      *signer.TaskSigner
	Store       OutcomeStore
	Metrics     *metrics.Metrics
}

type Dispatcher struct {
	protocol types.ProtocolVariant
	deps     Deps
	events   chan types.TaskEvent
	state    atomic.Int32
	logger   logging.Logger
}

func New(protocol types.ProtocolVariant, bufferSize int, deps Deps, logger logging.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNoop()
	}
	return &Dispatcher{
		protocol: protocol,
		deps:     deps,
		events:   make(chan types.TaskEvent, bufferSize),
		logger:   logger,
	}
}

func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

func (d *Dispatcher) setState(s State) {
	d.state.Store(int32(s))
}

// Enqueue hands ev to the dispatcher, blocking while the queue is full.
func (d *Dispatcher) Enqueue(ctx context.Context, ev types.TaskEvent) error {
	select {
	case d.events <- ev:
		d.deps.Metrics.QueueDepth.Set(float64(len(d.events)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled. Task failures never stop it.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("Dispatcher started", "protocol", string(d.protocol), "buffer", cap(d.events))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopped")
			return
		case ev := <-d.events:
			d.deps.Metrics.QueueDepth.Set(float64(len(d.events)))
			if d.deps.Store != nil && d.deps.Store.Seen(ev.TaskIndex) {
				d.deps.Metrics.DroppedEvents.Inc()
				d.logger.Debug("Skipping already processed task", "taskIndex", ev.TaskIndex)
				continue
			}
			d.Process(ctx, ev)
		}
	}
}

// Process runs one task through the state machine and records the outcome.
func (d *Dispatcher) Process(ctx context.Context, ev types.TaskEvent) TaskOutcome {
	start := time.Now()
	kind := d.protocol.Classify(types.TaskType(ev.Task.TaskType))
	d.deps.Metrics.TasksReceived.WithLabelValues(kind.String()).Inc()

	logger := d.logger.With("taskIndex", ev.TaskIndex, "type", kind.String())
	logger.Info("New task received", "blockNumber", ev.Task.TaskCreatedBlock, "payloadSize", len(ev.Task.Payload))

	outcome := d.handle(ctx, logger, kind, ev)
	d.setState(Idle)

	outcome.TaskIndex = ev.TaskIndex
	outcome.TaskType = ev.Task.TaskType
	outcome.Kind = kind.String()
	outcome.ProcessedAt = time.Now()

	switch outcome.Status {
	case StatusAnswered:
		logger.Info("Response submitted", "txHash", outcome.TxHash.Hex())
	case StatusRejected:
		logger.Warn("Task rejected, leaving it unanswered", "reason", outcome.Reason)
	case StatusDecodeFailed:
		logger.Error("Failed to decode task payload", "error", outcome.Err)
	default:
		logger.Error("Task failed", "stage", outcome.Stage.String(), "error", outcome.Err)
	}

	if d.deps.Store != nil {
		d.deps.Store.Record(outcome)
	}
	d.deps.Metrics.TaskOutcomes.WithLabelValues(outcome.Kind, string(outcome.Status)).Inc()
	d.deps.Metrics.TaskDuration.WithLabelValues(outcome.Kind).Observe(time.Since(start).Seconds())
	return outcome
}

func (d *Dispatcher) handle(ctx context.Context, logger logging.Logger, kind types.Kind, ev types.TaskEvent) TaskOutcome {
	var (
		response []byte
		stop     *TaskOutcome
	)
	switch kind {
	case types.KindSwap:
		response, stop = d.handleSwap(ctx, logger, ev.Task)
	case types.KindMatch:
		response, stop = d.handleMatch(ctx, logger, ev.Task)
	case types.KindSettlement:
		response, stop = d.handleSettlement(ctx, logger, ev.Task)
	case types.KindRateAndSettlement:
		response, stop = d.handleRateSettlement(ctx, logger, ev.Task)
	default:
		o := Rejected(fmt.Sprintf("unknown task type %d for protocol %s", ev.Task.TaskType, d.protocol))
		stop = &o
	}
	if stop != nil {
		return *stop
	}

	d.setState(Signing)
	signed, err := d.deps.Signer.Sign(ev.Task, response)
	if err != nil {
		return Failed(Signing, err)
	}
	logger.Debug("Signed task response", "messageHash", signed.MessageHash.Hex())

	d.setState(Submitting)
	receipt, err := d.deps.Responder.RespondToTask(ctx, signed.Task, ev.TaskIndex, signed.Signature)
	if err != nil {
		return Failed(Submitting, err)
	}
	if receipt == nil {
		return Failed(Submitting, errNoReceipt)
	}
	return Answered(signed.Signature, receipt.TxHash)
}
