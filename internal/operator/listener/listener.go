// Package listener feeds NewTaskCreated events into the dispatcher queue.
package listener

import (
	"context"
	"errors"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/trigg3rX/irs-avs/internal/operator/chainio"
	"github.com/trigg3rX/irs-avs/internal/operator/config"
	"github.com/trigg3rX/irs-avs/internal/operator/metrics"
	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/retry"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

type Sink interface {
	Enqueue(ctx context.Context, ev types.TaskEvent) error
}

type BlockNumberer interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type Mode string

const (
	// ModeSubscribe streams logs over a websocket subscription.
	ModeSubscribe Mode = "subscribe"
	// ModePoll queries eth_getLogs on a timer.
	ModePoll Mode = "poll"
)

type Listener struct {
	mode       Mode
	subscriber chainio.AvsSubscriberer
	chain      BlockNumberer
	sink       Sink
	cfg        config.ListenerConfig
	metrics    *metrics.Metrics
	logger     logging.Logger

	lastBlock uint64
}

func New(mode Mode, subscriber chainio.AvsSubscriberer, chain BlockNumberer, sink Sink, cfg config.ListenerConfig, m *metrics.Metrics, logger logging.Logger) *Listener {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Listener{
		mode:       mode,
		subscriber: subscriber,
		chain:      chain,
		sink:       sink,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
		lastBlock:  cfg.FromBlock,
	}
}

func (l *Listener) retryConfig() *retry.RetryConfig {
	rc := retry.DefaultRetryConfig()
	rc.MaxRetries = l.cfg.ReconnectTries
	rc.InitialDelay = l.cfg.ReconnectDelay
	if rc.MaxDelay < rc.InitialDelay {
		rc.MaxDelay = rc.InitialDelay
	}
	return rc
}

// Run blocks until ctx is cancelled or the event source cannot be
// reached after the configured reconnect attempts.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("Listening for tasks...", "mode", string(l.mode))
	var err error
	if l.mode == ModeSubscribe {
		err = l.subscribeLoop(ctx)
	} else {
		err = l.pollLoop(ctx)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type subscription struct {
	logs chan gethtypes.Log
	sub  event.Subscription
}

func (l *Listener) subscribe(ctx context.Context) (subscription, error) {
	return retry.Retry(ctx, func() (subscription, error) {
		var from *uint64
		if l.lastBlock > 0 {
			start := l.lastBlock
			from = &start
		}
		logs, sub, err := l.subscriber.SubscribeToNewTasks(ctx, from)
		if err != nil {
			return subscription{}, err
		}
		return subscription{logs: logs, sub: sub}, nil
	}, l.retryConfig(), l.logger)
}

func (l *Listener) subscribeLoop(ctx context.Context) error {
	for {
		s, err := l.subscribe(ctx)
		if err != nil {
			return err
		}
		if err := l.consume(ctx, s); err != nil {
			return err
		}
		l.metrics.ListenerReconnects.Inc()
	}
}

// consume returns nil when the subscription dropped and should be renewed.
func (l *Listener) consume(ctx context.Context, s subscription) error {
	defer s.sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.sub.Err():
			l.logger.Warn("Task subscription dropped, resubscribing", "error", err, "fromBlock", l.lastBlock)
			return nil
		case log := <-s.logs:
			ev, err := l.subscriber.ParseNewTaskCreated(log)
			if err != nil {
				l.logger.Warn("Skipping undecodable NewTaskCreated log", "txHash", log.TxHash.Hex(), "error", err)
				continue
			}
			if err := l.deliver(ctx, *ev); err != nil {
				return err
			}
		}
	}
}

func (l *Listener) deliver(ctx context.Context, ev types.TaskEvent) error {
	if ev.BlockNumber > l.lastBlock {
		l.lastBlock = ev.BlockNumber
	}
	return l.sink.Enqueue(ctx, ev)
}

func (l *Listener) pollLoop(ctx context.Context) error {
	next := l.cfg.FromBlock
	if next == 0 {
		head, err := retry.Retry(ctx, func() (uint64, error) {
			return l.chain.BlockNumber(ctx)
		}, l.retryConfig(), l.logger)
		if err != nil {
			return err
		}
		next = head + 1
	}
	l.logger.Info("Polling for tasks", "fromBlock", next, "interval", l.cfg.PollInterval.String())

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var err error
			next, err = l.poll(ctx, next)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Error("Error polling task events", "fromBlock", next, "error", err)
			}
		}
	}
}

// poll delivers every event from next up to the current head in chunks of
// BlockRange and returns the first block not yet covered.
func (l *Listener) poll(ctx context.Context, next uint64) (uint64, error) {
	head, err := l.chain.BlockNumber(ctx)
	if err != nil {
		return next, err
	}
	for next <= head {
		to := next + l.cfg.BlockRange - 1
		if to > head {
			to = head
		}
		events, err := l.subscriber.FilterNewTasks(ctx, next, to)
		if err != nil {
			return next, err
		}
		for _, ev := range events {
			if err := l.deliver(ctx, ev); err != nil {
				return next, err
			}
		}
		next = to + 1
	}
	return next, nil
}
