package chainio

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

const newTaskCreatedEvent = "NewTaskCreated"

type AvsSubscriberer interface {
	SubscribeToNewTasks(ctx context.Context, fromBlock *uint64) (chan gethtypes.Log, event.Subscription, error)
	FilterNewTasks(ctx context.Context, fromBlock, toBlock uint64) ([]types.TaskEvent, error)
	ParseNewTaskCreated(log gethtypes.Log) (*types.TaskEvent, error)
}

type AvsSubscriber struct {
	serviceManager *Contract
	filterer       bind.ContractFilterer
	logger         logging.Logger
}

var _ AvsSubscriberer = (*AvsSubscriber)(nil)

// NewAvsSubscriber watches the service manager through backend, normally
// the websocket client. A nil backend reuses the bindings' client.
func NewAvsSubscriber(bindings *Bindings, backend bind.ContractBackend, logger logging.Logger) *AvsSubscriber {
	if backend == nil {
		backend = bindings.backend
	}
	return &AvsSubscriber{
		serviceManager: bindings.ServiceManager.Rebind(backend),
		filterer:       backend,
		logger:         logger,
	}
}

// SubscribeToNewTasks streams raw NewTaskCreated logs. It needs a backend
// that supports subscriptions.
func (s *AvsSubscriber) SubscribeToNewTasks(ctx context.Context, fromBlock *uint64) (chan gethtypes.Log, event.Subscription, error) {
	logs, sub, err := s.serviceManager.WatchLogs(&bind.WatchOpts{Context: ctx, Start: fromBlock}, newTaskCreatedEvent)
	if err != nil {
		s.logger.Error("Failed to subscribe to NewTaskCreated events", "error", err)
		return nil, nil, err
	}
	s.logger.Info("Subscribed to NewTaskCreated events", "serviceManager", s.serviceManager.Address.Hex())
	return logs, sub, nil
}

// FilterNewTasks returns the NewTaskCreated events in [fromBlock, toBlock].
func (s *AvsSubscriber) FilterNewTasks(ctx context.Context, fromBlock, toBlock uint64) ([]types.TaskEvent, error) {
	ev, ok := s.serviceManager.ABI.Events[newTaskCreatedEvent]
	if !ok {
		return nil, fmt.Errorf("%s ABI has no %s event", s.serviceManager.Name, newTaskCreatedEvent)
	}
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{s.serviceManager.Address},
		Topics:    [][]common.Hash{{ev.ID}},
	}
	logs, err := s.filterer.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s logs: %w", newTaskCreatedEvent, err)
	}

	events := make([]types.TaskEvent, 0, len(logs))
	for _, log := range logs {
		parsed, err := s.ParseNewTaskCreated(log)
		if err != nil {
			s.logger.Warn("Skipping undecodable NewTaskCreated log", "txHash", log.TxHash.Hex(), "error", err)
			continue
		}
		events = append(events, *parsed)
	}
	return events, nil
}

func (s *AvsSubscriber) ParseNewTaskCreated(log gethtypes.Log) (*types.TaskEvent, error) {
	return parseNewTaskCreated(s.serviceManager, log)
}

type newTaskCreated struct {
	TaskIndex uint32
	Task      types.Task
}

func parseNewTaskCreated(c *Contract, log gethtypes.Log) (*types.TaskEvent, error) {
	ev, ok := c.ABI.Events[newTaskCreatedEvent]
	if !ok {
		return nil, fmt.Errorf("%s ABI has no %s event", c.Name, newTaskCreatedEvent)
	}
	if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return nil, fmt.Errorf("log is not a %s event", newTaskCreatedEvent)
	}

	var out newTaskCreated
	if err := c.UnpackLog(&out, newTaskCreatedEvent, log); err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", newTaskCreatedEvent, err)
	}
	return &types.TaskEvent{
		TaskIndex:   out.TaskIndex,
		Task:        out.Task,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
	}, nil
}
