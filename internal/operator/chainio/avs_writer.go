package chainio

import (
	"context"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

type AvsWriterer interface {
	CreateNewTask(ctx context.Context, taskType types.TaskType, payload []byte, value *big.Int) (*gethtypes.Receipt, error)
	RespondToTask(ctx context.Context, task types.Task, taskIndex uint32, signature []byte) (*gethtypes.Receipt, error)
}

type AvsWriter struct {
	serviceManager *Contract
	txMgr          TxManager
	logger         logging.Logger
}

var _ AvsWriterer = (*AvsWriter)(nil)

func NewAvsWriter(bindings *Bindings, txMgr TxManager, logger logging.Logger) *AvsWriter {
	return &AvsWriter{
		serviceManager: bindings.ServiceManager,
		txMgr:          txMgr,
		logger:         logger,
	}
}

// CreateNewTask submits a task; value is attached as msg.value when non-nil.
func (w *AvsWriter) CreateNewTask(ctx context.Context, taskType types.TaskType, payload []byte, value *big.Int) (*gethtypes.Receipt, error) {
	w.logger.Info("Creating new task", "taskType", uint8(taskType), "payloadSize", len(payload))
	receipt, err := w.serviceManager.transact(ctx, w.txMgr, value, "createNewTask", uint8(taskType), payload)
	if err != nil {
		w.logger.Error("Error submitting CreateNewTask tx", "error", err)
		return receipt, err
	}
	return receipt, nil
}

func (w *AvsWriter) RespondToTask(ctx context.Context, task types.Task, taskIndex uint32, signature []byte) (*gethtypes.Receipt, error) {
	w.logger.Info("Responding to task", "taskIndex", taskIndex, "taskType", task.TaskType)
	receipt, err := w.serviceManager.transact(ctx, w.txMgr, nil, "respondToTask", task, taskIndex, signature)
	if err != nil {
		w.logger.Error("Error submitting RespondToTask tx", "taskIndex", taskIndex, "error", err)
		return receipt, err
	}
	return receipt, nil
}

// TaskCreatedFromReceipt returns the NewTaskCreated events emitted by a
// createNewTask transaction.
func TaskCreatedFromReceipt(bindings *Bindings, receipt *gethtypes.Receipt) []types.TaskEvent {
	if receipt == nil {
		return nil
	}
	var events []types.TaskEvent
	for _, log := range receipt.Logs {
		if log == nil || log.Address != bindings.ServiceManager.Address {
			continue
		}
		ev, err := parseNewTaskCreated(bindings.ServiceManager, *log)
		if err != nil {
			continue
		}
		events = append(events, *ev)
	}
	return events
}
