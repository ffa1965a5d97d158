package dispatcher

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// State is the dispatcher's position in handling the current task.
type State int32

const (
	Idle State = iota
	Decoding
	Validating
	Signing
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Decoding:
		return "decoding"
	case Validating:
		return "validating"
	case Signing:
		return "signing"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{Idle, Decoding, Validating, Signing, Submitting} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown dispatcher state %q", text)
}

type Status string

const (
	StatusAnswered     Status = "answered"
	StatusRejected     Status = "rejected"
	StatusDecodeFailed Status = "decode_failed"
	StatusFailed       Status = "failed"
)

// TaskOutcome is the result of processing one task. Only Answered tasks
// got a response on chain.
type TaskOutcome struct {
	TaskIndex   uint32        `json:"task_index"`
	TaskType    uint8         `json:"task_type"`
	Kind        string        `json:"kind"`
	Status      Status        `json:"status"`
	Stage       State         `json:"stage"`
	Reason      string        `json:"reason,omitempty"`
	Error       string        `json:"error,omitempty"`
	Signature   hexutil.Bytes `json:"signature,omitempty"`
	TxHash      *common.Hash  `json:"tx_hash,omitempty"`
	ProcessedAt time.Time     `json:"processed_at"`
	Err         error         `json:"-"`
}

func Answered(signature []byte, txHash common.Hash) TaskOutcome {
	return TaskOutcome{Status: StatusAnswered, Stage: Idle, Signature: signature, TxHash: &txHash}
}

// Rejected means a business rule failed. The task is left unanswered.
func Rejected(reason string) TaskOutcome {
	return TaskOutcome{Status: StatusRejected, Stage: Validating, Reason: reason}
}

func DecodeFailed(err error) TaskOutcome {
	return TaskOutcome{Status: StatusDecodeFailed, Stage: Decoding, Error: err.Error(), Err: err}
}

// Failed records a remote-call or signing error at stage.
func Failed(stage State, err error) TaskOutcome {
	return TaskOutcome{Status: StatusFailed, Stage: stage, Error: err.Error(), Err: err}
}
