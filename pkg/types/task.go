package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TaskType is the on-chain task discriminator. Its meaning depends on the
// protocol variant the ledger was deployed with.
type TaskType uint8

const (
	SwapValidation  TaskType = 0
	MatchValidation TaskType = 1
	Settlement      TaskType = 2

	// RateAndSettlement replaces MatchValidation and Settlement in v2 ledgers.
	RateAndSettlement TaskType = 1
)

type ProtocolVariant string

const (
	ProtocolV1 ProtocolVariant = "v1"
	ProtocolV2 ProtocolVariant = "v2"
)

// Kind is the variant-independent meaning of a task type.
type Kind int

const (
	KindUnknown Kind = iota
	KindSwap
	KindMatch
	KindSettlement
	KindRateAndSettlement
)

func (k Kind) String() string {
	switch k {
	case KindSwap:
		return "SWAP_VALIDATION"
	case KindMatch:
		return "MATCH_VALIDATION"
	case KindSettlement:
		return "SETTLEMENT"
	case KindRateAndSettlement:
		return "RATE_AND_SETTLEMENT"
	default:
		return "UNKNOWN"
	}
}

// Classify maps a raw task type to its meaning under the given variant.
func (v ProtocolVariant) Classify(t TaskType) Kind {
	switch v {
	case ProtocolV2:
		switch t {
		case SwapValidation:
			return KindSwap
		case RateAndSettlement:
			return KindRateAndSettlement
		}
	default:
		switch t {
		case SwapValidation:
			return KindSwap
		case MatchValidation:
			return KindMatch
		case Settlement:
			return KindSettlement
		}
	}
	return KindUnknown
}

// SettlementTaskType is the task type the settlement poller submits.
func (v ProtocolVariant) SettlementTaskType() TaskType {
	if v == ProtocolV2 {
		return RateAndSettlement
	}
	return Settlement
}

// Task mirrors the ledger's task tuple.
type Task struct {
	TaskCreatedBlock uint32 `json:"task_created_block"`
	TaskType         uint8  `json:"task_type"`
	Payload          []byte `json:"payload"`
}

// TaskEvent is one NewTaskCreated notification.
type TaskEvent struct {
	TaskIndex   uint32      `json:"task_index"`
	Task        Task        `json:"task"`
	BlockNumber uint64      `json:"block_number"`
	TxHash      common.Hash `json:"tx_hash"`
}

func (e TaskEvent) String() string {
	return fmt.Sprintf("task %d (type %d, created at block %d)", e.TaskIndex, e.Task.TaskType, e.Task.TaskCreatedBlock)
}

// SwapRequest is the payload of a swap-validation task. Margin is nil for
// ledgers that do not carry it.
type SwapRequest struct {
	User           common.Address `json:"user"`
	NotionalAmount *big.Int       `json:"notional_amount"`
	FixedRate      *big.Int       `json:"fixed_rate"`
	IsPayingFixed  bool           `json:"is_paying_fixed"`
	Duration       *big.Int       `json:"duration"`
	Margin         *big.Int       `json:"margin,omitempty"`
}

type MatchRequest struct {
	Swap1Id *big.Int       `json:"swap1_id"`
	Swap2Id *big.Int       `json:"swap2_id"`
	Matcher common.Address `json:"matcher"`
}

// SettlementRequest is the v1 settlement payload.
type SettlementRequest struct {
	SwapIds []*big.Int     `json:"swap_ids"`
	Settler common.Address `json:"settler"`
}

// RateSettlementRequest is the v2 settlement payload; ProposedRate is in
// basis points.
type RateSettlementRequest struct {
	SwapIds      []*big.Int `json:"swap_ids"`
	ProposedRate *big.Int   `json:"proposed_rate"`
}

type MatchResponse struct {
	Swap1Id *big.Int
	Swap2Id *big.Int
	IsValid bool
	Matcher common.Address
}

type SettlementResponse struct {
	SwapIds     []*big.Int
	CurrentRate *big.Int
	Results     []bool
	Settler     common.Address
}

type RateSettlementResponse struct {
	SwapIds      []*big.Int
	ProposedRate *big.Int
	Results      []bool
}
