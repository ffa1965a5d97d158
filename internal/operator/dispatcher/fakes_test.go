package dispatcher

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/irs-avs/internal/operator/metrics"
	"github.com/trigg3rX/irs-avs/internal/operator/signer"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

var (
	oneEther = big.NewInt(1e18)
	tenEther = new(big.Int).Mul(big.NewInt(10), oneEther)
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	matcher  = common.HexToAddress("0x000000000000000000000000000000000000beef")
)

type fakeLedger struct {
	swaps    map[int64]*types.Swap
	settable map[int64]bool
}

func (l *fakeLedger) NextSwapId(context.Context) (*big.Int, error) {
	return big.NewInt(int64(len(l.swaps))), nil
}

func (l *fakeLedger) GetSwap(_ context.Context, id *big.Int) (*types.Swap, error) {
	swap, ok := l.swaps[id.Int64()]
	if !ok {
		return nil, fmt.Errorf("execution reverted: unknown swap %s", id)
	}
	return swap, nil
}

func (l *fakeLedger) CanBeSettled(_ context.Context, id *big.Int) (bool, error) {
	return l.settable[id.Int64()], nil
}

type fakePools struct {
	accounts map[types.PoolKind]*types.AccountData
	rateRay  *big.Int
	err      error
}

func (p *fakePools) GetUserAccountData(_ context.Context, kind types.PoolKind, _ common.Address) (*types.AccountData, error) {
	if p.err != nil {
		return nil, p.err
	}
	data, ok := p.accounts[kind]
	if !ok {
		return &types.AccountData{TotalCollateral: new(big.Int), TotalDebt: new(big.Int), HealthFactor: new(big.Int)}, nil
	}
	return data, nil
}

func (p *fakePools) CurrentVariableRate(ctx context.Context) (*big.Int, error) {
	ray, err := p.ReserveRate(ctx)
	if err != nil {
		return nil, err
	}
	return validation.RayToBasisPoints(ray), nil
}

func (p *fakePools) ReserveRate(context.Context) (*big.Int, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.rateRay, nil
}

type mockResponder struct {
	mock.Mock
}

func (m *mockResponder) RespondToTask(ctx context.Context, task types.Task, taskIndex uint32, signature []byte) (*gethtypes.Receipt, error) {
	args := m.Called(ctx, task, taskIndex, signature)
	if v := args.Get(0); v != nil {
		return v.(*gethtypes.Receipt), args.Error(1)
	}
	return nil, args.Error(1)
}

type memStore struct {
	mu       sync.Mutex
	outcomes map[uint32]TaskOutcome
}

func newMemStore() *memStore {
	return &memStore{outcomes: make(map[uint32]TaskOutcome)}
}

func (s *memStore) Seen(taskIndex uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.outcomes[taskIndex]
	return ok
}

func (s *memStore) Record(o TaskOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[o.TaskIndex] = o
}

func (s *memStore) get(taskIndex uint32) (TaskOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[taskIndex]
	return o, ok
}

type harness struct {
	dispatcher *Dispatcher
	ledger     *fakeLedger
	pools      *fakePools
	responder  *mockResponder
	store      *memStore
	metrics    *metrics.Metrics
	key        *ecdsa.PrivateKey
	operator   common.Address
}

func newHarness(t *testing.T, protocol types.ProtocolVariant) *harness {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	taskSigner, err := signer.NewTaskSigner(key)
	require.NoError(t, err)

	logger := logging.NewNoOpLogger()
	h := &harness{
		ledger:    &fakeLedger{swaps: map[int64]*types.Swap{}, settable: map[int64]bool{}},
		pools:     &fakePools{accounts: map[types.PoolKind]*types.AccountData{}, rateRay: validation.BasisPointsToRay(big.NewInt(750))},
		responder: new(mockResponder),
		store:     newMemStore(),
		metrics:   metrics.NewNoop(),
		key:       key,
		operator:  taskSigner.Address(),
	}
	rules := validation.NewRules(h.pools, validation.DefaultThresholds(), logger)
	settlements := validation.NewSettlements(h.ledger, validation.NewLedgerStrategy(h.ledger), 2, logger)
	h.dispatcher = New(protocol, 4, Deps{
		Swaps:       h.ledger,
		Rates:       h.pools,
		Responder:   h.responder,
		Rules:       rules,
		Settlements: settlements,
		Signer:      taskSigner,
		Store:       h.store,
		Metrics:     h.metrics,
	}, logger)
	return h
}

func (h *harness) expectResponse(txHash common.Hash) *mock.Call {
	return h.responder.On("RespondToTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&gethtypes.Receipt{TxHash: txHash, Status: gethtypes.ReceiptStatusSuccessful}, nil)
}

// submitted returns the task and signature passed to the last RespondToTask.
func (h *harness) submitted(t *testing.T) (types.Task, uint32, []byte) {
	t.Helper()
	require.NotEmpty(t, h.responder.Calls)
	args := h.responder.Calls[len(h.responder.Calls)-1].Arguments
	return args.Get(1).(types.Task), args.Get(2).(uint32), args.Get(3).([]byte)
}

func openSwap(id int64, payingFixed bool) *types.Swap {
	return &types.Swap{
		Id:             big.NewInt(id),
		Owner:          alice,
		NotionalAmount: new(big.Int).Set(tenEther),
		FixedRate:      big.NewInt(600),
		IsPayingFixed:  payingFixed,
		Duration:       big.NewInt(31536000),
		Margin:         new(big.Int).Set(oneEther),
		IsActive:       true,
		MatchedWith:    new(big.Int),
		LastSettlement: new(big.Int),
		StartTime:      new(big.Int),
	}
}
