package chainio

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/irs-avs/pkg/logging"
)

var testAddresses = Addresses{
	DelegationManager: common.HexToAddress("0x1000000000000000000000000000000000000001"),
	AVSDirectory:      common.HexToAddress("0x1000000000000000000000000000000000000002"),
	ServiceManager:    common.HexToAddress("0x1000000000000000000000000000000000000003"),
	StakeRegistry:     common.HexToAddress("0x1000000000000000000000000000000000000004"),
	VariablePool:      common.HexToAddress("0x1000000000000000000000000000000000000005"),
	FixedPool:         common.HexToAddress("0x1000000000000000000000000000000000000006"),
}

type callHandler func(input []byte) ([]byte, error)

// fakeBackend answers eth_call by contract address and method selector.
type fakeBackend struct {
	mu       sync.Mutex
	handlers map[common.Address]map[[4]byte]callHandler
	logs     []gethtypes.Log
	queries  []ethereum.FilterQuery
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{handlers: make(map[common.Address]map[[4]byte]callHandler)}
}

// respond registers the packed outputs of method on the contract.
func (f *fakeBackend) respond(t *testing.T, c *Contract, method string, outputs ...interface{}) {
	t.Helper()
	m, ok := c.ABI.Methods[method]
	require.True(t, ok, "unknown method %s", method)
	packed, err := m.Outputs.Pack(outputs...)
	require.NoError(t, err)
	f.handle(c.Address, m.ID, func([]byte) ([]byte, error) { return packed, nil })
}

func (f *fakeBackend) fail(c *Contract, method string, err error) {
	f.handle(c.Address, c.ABI.Methods[method].ID, func([]byte) ([]byte, error) { return nil, err })
}

func (f *fakeBackend) handle(addr common.Address, id []byte, h callHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers[addr] == nil {
		f.handlers[addr] = make(map[[4]byte]callHandler)
	}
	var sel [4]byte
	copy(sel[:], id)
	f.handlers[addr][sel] = h
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if call.To == nil || len(call.Data) < 4 {
		return nil, errors.New("bad call")
	}
	var sel [4]byte
	copy(sel[:], call.Data[:4])
	h, ok := f.handlers[*call.To][sel]
	if !ok {
		return nil, fmt.Errorf("no handler for %x on %s", sel, call.To.Hex())
	}
	return h(call.Data[4:])
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*gethtypes.Header, error) {
	return &gethtypes.Header{Number: big.NewInt(1)}, nil
}

func (f *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeBackend) SendTransaction(context.Context, *gethtypes.Transaction) error {
	return errors.New("transactions go through the tx manager")
}

func (f *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.logs, nil
}

func (f *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- gethtypes.Log) (ethereum.Subscription, error) {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

var _ bind.ContractBackend = (*fakeBackend)(nil)

// fakeTxManager records the transactions it is asked to send.
type fakeTxManager struct {
	sent   []*gethtypes.Transaction
	status uint64
	err    error
}

func (m *fakeTxManager) GetNoSendTxOpts() (*bind.TransactOpts, error) {
	return &bind.TransactOpts{
		From:     common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		Nonce:    big.NewInt(0),
		GasPrice: big.NewInt(1),
		GasLimit: 1_000_000,
		NoSend:   true,
		Signer: func(_ common.Address, tx *gethtypes.Transaction) (*gethtypes.Transaction, error) {
			return tx, nil
		},
	}, nil
}

func (m *fakeTxManager) Send(_ context.Context, tx *gethtypes.Transaction, _ bool) (*gethtypes.Receipt, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, tx)
	return &gethtypes.Receipt{Status: m.status, TxHash: tx.Hash()}, nil
}

// lastCall decodes the arguments of the last sent transaction.
func (m *fakeTxManager) lastCall(t *testing.T, c *Contract) (string, []interface{}) {
	t.Helper()
	require.NotEmpty(t, m.sent)
	data := m.sent[len(m.sent)-1].Data()
	method, err := c.ABI.MethodById(data[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return method.Name, args
}

func newTestBindings(t *testing.T) (*Bindings, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	b, err := NewBindings(testAddresses, "", backend, logging.NewNoOpLogger())
	require.NoError(t, err)
	return b, backend
}

func mustEvent(t *testing.T, c *Contract, name string) abi.Event {
	t.Helper()
	ev, ok := c.ABI.Events[name]
	require.True(t, ok)
	return ev
}
