package validation

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/trigg3rX/irs-avs/pkg/types"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) NextSwapId(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*big.Int), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetSwap(ctx context.Context, id *big.Int) (*types.Swap, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*types.Swap), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) CanBeSettled(ctx context.Context, id *big.Int) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockPools struct {
	mock.Mock
}

func (m *mockPools) GetUserAccountData(ctx context.Context, pool types.PoolKind, user common.Address) (*types.AccountData, error) {
	args := m.Called(ctx, pool, user)
	if v := args.Get(0); v != nil {
		return v.(*types.AccountData), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPools) CurrentVariableRate(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*big.Int), args.Error(1)
	}
	return nil, args.Error(1)
}

// idEq matches a *big.Int argument by value.
func idEq(n int64) interface{} {
	return mock.MatchedBy(func(id *big.Int) bool { return id != nil && id.Int64() == n })
}

// fakeLedger is an in-memory ledger for scan tests.
type fakeLedger struct {
	swaps    []*types.Swap
	settable map[int64]bool
}

func (f *fakeLedger) NextSwapId(context.Context) (*big.Int, error) {
	return big.NewInt(int64(len(f.swaps))), nil
}

func (f *fakeLedger) GetSwap(_ context.Context, id *big.Int) (*types.Swap, error) {
	return f.swaps[id.Int64()], nil
}

func (f *fakeLedger) CanBeSettled(_ context.Context, id *big.Int) (bool, error) {
	return f.settable[id.Int64()], nil
}
