package validation

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/irs-avs/pkg/types"
)

func matched(s *types.Swap) *types.Swap {
	s.Matched = true
	return s
}

func TestFindMatchingSwap(t *testing.T) {
	ctx := context.Background()
	target := openSwap(9, 10, 600, true)

	t.Run("first compatible swap in id order", func(t *testing.T) {
		ledger := &fakeLedger{swaps: []*types.Swap{
			openSwap(0, 10, 600, true),
			openSwap(1, 5, 600, false),
			openSwap(2, 10, 600, false),
			openSwap(3, 10, 600, false),
		}}
		got, err := FindMatchingSwap(ctx, ledger, target)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Id.Int64())
	})

	t.Run("no unmatched swaps", func(t *testing.T) {
		ledger := &fakeLedger{swaps: []*types.Swap{
			matched(openSwap(0, 10, 600, false)),
			matched(openSwap(1, 10, 600, true)),
		}}
		_, err := FindMatchingSwap(ctx, ledger, target)
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("empty ledger", func(t *testing.T) {
		_, err := FindMatchingSwap(ctx, &fakeLedger{}, target)
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("target is never its own match", func(t *testing.T) {
		self := openSwap(0, 10, 600, false)
		ledger := &fakeLedger{swaps: []*types.Swap{self}}
		_, err := FindMatchingSwap(ctx, ledger, self)
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}

func TestListSwaps(t *testing.T) {
	ctx := context.Background()

	ledger := new(mockLedger)
	ledger.On("NextSwapId", mock.Anything).Return(big.NewInt(2), nil)
	ledger.On("GetSwap", mock.Anything, idEq(0)).Return(&types.Swap{}, nil)
	ledger.On("GetSwap", mock.Anything, idEq(1)).Return(&types.Swap{Owner: common.HexToAddress("0x01")}, nil)

	swaps, err := ListSwaps(ctx, ledger)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, int64(1), swaps[0].Id.Int64())

	broken := new(mockLedger)
	broken.On("NextSwapId", mock.Anything).Return(nil, errors.New("rpc down"))
	_, err = ListSwaps(ctx, broken)
	assert.Error(t, err)
}
