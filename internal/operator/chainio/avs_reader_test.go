package chainio

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/irs-avs/pkg/logging"
)

var owner = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

// swapTuple is the shape abi packs for the getSwap output.
type swapTuple struct {
	Id             *big.Int
	Owner          common.Address
	NotionalAmount *big.Int
	FixedRate      *big.Int
	IsPayingFixed  bool
	Duration       *big.Int
	Margin         *big.Int
	Matched        bool
	MatchedWith    *big.Int
	IsActive       bool
	LastSettlement *big.Int
	StartTime      *big.Int
}

func sampleTuple() swapTuple {
	return swapTuple{
		Id:             big.NewInt(3),
		Owner:          owner,
		NotionalAmount: big.NewInt(10),
		FixedRate:      big.NewInt(600),
		IsPayingFixed:  true,
		Duration:       big.NewInt(31536000),
		Margin:         big.NewInt(1),
		Matched:        true,
		MatchedWith:    big.NewInt(4),
		IsActive:       true,
		LastSettlement: big.NewInt(1_700_000_000),
		StartTime:      big.NewInt(1_699_000_000),
	}
}

func TestAvsReader_NextSwapIdAndSettled(t *testing.T) {
	b, backend := newTestBindings(t)
	backend.respond(t, b.ServiceManager, "nextSwapId", big.NewInt(7))
	backend.respond(t, b.ServiceManager, "canBeSettled", true)

	r := NewAvsReader(b, logging.NewNoOpLogger())
	next, err := r.NextSwapId(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), next.Int64())

	ok, err := r.CanBeSettled(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAvsReader_GetSwap(t *testing.T) {
	b, backend := newTestBindings(t)
	backend.respond(t, b.ServiceManager, "getSwap", sampleTuple())

	swap, err := NewAvsReader(b, logging.NewNoOpLogger()).GetSwap(context.Background(), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), swap.Id.Int64())
	assert.Equal(t, owner, swap.Owner)
	assert.Equal(t, int64(600), swap.FixedRate.Int64())
	assert.True(t, swap.IsPayingFixed)
	assert.True(t, swap.Matched)
	assert.Equal(t, int64(4), swap.MatchedWith.Int64())
	assert.True(t, swap.IsActive)
	assert.Equal(t, int64(1_700_000_000), swap.LastSettlement.Int64())
}

func TestAvsReader_Swaps(t *testing.T) {
	b, backend := newTestBindings(t)
	s := sampleTuple()
	backend.respond(t, b.ServiceManager, "swaps",
		s.Id, s.Owner, s.NotionalAmount, s.FixedRate, s.IsPayingFixed, s.Duration,
		s.Margin, s.Matched, s.MatchedWith, s.IsActive, s.LastSettlement, s.StartTime)

	swap, err := NewAvsReader(b, logging.NewNoOpLogger()).Swaps(context.Background(), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, owner, swap.Owner)
	assert.Equal(t, int64(1_699_000_000), swap.StartTime.Int64())
}

func TestAvsReader_CallError(t *testing.T) {
	b, backend := newTestBindings(t)
	backend.fail(b.ServiceManager, "canBeSettled", errors.New("execution reverted"))

	_, err := NewAvsReader(b, logging.NewNoOpLogger()).CanBeSettled(context.Background(), big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canBeSettled")
}
