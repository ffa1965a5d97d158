package main

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/pkg/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	ether = big.NewInt(1e18)
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ether)
}

type fakeLedger struct {
	swaps []*types.Swap
	err   error
}

func (l *fakeLedger) NextSwapId(context.Context) (*big.Int, error) {
	return big.NewInt(int64(len(l.swaps))), l.err
}

func (l *fakeLedger) GetSwap(_ context.Context, id *big.Int) (*types.Swap, error) {
	if l.err != nil {
		return nil, l.err
	}
	if !id.IsInt64() || id.Int64() >= int64(len(l.swaps)) {
		return &types.Swap{}, nil
	}
	s := *l.swaps[id.Int64()]
	return &s, nil
}

func (l *fakeLedger) CanBeSettled(context.Context, *big.Int) (bool, error) {
	return false, nil
}

func swap(id int64, owner common.Address, notional int64, payFixed bool) *types.Swap {
	return &types.Swap{
		Id:             big.NewInt(id),
		Owner:          owner,
		NotionalAmount: eth(notional),
		FixedRate:      big.NewInt(600),
		IsPayingFixed:  payFixed,
		Duration:       big.NewInt(oneYear),
		Margin:         eth(1),
		IsActive:       true,
	}
}

func quietApp() (*cli.App, *bytes.Buffer) {
	out := new(bytes.Buffer)
	app := newApp()
	app.Writer = out
	app.ErrWriter = out
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app, out
}

func TestApp_Commands(t *testing.T) {
	var names []string
	for _, cmd := range newApp().Commands {
		names = append(names, cmd.Name)
		assert.NotNil(t, cmd.Action, cmd.Name)
	}
	assert.Equal(t, []string{"swap", "match", "settle", "list", "lend"}, names)
}

func TestApp_UnknownCommandExitsOne(t *testing.T) {
	app, _ := quietApp()
	err := app.Run([]string{"irsctl", "refinance"})
	require.Error(t, err)

	var exit cli.ExitCoder
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 1, exit.ExitCode())
	assert.Contains(t, err.Error(), "refinance")
}

func TestApp_NoCommandPrintsHelp(t *testing.T) {
	app, out := quietApp()
	require.NoError(t, app.Run([]string{"irsctl"}))
	for _, name := range []string{"swap", "match", "settle", "list", "lend"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestBuildSwapRequest_Defaults(t *testing.T) {
	req, err := buildSwapRequest(alice, swapParams{
		notional: "10",
		margin:   "1",
		rate:     600,
		duration: oneYear,
	})
	require.NoError(t, err)

	assert.Equal(t, alice, req.User)
	assert.Equal(t, 0, req.NotionalAmount.Cmp(eth(10)))
	assert.Equal(t, int64(600), req.FixedRate.Int64())
	assert.Equal(t, int64(31536000), req.Duration.Int64())
	assert.Equal(t, 0, req.Margin.Cmp(eth(1)))
	assert.False(t, req.IsPayingFixed)

	assert.Equal(t,
		"Fixed->Variable swap: notional 10 ETH, fixed rate 6.00%, duration 365 days, paying fixed false, margin 1 ETH",
		describeSwap(req))
}

func TestBuildSwapRequest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params swapParams
	}{
		{"bad notional", swapParams{notional: "ten", margin: "1", duration: oneYear}},
		{"bad margin", swapParams{notional: "10", margin: "-1", duration: oneYear}},
		{"zero notional", swapParams{notional: "0", margin: "1", duration: oneYear}},
		{"zero duration", swapParams{notional: "10", margin: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildSwapRequest(alice, tt.params)
			assert.Error(t, err)
		})
	}
}

func TestResolveMatch(t *testing.T) {
	ledger := &fakeLedger{swaps: []*types.Swap{
		swap(0, alice, 10, true),
		swap(1, bob, 5, false),
		swap(2, bob, 10, false),
		swap(3, alice, 7, true),
	}}
	ctx := context.Background()

	t.Run("explicit pair", func(t *testing.T) {
		a, b, err := resolveMatch(ctx, ledger, []string{"3", "1"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), a.Int64())
		assert.Equal(t, int64(1), b.Int64())
	})

	t.Run("counterparty search", func(t *testing.T) {
		a, b, err := resolveMatch(ctx, ledger, []string{"0"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), a.Int64())
		assert.Equal(t, int64(2), b.Int64())
	})

	t.Run("no counterparty", func(t *testing.T) {
		_, _, err := resolveMatch(ctx, ledger, []string{"3"})
		assert.ErrorContains(t, err, "no open swap matches swap 3")
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, args := range [][]string{nil, {"x"}, {"1", "1"}, {"1", "2", "3"}, {"-1"}} {
			_, _, err := resolveMatch(ctx, ledger, args)
			assert.Error(t, err, args)
		}
	})

	t.Run("ledger failure", func(t *testing.T) {
		_, _, err := resolveMatch(ctx, &fakeLedger{err: errors.New("rpc down")}, []string{"0"})
		assert.ErrorContains(t, err, "rpc down")
	})
}

func TestRenderSwaps(t *testing.T) {
	matched := swap(4, alice, 10, true)
	matched.Matched = true
	matched.MatchedWith = big.NewInt(5)
	matched.LastSettlement = big.NewInt(1700000000)

	out := new(bytes.Buffer)
	renderSwaps(out, []*types.Swap{swap(0, bob, 10, false), matched})

	text := out.String()
	assert.Contains(t, text, bob.Hex())
	assert.Contains(t, text, alice.Hex())
	assert.Contains(t, text, "6.00%")
	assert.Contains(t, text, "365 days")
	assert.Contains(t, text, "2023-11-14T22:13:20Z")
}

func TestParseLendParams(t *testing.T) {
	p, err := parseLendParams("15", "10", oneYear)
	require.NoError(t, err)
	assert.Equal(t, 0, p.collateral.Cmp(eth(15)))
	assert.Equal(t, 0, p.borrow.Cmp(eth(10)))
	assert.Equal(t, int64(oneYear), p.duration.Int64())

	_, err = parseLendParams("x", "10", oneYear)
	assert.Error(t, err)
	_, err = parseLendParams("15", "10", 0)
	assert.Error(t, err)
}

type stubCreator struct {
	receipt *gethtypes.Receipt
	err     error
	calls   int
}

func (s *stubCreator) CreateNewTask(context.Context, types.TaskType, []byte, *big.Int) (*gethtypes.Receipt, error) {
	s.calls++
	return s.receipt, s.err
}

func TestReceiptRecorder(t *testing.T) {
	want := &gethtypes.Receipt{TxHash: common.HexToHash("0x01")}
	inner := &stubCreator{receipt: want}
	recorder := &receiptRecorder{TaskCreator: inner}

	got, err := recorder.CreateNewTask(context.Background(), types.Settlement, nil, nil)
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Same(t, want, recorder.receipt)
	assert.Equal(t, 1, inner.calls)
}
