package chainio

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

// PoolReader reads the two lending pools.
type PoolReader struct {
	variable *Contract
	fixed    *Contract
	logger   logging.Logger
}

var _ validation.PoolReader = (*PoolReader)(nil)

func NewPoolReader(bindings *Bindings, logger logging.Logger) *PoolReader {
	return &PoolReader{
		variable: bindings.VariablePool,
		fixed:    bindings.FixedPool,
		logger:   logger,
	}
}

func (p *PoolReader) pool(kind types.PoolKind) *Contract {
	if kind == types.FixedPool {
		return p.fixed
	}
	return p.variable
}

func (p *PoolReader) GetUserAccountData(ctx context.Context, kind types.PoolKind, user common.Address) (*types.AccountData, error) {
	data := new(types.AccountData)
	if err := p.pool(kind).callInto(ctx, data, "getUserAccountData", user); err != nil {
		return nil, err
	}
	return data, nil
}

// ReserveRate is the variable pool's current rate as the pool reports it,
// in ray.
func (p *PoolReader) ReserveRate(ctx context.Context) (*big.Int, error) {
	out, err := p.variable.call(ctx, "getReserveData")
	if err != nil {
		return nil, err
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("getReserveData returned %d values, want at least 2", len(out))
	}
	return *abi.ConvertType(out[1], new(*big.Int)).(**big.Int), nil
}

// CurrentVariableRate is ReserveRate in basis points.
func (p *PoolReader) CurrentVariableRate(ctx context.Context) (*big.Int, error) {
	ray, err := p.ReserveRate(ctx)
	if err != nil {
		return nil, err
	}
	return validation.RayToBasisPoints(ray), nil
}

func (p *PoolReader) GetUserFixedRatePosition(ctx context.Context, user common.Address) (*types.FixedRatePosition, error) {
	pos := new(types.FixedRatePosition)
	if err := p.fixed.callInto(ctx, pos, "getUserFixedRatePosition", user); err != nil {
		return nil, err
	}
	return pos, nil
}

// PoolWriter opens lending positions on behalf of the tx manager's account.
type PoolWriter struct {
	variable *Contract
	fixed    *Contract
	txMgr    TxManager
	logger   logging.Logger
}

func NewPoolWriter(bindings *Bindings, txMgr TxManager, logger logging.Logger) *PoolWriter {
	return &PoolWriter{
		variable: bindings.VariablePool,
		fixed:    bindings.FixedPool,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// Deposit sends value as collateral to the variable pool.
func (w *PoolWriter) Deposit(ctx context.Context, value *big.Int) (*gethtypes.Receipt, error) {
	return w.variable.transact(ctx, w.txMgr, value, "deposit")
}

func (w *PoolWriter) Borrow(ctx context.Context, amount *big.Int) (*gethtypes.Receipt, error) {
	return w.variable.transact(ctx, w.txMgr, nil, "borrow", amount)
}

// DepositCollateral sends value as collateral to the fixed pool.
func (w *PoolWriter) DepositCollateral(ctx context.Context, value *big.Int) (*gethtypes.Receipt, error) {
	return w.fixed.transact(ctx, w.txMgr, value, "depositCollateral")
}

func (w *PoolWriter) OpenFixedPosition(ctx context.Context, amount, duration *big.Int) (*gethtypes.Receipt, error) {
	return w.fixed.transact(ctx, w.txMgr, nil, "openFixedPosition", amount, duration)
}
