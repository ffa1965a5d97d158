package chainio

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/logging"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

type AvsReaderer interface {
	NextSwapId(ctx context.Context) (*big.Int, error)
	Swaps(ctx context.Context, id *big.Int) (*types.Swap, error)
	GetSwap(ctx context.Context, id *big.Int) (*types.Swap, error)
	CanBeSettled(ctx context.Context, id *big.Int) (bool, error)
}

type AvsReader struct {
	serviceManager *Contract
	logger         logging.Logger
}

var (
	_ AvsReaderer           = (*AvsReader)(nil)
	_ validation.SwapLedger = (*AvsReader)(nil)
)

func NewAvsReader(bindings *Bindings, logger logging.Logger) *AvsReader {
	return &AvsReader{
		serviceManager: bindings.ServiceManager,
		logger:         logger,
	}
}

func (r *AvsReader) NextSwapId(ctx context.Context) (*big.Int, error) {
	out, err := r.serviceManager.call(ctx, "nextSwapId")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Swaps reads the public mapping getter, which returns the record as a flat
// list of values.
func (r *AvsReader) Swaps(ctx context.Context, id *big.Int) (*types.Swap, error) {
	swap := new(types.Swap)
	if err := r.serviceManager.callInto(ctx, swap, "swaps", id); err != nil {
		return nil, err
	}
	return swap, nil
}

func (r *AvsReader) GetSwap(ctx context.Context, id *big.Int) (*types.Swap, error) {
	out, err := r.serviceManager.call(ctx, "getSwap", id)
	if err != nil {
		return nil, err
	}
	swap, err := convertSwap(out[0])
	if err != nil {
		return nil, fmt.Errorf("getSwap(%s): %w", id, err)
	}
	return swap, nil
}

func (r *AvsReader) CanBeSettled(ctx context.Context, id *big.Int) (bool, error) {
	out, err := r.serviceManager.call(ctx, "canBeSettled", id)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func convertSwap(v interface{}) (swap *types.Swap, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected swap tuple: %v", r)
		}
	}()
	return abi.ConvertType(v, new(types.Swap)).(*types.Swap), nil
}
