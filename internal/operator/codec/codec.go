// Package codec encodes and decodes the ABI tuples carried in task payloads
// and task responses.
package codec

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/irs-avs/pkg/types"
)

const (
	ShapeSwapRequest            = "swap request"
	ShapeMatchRequest           = "match request"
	ShapeSettlementRequest      = "settlement request"
	ShapeRateSettlementRequest  = "rate settlement request"
	ShapeMatchResponse          = "match response"
	ShapeSettlementResponse     = "settlement response"
	ShapeRateSettlementResponse = "rate settlement response"
)

var (
	addressType    = mustType("address")
	uint256Type    = mustType("uint256")
	boolType       = mustType("bool")
	uint256Arr     = mustType("uint256[]")
	boolArr        = mustType("bool[]")
	swapWithMargin = arguments(addressType, uint256Type, uint256Type, boolType, uint256Type, uint256Type)
	swapNoMargin   = arguments(addressType, uint256Type, uint256Type, boolType, uint256Type)
	matchRequest   = arguments(uint256Type, uint256Type, addressType)
	settleRequest  = arguments(uint256Arr, addressType)
	rateRequest    = arguments(uint256Arr, uint256Type)
	matchResponse  = arguments(uint256Type, uint256Type, boolType, addressType)
	settleResponse = arguments(uint256Arr, uint256Type, boolArr, addressType)
	rateResponse   = arguments(uint256Arr, uint256Type, boolArr)
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("invalid abi type %q: %v", t, err))
	}
	return typ
}

func arguments(ts ...abi.Type) abi.Arguments {
	args := make(abi.Arguments, len(ts))
	for i, t := range ts {
		args[i] = abi.Argument{Type: t}
	}
	return args
}

// unpackStrict decodes payload and rejects anything that does not re-encode
// to the same bytes, so trailing or missing fields are caught.
func unpackStrict(shape string, args abi.Arguments, payload []byte) ([]interface{}, error) {
	if len(payload) == 0 {
		return nil, malformed(shape, fmt.Errorf("empty payload"))
	}
	values, err := args.Unpack(payload)
	if err != nil {
		return nil, malformed(shape, err)
	}
	repacked, err := args.Pack(values...)
	if err != nil {
		return nil, malformed(shape, err)
	}
	if !bytes.Equal(repacked, payload) {
		return nil, malformed(shape, errNotCanonical)
	}
	return values, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func orZeroAll(vs []*big.Int) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = orZero(v)
	}
	return out
}

func EncodeSwapRequest(req types.SwapRequest) ([]byte, error) {
	if req.Margin == nil {
		return swapNoMargin.Pack(req.User, orZero(req.NotionalAmount), orZero(req.FixedRate), req.IsPayingFixed, orZero(req.Duration))
	}
	return swapWithMargin.Pack(req.User, orZero(req.NotionalAmount), orZero(req.FixedRate), req.IsPayingFixed, orZero(req.Duration), req.Margin)
}

// DecodeSwapRequest accepts both the six-field layout (with margin) and the
// older five-field one.
func DecodeSwapRequest(payload []byte) (*types.SwapRequest, error) {
	if values, err := unpackStrict(ShapeSwapRequest, swapWithMargin, payload); err == nil {
		req := swapFromValues(values)
		req.Margin = values[5].(*big.Int)
		return req, nil
	}
	values, err := unpackStrict(ShapeSwapRequest, swapNoMargin, payload)
	if err != nil {
		return nil, err
	}
	return swapFromValues(values), nil
}

func swapFromValues(values []interface{}) *types.SwapRequest {
	return &types.SwapRequest{
		User:           values[0].(common.Address),
		NotionalAmount: values[1].(*big.Int),
		FixedRate:      values[2].(*big.Int),
		IsPayingFixed:  values[3].(bool),
		Duration:       values[4].(*big.Int),
	}
}

func EncodeMatchRequest(req types.MatchRequest) ([]byte, error) {
	return matchRequest.Pack(orZero(req.Swap1Id), orZero(req.Swap2Id), req.Matcher)
}

func DecodeMatchRequest(payload []byte) (*types.MatchRequest, error) {
	values, err := unpackStrict(ShapeMatchRequest, matchRequest, payload)
	if err != nil {
		return nil, err
	}
	return &types.MatchRequest{
		Swap1Id: values[0].(*big.Int),
		Swap2Id: values[1].(*big.Int),
		Matcher: values[2].(common.Address),
	}, nil
}

func EncodeSettlementRequest(req types.SettlementRequest) ([]byte, error) {
	return settleRequest.Pack(orZeroAll(req.SwapIds), req.Settler)
}

func DecodeSettlementRequest(payload []byte) (*types.SettlementRequest, error) {
	values, err := unpackStrict(ShapeSettlementRequest, settleRequest, payload)
	if err != nil {
		return nil, err
	}
	return &types.SettlementRequest{
		SwapIds: values[0].([]*big.Int),
		Settler: values[1].(common.Address),
	}, nil
}

func EncodeRateSettlementRequest(req types.RateSettlementRequest) ([]byte, error) {
	return rateRequest.Pack(orZeroAll(req.SwapIds), orZero(req.ProposedRate))
}

func DecodeRateSettlementRequest(payload []byte) (*types.RateSettlementRequest, error) {
	values, err := unpackStrict(ShapeRateSettlementRequest, rateRequest, payload)
	if err != nil {
		return nil, err
	}
	return &types.RateSettlementRequest{
		SwapIds:      values[0].([]*big.Int),
		ProposedRate: values[1].(*big.Int),
	}, nil
}

func EncodeMatchResponse(resp types.MatchResponse) ([]byte, error) {
	return matchResponse.Pack(orZero(resp.Swap1Id), orZero(resp.Swap2Id), resp.IsValid, resp.Matcher)
}

func DecodeMatchResponse(payload []byte) (*types.MatchResponse, error) {
	values, err := unpackStrict(ShapeMatchResponse, matchResponse, payload)
	if err != nil {
		return nil, err
	}
	return &types.MatchResponse{
		Swap1Id: values[0].(*big.Int),
		Swap2Id: values[1].(*big.Int),
		IsValid: values[2].(bool),
		Matcher: values[3].(common.Address),
	}, nil
}

func EncodeSettlementResponse(resp types.SettlementResponse) ([]byte, error) {
	if len(resp.SwapIds) != len(resp.Results) {
		return nil, fmt.Errorf("settlement response has %d swaps but %d results", len(resp.SwapIds), len(resp.Results))
	}
	return settleResponse.Pack(orZeroAll(resp.SwapIds), orZero(resp.CurrentRate), resp.Results, resp.Settler)
}

func DecodeSettlementResponse(payload []byte) (*types.SettlementResponse, error) {
	values, err := unpackStrict(ShapeSettlementResponse, settleResponse, payload)
	if err != nil {
		return nil, err
	}
	return &types.SettlementResponse{
		SwapIds:     values[0].([]*big.Int),
		CurrentRate: values[1].(*big.Int),
		Results:     values[2].([]bool),
		Settler:     values[3].(common.Address),
	}, nil
}

func EncodeRateSettlementResponse(resp types.RateSettlementResponse) ([]byte, error) {
	if len(resp.SwapIds) != len(resp.Results) {
		return nil, fmt.Errorf("rate settlement response has %d swaps but %d results", len(resp.SwapIds), len(resp.Results))
	}
	return rateResponse.Pack(orZeroAll(resp.SwapIds), orZero(resp.ProposedRate), resp.Results)
}

func DecodeRateSettlementResponse(payload []byte) (*types.RateSettlementResponse, error) {
	values, err := unpackStrict(ShapeRateSettlementResponse, rateResponse, payload)
	if err != nil {
		return nil, err
	}
	return &types.RateSettlementResponse{
		SwapIds:      values[0].([]*big.Int),
		ProposedRate: values[1].(*big.Int),
		Results:      values[2].([]bool),
	}, nil
}
