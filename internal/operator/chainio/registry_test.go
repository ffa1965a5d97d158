package chainio

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/irs-avs/pkg/logging"
)

func TestRegistryClient_Reads(t *testing.T) {
	b, backend := newTestBindings(t)
	digest := [32]byte{0x11, 0x22}
	backend.respond(t, b.DelegationManager, "isOperator", true)
	backend.respond(t, b.StakeRegistry, "operatorRegistered", false)
	backend.respond(t, b.AVSDirectory, "calculateOperatorAVSRegistrationDigestHash", digest)

	c := NewRegistryClient(b, &fakeTxManager{}, logging.NewNoOpLogger())
	ctx := context.Background()

	ok, err := c.IsOperator(ctx, owner)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsRegisteredWithAVS(ctx, owner)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := c.OperatorAVSRegistrationDigest(ctx, owner, [32]byte{0x01}, big.NewInt(3600))
	require.NoError(t, err)
	assert.Equal(t, digest, got)
}

func TestRegistryClient_Writes(t *testing.T) {
	b, _ := newTestBindings(t)
	txMgr := &fakeTxManager{status: gethtypes.ReceiptStatusSuccessful}
	c := NewRegistryClient(b, txMgr, logging.NewNoOpLogger())
	ctx := context.Background()

	_, err := c.RegisterAsOperator(ctx, OperatorDetails{DeprecatedEarningsReceiver: owner}, "")
	require.NoError(t, err)
	method, args := txMgr.lastCall(t, b.DelegationManager)
	assert.Equal(t, "registerAsOperator", method)
	assert.Equal(t, "", args[1])

	sig := SignatureWithSaltAndExpiry{Signature: []byte{0x01}, Salt: [32]byte{0x02}, Expiry: big.NewInt(99)}
	_, err = c.RegisterOperatorWithSignature(ctx, sig, owner)
	require.NoError(t, err)
	method, args = txMgr.lastCall(t, b.StakeRegistry)
	assert.Equal(t, "registerOperatorWithSignature", method)
	assert.Equal(t, owner, args[1].(common.Address))
}
