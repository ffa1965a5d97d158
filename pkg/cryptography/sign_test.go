package cryptography

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// well-known anvil account #0
const testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestParsePrivateKey(t *testing.T) {
	key, err := ParsePrivateKey(testPrivateKey)
	require.NoError(t, err)
	assert.Equal(t,
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		crypto.PubkeyToAddress(key.PublicKey))

	_, err = ParsePrivateKey("not-a-key")
	assert.Error(t, err)
}

func TestSignMessage_RecoversSigner(t *testing.T) {
	key, err := ParsePrivateKey(testPrivateKey)
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	data := crypto.Keccak256([]byte("task response"))
	sig, err := SignMessage(data, key)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	ok, err := VerifySignature(data, sig, addr)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySignature([]byte("other"), sig, addr)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignDigest_NoPrefix(t *testing.T) {
	key, err := ParsePrivateKey(testPrivateKey)
	require.NoError(t, err)

	digest := crypto.Keccak256Hash([]byte("registration"))
	sig, err := SignDigest(digest, key)
	require.NoError(t, err)

	raw := make([]byte, 65)
	copy(raw, sig)
	raw[64] -= 27
	pub, err := crypto.SigToPub(digest[:], raw)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(*pub))
}

func TestRecoverMessageSigner_BadLength(t *testing.T) {
	_, err := RecoverMessageSigner([]byte("x"), []byte{1, 2, 3})
	assert.Error(t, err)
}
