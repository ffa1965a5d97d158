package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("WS_URL", "ws://localhost:8546")
	t.Setenv("PRIVATE_KEY", "0xabc")
	t.Setenv("ECDSA_KEY_PASSWORD", "")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", e.RPCURL)
	assert.Equal(t, "ws://localhost:8546", e.WSURL)
	assert.Equal(t, "0xabc", e.PrivateKey)
	assert.True(t, e.PasswordSet)
	assert.Empty(t, e.KeystorePassword)
}

func TestLoadEnv_MissingRPC(t *testing.T) {
	t.Setenv("RPC_URL", "")
	require.NoError(t, os.Unsetenv("RPC_URL"))

	_, err := LoadEnv()
	assert.ErrorIs(t, err, ErrMissingEnv)
}

func TestLoadEnv_InvalidEndpoints(t *testing.T) {
	t.Run("rpc", func(t *testing.T) {
		t.Setenv("RPC_URL", "localhost:8545")
		_, err := LoadEnv()
		assert.ErrorContains(t, err, "invalid RPC_URL")
	})
	t.Run("ws", func(t *testing.T) {
		t.Setenv("RPC_URL", "http://localhost:8545")
		t.Setenv("WS_URL", "http://localhost:8546")
		_, err := LoadEnv()
		assert.ErrorContains(t, err, "invalid WS_URL")
	})
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))

	path := writeFile(t, "test.env", "IRS_DOTENV_PROBE=loaded\n")
	t.Setenv("IRS_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("IRS_DOTENV_PROBE"))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("IRS_DOTENV_PROBE"))
}
