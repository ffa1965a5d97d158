package config

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreDeployment = `{
  "addresses": {
    "delegation": "0x0000000000000000000000000000000000000a01",
    "avsDirectory": "0x0000000000000000000000000000000000000a02"
  }
}`

const irsDeployment = `{
  "addresses": {
    "irsServiceManager": "0x0000000000000000000000000000000000000b01",
    "stakeRegistry": "0x0000000000000000000000000000000000000b02",
    "mockVariableLendingPool": "0x0000000000000000000000000000000000000b03",
    "mockFixedLendingPool": "0x0000000000000000000000000000000000000b04"
  }
}`

func TestLoadDeployments(t *testing.T) {
	addrs, err := LoadDeployments(writeFile(t, "core.json", coreDeployment), writeFile(t, "irs.json", irsDeployment))
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0xa01"), addrs.DelegationManager)
	assert.Equal(t, common.HexToAddress("0xa02"), addrs.AVSDirectory)
	assert.Equal(t, common.HexToAddress("0xb01"), addrs.ServiceManager)
	assert.Equal(t, common.HexToAddress("0xb02"), addrs.StakeRegistry)
	assert.Equal(t, common.HexToAddress("0xb03"), addrs.VariablePool)
	assert.Equal(t, common.HexToAddress("0xb04"), addrs.FixedPool)
	assert.NoError(t, addrs.Validate())
}

func TestLoadDeployments_MissingFile(t *testing.T) {
	_, err := LoadDeployments(filepath.Join(t.TempDir(), "core.json"), writeFile(t, "irs.json", irsDeployment))
	assert.Error(t, err)
}

func TestLoadDeployments_InvalidAddress(t *testing.T) {
	core := writeFile(t, "core.json", `{"addresses":{"delegation":"nope","avsDirectory":"0x0000000000000000000000000000000000000a02"}}`)
	_, err := LoadDeployments(core, writeFile(t, "irs.json", irsDeployment))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delegation")
}

func TestLoadDeployments_MissingField(t *testing.T) {
	_, err := LoadDeployments(writeFile(t, "core.json", coreDeployment), writeFile(t, "irs.json", `{"addresses":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "irsServiceManager")
}
