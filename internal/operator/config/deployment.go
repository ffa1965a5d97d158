package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/irs-avs/internal/operator/chainio"
)

type CoreDeploymentRaw struct {
	Addresses CoreContractsRaw `json:"addresses"`
}

type CoreContractsRaw struct {
	DelegationManagerAddr string `json:"delegation"`
	AVSDirectoryAddr      string `json:"avsDirectory"`
}

type IRSDeploymentRaw struct {
	Addresses IRSContractsRaw `json:"addresses"`
}

type IRSContractsRaw struct {
	ServiceManagerAddr string `json:"irsServiceManager"`
	StakeRegistryAddr  string `json:"stakeRegistry"`
	VariablePoolAddr   string `json:"mockVariableLendingPool"`
	FixedPoolAddr      string `json:"mockFixedLendingPool"`
}

func readJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading deployment file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error parsing deployment file %s: %w", path, err)
	}
	return nil
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("deployment field %s: invalid address %q", field, value)
	}
	return common.HexToAddress(value), nil
}

type addressField struct {
	name  string
	value string
	dst   *common.Address
}

// LoadDeployments reads both deployment files and returns every contract
// address the operator needs.
func LoadDeployments(corePath, avsPath string) (chainio.Addresses, error) {
	var core CoreDeploymentRaw
	if err := readJSON(corePath, &core); err != nil {
		return chainio.Addresses{}, err
	}
	var irs IRSDeploymentRaw
	if err := readJSON(avsPath, &irs); err != nil {
		return chainio.Addresses{}, err
	}

	var addrs chainio.Addresses
	fields := []addressField{
		{"delegation", core.Addresses.DelegationManagerAddr, &addrs.DelegationManager},
		{"avsDirectory", core.Addresses.AVSDirectoryAddr, &addrs.AVSDirectory},
		{"irsServiceManager", irs.Addresses.ServiceManagerAddr, &addrs.ServiceManager},
		{"stakeRegistry", irs.Addresses.StakeRegistryAddr, &addrs.StakeRegistry},
		{"mockVariableLendingPool", irs.Addresses.VariablePoolAddr, &addrs.VariablePool},
		{"mockFixedLendingPool", irs.Addresses.FixedPoolAddr, &addrs.FixedPool},
	}
	for _, f := range fields {
		addr, err := parseAddress(f.name, f.value)
		if err != nil {
			return chainio.Addresses{}, err
		}
		*f.dst = addr
	}
	return addrs, nil
}
