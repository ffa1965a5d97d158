// Package chainio is the operator's gateway to the service manager, the
// EigenLayer core registries and the lending pools.
package chainio

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/trigg3rX/irs-avs/pkg/logging"
)

const (
	ServiceManagerABI    = "IRSServiceManager"
	DelegationManagerABI = "IDelegationManager"
	AVSDirectoryABI      = "IAVSDirectory"
	StakeRegistryABI     = "ECDSAStakeRegistry"
	VariablePoolABI      = "MockVariableLendingPool"
	FixedPoolABI         = "MockFixedRateLendingPool"
)

//go:embed abis/*.json
var embeddedABIs embed.FS

// EthClient is the subset of ethclient.Client the operator relies on.
type EthClient interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// TxManager signs, sends and waits for transactions. eigensdk's
// txmgr.SimpleTxManager satisfies it.
type TxManager interface {
	GetNoSendTxOpts() (*bind.TransactOpts, error)
	Send(ctx context.Context, tx *gethtypes.Transaction, waitForReceipt bool) (*gethtypes.Receipt, error)
}

// Addresses of every contract the operator talks to.
type Addresses struct {
	DelegationManager common.Address
	AVSDirectory      common.Address
	ServiceManager    common.Address
	StakeRegistry     common.Address
	VariablePool      common.Address
	FixedPool         common.Address
}

func (a Addresses) Validate() error {
	required := map[string]common.Address{
		"delegation":          a.DelegationManager,
		"avsDirectory":        a.AVSDirectory,
		"irsServiceManager":   a.ServiceManager,
		"stakeRegistry":       a.StakeRegistry,
		"mockVariableLending": a.VariablePool,
		"mockFixedLending":    a.FixedPool,
	}
	var missing []string
	for name, addr := range required {
		if addr == (common.Address{}) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing contract addresses: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadABI reads name.json from dir when it exists and falls back to the
// embedded copy otherwise.
func LoadABI(dir, name string) (abi.ABI, error) {
	var raw []byte
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name+".json"))
		switch {
		case err == nil:
			raw = data
		case !errors.Is(err, os.ErrNotExist):
			return abi.ABI{}, fmt.Errorf("failed to read %s ABI: %w", name, err)
		}
	}
	if raw == nil {
		data, err := embeddedABIs.ReadFile("abis/" + name + ".json")
		if err != nil {
			return abi.ABI{}, fmt.Errorf("no ABI for %s: %w", name, err)
		}
		raw = data
	}

	parsed, err := abi.JSON(strings.NewReader(string(raw)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse %s ABI: %w", name, err)
	}
	return parsed, nil
}

// Contract is a bound contract together with its parsed ABI.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
	*bind.BoundContract
}

func NewContract(name string, address common.Address, parsed abi.ABI, backend bind.ContractBackend) *Contract {
	return &Contract{
		Name:          name,
		Address:       address,
		ABI:           parsed,
		BoundContract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}
}

// call runs a read-only method and returns its unpacked outputs.
func (c *Contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s.%s: empty result", c.Name, method)
	}
	return out, nil
}

// callInto unpacks a multi-value result into the struct pointed to by dst,
// matching outputs to fields by name.
func (c *Contract) callInto(ctx context.Context, dst interface{}, method string, args ...interface{}) error {
	out := []interface{}{dst}
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	return nil
}

// transact builds the transaction without sending it and hands it to the tx
// manager, waiting for the receipt.
func (c *Contract) transact(ctx context.Context, txMgr TxManager, value *big.Int, method string, args ...interface{}) (*gethtypes.Receipt, error) {
	opts, err := txMgr.GetNoSendTxOpts()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx opts: %w", err)
	}
	opts.Context = ctx
	if value != nil {
		opts.Value = value
	}

	tx, err := c.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s.%s tx: %w", c.Name, method, err)
	}

	receipt, err := txMgr.Send(ctx, tx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s.%s tx: %w", c.Name, method, err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("%s.%s tx %s: no receipt", c.Name, method, tx.Hash().Hex())
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s.%s tx %s reverted", c.Name, method, receipt.TxHash.Hex())
	}
	return receipt, nil
}

// Bindings holds every contract the operator uses.
type Bindings struct {
	ServiceManager    *Contract
	DelegationManager *Contract
	AVSDirectory      *Contract
	StakeRegistry     *Contract
	VariablePool      *Contract
	FixedPool         *Contract

	backend bind.ContractBackend
	logger  logging.Logger
}

func NewBindings(addrs Addresses, abiDir string, backend bind.ContractBackend, logger logging.Logger) (*Bindings, error) {
	if err := addrs.Validate(); err != nil {
		return nil, err
	}

	load := func(name string, addr common.Address) (*Contract, error) {
		parsed, err := LoadABI(abiDir, name)
		if err != nil {
			logger.Error("Failed to load contract ABI", "contract", name, "error", err)
			return nil, err
		}
		return NewContract(name, addr, parsed, backend), nil
	}

	b := &Bindings{backend: backend, logger: logger}
	var err error
	if b.ServiceManager, err = load(ServiceManagerABI, addrs.ServiceManager); err != nil {
		return nil, err
	}
	if b.DelegationManager, err = load(DelegationManagerABI, addrs.DelegationManager); err != nil {
		return nil, err
	}
	if b.AVSDirectory, err = load(AVSDirectoryABI, addrs.AVSDirectory); err != nil {
		return nil, err
	}
	if b.StakeRegistry, err = load(StakeRegistryABI, addrs.StakeRegistry); err != nil {
		return nil, err
	}
	if b.VariablePool, err = load(VariablePoolABI, addrs.VariablePool); err != nil {
		return nil, err
	}
	if b.FixedPool, err = load(FixedPoolABI, addrs.FixedPool); err != nil {
		return nil, err
	}

	logger.Debug("Contract bindings ready",
		"serviceManager", addrs.ServiceManager.Hex(),
		"stakeRegistry", addrs.StakeRegistry.Hex(),
		"variablePool", addrs.VariablePool.Hex(),
		"fixedPool", addrs.FixedPool.Hex())
	return b, nil
}

// Rebind returns a copy of c that talks through another backend.
func (c *Contract) Rebind(backend bind.ContractBackend) *Contract {
	return NewContract(c.Name, c.Address, c.ABI, backend)
}
