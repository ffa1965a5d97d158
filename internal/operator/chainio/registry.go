package chainio

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/trigg3rX/irs-avs/pkg/logging"
)

// OperatorDetails mirrors IDelegationManager.OperatorDetails.
type OperatorDetails struct {
	DeprecatedEarningsReceiver common.Address
	DelegationApprover         common.Address
	StakerOptOutWindowBlocks   uint32
}

// SignatureWithSaltAndExpiry mirrors ISignatureUtils.SignatureWithSaltAndExpiry.
type SignatureWithSaltAndExpiry struct {
	Signature []byte
	Salt      [32]byte
	Expiry    *big.Int
}

type Registryer interface {
	IsOperator(ctx context.Context, operator common.Address) (bool, error)
	RegisterAsOperator(ctx context.Context, details OperatorDetails, metadataURI string) (*gethtypes.Receipt, error)
	OperatorAVSRegistrationDigest(ctx context.Context, operator common.Address, salt [32]byte, expiry *big.Int) ([32]byte, error)
	IsRegisteredWithAVS(ctx context.Context, operator common.Address) (bool, error)
	RegisterOperatorWithSignature(ctx context.Context, sig SignatureWithSaltAndExpiry, signingKey common.Address) (*gethtypes.Receipt, error)
}

// RegistryClient talks to the delegation manager, the AVS directory and the
// stake registry during operator registration.
type RegistryClient struct {
	delegation     *Contract
	avsDirectory   *Contract
	stakeRegistry  *Contract
	serviceManager common.Address
	txMgr          TxManager
	logger         logging.Logger
}

var _ Registryer = (*RegistryClient)(nil)

func NewRegistryClient(bindings *Bindings, txMgr TxManager, logger logging.Logger) *RegistryClient {
	return &RegistryClient{
		delegation:     bindings.DelegationManager,
		avsDirectory:   bindings.AVSDirectory,
		stakeRegistry:  bindings.StakeRegistry,
		serviceManager: bindings.ServiceManager.Address,
		txMgr:          txMgr,
		logger:         logger,
	}
}

func (c *RegistryClient) IsOperator(ctx context.Context, operator common.Address) (bool, error) {
	out, err := c.delegation.call(ctx, "isOperator", operator)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *RegistryClient) RegisterAsOperator(ctx context.Context, details OperatorDetails, metadataURI string) (*gethtypes.Receipt, error) {
	return c.delegation.transact(ctx, c.txMgr, nil, "registerAsOperator", details, metadataURI)
}

// OperatorAVSRegistrationDigest asks the AVS directory for the digest the
// operator must sign to join the service manager's AVS.
func (c *RegistryClient) OperatorAVSRegistrationDigest(ctx context.Context, operator common.Address, salt [32]byte, expiry *big.Int) ([32]byte, error) {
	out, err := c.avsDirectory.call(ctx, "calculateOperatorAVSRegistrationDigestHash", operator, c.serviceManager, salt, expiry)
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

func (c *RegistryClient) IsRegisteredWithAVS(ctx context.Context, operator common.Address) (bool, error) {
	out, err := c.stakeRegistry.call(ctx, "operatorRegistered", operator)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *RegistryClient) RegisterOperatorWithSignature(ctx context.Context, sig SignatureWithSaltAndExpiry, signingKey common.Address) (*gethtypes.Receipt, error) {
	return c.stakeRegistry.transact(ctx, c.txMgr, nil, "registerOperatorWithSignature", sig, signingKey)
}
