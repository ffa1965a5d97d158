// Package registration registers the operator with EigenLayer and the IRS
// AVS once at startup.
package registration

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trigg3rX/irs-avs/internal/operator/chainio"
	"github.com/trigg3rX/irs-avs/internal/operator/config"
	"github.com/trigg3rX/irs-avs/pkg/cryptography"
	"github.com/trigg3rX/irs-avs/pkg/logging"
)

type Registrar struct {
	registry chainio.Registryer
	key      *ecdsa.PrivateKey
	operator common.Address
	cfg      config.RegistrationConfig
	logger   logging.Logger

	now     func() time.Time
	entropy io.Reader
}

func NewRegistrar(registry chainio.Registryer, key *ecdsa.PrivateKey, cfg config.RegistrationConfig, logger logging.Logger) *Registrar {
	return &Registrar{
		registry: registry,
		key:      key,
		operator: crypto.PubkeyToAddress(key.PublicKey),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		entropy:  rand.Reader,
	}
}

// Register runs the registration sequence. Steps already done on chain are
// skipped, so it is safe to call on every start.
func (r *Registrar) Register(ctx context.Context) error {
	registered, err := r.registry.IsRegisteredWithAVS(ctx, r.operator)
	if err != nil {
		return fmt.Errorf("failed to check AVS registration: %w", err)
	}
	if registered {
		r.logger.Info("Operator already registered", "operator", r.operator.Hex())
		return nil
	}

	isOperator, err := r.registry.IsOperator(ctx, r.operator)
	if err != nil {
		return fmt.Errorf("failed to check operator status: %w", err)
	}
	if isOperator {
		r.logger.Info("Operator already registered to Core EigenLayer contracts", "operator", r.operator.Hex())
	} else {
		details := chainio.OperatorDetails{
			DeprecatedEarningsReceiver: r.operator,
			DelegationApprover:         common.Address{},
			StakerOptOutWindowBlocks:   0,
		}
		receipt, err := r.registry.RegisterAsOperator(ctx, details, r.cfg.MetadataURI)
		if err != nil {
			return fmt.Errorf("failed to register as operator: %w", err)
		}
		r.logger.Info("Operator registered to Core EigenLayer contracts", "txHash", receipt.TxHash.Hex())
	}

	var salt [32]byte
	if _, err := io.ReadFull(r.entropy, salt[:]); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	expiry := big.NewInt(r.now().Add(r.cfg.SignatureExpiry).Unix())

	digest, err := r.registry.OperatorAVSRegistrationDigest(ctx, r.operator, salt, expiry)
	if err != nil {
		return fmt.Errorf("failed to compute registration digest: %w", err)
	}
	signature, err := cryptography.SignDigest(digest, r.key)
	if err != nil {
		return err
	}

	receipt, err := r.registry.RegisterOperatorWithSignature(ctx, chainio.SignatureWithSaltAndExpiry{
		Signature: signature,
		Salt:      salt,
		Expiry:    expiry,
	}, r.operator)
	if err != nil {
		return fmt.Errorf("failed to register operator on AVS: %w", err)
	}
	r.logger.Info("Operator registered on AVS successfully", "txHash", receipt.TxHash.Hex(), "expiry", expiry.String())
	return nil
}
