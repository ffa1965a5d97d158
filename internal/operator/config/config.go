// Package config assembles the operator's runtime configuration from the
// environment, the node YAML file and the deployment files.
package config

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/eigensdk-go/chainio/clients/eth"
	"github.com/Layr-Labs/eigensdk-go/chainio/clients/wallet"
	"github.com/Layr-Labs/eigensdk-go/chainio/txmgr"
	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	rpccalls "github.com/Layr-Labs/eigensdk-go/metrics/collectors/rpc_calls"
	"github.com/Layr-Labs/eigensdk-go/signerv2"
	sdkutils "github.com/Layr-Labs/eigensdk-go/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trigg3rX/irs-avs/internal/operator/chainio"
	"github.com/trigg3rX/irs-avs/pkg/logging"
)

const (
	AvsName = "irs-avs"
	SemVer  = "0.1.0"
)

type Config struct {
	Node *NodeConfig
	Env  Env

	Logger    logging.Logger
	SdkLogger sdklogging.Logger
	Registry  *prometheus.Registry

	ChainID         *big.Int
	EcdsaPrivateKey *ecdsa.PrivateKey
	OperatorAddress common.Address
	Addresses       chainio.Addresses

	// EthHttpClient serves reads; it is instrumented when metrics are on.
	EthHttpClient chainio.EthClient
	// EthWsClient is nil unless WS_URL is set.
	EthWsClient chainio.EthClient
	// TxClient is the plain client the tx manager sends through.
	TxClient *ethclient.Client
	TxMgr    txmgr.TxManager
}

// NewConfig loads everything the operator needs. configPath overrides
// CONFIG_FILE when set.
func NewConfig(ctx context.Context, configPath string, prompt PasswordPrompt, logger logging.Logger) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	e, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = e.ConfigFile
	}
	node, err := LoadNodeConfig(configPath)
	if err != nil {
		return nil, err
	}

	sdkLogger, err := NewSdkLogger(node.Production)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Node:      node,
		Env:       e,
		Logger:    logger,
		SdkLogger: sdkLogger,
		Registry:  prometheus.NewRegistry(),
	}

	if err := cfg.dialClients(); err != nil {
		return nil, err
	}

	chainID, err := cfg.TxClient.ChainID(ctx)
	if err != nil {
		logger.Error("Cannot get chainId", "error", err)
		return nil, fmt.Errorf("cannot get chain id: %w", err)
	}
	if node.ChainID != 0 && node.ChainID != chainID.Int64() {
		return nil, fmt.Errorf("rpc reports chain %s but config expects %d", chainID, node.ChainID)
	}
	cfg.ChainID = chainID

	cfg.EcdsaPrivateKey, err = LoadOperatorKey(e, prompt, logger)
	if err != nil {
		return nil, err
	}
	cfg.OperatorAddress, err = sdkutils.EcdsaPrivateKeyToAddress(cfg.EcdsaPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("cannot get operator address: %w", err)
	}

	corePath, avsPath := node.DeploymentPaths(chainID.Int64())
	cfg.Addresses, err = LoadDeployments(corePath, avsPath)
	if err != nil {
		return nil, err
	}

	cfg.TxMgr, err = NewTxManager(cfg.TxClient, cfg.EcdsaPrivateKey, chainID, sdkLogger)
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded",
		"chainId", chainID.String(),
		"operator", cfg.OperatorAddress.Hex(),
		"serviceManager", cfg.Addresses.ServiceManager.Hex(),
		"protocol", node.TaskProtocol,
		"websocket", cfg.EthWsClient != nil)
	return cfg, nil
}

func (c *Config) dialClients() error {
	txClient, err := ethclient.Dial(c.Env.RPCURL)
	if err != nil {
		c.Logger.Error("Cannot create http ethclient", "error", err)
		return fmt.Errorf("cannot dial RPC_URL: %w", err)
	}
	c.TxClient = txClient
	c.EthHttpClient = txClient

	var collector *rpccalls.Collector
	if c.Node.Server.EnableMetrics {
		collector = rpccalls.NewCollector(AvsName, c.Registry)
		instrumented, err := eth.NewInstrumentedClient(c.Env.RPCURL, collector)
		if err != nil {
			c.Logger.Error("Cannot create instrumented http ethclient", "error", err)
			return fmt.Errorf("cannot dial RPC_URL: %w", err)
		}
		c.EthHttpClient = instrumented
	}

	if c.Env.WSURL == "" {
		return nil
	}
	if collector != nil {
		ws, err := eth.NewInstrumentedClient(c.Env.WSURL, collector)
		if err != nil {
			c.Logger.Error("Cannot create ws ethclient", "error", err)
			return fmt.Errorf("cannot dial WS_URL: %w", err)
		}
		c.EthWsClient = ws
		return nil
	}
	ws, err := ethclient.Dial(c.Env.WSURL)
	if err != nil {
		c.Logger.Error("Cannot create ws ethclient", "error", err)
		return fmt.Errorf("cannot dial WS_URL: %w", err)
	}
	c.EthWsClient = ws
	return nil
}

// NewSdkLogger builds the logger handed to eigensdk components.
func NewSdkLogger(production bool) (sdklogging.Logger, error) {
	level := sdklogging.Development
	if production {
		level = sdklogging.Production
	}
	return sdklogging.NewZapLogger(level)
}

// NewTxManager wires signer, wallet and tx manager for key.
func NewTxManager(client *ethclient.Client, key *ecdsa.PrivateKey, chainID *big.Int, sdkLogger sdklogging.Logger) (txmgr.TxManager, error) {
	signerFn, sender, err := signerv2.SignerFromConfig(signerv2.Config{PrivateKey: key}, chainID)
	if err != nil {
		return nil, fmt.Errorf("cannot create signer: %w", err)
	}
	skWallet, err := wallet.NewPrivateKeyWallet(client, signerFn, sender, sdkLogger)
	if err != nil {
		return nil, fmt.Errorf("cannot create wallet: %w", err)
	}
	return txmgr.NewSimpleTxManager(skWallet, client, sdkLogger, sender), nil
}

// Close releases the RPC connections.
func (c *Config) Close() {
	if c.TxClient != nil {
		c.TxClient.Close()
	}
	if closer, ok := c.EthWsClient.(interface{ Close() }); ok {
		closer.Close()
	}
}
