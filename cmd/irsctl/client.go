package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"math/big"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	sdkutils "github.com/Layr-Labs/eigensdk-go/utils"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator/chainio"
	"github.com/trigg3rX/irs-avs/internal/operator/config"
	"github.com/trigg3rX/irs-avs/pkg/env"
	"github.com/trigg3rX/irs-avs/pkg/logging"
)

// ctl holds the chain handles shared by every irsctl command.
type ctl struct {
	out       io.Writer
	logger    *logging.ZapLogger
	sdkLogger sdklogging.Logger
	node      *config.NodeConfig
	env       config.Env

	client   *ethclient.Client
	chainID  *big.Int
	bindings *chainio.Bindings
	reader   *chainio.AvsReader
	pools    *chainio.PoolReader
	primary  *account
}

// account is one funded wallet able to create tasks and open loans.
type account struct {
	name    string
	address common.Address
	tasks   *chainio.AvsWriter
	loans   *chainio.PoolWriter
}

func newCtl(c *cli.Context) (*ctl, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	e, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	configPath := c.String("config")
	if configPath == "" {
		configPath = env.GetEnvString("CONFIG_FILE", "")
	}
	node, err := config.LoadNodeConfig(configPath)
	if err != nil {
		return nil, err
	}

	logConfig := logging.NewDefaultConfig(logging.CtlProcess)
	logConfig.IsDevelopment = !node.Production
	if node.LogDir != "" {
		logConfig.LogDir = node.LogDir
	}
	logger, err := logging.NewZapLogger(logConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	sdkLogger, err := config.NewSdkLogger(node.Production)
	if err != nil {
		return nil, err
	}

	x := &ctl{
		out:       c.App.Writer,
		logger:    logger,
		sdkLogger: sdkLogger,
		node:      node,
		env:       e,
	}

	x.client, err = ethclient.DialContext(c.Context, e.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("cannot dial RPC_URL: %w", err)
	}
	x.chainID, err = x.client.ChainID(c.Context)
	if err != nil {
		x.close()
		return nil, fmt.Errorf("cannot get chain id: %w", err)
	}

	corePath, avsPath := node.DeploymentPaths(x.chainID.Int64())
	addrs, err := config.LoadDeployments(corePath, avsPath)
	if err != nil {
		x.close()
		return nil, err
	}
	x.bindings, err = chainio.NewBindings(addrs, node.AbiDir, x.client, logger)
	if err != nil {
		x.close()
		return nil, err
	}
	x.reader = chainio.NewAvsReader(x.bindings, logger)
	x.pools = chainio.NewPoolReader(x.bindings, logger)

	key, err := config.LoadOperatorKey(e, config.TerminalPrompt, logger)
	if err != nil {
		x.close()
		return nil, err
	}
	x.primary, err = x.account("wallet 1", key)
	if err != nil {
		x.close()
		return nil, err
	}
	return x, nil
}

func (x *ctl) account(name string, key *ecdsa.PrivateKey) (*account, error) {
	address, err := sdkutils.EcdsaPrivateKeyToAddress(key)
	if err != nil {
		return nil, fmt.Errorf("cannot derive address for %s: %w", name, err)
	}
	txMgr, err := config.NewTxManager(x.client, key, x.chainID, x.sdkLogger)
	if err != nil {
		return nil, err
	}
	return &account{
		name:    name,
		address: address,
		tasks:   chainio.NewAvsWriter(x.bindings, txMgr, x.logger),
		loans:   chainio.NewPoolWriter(x.bindings, txMgr, x.logger),
	}, nil
}

// secondary is the counterparty wallet from PRIVATE_KEY_2.
func (x *ctl) secondary() (*account, error) {
	key, err := config.LoadSecondKey(x.env)
	if err != nil {
		return nil, err
	}
	return x.account("wallet 2", key)
}

func (x *ctl) balance(ctx context.Context, who common.Address) (*big.Int, error) {
	return x.client.BalanceAt(ctx, who, nil)
}

// printCreated reports the tasks a createNewTask receipt emitted.
func (x *ctl) printCreated(receipt *gethtypes.Receipt) {
	fmt.Fprintf(x.out, "Transaction %s mined in block %s\n", receipt.TxHash.Hex(), receipt.BlockNumber)
	for _, ev := range chainio.TaskCreatedFromReceipt(x.bindings, receipt) {
		fmt.Fprintf(x.out, "Created %s\n", ev)
	}
}

func (x *ctl) close() {
	if x.client != nil {
		x.client.Close()
	}
	_ = x.logger.Sync()
}

// withCtl builds a ctl for the duration of one command action.
func withCtl(action func(c *cli.Context, x *ctl) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		x, err := newCtl(c)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error initializing irsctl: %s", err), 1)
		}
		defer x.close()
		if err := action(c, x); err != nil {
			x.logger.Error("Command failed", "command", c.Command.Name, "error", err)
			return cli.Exit(fmt.Sprintf("%s failed: %s", c.Command.Name, err), 1)
		}
		return nil
	}
}
