package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/trigg3rX/irs-avs/internal/operator"
	"github.com/trigg3rX/irs-avs/internal/operator/config"
	"github.com/trigg3rX/irs-avs/pkg/env"
	"github.com/trigg3rX/irs-avs/pkg/logging"
)

func main() {
	app := &cli.App{
		Name:  "irs-operator",
		Usage: "IRS AVS operator: validates, signs and answers swap, match and settlement tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the node config YAML (falls back to CONFIG_FILE)",
			},
		},
		Action: operatorMain,
	}

	if err := app.Run(os.Args); err != nil {
		log.Println("Operator failed:", err)
		os.Exit(1)
	}
}

func operatorMain(c *cli.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return cli.Exit(fmt.Sprintf("Error loading .env file: %s", err), 1)
	}

	configPath := c.String("config")
	if configPath == "" {
		configPath = env.GetEnvString("CONFIG_FILE", "")
	}
	node, err := config.LoadNodeConfig(configPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading node config: %s", err), 1)
	}

	logConfig := logging.NewDefaultConfig(logging.OperatorProcess)
	logConfig.IsDevelopment = !node.Production
	if node.LogDir != "" {
		logConfig.LogDir = node.LogDir
	}
	logger, err := logging.NewZapLogger(logConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize logger: %s", err), 1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig(ctx, configPath, config.TerminalPrompt, logger)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		return cli.Exit(fmt.Sprintf("Error loading config: %s", err), 1)
	}
	defer cfg.Close()

	op, err := operator.NewOperatorFromConfig(cfg)
	if err != nil {
		logger.Error("Failed to create operator", "error", err)
		return cli.Exit(fmt.Sprintf("Error creating operator: %s", err), 1)
	}

	if err := op.Start(ctx); err != nil {
		logger.Error("Operator stopped", "error", err)
		return cli.Exit(fmt.Sprintf("Operator stopped: %s", err), 1)
	}
	logger.Info("Operator shut down")
	return nil
}
