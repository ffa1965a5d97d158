// Package operator wires the IRS AVS operator together.
package operator

import (
	"context"
	"fmt"
	"time"

	sdkmetrics "github.com/Layr-Labs/eigensdk-go/metrics"
	"github.com/Layr-Labs/eigensdk-go/nodeapi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/trigg3rX/irs-avs/internal/operator/api"
	"github.com/trigg3rX/irs-avs/internal/operator/chainio"
	"github.com/trigg3rX/irs-avs/internal/operator/config"
	"github.com/trigg3rX/irs-avs/internal/operator/dispatcher"
	"github.com/trigg3rX/irs-avs/internal/operator/listener"
	"github.com/trigg3rX/irs-avs/internal/operator/metrics"
	"github.com/trigg3rX/irs-avs/internal/operator/outcomes"
	"github.com/trigg3rX/irs-avs/internal/operator/registration"
	"github.com/trigg3rX/irs-avs/internal/operator/settlement"
	"github.com/trigg3rX/irs-avs/internal/operator/signer"
	"github.com/trigg3rX/irs-avs/internal/operator/validation"
	"github.com/trigg3rX/irs-avs/pkg/logging"
)

const systemMetricsInterval = 15 * time.Second

type Operator struct {
	config *config.Config
	logger logging.Logger

	metrics      *metrics.Metrics
	eigenMetrics *sdkmetrics.EigenMetrics
	nodeApi      *nodeapi.NodeApi

	outcomes   *outcomes.Store
	dispatcher *dispatcher.Dispatcher
	listener   *listener.Listener
	poller     *settlement.Poller
	registrar  *registration.Registrar
	apiServer  *api.Server
}

func NewOperatorFromConfig(c *config.Config) (*Operator, error) {
	node := c.Node
	logger := c.Logger

	bindings, err := chainio.NewBindings(c.Addresses, node.AbiDir, c.EthHttpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("cannot load contract bindings: %w", err)
	}
	reader := chainio.NewAvsReader(bindings, logger)
	writer := chainio.NewAvsWriter(bindings, c.TxMgr, logger)
	pools := chainio.NewPoolReader(bindings, logger)

	mode := listener.ModePoll
	var eventBackend bind.ContractBackend = c.EthHttpClient
	if c.EthWsClient != nil {
		mode = listener.ModeSubscribe
		eventBackend = c.EthWsClient
	}
	subscriber := chainio.NewAvsSubscriber(bindings, eventBackend, logger)

	strategy, err := validation.NewSettlementStrategy(node.Settlement.Strategy, reader, node.Settlement.Interval)
	if err != nil {
		return nil, err
	}
	settlements := validation.NewSettlements(reader, strategy, node.Settlement.MaxConcurrent, logger)
	rules := validation.NewRules(pools, validation.Thresholds{
		MinHealthFactor:  node.Thresholds.MinHealthFactor,
		MaxRateDeviation: node.Thresholds.MaxRateDeviation,
	}, logger)

	taskSigner, err := signer.NewTaskSigner(c.EcdsaPrivateKey)
	if err != nil {
		return nil, err
	}

	m := metrics.New(c.Registry)
	store := outcomes.New(node.Outcomes.TTL, node.Outcomes.Capacity)
	d := dispatcher.New(node.Protocol(), node.Listener.BufferSize, dispatcher.Deps{
		Swaps:       reader,
		Rates:       pools,
		Responder:   writer,
		Rules:       rules,
		Settlements: settlements,
		Signer:      taskSigner,
		Store:       store,
		Metrics:     m,
	}, logger.With("component", "dispatcher"))

	o := &Operator{
		config:     c,
		logger:     logger,
		metrics:    m,
		outcomes:   store,
		dispatcher: d,
		listener:   listener.New(mode, subscriber, c.EthHttpClient, d, node.Listener, m, logger.With("component", "listener")),
	}

	if node.Settlement.Enabled {
		o.poller = settlement.NewPoller(node.Protocol(), node.Settlement.Schedule, settlements, pools, writer,
			c.OperatorAddress, m, logger.With("component", "settlement"))
	}
	if node.Registration.Enabled {
		registry := chainio.NewRegistryClient(bindings, c.TxMgr, logger)
		o.registrar = registration.NewRegistrar(registry, c.EcdsaPrivateKey, node.Registration, logger.With("component", "registration"))
	}
	if node.Server.EnableMetrics {
		o.eigenMetrics = sdkmetrics.NewEigenMetrics(config.AvsName, node.Server.EigenMetricsAddr, c.Registry, c.SdkLogger)
	}
	if node.Server.EnableNodeApi {
		o.nodeApi = nodeapi.NewNodeApi(config.AvsName, config.SemVer, node.Server.NodeApiAddr, c.SdkLogger)
	}
	if node.Server.EnableApi {
		o.apiServer = api.NewServer(node.Server.ApiAddr, api.Deps{
			Info: api.NodeInfo{
				Operator: c.OperatorAddress.Hex(),
				ChainID:  c.ChainID.String(),
				Protocol: node.TaskProtocol,
				Strategy: strategy.Name(),
				Version:  config.SemVer,
			},
			Dispatcher: d,
			Outcomes:   store,
			Metrics:    m,
			Gatherer:   c.Registry,
		}, logger.With("component", "api"))
	}
	return o, nil
}

// Start registers the operator and runs every component until ctx is done
// or one of them fails.
func (o *Operator) Start(ctx context.Context) error {
	o.logger.Info("Starting operator", "operator", o.config.OperatorAddress.Hex(), "protocol", o.config.Node.TaskProtocol)

	if o.registrar != nil {
		if err := o.registrar.Register(ctx); err != nil {
			if o.config.Node.Registration.Required {
				return fmt.Errorf("operator registration failed: %w", err)
			}
			o.logger.Error("Error in registering as operator, continuing without it", "error", err)
		}
	}

	if o.nodeApi != nil {
		o.nodeApi.Start()
	}
	var metricsErrChan <-chan error
	if o.eigenMetrics != nil {
		metricsErrChan = o.eigenMetrics.Start(ctx, o.config.Registry)
	}

	o.outcomes.Start()
	defer o.outcomes.Stop()
	o.metrics.StartSystemMetrics(systemMetricsInterval, ctx.Done())

	go o.dispatcher.Run(ctx)

	if o.poller != nil {
		if err := o.poller.Start(ctx); err != nil {
			return err
		}
	}

	apiErrChan := make(chan error, 1)
	if o.apiServer != nil {
		go func() { apiErrChan <- o.apiServer.Start(ctx) }()
	}

	listenerErrChan := make(chan error, 1)
	go func() { listenerErrChan <- o.listener.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Operator stopped")
			return nil
		case err := <-metricsErrChan:
			o.setHealth(nodeapi.PartiallyHealthy)
			return fmt.Errorf("error in metrics server: %w", err)
		case err := <-apiErrChan:
			if err != nil {
				return fmt.Errorf("error in api server: %w", err)
			}
		case err := <-listenerErrChan:
			o.setHealth(nodeapi.Unhealthy)
			if err != nil {
				return fmt.Errorf("task listener stopped: %w", err)
			}
			return nil
		}
	}
}

func (o *Operator) setHealth(health nodeapi.NodeHealth) {
	if o.nodeApi != nil {
		o.nodeApi.UpdateHealth(health)
	}
}
