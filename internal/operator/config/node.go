package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/trigg3rX/irs-avs/pkg/types"
)

// NodeConfig is the operator's YAML configuration file.
type NodeConfig struct {
	Production bool `yaml:"production"`
	// ChainID pins the expected chain. Zero means use whatever the RPC reports.
	ChainID int64 `yaml:"chain_id" validate:"gte=0"`

	CoreDeploymentPath string `yaml:"core_deployment_path"`
	AvsDeploymentPath  string `yaml:"avs_deployment_path"`
	AbiDir             string `yaml:"abi_dir" default:"abis"`
	LogDir             string `yaml:"log_dir"`

	TaskProtocol string `yaml:"task_protocol" default:"v1" validate:"oneof=v1 v2"`

	Listener     ListenerConfig     `yaml:"listener"`
	Settlement   SettlementConfig   `yaml:"settlement"`
	Registration RegistrationConfig `yaml:"registration"`
	Thresholds   ThresholdConfig    `yaml:"thresholds"`
	Server       ServerConfig       `yaml:"server"`
	Outcomes     OutcomeConfig      `yaml:"outcomes"`
}

type ListenerConfig struct {
	BufferSize   int           `yaml:"buffer_size" default:"64" validate:"gt=0"`
	PollInterval time.Duration `yaml:"poll_interval" default:"2s" validate:"gt=0"`
	// BlockRange bounds a single eth_getLogs query while polling.
	BlockRange uint64 `yaml:"block_range" default:"1000" validate:"gt=0"`
	// FromBlock replays events from this block on startup. Zero starts at
	// the chain head.
	FromBlock      uint64        `yaml:"from_block"`
	ReconnectTries int           `yaml:"reconnect_tries" default:"5" validate:"gte=1"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"1s" validate:"gt=0"`
}

type SettlementConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// Schedule is a robfig/cron spec for the settlement scan.
	Schedule      string        `yaml:"schedule" default:"@every 24s" validate:"required"`
	Strategy      string        `yaml:"strategy" default:"ledger" validate:"oneof=ledger interval"`
	Interval      time.Duration `yaml:"interval" default:"24s"`
	MaxConcurrent int           `yaml:"max_concurrent" default:"4" validate:"gt=0"`
}

type RegistrationConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// Required makes a failed registration fatal instead of logging it.
	Required        bool          `yaml:"required"`
	MetadataURI     string        `yaml:"metadata_uri"`
	SignatureExpiry time.Duration `yaml:"signature_expiry" default:"1h" validate:"gt=0"`
}

type ThresholdConfig struct {
	MinHealthFactor  int64 `yaml:"min_health_factor" default:"150" validate:"gte=0"`
	MaxRateDeviation int64 `yaml:"max_rate_deviation" default:"200" validate:"gte=0"`
}

type ServerConfig struct {
	ApiAddr          string `yaml:"api_addr" default:"localhost:9011"`
	EnableApi        bool   `yaml:"enable_api" default:"true"`
	NodeApiAddr      string `yaml:"node_api_addr" default:"localhost:9010"`
	EnableNodeApi    bool   `yaml:"enable_node_api" default:"true"`
	EigenMetricsAddr string `yaml:"eigen_metrics_addr" default:"localhost:9090"`
	EnableMetrics    bool   `yaml:"enable_metrics" default:"true"`
}

type OutcomeConfig struct {
	TTL      time.Duration `yaml:"ttl" default:"1h" validate:"gt=0"`
	Capacity uint64        `yaml:"capacity" default:"1024" validate:"gt=0"`
}

// DefaultNodeConfig returns a config with every default applied.
func DefaultNodeConfig() *NodeConfig {
	cfg := new(NodeConfig)
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return cfg
}

// LoadNodeConfig applies defaults, overlays the YAML file at path when path is
// set, and validates the result.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg := DefaultNodeConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *NodeConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Settlement.Strategy == "interval" && c.Settlement.Interval <= 0 {
		return fmt.Errorf("invalid config: settlement.interval must be positive for the interval strategy")
	}
	return nil
}

func (c *NodeConfig) Protocol() types.ProtocolVariant {
	return types.ProtocolVariant(c.TaskProtocol)
}

// DeploymentPaths returns the core and AVS deployment files for chainID,
// honouring explicit overrides.
func (c *NodeConfig) DeploymentPaths(chainID int64) (core string, avs string) {
	core = c.CoreDeploymentPath
	if core == "" {
		core = fmt.Sprintf("contracts/deployments/core/%d.json", chainID)
	}
	avs = c.AvsDeploymentPath
	if avs == "" {
		avs = fmt.Sprintf("contracts/deployments/irs-avs/%d.json", chainID)
	}
	return core, avs
}
