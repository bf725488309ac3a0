package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Planning  PlanningConfig  `yaml:"planning" envconfig:"PLANNING"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/soleplan.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	InputsDir  string `yaml:"inputs_dir" envconfig:"INPUTS_DIR" default:"data/inputs"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PlanningConfig contains the planning model parameters
type PlanningConfig struct {
	// Classes are the shoe classes planned independently.
	Classes []string `yaml:"classes" envconfig:"CLASSES" default:"argyll,pvc" validate:"min=1"`
	// HoldingCostPerHour is the cost of carrying one aggregate-demand hour
	// of finished inventory for one month.
	HoldingCostPerHour float64 `yaml:"holding_cost_per_hour" envconfig:"HOLDING_COST_PER_HOUR" default:"200" validate:"gte=0"`
	// DeficitCost is the penalty applied per unit of unmet forecast in the
	// master plan cost sheet.
	DeficitCost float64 `yaml:"deficit_cost" envconfig:"DEFICIT_COST" default:"1000" validate:"gte=0"`
	// Horizon is the number of months to forecast and plan.
	Horizon int `yaml:"horizon" envconfig:"HORIZON" default:"6" validate:"gte=1,lte=24"`
	// HoldoutMonths is how many trailing history months are reserved for
	// forecast model selection.
	HoldoutMonths int `yaml:"holdout_months" envconfig:"HOLDOUT_MONTHS" default:"3" validate:"gte=1"`
	// MaxConcurrency bounds how many classes are planned at once.
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"2" validate:"gte=1"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from the optional YAML file and SOLEPLAN_* environment
// variables, with environment taking precedence over the file.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom loads configuration using the given config file path.
func LoadFrom(configFile string) (*Config, error) {
	// Environment variables and defaults first. envconfig fills every
	// field whose env var is unset from its default tag, so file values
	// are merged afterwards, field by field, skipping fields an env var
	// set explicitly.
	var cfg Config
	if err := envconfig.Process("SOLEPLAN", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			mergeFileConfig(&cfg, &fileCfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// mergeFileConfig copies file values into cfg for every field that was not
// set through its environment variable. Zero file values are treated as
// absent, matching the YAML unmarshal of an omitted key.
func mergeFileConfig(cfg, file *Config) {
	// Server
	if !envSet("SOLEPLAN_SERVER_PORT") && file.Server.Port != 0 {
		cfg.Server.Port = file.Server.Port
	}
	if !envSet("SOLEPLAN_SERVER_READ_TIMEOUT") && file.Server.ReadTimeout != 0 {
		cfg.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if !envSet("SOLEPLAN_SERVER_WRITE_TIMEOUT") && file.Server.WriteTimeout != 0 {
		cfg.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if !envSet("SOLEPLAN_SERVER_IDLE_TIMEOUT") && file.Server.IdleTimeout != 0 {
		cfg.Server.IdleTimeout = file.Server.IdleTimeout
	}
	if !envSet("SOLEPLAN_SERVER_SHUTDOWN_TIMEOUT") && file.Server.ShutdownTimeout != 0 {
		cfg.Server.ShutdownTimeout = file.Server.ShutdownTimeout
	}
	if !envSet("SOLEPLAN_SERVER_RATE_LIMIT_RPS") && file.Server.RateLimitRPS != 0 {
		cfg.Server.RateLimitRPS = file.Server.RateLimitRPS
	}
	if !envSet("SOLEPLAN_SERVER_RATE_LIMIT_BURST") && file.Server.RateLimitBurst != 0 {
		cfg.Server.RateLimitBurst = file.Server.RateLimitBurst
	}

	// Logging
	if !envSet("SOLEPLAN_LOGGING_LEVEL") && file.Logging.Level != "" {
		cfg.Logging.Level = file.Logging.Level
	}
	if !envSet("SOLEPLAN_LOGGING_FORMAT") && file.Logging.Format != "" {
		cfg.Logging.Format = file.Logging.Format
	}
	if !envSet("SOLEPLAN_LOGGING_OUTPUT") && file.Logging.Output != "" {
		cfg.Logging.Output = file.Logging.Output
	}
	if !envSet("SOLEPLAN_LOGGING_FILE_PATH") && file.Logging.FilePath != "" {
		cfg.Logging.FilePath = file.Logging.FilePath
	}

	// Paths
	if !envSet("SOLEPLAN_PATHS_DATA_DIR") && file.Paths.DataDir != "" {
		cfg.Paths.DataDir = file.Paths.DataDir
	}
	if !envSet("SOLEPLAN_PATHS_INPUTS_DIR") && file.Paths.InputsDir != "" {
		cfg.Paths.InputsDir = file.Paths.InputsDir
	}
	if !envSet("SOLEPLAN_PATHS_REPORTS_DIR") && file.Paths.ReportsDir != "" {
		cfg.Paths.ReportsDir = file.Paths.ReportsDir
	}
	if !envSet("SOLEPLAN_PATHS_LOGS_DIR") && file.Paths.LogsDir != "" {
		cfg.Paths.LogsDir = file.Paths.LogsDir
	}

	// Planning
	if !envSet("SOLEPLAN_PLANNING_CLASSES") && len(file.Planning.Classes) > 0 {
		cfg.Planning.Classes = file.Planning.Classes
	}
	if !envSet("SOLEPLAN_PLANNING_HOLDING_COST_PER_HOUR") && file.Planning.HoldingCostPerHour != 0 {
		cfg.Planning.HoldingCostPerHour = file.Planning.HoldingCostPerHour
	}
	if !envSet("SOLEPLAN_PLANNING_DEFICIT_COST") && file.Planning.DeficitCost != 0 {
		cfg.Planning.DeficitCost = file.Planning.DeficitCost
	}
	if !envSet("SOLEPLAN_PLANNING_HORIZON") && file.Planning.Horizon != 0 {
		cfg.Planning.Horizon = file.Planning.Horizon
	}
	if !envSet("SOLEPLAN_PLANNING_HOLDOUT_MONTHS") && file.Planning.HoldoutMonths != 0 {
		cfg.Planning.HoldoutMonths = file.Planning.HoldoutMonths
	}
	if !envSet("SOLEPLAN_PLANNING_MAX_CONCURRENCY") && file.Planning.MaxConcurrency != 0 {
		cfg.Planning.MaxConcurrency = file.Planning.MaxConcurrency
	}

	// WebSocket
	if !envSet("SOLEPLAN_WEBSOCKET_READ_BUFFER_SIZE") && file.WebSocket.ReadBufferSize != 0 {
		cfg.WebSocket.ReadBufferSize = file.WebSocket.ReadBufferSize
	}
	if !envSet("SOLEPLAN_WEBSOCKET_WRITE_BUFFER_SIZE") && file.WebSocket.WriteBufferSize != 0 {
		cfg.WebSocket.WriteBufferSize = file.WebSocket.WriteBufferSize
	}
	if !envSet("SOLEPLAN_WEBSOCKET_PING_PERIOD") && file.WebSocket.PingPeriod != 0 {
		cfg.WebSocket.PingPeriod = file.WebSocket.PingPeriod
	}
	if !envSet("SOLEPLAN_WEBSOCKET_PONG_WAIT") && file.WebSocket.PongWait != 0 {
		cfg.WebSocket.PongWait = file.WebSocket.PongWait
	}
}

func envSet(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

// Validate checks field constraints and cross-field invariants.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	if c.Planning.HoldoutMonths >= c.Planning.Horizon+12 {
		return fmt.Errorf("holdout_months %d is implausibly large", c.Planning.HoldoutMonths)
	}
	return nil
}

// configFilePath returns the config file location, honoring SOLEPLAN_CONFIG.
func configFilePath() string {
	if p := os.Getenv("SOLEPLAN_CONFIG"); p != "" {
		return p
	}
	return "soleplan.yaml"
}
