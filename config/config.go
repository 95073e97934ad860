package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ichimoku-monitor/internal/ichimoku"
	"ichimoku-monitor/internal/logging"
	"ichimoku-monitor/internal/strategy"
)

type Config struct {
	Monitoring   MonitoringConfig          `yaml:"monitoring"`
	Fetch        FetchConfig               `yaml:"fetch"`
	State        StateConfig               `yaml:"state"`
	Notification NotificationConfig        `yaml:"notification"`
	AI           AIConfig                  `yaml:"ai"`
	Server       ServerConfig              `yaml:"server"`
	Logging      logging.Config            `yaml:"logging"`
	Strategies   map[string]StrategyConfig `yaml:"strategies"`
}

// MonitoringConfig drives the detection loop
type MonitoringConfig struct {
	Symbols      []string `yaml:"symbols" validate:"required,min=1,dive,required"`
	Timeframe    string   `yaml:"timeframe" validate:"required,oneof=1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w"`
	DataPoints   int      `yaml:"data_points" validate:"required,min=60,max=1000"`
	RunOnStartup bool     `yaml:"run_on_startup"`
	// Strategy names the entry in Strategies to run. There is no implicit
	// default; an unknown name is a startup error.
	Strategy string `yaml:"strategy" validate:"required"`
}

// Interval returns the timeframe as a duration
func (m MonitoringConfig) Interval() (time.Duration, error) {
	return ParseTimeframe(m.Timeframe)
}

// StrategyConfig pairs indicator parameters with signal rules
type StrategyConfig struct {
	Parameters ichimoku.Parameters `yaml:"parameters"`
	Rules      strategy.Rules      `yaml:"rules"`
}

// FetchConfig tunes the market data client
type FetchConfig struct {
	BaseURL           string `yaml:"base_url"`
	MaxRetries        int    `yaml:"max_retries" validate:"min=0,max=10"`     // retries on transient errors, 0 = fail fast
	InitialBackoffSec int    `yaml:"initial_backoff_sec" validate:"min=0"`    // first retry delay in seconds
	TimeoutSec        int    `yaml:"timeout_sec" validate:"min=0,max=300"`    // per-request timeout in seconds
}

type StateConfig struct {
	FilePath string `yaml:"file_path" validate:"required"`
}

type NotificationConfig struct {
	Enabled       bool           `yaml:"enabled"`
	TestOnStartup bool           `yaml:"test_on_startup"`
	Telegram      TelegramConfig `yaml:"telegram"`
	Discord       DiscordConfig  `yaml:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// AIConfig holds LLM narrative configuration
type AIConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Provider    string  `yaml:"provider" validate:"omitempty,oneof=gemini openai"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens" validate:"min=0,max=8192"`
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
	TimeoutSec  int     `yaml:"timeout_sec" validate:"min=0,max=300"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// Default returns the built-in configuration, including a standard
// Ichimoku strategy definition.
func Default() *Config {
	return &Config{
		Monitoring: MonitoringConfig{
			Symbols:    []string{"BTC/USDT"},
			Timeframe:  "4h",
			DataPoints: 120,
			Strategy:   "ichimoku_default",
		},
		Fetch: FetchConfig{
			MaxRetries:        0,
			InitialBackoffSec: 2,
			TimeoutSec:        30,
		},
		State: StateConfig{
			FilePath: "signal_state.json",
		},
		Notification: NotificationConfig{
			Enabled: true,
		},
		AI: AIConfig{
			Enabled:     false,
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			MaxTokens:   512,
			Temperature: 0.4,
			TimeoutSec:  30,
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
		Logging: logging.Config{
			Level:  "INFO",
			Output: "stdout",
		},
		Strategies: map[string]StrategyConfig{
			"ichimoku_default": {
				Parameters: ichimoku.DefaultParameters(),
				Rules: strategy.Rules{
					LongEntry:  []strategy.Predicate{strategy.PriceAboveCloud, strategy.TenkanAboveKijun, strategy.ChikouAbovePrice},
					ShortEntry: []strategy.Predicate{strategy.PriceBelowCloud, strategy.TenkanBelowKijun, strategy.ChikouBelowPrice},
					LongExit:   []strategy.Predicate{strategy.TenkanBelowKijun, strategy.PriceBelowCloud},
					ShortExit:  []strategy.Predicate{strategy.TenkanAboveKijun, strategy.PriceAboveCloud},

					LongEntryLogic:  strategy.LogicAND,
					ShortEntryLogic: strategy.LogicAND,
					LongExitLogic:   strategy.LogicOR,
					ShortExitLogic:  strategy.LogicOR,
				},
			},
		},
	}
}

// Load reads the YAML file at path (when it exists), applies environment
// overrides, and validates the result. A missing file runs on defaults.
// Unknown predicate or strategy names are load errors, not warnings.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Credentials come from the environment rather than the YAML file.
func applyEnvOverrides(cfg *Config) {
	cfg.Notification.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.Notification.Telegram.BotToken)
	cfg.Notification.Telegram.ChatID = getEnvOrDefault("TELEGRAM_CHAT_ID", cfg.Notification.Telegram.ChatID)
	cfg.Notification.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.Notification.Discord.WebhookURL)

	cfg.AI.APIKey = getEnvOrDefault("LLM_API_KEY", cfg.AI.APIKey)

	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Output = getEnvOrDefault("LOG_OUTPUT", cfg.Logging.Output)

	cfg.Fetch.BaseURL = getEnvOrDefault("BINANCE_BASE_URL", cfg.Fetch.BaseURL)
	cfg.Server.Port = getEnvIntOrDefault("WEB_PORT", cfg.Server.Port)
}

// Validate checks structural constraints and cross-references
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sc, ok := c.Strategies[c.Monitoring.Strategy]
	if !ok {
		return fmt.Errorf("unknown strategy %q: not defined under strategies", c.Monitoring.Strategy)
	}
	if err := sc.Parameters.Validate(); err != nil {
		return fmt.Errorf("strategy %q: %w", c.Monitoring.Strategy, err)
	}

	if _, err := c.Monitoring.Interval(); err != nil {
		return err
	}
	return nil
}

// ActiveStrategy returns the selected strategy definition
func (c *Config) ActiveStrategy() StrategyConfig {
	return c.Strategies[c.Monitoring.Strategy]
}

// ParseTimeframe converts an exchange interval string to a duration
func ParseTimeframe(tf string) (time.Duration, error) {
	switch tf {
	case "1m":
		return time.Minute, nil
	case "3m":
		return 3 * time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "2h":
		return 2 * time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "6h":
		return 6 * time.Hour, nil
	case "8h":
		return 8 * time.Hour, nil
	case "12h":
		return 12 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	case "3d":
		return 72 * time.Hour, nil
	case "1w":
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe %q", tf)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GenerateSampleConfig writes a commented starter configuration
func GenerateSampleConfig(path string) error {
	sample := `# Ichimoku signal monitor configuration.
# Credentials come from the environment: TELEGRAM_BOT_TOKEN,
# TELEGRAM_CHAT_ID, DISCORD_WEBHOOK_URL, LLM_API_KEY.

monitoring:
  symbols:
    - BTC/USDT
    - ETH/USDT
  timeframe: 4h
  data_points: 120
  run_on_startup: true
  strategy: ichimoku_default

fetch:
  max_retries: 3
  initial_backoff_sec: 2
  timeout_sec: 30

state:
  file_path: signal_state.json

notification:
  enabled: true
  test_on_startup: false
  telegram:
    enabled: true
  discord:
    enabled: false

ai:
  enabled: false
  provider: gemini
  model: gemini-2.0-flash
  max_tokens: 512
  temperature: 0.4
  timeout_sec: 30

server:
  enabled: true
  host: 0.0.0.0
  port: 8080

logging:
  level: INFO
  output: stdout
  pretty: false

strategies:
  ichimoku_default:
    parameters:
      tenkan_period: 9
      kijun_period: 26
      senkou_b_period: 52
      chikou_offset: 26
      senkou_offset: 26
    rules:
      long_entry: [price_above_cloud, tenkan_above_kijun, chikou_above_price]
      short_entry: [price_below_cloud, tenkan_below_kijun, chikou_below_price]
      long_exit: [tenkan_below_kijun, price_below_cloud]
      short_exit: [tenkan_above_kijun, price_above_cloud]
      long_entry_logic: AND
      short_entry_logic: AND
      long_exit_logic: OR
      short_exit_logic: OR
`
	return os.WriteFile(path, []byte(sample), 0644)
}
