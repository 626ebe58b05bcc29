package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Exa      ExaConfig      `yaml:"exa" mapstructure:"exa"`
	Gateway  GatewayConfig  `yaml:"gateway" mapstructure:"gateway"`
	Research ResearchConfig `yaml:"research" mapstructure:"research"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExaConfig holds Exa search API settings.
type ExaConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GatewayConfig configures retry and rate limiting for search calls.
type GatewayConfig struct {
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffBaseMS  int     `yaml:"backoff_base_ms" mapstructure:"backoff_base_ms"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
}

// ResearchConfig configures pipeline behavior. Phase weights feed the
// overall-confidence computation; they are tunable, not derived.
type ResearchConfig struct {
	ParallelExecution bool          `yaml:"parallel_execution" mapstructure:"parallel_execution"`
	MaxCandidates     int           `yaml:"max_candidates" mapstructure:"max_candidates"`
	MinClaimScore     float64       `yaml:"min_claim_score" mapstructure:"min_claim_score"`
	Weights           WeightsConfig `yaml:"weights" mapstructure:"weights"`
}

// WeightsConfig holds per-phase contribution weights for overall confidence.
type WeightsConfig struct {
	Website  float64 `yaml:"website" mapstructure:"website"`
	Company  float64 `yaml:"company" mapstructure:"company"`
	LinkedIn float64 `yaml:"linkedin" mapstructure:"linkedin"`
	News     float64 `yaml:"news" mapstructure:"news"`
	Calendar float64 `yaml:"calendar" mapstructure:"calendar"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port    int      `yaml:"port" mapstructure:"port"`
	APIKeys []string `yaml:"api_keys" mapstructure:"api_keys"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FESTIVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "festival.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("exa.timeout_secs", 60)
	v.SetDefault("gateway.max_retries", 2)
	v.SetDefault("gateway.backoff_base_ms", 1000)
	v.SetDefault("gateway.requests_per_sec", 5)
	v.SetDefault("gateway.burst", 5)
	v.SetDefault("research.parallel_execution", true)
	v.SetDefault("research.max_candidates", 3)
	v.SetDefault("research.min_claim_score", 0.2)
	v.SetDefault("research.weights.website", 0.15)
	v.SetDefault("research.weights.company", 0.30)
	v.SetDefault("research.weights.linkedin", 0.25)
	v.SetDefault("research.weights.news", 0.15)
	v.SetDefault("research.weights.calendar", 0.15)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
