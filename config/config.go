package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway process. Values are
// consumed at construction time and never mutated afterwards.
type Config struct {
	ServerName    string `mapstructure:"MCP_SERVER_NAME"`
	ServerVersion string `mapstructure:"MCP_SERVER_VERSION"`

	HTTPPort int    `mapstructure:"HTTP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Downstream Earth-2 service endpoints. Paths are configuration, not
	// protocol: the bridge treats them as opaque.
	Earth2BaseURL      string `mapstructure:"EARTH2_BASE_URL"`
	Earth2HealthPath   string `mapstructure:"EARTH2_HEALTH_PATH"`
	Earth2ForecastPath string `mapstructure:"EARTH2_FORECAST_PATH"`
	Earth2VisualPath   string `mapstructure:"EARTH2_VISUAL_PATH"`
	Earth2AnalyzePath  string `mapstructure:"EARTH2_ANALYZE_PATH"`
	Earth2StreamPath   string `mapstructure:"EARTH2_STREAM_PATH"`

	NGCAPIKey        string `mapstructure:"NGC_API_KEY"`
	InternalAPIToken string `mapstructure:"INTERNAL_API_TOKEN"`

	// Durations are post-processed from the *_SECONDS / *_MS keys below.
	RequestTimeout time.Duration `mapstructure:"-"`
	SubmitTimeout  time.Duration `mapstructure:"-"`
	RetryBaseDelay time.Duration `mapstructure:"-"`

	RetryMaxAttempts int `mapstructure:"EARTH2_RETRY_MAX_ATTEMPTS"`
}

// Addr is the listen address derived from HTTPPort.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// LoadConfig reads configuration from .env, an optional config file, and
// environment variables, in increasing order of precedence for env vars.
func LoadConfig(configPaths ...string) (*Config, error) {
	// Mirror the container convention of seeding the environment from a
	// local .env file when one exists.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("MCP_SERVER_NAME", "earth2-mcp")
	v.SetDefault("MCP_SERVER_VERSION", "1.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("EARTH2_BASE_URL", "http://earth_2_fourcastnet:8000")
	v.SetDefault("EARTH2_HEALTH_PATH", "/health")
	v.SetDefault("EARTH2_FORECAST_PATH", "/api/forecast")
	v.SetDefault("EARTH2_VISUAL_PATH", "/api/visual")
	v.SetDefault("EARTH2_ANALYZE_PATH", "/api/analyze")
	v.SetDefault("EARTH2_STREAM_PATH", "/api/forecast/stream")
	v.SetDefault("NGC_API_KEY", "")
	v.SetDefault("INTERNAL_API_TOKEN", "")
	v.SetDefault("EARTH2_REQUEST_TIMEOUT_SECONDS", 20)
	v.SetDefault("EARTH2_SUBMIT_TIMEOUT_SECONDS", 60)
	v.SetDefault("EARTH2_RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("EARTH2_RETRY_BASE_DELAY_MS", 100)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, path := range configPaths {
		if path != "" {
			v.AddConfigPath(path)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug("No config file found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		log.Infof("Using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.RequestTimeout = time.Duration(v.GetInt("EARTH2_REQUEST_TIMEOUT_SECONDS")) * time.Second
	cfg.SubmitTimeout = time.Duration(v.GetInt("EARTH2_SUBMIT_TIMEOUT_SECONDS")) * time.Second
	cfg.RetryBaseDelay = time.Duration(v.GetInt("EARTH2_RETRY_BASE_DELAY_MS")) * time.Millisecond

	cfg.Earth2BaseURL = strings.TrimRight(cfg.Earth2BaseURL, "/")

	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.Warnf("Invalid LOG_LEVEL %q, defaulting to info", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	if cfg.RetryMaxAttempts < 1 {
		log.Warnf("EARTH2_RETRY_MAX_ATTEMPTS %d is below 1, using 1", cfg.RetryMaxAttempts)
		cfg.RetryMaxAttempts = 1
	}

	return &cfg, nil
}
