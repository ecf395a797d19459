package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds all configuration for the application core.
// Tags use mapstructure for Viper unmarshalling.
type AppConfig struct {
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogPretty    bool   `mapstructure:"LOG_PRETTY"`

	SessionTTLHours     int `mapstructure:"SESSION_TTL_HOURS"`
	PreloadConcurrency  int `mapstructure:"PRELOAD_CONCURRENCY"`
	DecodeRetryAfterSec int `mapstructure:"DECODE_RETRY_AFTER_SEC"`
	BcryptCost          int `mapstructure:"BCRYPT_COST"`
}

// SessionTTL returns the configured session lifetime.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// DecodeRetryAfter returns the failed-decode retry window.
func (c *AppConfig) DecodeRetryAfter() time.Duration {
	return time.Duration(c.DecodeRetryAfterSec) * time.Second
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()

	v.SetConfigName("casekit")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.casekit")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvPrefix("CASEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("DATABASE_PATH", "casekit.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("PRELOAD_CONCURRENCY", 4)
	v.SetDefault("DECODE_RETRY_AFTER_SEC", 30)
	v.SetDefault("BCRYPT_COST", 0) // 0 = bcrypt.DefaultCost

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we fall back to env/defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}
