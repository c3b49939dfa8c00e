package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables (prefixed WORDFORGE_, nested keys joined with _)
// take precedence over values from config files, which take precedence
// over defaults. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("WORDFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Empty defaults so AutomaticEnv-only keys are visible to Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.gemini_api_key", "")

	v.SetDefault("llm.text_model", "gemini-2.0-flash")
	v.SetDefault("llm.asset_model", "imagen-3.0-generate-002")

	v.SetDefault("pipeline.worker_count", 4)
	v.SetDefault("pipeline.queue_size", 256)
	v.SetDefault("pipeline.max_batch_size", 100)
	v.SetDefault("pipeline.max_retries", 2)
	v.SetDefault("pipeline.retry_base_delay", 2*time.Second)
	v.SetDefault("pipeline.call_timeout", 30*time.Second)

	v.SetDefault("quota.free_items_per_period", 50)
	v.SetDefault("quota.pro_items_per_period", 1000)
	v.SetDefault("quota.period", 24*time.Hour)
	v.SetDefault("quota.pro_owners", []string{})
}
