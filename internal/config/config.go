package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Quota    QuotaConfig    `mapstructure:"quota"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory content store (local development).
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// LLMConfig contains all provider integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	TextModel    string `mapstructure:"text_model"     validate:"required"`
	AssetModel   string `mapstructure:"asset_model"    validate:"required"`
}

// PipelineConfig tunes the job worker pool and its retry policy.
type PipelineConfig struct {
	// WorkerCount is the number of concurrent workers processing items.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gte=1,lte=64"`

	// QueueSize is the buffer size of the shared work queue.
	QueueSize int `mapstructure:"queue_size" validate:"required,gte=1"`

	// MaxBatchSize caps the item count of a single job submission.
	MaxBatchSize int `mapstructure:"max_batch_size" validate:"required,gte=1,lte=1000"`

	// MaxRetries bounds retries of transient provider failures per call site.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0,lte=10"`

	// RetryBaseDelay is the base of the exponential backoff between retries.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"required"`

	// CallTimeout is the hard per-call timeout for external provider calls.
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"required"`
}

// QuotaConfig defines per-tier admission limits.
type QuotaConfig struct {
	// FreeItemsPerPeriod and ProItemsPerPeriod cap items per owner per
	// period on the respective tiers. Zero means unlimited.
	FreeItemsPerPeriod int `mapstructure:"free_items_per_period" validate:"gte=0"`
	ProItemsPerPeriod  int `mapstructure:"pro_items_per_period"  validate:"gte=0"`

	// Period is the quota accounting window (daily by default).
	Period time.Duration `mapstructure:"period" validate:"required"`

	// ProOwners lists owner IDs admitted on the pro tier instead of the
	// free-tier default.
	ProOwners []string `mapstructure:"pro_owners"`
}
