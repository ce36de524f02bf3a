package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. LLMLAB_LLM_CHAT_MODEL.
const EnvPrefix = "LLMLAB"

type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
	Log       LogConfig       `mapstructure:"log"`
}

type LLMConfig struct {
	APIKey          string         `mapstructure:"api_key"`
	KeyPrefix       string         `mapstructure:"key_prefix"`
	BaseURL         string         `mapstructure:"base_url"`
	Organization    string         `mapstructure:"organization"`
	CompletionModel string         `mapstructure:"completion_model"`
	ChatModel       string         `mapstructure:"chat_model"`
	Timeout         time.Duration  `mapstructure:"timeout"`
	ContextWindows  map[string]int `mapstructure:"context_windows"`
}

type TokenizerConfig struct {
	// Encoding is used when the model is unknown to the tokenizer library
	Encoding string `mapstructure:"encoding"`
}

type TrackingConfig struct {
	Log     bool          `mapstructure:"log"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"`
}

// SweepConfig holds defaults for sampling sweeps.
type SweepConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	Samples     int `mapstructure:"samples"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Load reads configuration from file on top of Defaults. An empty path loads
// defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("reading config: %w", err))
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return &cfg, nil
}

// setDefaults registers every default with viper so that AutomaticEnv can
// override keys that are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.key_prefix", d.LLM.KeyPrefix)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.organization", d.LLM.Organization)
	v.SetDefault("llm.completion_model", d.LLM.CompletionModel)
	v.SetDefault("llm.chat_model", d.LLM.ChatModel)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("tokenizer.encoding", d.Tokenizer.Encoding)
	v.SetDefault("tracking.log", d.Tracking.Log)
	v.SetDefault("tracking.archive.type", d.Tracking.Archive.Type)
	v.SetDefault("tracking.archive.path", d.Tracking.Archive.Path)
	v.SetDefault("tracking.archive.s3.bucket", "")
	v.SetDefault("tracking.archive.s3.endpoint", "")
	v.SetDefault("tracking.archive.s3.region", "")
	v.SetDefault("tracking.archive.s3.access_key", "")
	v.SetDefault("tracking.archive.s3.secret_key", "")
	v.SetDefault("tracking.archive.s3.prefix", "")
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("sweep.concurrency", d.Sweep.Concurrency)
	v.SetDefault("sweep.samples", d.Sweep.Samples)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.file", d.Log.File)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			APIKey:          "${OPENAI_API_KEY}",
			KeyPrefix:       "sk-",
			CompletionModel: "gpt-3.5-turbo-instruct",
			ChatModel:       "gpt-4o-mini",
			Timeout:         60 * time.Second,
		},
		Tracking: TrackingConfig{
			Log: true,
			Archive: ArchiveConfig{
				Path: "./runs",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Sweep: SweepConfig{
			Concurrency: 4,
			Samples:     3,
		},
	}
}

// Validate checks the configuration for errors. The API key is not checked
// here; the client reports a missing credential as an authentication error.
func (c *Config) Validate() error {
	if c.LLM.CompletionModel == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("llm.completion_model is required"))
	}
	if c.LLM.ChatModel == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("llm.chat_model is required"))
	}
	if c.LLM.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout))
	}
	for model, window := range c.LLM.ContextWindows {
		if window <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("context window for %s must be positive, got %d", model, window))
		}
	}

	switch c.Tracking.Archive.Type {
	case "":
	case "localfs":
		if c.Tracking.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("tracking.archive.path required when type is localfs"))
		}
	case "s3":
		if c.Tracking.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("tracking.archive.s3.bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Tracking.Archive.Type))
	}

	if c.Sweep.Concurrency < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sweep.concurrency must be at least 1, got %d", c.Sweep.Concurrency))
	}
	if c.Sweep.Samples < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sweep.samples must be at least 1, got %d", c.Sweep.Samples))
	}

	return nil
}
