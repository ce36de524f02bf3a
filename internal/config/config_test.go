package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	cfgPath := writeConfig(t, `
llm:
  api_key: ${TEST_OPENAI_KEY}
  chat_model: gpt-4o
  timeout: 15s
  context_windows:
    my-finetune: 2048

tracking:
  archive:
    type: s3
    s3:
      bucket: llm-runs
      prefix: lab

sweep:
  concurrency: 8
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.ChatModel)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2048, cfg.LLM.ContextWindows["my-finetune"])
	assert.Equal(t, "s3", cfg.Tracking.Archive.Type)
	assert.Equal(t, "llm-runs", cfg.Tracking.Archive.S3.Bucket)
	assert.Equal(t, 8, cfg.Sweep.Concurrency)

	// Unset keys keep their defaults
	assert.Equal(t, "gpt-3.5-turbo-instruct", cfg.LLM.CompletionModel)
	assert.Equal(t, "sk-", cfg.LLM.KeyPrefix)
	assert.Equal(t, 3, cfg.Sweep.Samples)
	assert.True(t, cfg.Tracking.Log)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LLMLAB_LLM_CHAT_MODEL", "gpt-4-turbo")
	t.Setenv("LLMLAB_SWEEP_SAMPLES", "10")

	cfg, err := Load(writeConfig(t, "llm:\n  chat_model: gpt-4o\n"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4-turbo", cfg.LLM.ChatModel)
	assert.Equal(t, 10, cfg.Sweep.Samples)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.LLM.KeyPrefix != "sk-" {
		t.Errorf("expected default key prefix sk-, got %s", cfg.LLM.KeyPrefix)
	}
	if cfg.Sweep.Concurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.Sweep.Concurrency)
	}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"missing completion model", func(c *Config) { c.LLM.CompletionModel = "" }, core.ErrConfigMissing},
		{"missing chat model", func(c *Config) { c.LLM.ChatModel = "" }, core.ErrConfigMissing},
		{"zero timeout", func(c *Config) { c.LLM.Timeout = 0 }, core.ErrConfigInvalid},
		{"bad context window", func(c *Config) { c.LLM.ContextWindows = map[string]int{"m": 0} }, core.ErrConfigInvalid},
		{"localfs without path", func(c *Config) {
			c.Tracking.Archive.Type = "localfs"
			c.Tracking.Archive.Path = ""
		}, core.ErrConfigMissing},
		{"s3 without bucket", func(c *Config) { c.Tracking.Archive.Type = "s3" }, core.ErrConfigMissing},
		{"unknown archive", func(c *Config) { c.Tracking.Archive.Type = "ftp" }, core.ErrConfigInvalid},
		{"zero concurrency", func(c *Config) { c.Sweep.Concurrency = 0 }, core.ErrConfigInvalid},
		{"zero samples", func(c *Config) { c.Sweep.Samples = 0 }, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
