package app

import (
	"fmt"

	"github.com/newthinker/llmlab/internal/config"
	"github.com/newthinker/llmlab/internal/llm/openai"
	"github.com/newthinker/llmlab/internal/metrics"
	"github.com/newthinker/llmlab/internal/storage/runlog"
	"github.com/newthinker/llmlab/internal/tracking"
	"go.uber.org/zap"
)

// OpenStore opens the run log configured under tracking.archive. It returns
// nil when archiving is disabled.
func OpenStore(cfg config.ArchiveConfig) (runlog.Store, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		return runlog.NewLocalFS(cfg.Path)
	case "s3":
		return runlog.NewS3(runlog.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

// NewSinks builds the sinks enabled in cfg. reg may be nil when metrics are
// disabled.
func NewSinks(cfg *config.Config, reg *metrics.Registry, logger *zap.Logger) (*tracking.Multi, error) {
	sinks, err := tracking.NewMulti()
	if err != nil {
		return nil, err
	}

	if cfg.Tracking.Log {
		if err := sinks.Add(tracking.NewLogSink(logger)); err != nil {
			return nil, err
		}
	}
	if cfg.Metrics.Enabled && reg != nil {
		if err := sinks.Add(tracking.NewMetricsSink(reg)); err != nil {
			return nil, err
		}
	}

	store, err := OpenStore(cfg.Tracking.Archive)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	if store != nil {
		if err := sinks.Add(tracking.NewArchiveSink(store)); err != nil {
			return nil, err
		}
	}
	return sinks, nil
}

// Build wires the OpenAI client, its instrumented transport and the sinks
// from cfg.
func Build(cfg *config.Config, reg *metrics.Registry, logger *zap.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sinks, err := NewSinks(cfg, reg, logger)
	if err != nil {
		return nil, err
	}

	var httpReg *metrics.Registry
	if cfg.Metrics.Enabled {
		httpReg = reg
	}
	client := openai.New(openai.Config{
		APIKey:         cfg.LLM.APIKey,
		KeyPrefix:      cfg.LLM.KeyPrefix,
		BaseURL:        cfg.LLM.BaseURL,
		Organization:   cfg.LLM.Organization,
		HTTPClient:     metrics.NewHTTPClient(cfg.LLM.Timeout, httpReg, logger.Named("http")),
		ContextWindows: cfg.LLM.ContextWindows,
	})

	a := New(cfg, client, sinks, logger, opts...)
	logger.Debug("app wired",
		zap.String("run_id", a.RunID()),
		zap.Int("sinks", len(sinks.Sinks())),
		zap.String("completion_model", cfg.LLM.CompletionModel),
		zap.String("chat_model", cfg.LLM.ChatModel),
	)
	return a, nil
}
