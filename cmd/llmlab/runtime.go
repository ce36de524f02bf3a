package main

import (
	"fmt"

	"github.com/newthinker/llmlab/internal/app"
	"github.com/newthinker/llmlab/internal/config"
	"github.com/newthinker/llmlab/internal/logger"
	"github.com/newthinker/llmlab/internal/metrics"
	"go.uber.org/zap"
)

// runtime holds what one command invocation needs.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
	reg *metrics.Registry
	app *app.App
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Development: cfg.Log.Development,
		Debug:       debug,
		File:        cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults and environment")
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	a, err := app.Build(cfg, reg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &runtime{cfg: cfg, log: log, reg: reg, app: a}, nil
}

// Close flushes the metrics textfile and the logger.
func (r *runtime) Close() {
	if r.reg != nil && r.cfg.Metrics.Textfile != "" {
		if err := r.reg.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
			r.log.Warn("failed to write metrics textfile",
				zap.String("path", r.cfg.Metrics.Textfile),
				zap.Error(err),
			)
		}
	}
	_ = r.log.Sync()
}
