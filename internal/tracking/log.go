package tracking

import (
	"context"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/usage"
	"go.uber.org/zap"
)

// LogSink writes one structured log line per call.
type LogSink struct {
	logger *zap.Logger
}

var (
	_ Sink            = (*LogSink)(nil)
	_ FailureRecorder = (*LogSink)(nil)
)

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Record(_ context.Context, rec usage.Record) error {
	s.logger.Info("generation call",
		zap.String("id", rec.ID),
		zap.String("run_id", rec.RunID),
		zap.String("kind", string(rec.Kind)),
		zap.String("model", rec.Model),
		zap.String("sampling", rec.Sampling),
		zap.Int("prompt_tokens", rec.PromptTokens),
		zap.Int("completion_tokens", rec.CompletionTokens),
		zap.Int("total_tokens", rec.TotalTokens),
		zap.Duration("elapsed", rec.Elapsed),
	)
	if !rec.Consistent() {
		s.logger.Warn("provider token counts do not add up",
			zap.String("id", rec.ID),
			zap.Int("prompt_tokens", rec.PromptTokens),
			zap.Int("completion_tokens", rec.CompletionTokens),
			zap.Int("total_tokens", rec.TotalTokens),
		)
	}
	return nil
}

func (s *LogSink) RecordFailure(_ context.Context, f Failure) error {
	s.logger.Warn("generation call failed",
		zap.String("run_id", f.RunID),
		zap.String("kind", string(f.Kind)),
		zap.String("model", f.Model),
		zap.String("code", core.Code(f.Err)),
		zap.Bool("retryable", core.Retryable(f.Err)),
		zap.Error(f.Err),
	)
	return nil
}
