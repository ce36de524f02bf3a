package tracking

import (
	"context"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/metrics"
	"github.com/newthinker/llmlab/internal/usage"
)

// MetricsSink counts calls and tokens in a Prometheus registry.
type MetricsSink struct {
	reg *metrics.Registry
}

var (
	_ Sink            = (*MetricsSink)(nil)
	_ FailureRecorder = (*MetricsSink)(nil)
)

func NewMetricsSink(reg *metrics.Registry) *MetricsSink {
	return &MetricsSink{reg: reg}
}

func (s *MetricsSink) Name() string { return "metrics" }

func (s *MetricsSink) Record(_ context.Context, rec usage.Record) error {
	s.reg.RecordCall(string(rec.Kind), rec.Model, rec.PromptTokens, rec.CompletionTokens, rec.Elapsed.Seconds())
	return nil
}

func (s *MetricsSink) RecordFailure(_ context.Context, f Failure) error {
	s.reg.RecordFailure(string(f.Kind), f.Model, core.Code(f.Err))
	return nil
}
