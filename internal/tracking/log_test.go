package tracking

import (
	"context"
	"fmt"
	"testing"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSink_Record(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(obs))

	require.NoError(t, sink.Record(context.Background(), sampleRecord()))

	entries := logs.FilterMessage("generation call").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "gpt-3.5-turbo-instruct", fields["model"])
	assert.EqualValues(t, 5, fields["total_tokens"])
	assert.Equal(t, 0, logs.FilterMessage("provider token counts do not add up").Len())
}

func TestLogSink_WarnsOnInconsistentCounts(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(obs))

	rec := sampleRecord()
	rec.TotalTokens = 9
	require.NoError(t, sink.Record(context.Background(), rec))

	assert.Equal(t, 1, logs.FilterMessage("provider token counts do not add up").Len())
}

func TestLogSink_RecordFailure(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(obs))

	err := core.WrapError(core.ErrTransientNetwork, fmt.Errorf("dial tcp: connection refused"))
	require.NoError(t, sink.RecordFailure(context.Background(), Failure{Kind: usage.KindChat, Model: "m", Err: err}))

	entries := logs.FilterMessage("generation call failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "TRANSIENT_NETWORK", fields["code"])
	assert.Equal(t, true, fields["retryable"])
}

func TestNewLogSink_NilLogger(t *testing.T) {
	sink := NewLogSink(nil)
	assert.NoError(t, sink.Record(context.Background(), sampleRecord()))
}
