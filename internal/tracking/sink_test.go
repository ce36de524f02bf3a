package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name     string
	fail     bool
	mu       sync.Mutex
	records  []usage.Record
	failures []Failure
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Record(_ context.Context, rec usage.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	if r.fail {
		return errors.New("sink down")
	}
	return nil
}

func (r *recordingSink) RecordFailure(_ context.Context, f Failure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
	return nil
}

type recordOnly struct{ calls int }

func (r *recordOnly) Name() string                               { return "record-only" }
func (r *recordOnly) Record(context.Context, usage.Record) error { r.calls++; return nil }

func sampleRecord() usage.Record {
	return usage.Record{
		ID:               "0b4ad3c4-3a2f-4bf0-9f55-2b8bd3a1f001",
		RunID:            "run-1",
		Kind:             usage.KindCompletion,
		Model:            "gpt-3.5-turbo-instruct",
		PromptTokens:     3,
		CompletionTokens: 2,
		TotalTokens:      5,
		Elapsed:          120 * time.Millisecond,
		Text:             "Hello!",
		Timestamp:        time.Date(2026, 3, 1, 12, 0, 0, 5, time.UTC),
	}
}

func TestNewMulti_RejectsDuplicateNames(t *testing.T) {
	_, err := NewMulti(&recordingSink{name: "a"}, &recordingSink{name: "a"})
	assert.Error(t, err)
}

func TestMulti_DeliversToAllDespiteFailure(t *testing.T) {
	first := &recordingSink{name: "first", fail: true}
	second := &recordingSink{name: "second"}
	m, err := NewMulti(first, second)
	require.NoError(t, err)

	err = m.Record(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first: sink down")
	assert.Len(t, first.records, 1)
	assert.Len(t, second.records, 1)
}

func TestMulti_RecordFailureSkipsPlainSinks(t *testing.T) {
	tracker := &recordingSink{name: "tracker"}
	plain := &recordOnly{}
	m, err := NewMulti(tracker, plain)
	require.NoError(t, err)

	f := Failure{Kind: usage.KindChat, Model: "gpt-4o-mini", Err: core.ErrRateLimited}
	require.NoError(t, m.RecordFailure(context.Background(), f))

	require.Len(t, tracker.failures, 1)
	assert.Equal(t, "gpt-4o-mini", tracker.failures[0].Model)
	assert.Zero(t, plain.calls)
}

func TestMulti_ConcurrentRecord(t *testing.T) {
	sink := &recordingSink{name: "r"}
	m, err := NewMulti(sink)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Record(context.Background(), sampleRecord())
		}()
	}
	wg.Wait()

	assert.Len(t, sink.records, 50)
}

func TestMulti_Sinks(t *testing.T) {
	m, err := NewMulti()
	require.NoError(t, err)
	require.NoError(t, m.Add(&recordingSink{name: "x"}))
	require.NoError(t, m.Add(&recordingSink{name: "y"}))

	names := []string{}
	for _, s := range m.Sinks() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"x", "y"}, names)
}
