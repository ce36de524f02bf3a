// Package tracking delivers per-call usage records to observability sinks.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/newthinker/llmlab/internal/usage"
)

// Sink receives one record per successful generation call.
type Sink interface {
	// Name returns the unique identifier for this sink
	Name() string

	// Record delivers a usage record
	Record(ctx context.Context, rec usage.Record) error
}

// Failure describes a generation call that returned an error.
type Failure struct {
	RunID string
	Kind  usage.Kind
	Model string
	Err   error
}

// FailureRecorder is implemented by sinks that also track failed calls.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, f Failure) error
}

// Multi fans records out to every registered sink.
type Multi struct {
	mu    sync.RWMutex
	sinks []Sink
	names map[string]struct{}
}

var _ Sink = (*Multi)(nil)

// NewMulti creates a fan-out over sinks. Duplicate names are rejected.
func NewMulti(sinks ...Sink) (*Multi, error) {
	m := &Multi{names: make(map[string]struct{})}
	for _, s := range sinks {
		if err := m.Add(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add registers a sink.
func (m *Multi) Add(s Sink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := s.Name()
	if _, exists := m.names[name]; exists {
		return fmt.Errorf("sink %s already registered", name)
	}
	m.names[name] = struct{}{}
	m.sinks = append(m.sinks, s)
	return nil
}

// Sinks returns the registered sinks in registration order.
func (m *Multi) Sinks() []Sink {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Sink, len(m.sinks))
	copy(result, m.sinks)
	return result
}

func (m *Multi) Name() string { return "multi" }

// Record delivers rec to every sink, even after one fails, and returns the
// joined errors of the sinks that failed.
func (m *Multi) Record(ctx context.Context, rec usage.Record) error {
	var errs []error
	for _, s := range m.Sinks() {
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// RecordFailure forwards f to every sink that tracks failures.
func (m *Multi) RecordFailure(ctx context.Context, f Failure) error {
	var errs []error
	for _, s := range m.Sinks() {
		fr, ok := s.(FailureRecorder)
		if !ok {
			continue
		}
		if err := fr.RecordFailure(ctx, f); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
