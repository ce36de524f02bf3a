// Package usage extracts per-call token and latency statistics from
// generation results for observability sinks.
package usage

import (
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/llmlab/internal/llm"
)

// Result is satisfied by *llm.GenerationResult and *llm.ChatResult.
type Result interface {
	GeneratedText() string
	TokenUsage() llm.Usage
}

// Kind names the endpoint that produced a record.
type Kind string

const (
	KindCompletion Kind = "completion"
	KindChat       Kind = "chat"
)

// Record is the plain data handed to sinks for one call.
type Record struct {
	ID               string        `json:"id"`
	RunID            string        `json:"run_id,omitempty"`
	Kind             Kind          `json:"kind"`
	Model            string        `json:"model"`
	Sampling         string        `json:"sampling,omitempty"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	Elapsed          time.Duration `json:"elapsed_ns"`
	Text             string        `json:"text"`
	Timestamp        time.Time     `json:"timestamp"`
}

// Report extracts the usage of result without modifying it. elapsed is the
// caller-measured wall time of the network call.
func Report(result Result, elapsed time.Duration) Record {
	u := result.TokenUsage()
	rec := Record{
		ID:               uuid.NewString(),
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
		Elapsed:          elapsed,
		Text:             result.GeneratedText(),
		Timestamp:        time.Now().UTC(),
	}
	switch r := result.(type) {
	case *llm.GenerationResult:
		rec.Kind, rec.Model = KindCompletion, r.Model
	case *llm.ChatResult:
		rec.Kind, rec.Model = KindChat, r.Model
	}
	return rec
}

// Consistent reports whether prompt and completion tokens add up to the total.
func (r Record) Consistent() bool {
	return r.PromptTokens+r.CompletionTokens == r.TotalTokens
}

// Stopwatch measures the wall time of a single call.
type Stopwatch struct {
	start   time.Time
	now     func() time.Time
	elapsed time.Duration
	stopped bool
}

// Start begins timing.
func Start() *Stopwatch {
	return startWith(time.Now)
}

func startWith(now func() time.Time) *Stopwatch {
	return &Stopwatch{start: now(), now: now}
}

// Elapsed returns the time since Start, or the frozen duration once stopped.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.stopped {
		return s.elapsed
	}
	return s.now().Sub(s.start)
}

// Stop freezes the stopwatch and returns the elapsed time. Later calls return
// the same value.
func (s *Stopwatch) Stop() time.Duration {
	if !s.stopped {
		s.elapsed = s.now().Sub(s.start)
		s.stopped = true
	}
	return s.elapsed
}
