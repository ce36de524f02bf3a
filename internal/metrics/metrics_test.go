package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{0, "error"},
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{401, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("POST", "api.openai.com", tt.status, 0.01)

			got := testutil.ToFloat64(reg.httpRequestsTotal.WithLabelValues("POST", "api.openai.com", tt.expected))
			if got != 1 {
				t.Errorf("expected status label %s for status code %d", tt.expected, tt.status)
			}
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	if got := testutil.ToFloat64(reg.httpRequestsInFlight); got != 1 {
		t.Errorf("expected in-flight gauge to be 1, got %v", got)
	}
}

func TestRegistry_RecordCall(t *testing.T) {
	reg := NewRegistry()

	reg.RecordCall("completion", "gpt-3.5-turbo-instruct", 3, 7, 0.42)
	reg.RecordCall("completion", "gpt-3.5-turbo-instruct", 2, 1, 0.1)

	if got := testutil.ToFloat64(reg.callsTotal.WithLabelValues("completion", "gpt-3.5-turbo-instruct", "ok")); got != 2 {
		t.Errorf("expected 2 calls, got %v", got)
	}
	if got := testutil.ToFloat64(reg.tokensTotal.WithLabelValues("completion", "gpt-3.5-turbo-instruct", "prompt")); got != 5 {
		t.Errorf("expected 5 prompt tokens, got %v", got)
	}
	if got := testutil.ToFloat64(reg.tokensTotal.WithLabelValues("completion", "gpt-3.5-turbo-instruct", "completion")); got != 8 {
		t.Errorf("expected 8 completion tokens, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "llmlab_call_duration_seconds" {
			found = true
			for _, m := range mf.GetMetric() {
				hist := m.GetHistogram()
				if hist.GetSampleCount() != 2 {
					t.Errorf("expected sample count 2, got %d", hist.GetSampleCount())
				}
			}
		}
	}
	if !found {
		t.Error("expected llmlab_call_duration_seconds metric")
	}
}

func TestRegistry_RecordFailure(t *testing.T) {
	reg := NewRegistry()

	reg.RecordFailure("chat", "gpt-4o-mini", "RATE_LIMITED")
	reg.RecordFailure("chat", "gpt-4o-mini", "")

	if got := testutil.ToFloat64(reg.callsTotal.WithLabelValues("chat", "gpt-4o-mini", "RATE_LIMITED")); got != 1 {
		t.Errorf("expected 1 rate limited call, got %v", got)
	}
	if got := testutil.ToFloat64(reg.callsTotal.WithLabelValues("chat", "gpt-4o-mini", "UNKNOWN")); got != 1 {
		t.Errorf("expected 1 unknown failure, got %v", got)
	}
}

func TestRegistry_WriteTextfile(t *testing.T) {
	reg := NewRegistry()
	reg.RecordCall("chat", "gpt-4o-mini", 1, 1, 0.2)

	path := filepath.Join(t.TempDir(), "llmlab.prom")
	if err := reg.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `llmlab_calls_total{kind="chat",model="gpt-4o-mini",outcome="ok"} 1`) {
		t.Errorf("textfile missing call counter:\n%s", data)
	}
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
