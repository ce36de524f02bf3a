package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/llm"
	"github.com/newthinker/llmlab/internal/llm/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diversityResponder is deterministic at temperature 0 and returns a fresh
// output for every other call.
func diversityResponder() func(mock.Call) mock.Response {
	n := 0
	return func(c mock.Call) mock.Response {
		if t := c.Sampling.Temperature; t != nil && *t == 0 {
			return mock.Response{Text: "Hello!"}
		}
		n++
		return mock.Response{Text: fmt.Sprintf("Hello %d!", n)}
	}
}

func TestSweep_Temperature(t *testing.T) {
	client := mock.New()
	client.Responder = diversityResponder()
	a, sink := newTestApp(t, client)

	res, err := a.Sweep(context.Background(), SweepRequest{
		Prompt:  "Say hello",
		Mode:    SweepTemperature,
		Values:  []float64{0, 1},
		Samples: 4,
	})
	require.NoError(t, err)

	require.Len(t, res.Points, 2)
	assert.Equal(t, 0.0, res.Points[0].Value)
	assert.Equal(t, 1, res.Points[0].Distinct)
	assert.Equal(t, []string{"Hello!", "Hello!", "Hello!", "Hello!"}, res.Points[0].Outputs)
	assert.Equal(t, 4, res.Points[1].Distinct)
	assert.True(t, res.Monotonic())
	assert.Equal(t, "run-test", res.RunID)

	calls := client.Calls()
	assert.Len(t, calls, 8)
	for _, c := range calls {
		assert.Equal(t, DefaultSweepMaxTokens, c.Request.MaxTokens)
		assert.Nil(t, c.Sampling.TopP)
	}
	assert.Len(t, sink.records, 8)
}

func TestSweep_TopPUsesConfiguredSamples(t *testing.T) {
	client := mock.New(mock.Response{Text: "same"})
	a, _ := newTestApp(t, client)

	res, err := a.Sweep(context.Background(), SweepRequest{
		Prompt:    "Say hello",
		Mode:      SweepTopP,
		Values:    []float64{0.1, 0.9},
		MaxTokens: 5,
	})
	require.NoError(t, err)

	assert.Len(t, client.Calls(), 2*a.cfg.Sweep.Samples)
	for _, c := range client.Calls() {
		assert.Nil(t, c.Sampling.Temperature)
		require.NotNil(t, c.Sampling.TopP)
		assert.Equal(t, 5, c.Request.MaxTokens)
	}
	assert.Equal(t, SweepTopP, res.Mode)
}

func TestSweep_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  SweepRequest
	}{
		{"no values", SweepRequest{Prompt: "x", Mode: SweepTemperature}},
		{"unknown mode", SweepRequest{Prompt: "x", Mode: "beam", Values: []float64{1}}},
		{"temperature out of range", SweepRequest{Prompt: "x", Mode: SweepTemperature, Values: []float64{0.5, 3}}},
		{"top_p zero", SweepRequest{Prompt: "x", Mode: SweepTopP, Values: []float64{0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mock.New()
			a, _ := newTestApp(t, client)

			res, err := a.Sweep(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, core.ErrInvalidRequest)
			assert.Empty(t, client.Calls())
		})
	}
}

func TestSweep_FirstErrorWins(t *testing.T) {
	client := mock.New(mock.Response{Err: core.Errorf(core.ErrAuthentication, "bad key")})
	a, _ := newTestApp(t, client)

	res, err := a.Sweep(context.Background(), SweepRequest{
		Prompt: "x",
		Mode:   SweepTemperature,
		Values: []float64{0, 0.5, 1},
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, core.ErrAuthentication)
}

func TestSweepResult_Monotonic(t *testing.T) {
	r := &SweepResult{Points: []SweepPoint{
		{Value: 1, Distinct: 3},
		{Value: 0, Distinct: 1},
		{Value: 0.5, Distinct: 2},
	}}
	assert.True(t, r.Monotonic())

	r.Points[2].Distinct = 4
	assert.False(t, r.Monotonic())
}

func TestSweepMode_Sampling(t *testing.T) {
	s, err := SweepTemperature.sampling(0.7)
	require.NoError(t, err)
	assert.Equal(t, llm.WithTemperature(0.7).String(), s.String())
}
