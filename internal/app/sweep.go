package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/llm"
	"golang.org/x/sync/errgroup"
)

// SweepMode selects the sampling control varied by a sweep.
type SweepMode string

const (
	SweepTemperature SweepMode = "temperature"
	SweepTopP        SweepMode = "top_p"
)

// DefaultSweepMaxTokens caps each sampled completion when the request leaves
// MaxTokens unset.
const DefaultSweepMaxTokens = 32

// SweepRequest samples one prompt repeatedly at each value of a sampling
// control.
type SweepRequest struct {
	Prompt    string
	Model     string
	Mode      SweepMode
	Values    []float64
	Samples   int
	MaxTokens int
}

// SweepPoint holds the outputs sampled at one value.
type SweepPoint struct {
	Value    float64
	Sampling llm.Sampling
	Outputs  []string
	Distinct int
}

// SweepResult holds one point per requested value, in request order.
type SweepResult struct {
	RunID  string
	Model  string
	Mode   SweepMode
	Points []SweepPoint
}

// Monotonic reports whether the number of distinct outputs never decreases as
// the value increases. Sampling is random, so a false result on few samples is
// a hint rather than a failure.
func (r *SweepResult) Monotonic() bool {
	points := make([]SweepPoint, len(r.Points))
	copy(points, r.Points)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value < points[j].Value })
	for i := 1; i < len(points); i++ {
		if points[i].Distinct < points[i-1].Distinct {
			return false
		}
	}
	return true
}

func (m SweepMode) sampling(v float64) (llm.Sampling, error) {
	switch m {
	case SweepTemperature:
		return llm.WithTemperature(v), nil
	case SweepTopP:
		return llm.WithTopP(v), nil
	default:
		return llm.Sampling{}, core.Errorf(core.ErrInvalidRequest, "unknown sweep mode %q", m)
	}
}

// Sweep samples the prompt Samples times at every value, concurrently up to
// the configured limit. The first failed call cancels the rest and is returned.
func (a *App) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if len(req.Values) == 0 {
		return nil, core.Errorf(core.ErrInvalidRequest, "sweep needs at least one value")
	}
	if req.Samples <= 0 {
		req.Samples = a.cfg.Sweep.Samples
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultSweepMaxTokens
	}
	if req.Model == "" {
		req.Model = a.cfg.LLM.CompletionModel
	}

	result := &SweepResult{
		RunID:  a.runID,
		Model:  req.Model,
		Mode:   req.Mode,
		Points: make([]SweepPoint, len(req.Values)),
	}
	for i, v := range req.Values {
		s, err := req.Mode.sampling(v)
		if err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("value %g: %w", v, err)
		}
		result.Points[i] = SweepPoint{Value: v, Sampling: s, Outputs: make([]string, req.Samples)}
	}

	limit := a.cfg.Sweep.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range result.Points {
		point := &result.Points[i]
		for s := 0; s < req.Samples; s++ {
			s := s
			g.Go(func() error {
				res, _, err := a.Complete(gctx, llm.GenerationRequest{
					Prompt:    req.Prompt,
					MaxTokens: req.MaxTokens,
					Sampling:  point.Sampling,
				}, req.Model)
				if err != nil {
					return fmt.Errorf("%s=%g sample %d: %w", req.Mode, point.Value, s, err)
				}
				point.Outputs[s] = res.Text
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range result.Points {
		result.Points[i].Distinct = distinct(result.Points[i].Outputs)
	}
	return result, nil
}

func distinct(outputs []string) int {
	seen := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		seen[o] = struct{}{}
	}
	return len(seen)
}
