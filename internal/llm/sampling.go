package llm

import (
	"fmt"

	"github.com/newthinker/llmlab/internal/core"
)

const (
	MaxTemperature = 2.0
	MaxTopP        = 1.0
)

// Sampling selects how the next token is drawn. At most one of Temperature and
// TopP may be set; leaving both nil defers to the provider default.
type Sampling struct {
	Temperature *float64
	TopP        *float64
}

// WithTemperature returns temperature sampling.
func WithTemperature(t float64) Sampling {
	return Sampling{Temperature: &t}
}

// WithTopP returns nucleus sampling.
func WithTopP(p float64) Sampling {
	return Sampling{TopP: &p}
}

// Validate rejects out-of-range values and simultaneous use of both controls.
func (s Sampling) Validate() error {
	if s.Temperature != nil && s.TopP != nil {
		return core.Errorf(core.ErrInvalidRequest, "temperature and top_p are mutually exclusive")
	}
	if s.Temperature != nil {
		if t := *s.Temperature; t < 0 || t > MaxTemperature {
			return core.Errorf(core.ErrInvalidRequest, "temperature must be in [0, %g], got %g", MaxTemperature, t)
		}
	}
	if s.TopP != nil {
		if p := *s.TopP; p <= 0 || p > MaxTopP {
			return core.Errorf(core.ErrInvalidRequest, "top_p must be in (0, %g], got %g", MaxTopP, p)
		}
	}
	return nil
}

func (s Sampling) String() string {
	switch {
	case s.Temperature != nil && s.TopP != nil:
		return fmt.Sprintf("temperature=%g,top_p=%g", *s.Temperature, *s.TopP)
	case s.Temperature != nil:
		return fmt.Sprintf("temperature=%g", *s.Temperature)
	case s.TopP != nil:
		return fmt.Sprintf("top_p=%g", *s.TopP)
	default:
		return "default"
	}
}
