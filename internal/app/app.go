package app

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/newthinker/llmlab/internal/config"
	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/llm"
	"github.com/newthinker/llmlab/internal/tokenizer"
	"github.com/newthinker/llmlab/internal/tracking"
	"github.com/newthinker/llmlab/internal/usage"
	"go.uber.org/zap"
)

// TokenizerFactory resolves the tokenizer for a model.
type TokenizerFactory func(model string) (*tokenizer.Tokenizer, error)

// App is the main application orchestrator. It times every client call,
// reports it to the sinks and applies the configured per-call deadline.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	client       llm.Client
	sinks        *tracking.Multi
	newTokenizer TokenizerFactory
	runID        string

	mu         sync.Mutex
	tokenizers map[string]*tokenizer.Tokenizer
}

// Option customizes an App.
type Option func(*App)

// WithTokenizerFactory replaces the tiktoken-backed tokenizer lookup.
func WithTokenizerFactory(f TokenizerFactory) Option {
	return func(a *App) { a.newTokenizer = f }
}

// WithRunID groups all records of this App under id instead of a fresh uuid.
func WithRunID(id string) Option {
	return func(a *App) { a.runID = id }
}

// New creates a new App instance
func New(cfg *config.Config, client llm.Client, sinks *tracking.Multi, logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sinks == nil {
		sinks, _ = tracking.NewMulti()
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		sinks:      sinks,
		runID:      uuid.NewString(),
		tokenizers: make(map[string]*tokenizer.Tokenizer),
	}
	a.newTokenizer = func(model string) (*tokenizer.Tokenizer, error) {
		return tokenizer.New(model, cfg.Tokenizer.Encoding)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunID identifies the records produced by this App.
func (a *App) RunID() string {
	return a.runID
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) tokenizer(model string) (*tokenizer.Tokenizer, error) {
	if model == "" {
		model = a.cfg.LLM.CompletionModel
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if t, ok := a.tokenizers[model]; ok {
		return t, nil
	}
	t, err := a.newTokenizer(model)
	if err != nil {
		return nil, err
	}
	a.tokenizers[model] = t
	a.logger.Debug("tokenizer loaded", zap.String("model", model), zap.String("encoding", t.Encoding()))
	return t, nil
}

// Tokenize encodes text with the tokenizer of model, or of the completion
// model when model is empty.
func (a *App) Tokenize(model, text string) (tokenizer.TokenSequence, error) {
	t, err := a.tokenizer(model)
	if err != nil {
		return nil, err
	}
	return t.Encode(text)
}

// Detokenize decodes tokens with the tokenizer of model.
func (a *App) Detokenize(model string, tokens tokenizer.TokenSequence) (string, error) {
	t, err := a.tokenizer(model)
	if err != nil {
		return "", err
	}
	return t.Decode(tokens)
}

// Complete runs one completion call. An empty model selects the configured
// completion model.
func (a *App) Complete(ctx context.Context, req llm.GenerationRequest, model string) (*llm.GenerationResult, usage.Record, error) {
	if model == "" {
		model = a.cfg.LLM.CompletionModel
	}

	var result *llm.GenerationResult
	rec, err := a.track(ctx, usage.KindCompletion, model, req.Sampling, func(ctx context.Context) (usage.Result, error) {
		res, err := a.client.Generate(ctx, req, model)
		if err != nil {
			return nil, err
		}
		result = res
		return res, nil
	})
	if err != nil {
		return nil, usage.Record{}, err
	}
	return result, rec, nil
}

// Chat runs one chat call. An empty model selects the configured chat model.
func (a *App) Chat(ctx context.Context, conv []llm.Message, model string, sampling llm.Sampling) (*llm.ChatResult, usage.Record, error) {
	if model == "" {
		model = a.cfg.LLM.ChatModel
	}

	var result *llm.ChatResult
	rec, err := a.track(ctx, usage.KindChat, model, sampling, func(ctx context.Context) (usage.Result, error) {
		res, err := a.client.Chat(ctx, conv, model, sampling)
		if err != nil {
			return nil, err
		}
		result = res
		return res, nil
	})
	if err != nil {
		return nil, usage.Record{}, err
	}
	return result, rec, nil
}

// track runs call under the per-call deadline and reports the outcome. Sink
// failures are logged and never fail the call.
func (a *App) track(ctx context.Context, kind usage.Kind, model string, sampling llm.Sampling, call func(context.Context) (usage.Result, error)) (usage.Record, error) {
	if a.cfg.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.LLM.Timeout)
		defer cancel()
	}

	sw := usage.Start()
	res, err := call(ctx)
	elapsed := sw.Stop()

	if err != nil {
		err = asTransient(err)
		if sinkErr := a.sinks.RecordFailure(context.WithoutCancel(ctx), tracking.Failure{
			RunID: a.runID,
			Kind:  kind,
			Model: model,
			Err:   err,
		}); sinkErr != nil {
			a.logger.Warn("failed to record call failure", zap.Error(sinkErr))
		}
		return usage.Record{}, err
	}

	rec := usage.Report(res, elapsed)
	rec.RunID = a.runID
	rec.Sampling = sampling.String()
	if rec.Model == "" {
		rec.Model = model
	}

	if sinkErr := a.sinks.Record(context.WithoutCancel(ctx), rec); sinkErr != nil {
		a.logger.Warn("failed to record call",
			zap.String("id", rec.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(sinkErr),
		)
	}
	return rec, nil
}

// asTransient classifies a bare context error, as returned by clients that
// check the context before any I/O, as a transient network failure.
func asTransient(err error) error {
	if core.Code(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return core.WrapError(core.ErrTransientNetwork, err)
	}
	return err
}
