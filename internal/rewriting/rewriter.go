package rewriting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/generative-proxy/internal/llm"
	"github.com/jonathan/generative-proxy/internal/logging"
	"github.com/jonathan/generative-proxy/internal/types"
)

// DefaultAttemptTimeout bounds one provider attempt when no timeout is configured.
const DefaultAttemptTimeout = 20 * time.Second

// Attempt outcomes reported to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// Observer receives per-attempt measurements.
type Observer interface {
	ObserveAttempt(provider, outcome string, elapsed time.Duration)
	ObserveFragments(n int)
}

// GenerationRequest is one batch of fragments to rewrite, in document order.
type GenerationRequest struct {
	MainPrompt  string
	Personality types.Personality
	Items       []string
}

// Outcome records one provider attempt.
type Outcome struct {
	Provider string
	Model    string
	Success  bool
	Err      error
}

// BatchResult is the result of RewriteBatch. Texts always has one entry per request item;
// when every provider failed it holds the originals.
type BatchResult struct {
	Texts     []string
	Rewritten bool
	Errors    []string
	Outcomes  []Outcome
	Winner    *Outcome
}

// Rewriter walks the provider chain for one batch at a time.
type Rewriter struct {
	chain    *llm.Chain
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithAttemptTimeout sets the per-attempt deadline.
func WithAttemptTimeout(d time.Duration) Option {
	return func(r *Rewriter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(r *Rewriter) {
		r.observer = o
	}
}

// NewRewriter creates a Rewriter over chain. A nil or empty chain is allowed; every batch
// then reports NoProviderMessage.
func NewRewriter(chain *llm.Chain, opts ...Option) *Rewriter {
	r := &Rewriter{
		chain:   chain,
		timeout: DefaultAttemptTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RewriteBatch sends req.Items to the first backend that returns a valid batch. Backends
// are tried strictly in order, each under its own deadline. It never fails: errors are
// labelled "<provider>: <message>" and returned with the original items.
func (r *Rewriter) RewriteBatch(ctx context.Context, req GenerationRequest) BatchResult {
	result := BatchResult{Texts: req.Items}
	if len(req.Items) == 0 {
		return result
	}
	if r.observer != nil {
		r.observer.ObserveFragments(len(req.Items))
	}

	backends := r.chain.Backends()
	if len(backends) == 0 {
		result.Errors = append(result.Errors, NoProviderMessage)
		return result
	}

	count := len(req.Items)
	systemPrompt := BuildBatchSystemPrompt(req.MainPrompt, req.Personality, count)
	payload, err := BuildPayload(req.Items)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	maxTokens := TokenBudget(count)

	for _, backend := range backends {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", backend.Name, ctx.Err()))
			break
		}

		texts, outcome := r.attempt(ctx, backend, systemPrompt, payload, maxTokens, count)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Success {
			winner := outcome
			result.Winner = &winner
			result.Texts = texts
			result.Rewritten = true
			return result
		}
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", backend.Name, outcome.Err))
	}

	return result
}

func (r *Rewriter) attempt(ctx context.Context, backend llm.Backend, systemPrompt, payload string, maxTokens, count int) ([]string, Outcome) {
	outcome := Outcome{Provider: backend.Name, Model: backend.Model}

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := backend.Provider.Generate(attemptCtx, systemPrompt, payload, maxTokens)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Warn("provider call failed", "provider", backend.Name, "elapsed", elapsed, "error", err)
		r.observe(backend.Name, OutcomeError, elapsed)
		outcome.Err = err
		return nil, outcome
	}

	texts, err := ParseBatchResponse(raw, count)
	if err != nil {
		r.logger.Warn("provider returned unusable batch", "provider", backend.Name, "raw_len", len(raw), "error", err)
		r.observe(backend.Name, OutcomeInvalid, elapsed)
		outcome.Err = err
		return nil, outcome
	}

	r.observe(backend.Name, OutcomeSuccess, elapsed)
	outcome.Success = true
	return texts, outcome
}

func (r *Rewriter) observe(provider, outcome string, elapsed time.Duration) {
	if r.observer != nil {
		r.observer.ObserveAttempt(provider, outcome, elapsed)
	}
}
