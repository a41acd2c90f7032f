// Package enrichment turns run metrics into narrative analysis through an
// external completion service, with bounded retry and a configurable
// fallback policy.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/domain/service"
	"StockPulse/pkg/logger"
)

// FailureMetric is emitted once per run that exhausts its attempts.
const FailureMetric = "EnrichmentFailures"

// Sleeper pauses between attempts. It returns early with ctx.Err() when the
// context ends.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Orchestrator runs the attempt loop for one analyze run at a time; it keeps
// no per-run state and is safe for concurrent use.
type Orchestrator struct {
	client      service.CompletionClient
	emitter     repository.MetricEmitter
	sleeper     Sleeper
	namespace   string
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
	maxTokens   int
	temperature float32
	fallback    string
}

type Option func(*Orchestrator)

func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleeper = s }
}

// WithRetry sets the attempt budget and the first backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(o *Orchestrator) {
		o.maxAttempts = maxAttempts
		o.baseDelay = baseDelay
	}
}

// WithAttemptTimeout bounds each completion call. Zero disables it.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

func WithGeneration(maxTokens int, temperature float32) Option {
	return func(o *Orchestrator) {
		o.maxTokens = maxTokens
		o.temperature = temperature
	}
}

// WithFallback selects FallbackFail or FallbackTemplate.
func WithFallback(policy string) Option {
	return func(o *Orchestrator) { o.fallback = policy }
}

func WithMetricNamespace(ns string) Option {
	return func(o *Orchestrator) { o.namespace = ns }
}

func New(client service.CompletionClient, emitter repository.MetricEmitter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		emitter:     emitter,
		sleeper:     timerSleeper{},
		namespace:   "stockpulse",
		maxAttempts: 3,
		baseDelay:   2 * time.Second,
		timeout:     60 * time.Second,
		maxTokens:   3000,
		temperature: 0.3,
		fallback:    FallbackFail,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}
	return o
}

// Enrich produces the analysis for a run. Each attempt either succeeds, or
// fails retryably and moves to the next attempt after a doubling delay. When
// the budget runs out, or ctx ends mid-retry, the run is exhausted: the
// failure metric is emitted and the fallback policy decides the outcome.
func (o *Orchestrator) Enrich(ctx context.Context, data []models.SymbolData, facts models.AggregateFacts, lg *logger.Logger) (models.AnalysisResult, error) {
	prompt := BuildPrompt(data, facts)
	allowed := make(map[string]struct{}, len(data))
	for _, d := range data {
		allowed[d.Symbol] = struct{}{}
	}

	delay := o.baseDelay
	var lastErr error
	for n := 1; ; n++ {
		res, err := o.attempt(ctx, prompt, allowed)
		if err == nil {
			lg.Info("enrichment completed", logger.Int("attempt", n), logger.Int("symbols", len(res.Symbols)))
			return res, nil
		}
		lastErr = err
		lg.Warn("enrichment attempt failed", logger.Int("attempt", n), logger.Int("max_attempts", o.maxAttempts), logger.Error(err))

		if n >= o.maxAttempts {
			break
		}
		if err := o.sleeper.Sleep(ctx, delay); err != nil {
			lastErr = fmt.Errorf("backoff interrupted: %w", err)
			break
		}
		delay *= 2
	}

	return o.exhausted(data, lastErr, lg)
}

func (o *Orchestrator) attempt(ctx context.Context, prompt string, allowed map[string]struct{}) (models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	text, err := o.client.Complete(callCtx, prompt, o.maxTokens, o.temperature)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: completion: %v", models.ErrEnrichmentRetryable, err)
	}
	res, err := Decode(text, allowed)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", models.ErrEnrichmentRetryable, err)
	}
	return res, nil
}

func (o *Orchestrator) exhausted(data []models.SymbolData, lastErr error, lg *logger.Logger) (models.AnalysisResult, error) {
	o.emitter.Emit(o.namespace, FailureMetric, map[string]string{"Stage": "analyze"}, 1, "Count")

	if o.fallback == FallbackTemplate {
		lg.Warn("enrichment exhausted, using template analysis", logger.Error(lastErr))
		return Template(data), nil
	}

	lg.Error("enrichment exhausted", logger.Int("attempts", o.maxAttempts), logger.Error(lastErr))
	if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
		return models.AnalysisResult{}, fmt.Errorf("%w: %w", models.ErrEnrichmentExhausted, lastErr)
	}
	return models.AnalysisResult{}, fmt.Errorf("%w after %d attempts: %w", models.ErrEnrichmentExhausted, o.maxAttempts, lastErr)
}
