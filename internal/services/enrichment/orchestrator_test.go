package enrichment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/service"
	"StockPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	text string
	err  error
}

type scriptedClient struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
	tokens  int
	temp    float32
}

func (c *scriptedClient) Complete(_ context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	c.tokens, c.temp = maxTokens, temperature
	if len(c.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r.text, r.err
}

type countingEmitter struct {
	names []string
	units []string
}

func (e *countingEmitter) Emit(_, name string, _ map[string]string, _ float64, unit string) {
	e.names = append(e.names, name)
	e.units = append(e.units, unit)
}

type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

const goodReply = "```json\n" + `{
  "executive_summary": "Tech names held up.",
  "symbols": {
    "AAPL": {"summary": "s", "opportunities": "o", "risks": "r", "key_anomaly": "None"}
  }
}` + "\n```"

func runData() []models.SymbolData {
	mom := 3.5
	return []models.SymbolData{{
		Symbol: "AAPL",
		Series: []models.Record{{Symbol: "AAPL", Datetime: "2025-06-27", Close: "201.08", Volume: "73188600"}},
		Metrics: models.Metrics{
			Trend: models.TrendUp, Momentum: &mom, Volatility: 1.25, PercentChange: 0.4,
			AvgVolume: 50000000, Anomalies: []string{"Unusual trading volume on 2025-06-27"},
		},
	}}
}

func newOrchestrator(c service.CompletionClient, e *countingEmitter, s *recordingSleeper, opts ...Option) *Orchestrator {
	opts = append([]Option{WithSleeper(s), WithRetry(3, time.Second)}, opts...)
	return New(c, e, opts...)
}

func TestEnrichSucceedsFirstAttempt(t *testing.T) {
	client := &scriptedClient{replies: []reply{{text: goodReply}}}
	emitter, sleeper := &countingEmitter{}, &recordingSleeper{}

	res, err := newOrchestrator(client, emitter, sleeper).Enrich(context.Background(), runData(), models.AggregateFacts{"fact one"}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "Tech names held up.", res.ExecutiveSummary)
	assert.Equal(t, "None", res.Symbols["AAPL"].KeyAnomaly)
	assert.Empty(t, sleeper.delays)
	assert.Empty(t, emitter.names)
	assert.Equal(t, 3000, client.tokens)
	assert.InDelta(t, 0.3, client.temp, 1e-6)
}

func TestEnrichRetriesWithDoublingDelay(t *testing.T) {
	client := &scriptedClient{replies: []reply{
		{err: errors.New("throttled")},
		{text: "not json"},
		{text: goodReply},
	}}
	emitter, sleeper := &countingEmitter{}, &recordingSleeper{}

	res, err := newOrchestrator(client, emitter, sleeper).Enrich(context.Background(), runData(), nil, logger.Nop())
	require.NoError(t, err)
	assert.Contains(t, res.Symbols, "AAPL")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
	assert.Len(t, client.prompts, 3)
}

func TestEnrichRejectsHallucinatedSymbols(t *testing.T) {
	bad := `{"executive_summary":"x","symbols":{"AAPL":{"summary":"s","opportunities":"o","risks":"r","key_anomaly":"None"},"ZZZZ":{"summary":"s","opportunities":"o","risks":"r","key_anomaly":"None"}}}`
	client := &scriptedClient{replies: []reply{{text: bad}, {text: bad}, {text: bad}}}
	emitter, sleeper := &countingEmitter{}, &recordingSleeper{}

	_, err := newOrchestrator(client, emitter, sleeper).Enrich(context.Background(), runData(), nil, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEnrichmentExhausted))
	assert.True(t, errors.Is(err, models.ErrEnrichmentRetryable))
	assert.Contains(t, err.Error(), "unexpected symbol ZZZZ")
	assert.Equal(t, []string{FailureMetric}, emitter.names)
	assert.Equal(t, []string{"Count"}, emitter.units)
	assert.Len(t, sleeper.delays, 2)
}

func TestEnrichTemplateFallback(t *testing.T) {
	client := &scriptedClient{}
	emitter, sleeper := &countingEmitter{}, &recordingSleeper{}

	res, err := newOrchestrator(client, emitter, sleeper, WithFallback(FallbackTemplate)).
		Enrich(context.Background(), runData(), nil, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, templateSummary, res.ExecutiveSummary)
	a := res.Symbols["AAPL"]
	assert.Equal(t, "Analysis for AAPL indicates up trend with 1 anomalies.", a.Summary)
	assert.Equal(t, "Monitor AAPL for up continuation opportunities.", a.Opportunities)
	assert.Equal(t, "Be cautious of volatility in AAPL at 1.25.", a.Risks)
	assert.Equal(t, "Unusual trading volume on 2025-06-27", a.KeyAnomaly)
	assert.Equal(t, []string{FailureMetric}, emitter.names)
}

func TestEnrichCancelledBackoffIsExhausted(t *testing.T) {
	client := &scriptedClient{replies: []reply{{err: errors.New("throttled")}}}
	emitter := &countingEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	sleeper := SleeperFunc(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	})

	o := New(client, emitter, WithSleeper(sleeper), WithRetry(5, time.Second))
	_, err := o.Enrich(ctx, runData(), nil, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEnrichmentExhausted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, client.prompts, 1)
	assert.Equal(t, []string{FailureMetric}, emitter.names)
}

func TestDecode(t *testing.T) {
	allowed := map[string]struct{}{"AAPL": {}}

	tests := []struct {
		name   string
		text   string
		reason string
	}{
		{"not json", "hello", "invalid character"},
		{"missing summary", `{"symbols":{}}`, "missing executive_summary"},
		{"blank summary", `{"executive_summary":"  ","symbols":{}}`, "missing executive_summary"},
		{"missing symbols", `{"executive_summary":"x"}`, "missing symbols object"},
		{"symbols not a map", `{"executive_summary":"x","symbols":[]}`, "cannot unmarshal array"},
		{"missing sub-field", `{"executive_summary":"x","symbols":{"AAPL":{"summary":"s","risks":"r","key_anomaly":"None"}}}`, "missing required keys in AAPL"},
		{"null symbol", `{"executive_summary":"x","symbols":{"AAPL":null}}`, "missing required keys in AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text, allowed)
			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Contains(t, de.Reason, tt.reason)
		})
	}
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFence("```\n{\"a\":1}\n```  "))
	assert.Equal(t, `{"a":1}`, StripFence(`  {"a":1}`))
	assert.Equal(t, `{"a":1}`, StripFence("```json {\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripFence("```{\"a\":1}```"))
}

func TestBuildPromptBoundsRecentPoints(t *testing.T) {
	d := runData()[0]
	d.Series = nil
	for i := 0; i < 8; i++ {
		d.Series = append(d.Series, models.Record{Datetime: "2025-06-2" + string(rune('0'+i)), Close: "10", Volume: "2000000"})
	}
	d.Metrics.Momentum = nil
	d.Metrics.Anomalies = nil

	p := BuildPrompt([]models.SymbolData{d}, models.AggregateFacts{"Average trading volume across 1 stocks was 2.00M shares."})

	assert.Contains(t, p, "Average trading volume across 1 stocks was 2.00M shares.")
	assert.Contains(t, p, "--- AAPL ---")
	assert.Contains(t, p, "Momentum over last 5 days: Insufficient data")
	assert.Contains(t, p, "Detected anomalies: None")
	assert.Contains(t, p, "Volume context: latest 2.00M vs 50.00M avg")
	assert.Equal(t, MaxRecentPoints, strings.Count(p, "10.00 ("))
}
