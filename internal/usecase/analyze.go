package usecase

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/indicators"
	"StockPulse/pkg/logger"
)

const runIDLayout = "2006-01-02T15:04:05.000000"

// Enricher turns computed metrics into a narrative analysis.
type Enricher interface {
	Enrich(ctx context.Context, data []models.SymbolData, facts models.AggregateFacts, lg *logger.Logger) (models.AnalysisResult, error)
}

// AnalyzeConfig names the output table and event source of the analyze stage.
type AnalyzeConfig struct {
	Table  string
	Source string
}

// AnalyzeHandler reads one processed partition, computes per-symbol and
// cross-symbol facts, enriches them and persists a combined record.
type AnalyzeHandler struct {
	store    drepo.BlobStore
	records  drepo.RecordStore
	enricher Enricher
	bus      drepo.EventBus
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      AnalyzeConfig
	now      func() time.Time
}

func NewAnalyzeHandler(
	store drepo.BlobStore,
	records drepo.RecordStore,
	enricher Enricher,
	bus drepo.EventBus,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg AnalyzeConfig,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		store:    store,
		records:  records,
		enricher: enricher,
		bus:      bus,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (h *AnalyzeHandler) Handle(ctx context.Context, detail models.IngestCompleted) (models.AnalyzeSummary, error) {
	corr := correlationID(ctx)
	ctx = logger.ContextWithCorrelationID(ctx, corr)
	now := h.now().UTC()
	sum := models.AnalyzeSummary{CorrelationID: corr, RunID: "RUN#" + now.Format(runIDLayout)}
	lg := h.log.WithCorrelationID(corr).With(logger.String("stage", "analyze"), logger.String("run_id", sum.RunID))
	start := time.Now()

	lg.Info("analysis started", logger.String("bucket", detail.Bucket.Name), logger.String("key", detail.Key))
	rec, err := h.analyze(ctx, lg, detail, sum.RunID, corr, now)
	h.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("analyze")
		lg.Error("analysis failed", logger.String("key", detail.Key), logger.Error(err))
		return sum, err
	}
	sum.Symbols = len(rec.SymbolsAnalyzed)
	lg.Info("analysis completed", logger.Int("symbols", sum.Symbols))
	return sum, nil
}

func (h *AnalyzeHandler) analyze(ctx context.Context, lg *logger.Logger, detail models.IngestCompleted, runID, corr string, now time.Time) (*models.CombinedRecord, error) {
	raw, err := h.store.Get(ctx, detail.Bucket.Name, detail.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", models.ErrStorage, detail.Key, err)
	}
	data, err := GroupBySymbol(raw)
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", detail.Key, err)
	}
	lg.Info("loaded partition", logger.Int("symbols", len(data)))

	ComputeAll(data, lg)
	facts := indicators.Aggregate(data)

	result, err := h.enricher.Enrich(ctx, data, facts, lg)
	if err != nil {
		h.metrics.RecordError("enrichment")
		return nil, err
	}

	rec := combine(runID, corr, now, data, facts, result, detail)
	if err := h.records.PutItem(ctx, h.cfg.Table, rec); err != nil {
		return nil, fmt.Errorf("persist %s: %w", runID, err)
	}
	lg.Info("stored analysis", logger.String("table", h.cfg.Table))

	// The stored record is the durable output; a lost notification is logged
	// and counted rather than failing a run that already persisted.
	done := models.AnalysisCompleted{
		AnalysisID:    rec.AnalysisID,
		KeyAnomalies:  rec.KeyAnomalies,
		RowCounts:     rec.RowCounts,
		CorrelationID: corr,
	}
	if err := h.bus.Publish(ctx, h.cfg.Source, models.DetailAnalysisCompleted, done); err != nil {
		h.metrics.RecordError("publish")
		lg.Error("publish analysis event", logger.Error(err))
	}
	return rec, nil
}

// GroupBySymbol decodes a JSON lines partition into per-symbol series. Symbols
// keep first-seen order and each series is sorted newest first.
func GroupBySymbol(raw []byte) ([]models.SymbolData, error) {
	var (
		data  []models.SymbolData
		index = map[string]int{}
	)

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var r models.Record
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		sym := r.Symbol
		if sym == "" {
			sym = "unknown"
		}
		i, ok := index[sym]
		if !ok {
			i = len(data)
			index[sym] = i
			data = append(data, models.SymbolData{Symbol: sym})
		}
		data[i].Series = append(data[i].Series, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i := range data {
		s := data[i].Series
		sort.SliceStable(s, func(a, b int) bool { return s[a].Datetime > s[b].Datetime })
	}
	return data, nil
}

// ComputeAll fills in Metrics for every symbol concurrently and returns once
// all are done.
func ComputeAll(data []models.SymbolData, lg *logger.Logger) {
	var wg sync.WaitGroup
	for i := range data {
		wg.Add(1)
		go func(d *models.SymbolData) {
			defer wg.Done()
			d.Metrics = indicators.Compute(d.Series, lg.With(logger.String("symbol", d.Symbol)))
		}(&data[i])
	}
	wg.Wait()
}

func combine(
	runID, corr string,
	now time.Time,
	data []models.SymbolData,
	facts models.AggregateFacts,
	result models.AnalysisResult,
	detail models.IngestCompleted,
) *models.CombinedRecord {
	rec := &models.CombinedRecord{
		AnalysisID:       runID,
		SymbolsAnalyzed:  make([]string, 0, len(data)),
		Insights:         make(map[string]models.SymbolInsight, len(result.Symbols)),
		Aggregates:       append([]string{}, facts...),
		ExecutiveSummary: result.ExecutiveSummary,
		KeyAnomalies:     map[string]string{},
		RowCounts: models.RowCounts{
			Raw:       detail.ValidCount + detail.InvalidCount,
			Processed: detail.ValidCount,
			Rejected:  detail.InvalidCount,
		},
		ProcessedAt:   now,
		CorrelationID: corr,
	}
	for _, d := range data {
		rec.SymbolsAnalyzed = append(rec.SymbolsAnalyzed, d.Symbol)
		a, ok := result.Symbols[d.Symbol]
		if !ok {
			continue
		}
		rec.Insights[d.Symbol] = models.NewInsight(a, d.Metrics)
		if a.KeyAnomaly != "" && a.KeyAnomaly != models.NoAnomaly {
			rec.KeyAnomalies[d.Symbol] = a.KeyAnomaly
		}
	}
	return rec
}
