package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/dedup"
	"StockPulse/internal/services/validation"
	"StockPulse/pkg/logger"

	"github.com/google/uuid"
)

const partitionTimeLayout = "20060102_150405"

// IngestConfig names the key layout and event source of the ingest stage.
type IngestConfig struct {
	InputPrefix     string
	ProcessedPrefix string
	RejectsPrefix   string
	Source          string
	MetricNamespace string
}

// IngestHandler validates one raw batch into processed and rejected
// partitions and announces the processed partition on the bus.
type IngestHandler struct {
	store   drepo.BlobStore
	dedup   *dedup.Deduplicator
	bus     drepo.EventBus
	emitter drepo.MetricEmitter
	metrics drepo.Metrics
	log     *logger.Logger
	cfg     IngestConfig
	now     func() time.Time
}

func NewIngestHandler(
	store drepo.BlobStore,
	dd *dedup.Deduplicator,
	bus drepo.EventBus,
	emitter drepo.MetricEmitter,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg IngestConfig,
) *IngestHandler {
	return &IngestHandler{
		store:   store,
		dedup:   dd,
		bus:     bus,
		emitter: emitter,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Handle runs one ingest. Keys outside the input prefix and batches whose
// fingerprint already has a marker return a zero-count summary and no error.
func (h *IngestHandler) Handle(ctx context.Context, ev models.ObjectCreated) (models.IngestSummary, error) {
	corr := correlationID(ctx)
	ctx = logger.ContextWithCorrelationID(ctx, corr)
	lg := h.log.WithCorrelationID(corr).With(logger.String("stage", "ingest"))
	start := time.Now()

	key := ev.Key
	if unq, err := url.QueryUnescape(key); err == nil {
		key = unq
	}
	sum := models.IngestSummary{CorrelationID: corr}
	lg.Info("ingest started", logger.String("bucket", ev.Bucket), logger.String("key", key))

	if !strings.HasPrefix(key, h.cfg.InputPrefix) {
		lg.Info("object outside input prefix, skipping", logger.String("key", key))
		sum.Message = fmt.Sprintf("File %s ignored", key)
		return sum, nil
	}

	sum, err := h.ingest(ctx, lg, ev.Bucket, key, sum)
	h.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("ingest")
		lg.Error("ingest failed", logger.String("key", key), logger.Error(err))
		return sum, err
	}
	return sum, nil
}

func (h *IngestHandler) ingest(ctx context.Context, lg *logger.Logger, bucket, key string, sum models.IngestSummary) (models.IngestSummary, error) {
	fp, err := h.dedup.Fingerprint(ctx, bucket, key)
	if err != nil {
		return sum, err
	}
	done, err := h.dedup.IsProcessed(ctx, bucket, fp)
	if err != nil {
		return sum, err
	}
	if done {
		lg.Info("batch already processed, skipping", logger.String("key", key), logger.String("etag", fp))
		sum.Message = fmt.Sprintf("File %s with ETag %s already processed", key, fp)
		sum.Duplicate = true
		return sum, nil
	}

	raw, err := h.store.Get(ctx, bucket, key)
	if err != nil {
		return sum, fmt.Errorf("%w: read %s: %w", models.ErrStorage, key, err)
	}
	batch, err := validation.DecodeBatch(raw)
	if err != nil {
		return sum, fmt.Errorf("batch %s: %w", key, err)
	}

	parts := validation.ProcessBatch(batch, lg)
	sum.ValidCount, sum.InvalidCount = len(parts.Valid), len(parts.Invalid)
	h.metrics.RecordRecords("valid", sum.ValidCount)
	h.metrics.RecordRecords("invalid", sum.InvalidCount)

	filename := path.Base(key)
	stamp := h.now().UTC().Format(partitionTimeLayout)
	if sum.ProcessedKey, err = h.writePartition(ctx, lg, bucket, h.cfg.ProcessedPrefix, filename, stamp, parts.Valid); err != nil {
		return sum, err
	}
	if sum.RejectsKey, err = h.writePartition(ctx, lg, bucket, h.cfg.RejectsPrefix, filename, stamp, parts.Invalid); err != nil {
		return sum, err
	}

	h.emitRejected(lg, sum.ValidCount, sum.InvalidCount)

	// The marker goes last so a failed publish replays the whole batch.
	marker := h.dedup.MarkerKey(fp)
	if sum.ProcessedKey != "" {
		detail := models.IngestCompleted{
			Bucket:          models.BucketRef{Name: bucket},
			Key:             sum.ProcessedKey,
			ValidCount:      sum.ValidCount,
			InvalidCount:    sum.InvalidCount,
			RawCount:        parts.Raw(),
			Filename:        filename,
			ProcessedMarker: marker,
		}
		if err := h.bus.Publish(ctx, h.cfg.Source, models.DetailIngestorCompleted, detail); err != nil {
			return sum, err
		}
		lg.Info("published ingest event", logger.String("key", sum.ProcessedKey))
	}

	if _, err := h.dedup.MarkProcessed(ctx, bucket, fp, key, sum.CorrelationID); err != nil {
		return sum, err
	}
	lg.Info("created marker", logger.String("marker", marker))

	lg.Info("ingest completed", logger.Int("valid", sum.ValidCount), logger.Int("invalid", sum.InvalidCount))
	return sum, nil
}

// writePartition stores records as JSON lines; an empty partition is skipped
// and yields an empty key.
func (h *IngestHandler) writePartition(ctx context.Context, lg *logger.Logger, bucket, prefix, filename, stamp string, records []models.RawRecord) (string, error) {
	if len(records) == 0 {
		lg.Info("no records to write", logger.String("prefix", prefix))
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return "", fmt.Errorf("encode record: %w", err)
		}
	}
	body := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	key := fmt.Sprintf("%s%s_%s.jsonl", prefix, filename, stamp)
	if err := h.store.Put(ctx, bucket, key, body); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", models.ErrStorage, key, err)
	}
	lg.Info("wrote partition", logger.String("key", key), logger.Int("records", len(records)))
	return key, nil
}

func (h *IngestHandler) emitRejected(lg *logger.Logger, valid, invalid int) {
	total := valid + invalid
	if total == 0 {
		return
	}
	pct := float64(invalid) / float64(total) * 100
	h.emitter.Emit(h.cfg.MetricNamespace, "RejectedPercentage", map[string]string{"Stage": "ingest"}, pct, "Percent")
	lg.Info("published rejected percentage", logger.Float64("rejected_pct", pct))
}

func correlationID(ctx context.Context) string {
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
