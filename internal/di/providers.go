package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/repository"
	dsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/handler/api"
	internalrepo "StockPulse/internal/repository"
	"StockPulse/internal/service/llm"
	"StockPulse/internal/services/dedup"
	"StockPulse/internal/services/enrichment"
	"StockPulse/internal/usecase"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/objectstore"
	"StockPulse/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger builds the root logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&cfg.Log)
}

// ProvideRecorder registers pipeline metrics on the default registry, which is
// also where the Kafka client metrics live.
func ProvideRecorder(cfg *config.Config) *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer, cfg.Metrics.Namespace)
}

func ProvideMetrics(r *metrics.Recorder) repository.Metrics { return r }

func ProvideEmitter(r *metrics.Recorder) repository.MetricEmitter { return r }

// BlobBackend is the configured store plus its health probe.
type BlobBackend struct {
	Store  repository.BlobStore
	Health api.HealthCheck
}

// ProvideBlobBackend selects the blob store named by storage.backend.
func ProvideBlobBackend(cfg *config.Config) (*BlobBackend, func(), error) {
	ok := func(context.Context) error { return nil }
	switch cfg.Storage.Backend {
	case "fs":
		s, err := objectstore.NewFileStore(cfg.Storage.Root)
		if err != nil {
			return nil, nil, fmt.Errorf("file store: %w", err)
		}
		return &BlobBackend{Store: s, Health: ok}, func() {}, nil
	case "memory":
		return &BlobBackend{Store: objectstore.NewMemoryStore(), Health: ok}, func() {}, nil
	default:
		r := cfg.Storage.Redis
		s, err := objectstore.NewRedisStore(
			objectstore.WithRedisHost(r.Host),
			objectstore.WithRedisPort(r.Port),
			objectstore.WithRedisPassword(r.Password),
			objectstore.WithRedisDB(r.DB),
			objectstore.WithRedisPrefix(r.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		return &BlobBackend{Store: s, Health: s.Health}, func() { _ = s.Close() }, nil
	}
}

func ProvideBlobStore(b *BlobBackend) repository.BlobStore {
	return internalrepo.NewBlobStore(b.Store)
}

func ProvideDeduplicator(store repository.BlobStore, cfg *config.Config) *dedup.Deduplicator {
	return dedup.New(store, cfg.Pipeline.HashesPrefix)
}

// AnalysisTable is the database-qualified table for combined records.
type AnalysisTable string

func ProvideAnalysisTable(cfg *config.Config) AnalysisTable {
	return AnalysisTable(cfg.ClickHouse.Database + "." + cfg.Pipeline.AnalysisTable)
}

// ProvideClickHouseClient connects and creates the analysis table.
func ProvideClickHouseClient(cfg *config.Config, table AnalysisTable) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ddl, err := internalrepo.Schema(string(table))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx,
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
		ddl,
	); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, func() { _ = client.Close() }, nil
}

func ProvideRecordStore(client *pkgch.Client) repository.RecordStore {
	return internalrepo.NewClickHouseRecordStore(client.DB())
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Producer, func(), error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithProducerLogger(log),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, func() { _ = producer.Close() }, nil
}

func ProvideEventBus(producer *pkgkafka.Producer, cfg *config.Config) repository.EventBus {
	return internalrepo.NewKafkaEventBus(producer, cfg.Kafka.EventsTopic)
}

// ProvideCompletionClient builds the chat model for the configured provider.
func ProvideCompletionClient(cfg *config.Config) (dsvc.CompletionClient, error) {
	e := cfg.Enrichment
	return llm.New(context.Background(), llm.Config{
		Provider:  e.Provider,
		BaseURL:   e.BaseURL,
		APIKey:    e.APIKey,
		Model:     e.Model,
		MaxTokens: e.MaxTokens,
	})
}

func ProvideEnricher(client dsvc.CompletionClient, emitter repository.MetricEmitter, cfg *config.Config) usecase.Enricher {
	e := cfg.Enrichment
	return enrichment.New(client, emitter,
		enrichment.WithRetry(e.MaxAttempts, e.BaseDelay),
		enrichment.WithAttemptTimeout(e.Timeout),
		enrichment.WithGeneration(e.MaxTokens, e.Temperature),
		enrichment.WithFallback(e.Fallback),
		enrichment.WithMetricNamespace(cfg.Metrics.Namespace),
	)
}

func ProvideIngestHandler(
	store repository.BlobStore,
	dd *dedup.Deduplicator,
	bus repository.EventBus,
	emitter repository.MetricEmitter,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.IngestHandler {
	p := cfg.Pipeline
	return usecase.NewIngestHandler(store, dd, bus, emitter, m, log, usecase.IngestConfig{
		InputPrefix:     p.InputPrefix,
		ProcessedPrefix: p.ProcessedPrefix,
		RejectsPrefix:   p.RejectsPrefix,
		Source:          p.EventSource,
		MetricNamespace: cfg.Metrics.Namespace,
	})
}

func ProvideAnalyzeHandler(
	store repository.BlobStore,
	records repository.RecordStore,
	enricher usecase.Enricher,
	bus repository.EventBus,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
	table AnalysisTable,
) *usecase.AnalyzeHandler {
	return usecase.NewAnalyzeHandler(store, records, enricher, bus, m, log, usecase.AnalyzeConfig{
		Table:  string(table),
		Source: cfg.Pipeline.AnalyzerSource,
	})
}

// ProvideKafkaConsumer creates the trigger consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
	c := cfg.Kafka.Consumer
	if !c.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithHook(pkgkafka.NewHookChain(pkgkafka.CorrelationHook{}, pkgkafka.LoggingHook{Log: log}))
	return consumer, nil
}

// ProvideMessageHandlers routes object notifications to ingest and the shared
// events topic to analyze.
func ProvideMessageHandlers(
	cfg *config.Config,
	ingest *usecase.IngestHandler,
	analyze *usecase.AnalyzeHandler,
	log *logger.Logger,
) []pkgkafka.MessageHandler {
	return []pkgkafka.MessageHandler{
		usecase.NewObjectCreatedConsumer(cfg.Kafka.ObjectsTopic, ingest),
		usecase.NewIngestCompletedConsumer(cfg.Kafka.EventsTopic, analyze, log),
	}
}

func ProvideHealthChecks(blob *BlobBackend, ch *pkgch.Client) map[string]api.HealthCheck {
	return map[string]api.HealthCheck{
		"storage":    blob.Health,
		"clickhouse": ch.Health,
	}
}

func ProvideHTTPHandler(
	log *logger.Logger,
	ingest *usecase.IngestHandler,
	analyze *usecase.AnalyzeHandler,
	checks map[string]api.HealthCheck,
) xhttp.Handler {
	return api.NewPipelineHandler(log, ingest, analyze, checks)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, log *logger.Logger) *xhttp.Server {
	s := cfg.Server
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, prometheus.DefaultGatherer),
		xhttp.WithRateLimit(s.RateCapacity, s.RatePerSecond),
		xhttp.WithLogger(log),
	)
}

func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, log, consumer, handlers, httpServer)
}
