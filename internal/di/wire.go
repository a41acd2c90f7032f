//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/internal/usecase"
	"StockPulse/pkg/config"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	ProvideRecorder,
	ProvideMetrics,
	ProvideEmitter,
	ProvideBlobBackend,
	ProvideBlobStore,
	ProvideKafkaProducer,
	ProvideEventBus,
)

var ingestSet = wire.NewSet(
	ProvideDeduplicator,
	ProvideIngestHandler,
)

var analyzeSet = wire.NewSet(
	ProvideAnalysisTable,
	ProvideClickHouseClient,
	ProvideRecordStore,
	ProvideCompletionClient,
	ProvideEnricher,
	ProvideAnalyzeHandler,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config, log *logger.Logger) (*server.App, func(), error) {
	wire.Build(
		coreSet,
		ingestSet,
		analyzeSet,
		ProvideKafkaConsumer,
		ProvideMessageHandlers,
		ProvideHealthChecks,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeIngest builds only what a one-off ingest needs.
func InitializeIngest(cfg *config.Config, log *logger.Logger) (*usecase.IngestHandler, func(), error) {
	wire.Build(coreSet, ingestSet)
	return nil, nil, nil
}

// InitializeAnalyze builds only what a one-off analysis needs.
func InitializeAnalyze(cfg *config.Config, log *logger.Logger) (*usecase.AnalyzeHandler, func(), error) {
	wire.Build(coreSet, analyzeSet)
	return nil, nil, nil
}
