//go:build wireinject
// +build wireinject

package di

import (
	"SerialScope/pkg/config"
	"SerialScope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Core state
		ProvideRegistry,
		ProvideStore,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideJobQueue,

		// Sinks and ingestion
		ProvideSinkPipeline,
		ProvideIngestor,
		ProvideLineTransport,
		ProvideStreamPump,
		ProvideKafkaLinesHandler,

		// Read side
		ProvideRenderSelector,
		ProvideStatsUseCase,
		ProvideLiveHub,
		ProvideScopeHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
