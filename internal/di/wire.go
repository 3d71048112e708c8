//go:build wireinject
// +build wireinject

package di

import (
	"TradeSage/pkg/config"
	"TradeSage/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideCandleStore,
		ProvideSignalStore,
		ProvideTickPublisher,
		ProvideNotifier,
		ProvideStream,
		ProvideMarketData,

		// Domain services
		ProvideModel,
		ProvideIndicatorEngine,

		// Use cases
		ProvideDecisionEngine,
		ProvideDispatcher,
		ProvidePredictUseCase,
		ProvideCandlesUseCase,
		ProvideSignalsUseCase,
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,
		ProvideRedisQueue,
		ProvideScanner,

		// HTTP
		ProvidePredictHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
