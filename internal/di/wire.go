//go:build wireinject
// +build wireinject

package di

import (
	"AstroCarto/pkg/config"
	"AstroCarto/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideResultCache,

		// Repositories
		ProvideArchive,
		ProvidePublisher,

		// Compute pipeline
		ProvidePositionProvider,
		ProvideAssembler,
		ProvideEngine,
		ProvideCachedEngine,

		// HTTP surface
		ProvideLinesHandler,
		ProvideLiveHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
