//go:build wireinject
// +build wireinject

package di

import (
	"MarketHeat/pkg/config"
	"MarketHeat/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Engine
		ProvideEngineConfig,
		ProvideEngine,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,

		// Repositories
		ProvideTableStore,
		ProvideSnapshotCache,
		ProvidePublisher,
		ProvideSeriesSource,

		// Use cases
		ProvideRecompute,

		// Serving
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
