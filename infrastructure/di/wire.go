//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"consultorio-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideSessionID,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideStreamsClient,
	ProvideMetrics,
	ProvideFileStore,
	ProvideSnapshotCache,
	ProvideSessionStore,
	ProvideRemoteStore,
	ProvideChangeFeed,
	ProvideSyncEngine,
	ProvideSyncOutbox,
	ProvidePatientValidator,
	ProvideHandlerSet,
	ProvideTransferService,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
