package di

import (
	"go.uber.org/zap"

	"consultorio-backend/application/commands/handlers"
	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	appsync "consultorio-backend/application/sync"
	"consultorio-backend/application/transfer"
	"consultorio-backend/infrastructure/config"
	"consultorio-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	SessionID SessionID
	Cache     ports.SnapshotCache
	Snapshots *session.Store
	Remote    ports.RemoteStore
	Feed      ports.ChangeFeed
	Sync      *appsync.Engine
	Handlers  *handlers.Set
	Transfer  *transfer.Service
	Metrics   *observability.Collector
}
