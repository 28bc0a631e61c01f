package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsdynamodbstreams "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"consultorio-backend/application/commands/handlers"
	"consultorio-backend/application/ports"
	"consultorio-backend/application/session"
	appsync "consultorio-backend/application/sync"
	"consultorio-backend/application/transfer"
	"consultorio-backend/domain/core/validators"
	"consultorio-backend/infrastructure/config"
	"consultorio-backend/infrastructure/persistence/dynamodb"
	"consultorio-backend/infrastructure/persistence/localcache"
	"consultorio-backend/pkg/observability"
)

// SessionID tags every remote write of this process so the change feed can
// filter out its own echoes
type SessionID string

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideSessionID creates the origin tag for this process lifetime
func ProvideSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideStreamsClient creates a DynamoDB Streams client
func ProvideStreamsClient(awsCfg aws.Config) *awsdynamodbstreams.Client {
	return awsdynamodbstreams.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("consultorio")
}

// ProvideFileStore creates the local snapshot cache
func ProvideFileStore(cfg *config.Config, logger *zap.Logger) (*localcache.FileStore, error) {
	return localcache.NewFileStore(cfg.DataDir, logger)
}

// ProvideSnapshotCache exposes the file store through its port
func ProvideSnapshotCache(fs *localcache.FileStore) ports.SnapshotCache {
	return fs
}

// ProvideSessionStore creates the serialized snapshot owner
func ProvideSessionStore(cache ports.SnapshotCache, logger *zap.Logger) *session.Store {
	return session.NewStore(cache, logger)
}

// ProvideRemoteStore creates the DynamoDB remote store
func ProvideRemoteStore(
	client *awsdynamodb.Client,
	cfg *config.Config,
	sessionID SessionID,
	logger *zap.Logger,
) ports.RemoteStore {
	return dynamodb.NewStore(
		client,
		cfg.PatientsTable,
		cfg.AttendanceTable,
		cfg.PatientIndexName,
		string(sessionID),
		logger,
	)
}

// ProvideChangeFeed creates the DynamoDB Streams change feed
func ProvideChangeFeed(
	db *awsdynamodb.Client,
	streams *awsdynamodbstreams.Client,
	cfg *config.Config,
	logger *zap.Logger,
) ports.ChangeFeed {
	return dynamodb.NewStreamFeed(
		db,
		streams,
		[]string{cfg.PatientsTable, cfg.AttendanceTable},
		cfg.FeedPollInterval,
		logger,
	)
}

// ProvideSyncEngine creates the sync engine
func ProvideSyncEngine(
	remote ports.RemoteStore,
	feed ports.ChangeFeed,
	snapshots *session.Store,
	sessionID SessionID,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *appsync.Engine {
	return appsync.NewEngine(
		remote,
		feed,
		snapshots,
		string(sessionID),
		cfg.SyncQueueSize,
		cfg.SyncOpTimeout,
		metrics,
		logger,
	)
}

// ProvideSyncOutbox exposes the engine through its outbox port
func ProvideSyncOutbox(engine *appsync.Engine) ports.SyncOutbox {
	return engine
}

// ProvidePatientValidator creates the domain validator
func ProvidePatientValidator() *validators.PatientValidator {
	return validators.NewPatientValidator()
}

// ProvideHandlerSet wires all command handlers
func ProvideHandlerSet(
	snapshots *session.Store,
	outbox ports.SyncOutbox,
	validator *validators.PatientValidator,
	logger *zap.Logger,
) *handlers.Set {
	return handlers.NewSet(snapshots, outbox, validator, logger)
}

// ProvideTransferService wires the export/import service
func ProvideTransferService(
	snapshots *session.Store,
	validator *validators.PatientValidator,
	engine *appsync.Engine,
	logger *zap.Logger,
) *transfer.Service {
	return transfer.NewService(snapshots, validator, engine, logger)
}
