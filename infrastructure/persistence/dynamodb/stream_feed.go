package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"go.uber.org/zap"

	"consultorio-backend/application/ports"
	pkgerrors "consultorio-backend/pkg/errors"
)

// StreamFeed implements ports.ChangeFeed by polling the DynamoDB Streams of
// both tables. Each emitted event carries the origin tag of the writing
// session so the sync engine can ignore its own echoes.
type StreamFeed struct {
	db           *dynamodb.Client
	streams      *dynamodbstreams.Client
	tables       []string
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewStreamFeed creates a feed over the given tables
func NewStreamFeed(
	db *dynamodb.Client,
	streams *dynamodbstreams.Client,
	tables []string,
	pollInterval time.Duration,
	logger *zap.Logger,
) *StreamFeed {
	return &StreamFeed{
		db:           db,
		streams:      streams,
		tables:       tables,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Subscribe resolves each table's latest stream and starts one poller per
// table. The channel closes when every poller has stopped.
func (f *StreamFeed) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	events := make(chan ports.ChangeEvent)
	started := 0
	done := make(chan struct{}, len(f.tables))

	for _, table := range f.tables {
		arn, err := f.streamArn(ctx, table)
		if err != nil {
			f.logger.Warn("Table has no readable stream",
				zap.String("table", table),
				zap.Error(err),
			)
			continue
		}
		started++
		go func(table, arn string) {
			defer func() { done <- struct{}{} }()
			f.poll(ctx, table, arn, events)
		}(table, arn)
	}

	if started == 0 {
		close(events)
		return events, pkgerrors.NewRemoteError("no table streams available", nil)
	}

	go func() {
		for i := 0; i < started; i++ {
			<-done
		}
		close(events)
	}()
	return events, nil
}

func (f *StreamFeed) streamArn(ctx context.Context, table string) (string, error) {
	out, err := f.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		return "", pkgerrors.NewRemoteError("describe table failed", err)
	}
	if out.Table == nil || out.Table.LatestStreamArn == nil {
		return "", pkgerrors.NewRemoteError("table has no stream enabled", nil)
	}
	return *out.Table.LatestStreamArn, nil
}

// poll walks the stream's shards from LATEST, so only changes made after
// subscription are delivered. Shard iterators are refreshed as shards roll.
func (f *StreamFeed) poll(ctx context.Context, table, arn string, events chan<- ports.ChangeEvent) {
	iterators := make(map[string]string)
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := f.refreshShards(ctx, arn, iterators); err != nil {
			f.logger.Warn("Shard discovery failed",
				zap.String("table", table),
				zap.Error(err),
			)
			continue
		}

		for shardID, iterator := range iterators {
			out, err := f.streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
				ShardIterator: aws.String(iterator),
			})
			if err != nil {
				// Expired iterators are rediscovered on the next tick
				delete(iterators, shardID)
				continue
			}
			for _, record := range out.Records {
				select {
				case events <- ports.ChangeEvent{Table: table, Origin: recordOrigin(record)}:
				case <-ctx.Done():
					return
				}
			}
			if out.NextShardIterator == nil {
				delete(iterators, shardID)
			} else {
				iterators[shardID] = *out.NextShardIterator
			}
		}
	}
}

func (f *StreamFeed) refreshShards(ctx context.Context, arn string, iterators map[string]string) error {
	out, err := f.streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
		StreamArn: aws.String(arn),
	})
	if err != nil {
		return err
	}
	if out.StreamDescription == nil {
		return nil
	}
	for _, shard := range out.StreamDescription.Shards {
		if shard.ShardId == nil {
			continue
		}
		if _, known := iterators[*shard.ShardId]; known {
			continue
		}
		iterOut, err := f.streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
			StreamArn:         aws.String(arn),
			ShardId:           shard.ShardId,
			ShardIteratorType: streamtypes.ShardIteratorTypeLatest,
		})
		if err != nil || iterOut.ShardIterator == nil {
			continue
		}
		iterators[*shard.ShardId] = *iterOut.ShardIterator
	}
	return nil
}

// recordOrigin pulls the origin tag out of the stream record image
func recordOrigin(record streamtypes.Record) string {
	if record.Dynamodb == nil {
		return ""
	}
	image := record.Dynamodb.NewImage
	if image == nil {
		image = record.Dynamodb.OldImage
	}
	if attr, ok := image["origin"]; ok {
		if s, ok := attr.(*streamtypes.AttributeValueMemberS); ok {
			return s.Value
		}
	}
	return ""
}
