// Command rolloutwatch records AppConfig deployment events delivered by
// EventBridge: it keeps the deployment history, archives deployed
// configurations and raises rollback alerts.
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfigdata"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/basewarphq/bwappcfg/backend/internal/rollout"
	"github.com/basewarphq/bwappcfg/bwlambda"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Env is the function's configuration, injected by the infra stacks.
type Env struct {
	bwlambda.BaseEnvironment
	HistoryTableName string        `env:"HISTORY_TABLE_NAME,required"`
	ArchiveBucket    string        `env:"ARCHIVE_BUCKET_NAME,required"`
	AlertQueueURL    string        `env:"ALERT_QUEUE_URL,required"`
	HistoryRetention time.Duration `env:"HISTORY_RETENTION" envDefault:"2160h"`
}

func newProcessor(
	env Env,
	dynamo *dynamodb.Client,
	archive *s3.Client,
	alerts *bwlambda.Primary[sqs.Client],
	data *appconfigdata.Client,
) *rollout.Processor {
	return rollout.NewProcessor(
		rollout.NewHistory(dynamo, env.HistoryTableName, env.HistoryRetention),
		rollout.NewArchive(archive, env.ArchiveBucket),
		rollout.NewAlerter(alerts.Client, env.AlertQueueURL),
		rollout.NewFetcher(data),
		env.AWSRegion,
		rollout.WithLogger(func(ctx context.Context) *zap.Logger { return bwlambda.Log(ctx) }),
	)
}

func newHandler(p *rollout.Processor) bwlambda.HandlerFunc[events.CloudWatchEvent] {
	return p.Handle
}

func main() {
	bwlambda.NewApp[Env, events.CloudWatchEvent](newHandler,
		bwlambda.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
			return dynamodb.NewFromConfig(cfg)
		}),
		bwlambda.WithAWSClient(func(cfg aws.Config) *s3.Client {
			return s3.NewFromConfig(cfg)
		}),
		bwlambda.WithAWSClient(func(cfg aws.Config) *appconfigdata.Client {
			return appconfigdata.NewFromConfig(cfg)
		}),
		bwlambda.WithAWSClient(func(cfg aws.Config) *bwlambda.Primary[sqs.Client] {
			return bwlambda.NewPrimary(sqs.NewFromConfig(cfg))
		}, bwlambda.ForPrimaryRegion()),
		bwlambda.WithFx(fx.Provide(newProcessor)),
	).Run()
}
