package bwlambda_test

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/basewarphq/bwappcfg/bwlambda"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Env defines the environment variables for the function.
type Env struct {
	bwlambda.BaseEnvironment
	HistoryTableName string `env:"HISTORY_TABLE_NAME,required"`
}

type Recorder struct {
	dynamo *dynamodb.Client
}

func NewRecorder(dynamo *dynamodb.Client) *Recorder { return &Recorder{dynamo: dynamo} }

func NewHandler(rec *Recorder) bwlambda.HandlerFunc[events.CloudWatchEvent] {
	return func(ctx context.Context, ev events.CloudWatchEvent) error {
		env := bwlambda.Env[Env](ctx)
		bwlambda.Span(ctx).AddEvent("recording event")
		bwlambda.Log(ctx).Info("received event",
			zap.String("detail_type", ev.DetailType),
			zap.String("table", env.HistoryTableName))
		_ = rec.dynamo
		return nil
	}
}

func Example() {
	bwlambda.NewApp[Env, events.CloudWatchEvent](NewHandler,
		bwlambda.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
			return dynamodb.NewFromConfig(cfg)
		}),
		bwlambda.WithFx(fx.Provide(NewRecorder)),
	).Run()
}
