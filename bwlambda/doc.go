// Package bwlambda provides a batteries-included framework for building
// event-driven Go functions that run on AWS Lambda.
//
// # Overview
//
// bwlambda handles the boilerplate of a Lambda handler: environment parsing,
// structured logging, OpenTelemetry tracing, AWS SDK clients and graceful
// shutdown. A complete application is created in a single call:
//
//	bwlambda.NewApp[Env, events.CloudWatchEvent](NewHandler,
//	    bwlambda.WithAWSClient(dynamodb.NewFromConfig),
//	    bwlambda.WithFx(fx.Provide(NewRepository)),
//	).Run()
//
// NewHandler is an fx constructor that returns a [HandlerFunc]. Its arguments
// are injected, so handlers receive their dependencies explicitly.
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    bwlambda.BaseEnvironment
//	    HistoryTableName string `env:"HISTORY_TABLE_NAME,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable          | Required | Default | Description                                      |
//	|-------------------|----------|---------|--------------------------------------------------|
//	| AWS_REGION        | Yes      | -       | AWS region (set automatically by Lambda runtime) |
//	| BW_SERVICE_NAME   | Yes      | -       | Service name for logging and tracing             |
//	| BW_PRIMARY_REGION | Yes      | -       | Primary deployment region (injected by CDK)      |
//	| BW_LOG_LEVEL      | No       | info    | Log level (debug, info, warn, error)             |
//	| BW_OTEL_EXPORTER  | No       | stdout  | Trace exporter: "stdout" or "xrayudp"            |
//
// BW_PRIMARY_REGION and BW_OTEL_EXPORTER are injected by the bwcdkeventlambda
// construct.
//
// # Context Functions
//
//   - [Log] returns a trace-correlated zap logger
//   - [Span] returns the current OpenTelemetry span for custom instrumentation
//   - [Env] retrieves the typed environment configuration
//
// # Tracing
//
// The tracer provider and propagator are provided through fx, never installed
// as globals. Setting OTEL_SDK_DISABLED=true swaps in a no-op provider.
//
// # Cross-Region AWS Clients
//
// By default, AWS clients target the local region (AWS_REGION):
//
//	bwlambda.WithAWSClient(dynamodb.NewFromConfig)
//
//	bwlambda.WithAWSClient(func(cfg aws.Config) *bwlambda.Primary[sqs.Client] {
//	    return bwlambda.NewPrimary(sqs.NewFromConfig(cfg))
//	}, bwlambda.ForPrimaryRegion())
//
//	bwlambda.WithAWSClient(func(cfg aws.Config) *bwlambda.InRegion[s3.Client] {
//	    return bwlambda.NewInRegion(s3.NewFromConfig(cfg), "us-east-1")
//	}, bwlambda.ForRegion("us-east-1"))
package bwlambda
