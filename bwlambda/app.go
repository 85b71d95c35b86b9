package bwlambda

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// HandlerFunc handles a single decoded Lambda event.
type HandlerFunc[T any] func(ctx context.Context, event T) error

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	fxOptions []fx.Option
}

// WithFx adds fx options, typically providers for the handler's dependencies.
func WithFx(opts ...fx.Option) Option {
	return func(o *appOptions) {
		o.fxOptions = append(o.fxOptions, opts...)
	}
}

const lifecycleTimeout = 15 * time.Second

// traceHeaderKey is the context key aws-lambda-go uses for the X-Ray trace header.
const traceHeaderKey = "x-amzn-trace-id"

// App runs a handler for events of type T.
type App[T any] struct {
	fx      *fx.App
	handler HandlerFunc[T]
	logger  *zap.Logger
	tracer  trace.Tracer
	prop    propagation.TextMapPropagator
	deps    *deps
	name    string
}

// NewApp creates an App. newHandler is an fx constructor whose result is a
// HandlerFunc[T]; its parameters are resolved from the container, which holds
// the parsed environment (both as E and as Environment), the logger, the
// tracer provider, the propagator, the AWS config and anything added through
// options.
func NewApp[E Environment, T any](newHandler any, opts ...Option) *App[T] {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	app := &App[T]{}
	var (
		env E
		tp  trace.TracerProvider
	)

	fxOpts := []fx.Option{
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			ParseEnv[E](),
			func(e E) Environment { return e },
			NewLogger,
			NewTracerProvider,
			NewPropagator,
			provideAWSConfig,
			newHandler,
		),
	}
	fxOpts = append(fxOpts, options.fxOptions...)
	fxOpts = append(fxOpts, fx.Populate(&env, &tp, &app.prop, &app.logger, &app.handler))

	app.fx = fx.New(fxOpts...)
	if app.fx.Err() == nil {
		app.name = env.serviceName()
		app.tracer = tp.Tracer("github.com/basewarphq/bwappcfg/bwlambda")
		app.deps = &deps{logger: app.logger, env: env}
	}
	return app
}

// NewLogger builds a production JSON logger at the configured level.
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return logger.With(zap.String("service", env.serviceName())), nil
}

// Err reports whether the dependency graph could be built.
func (a *App[T]) Err() error {
	return a.fx.Err()
}

// Start runs the fx start hooks.
func (a *App[T]) Start(ctx context.Context) error {
	if err := a.fx.Err(); err != nil {
		return errors.Wrap(err, "failed to build app")
	}
	return a.fx.Start(ctx)
}

// Stop runs the fx stop hooks, which flush pending spans.
func (a *App[T]) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Invoke handles one event: it continues the incoming X-Ray trace, starts a
// consumer span, makes the context functions available and logs a failed
// invocation before returning the error to the caller.
func (a *App[T]) Invoke(ctx context.Context, event T) error {
	if hdr, ok := ctx.Value(traceHeaderKey).(string); ok && hdr != "" {
		ctx = a.prop.Extract(ctx, propagation.MapCarrier{"X-Amzn-Trace-Id": hdr})
	}

	ctx, span := a.tracer.Start(ctx, a.name, trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	ctx = withDeps(ctx, a.deps)
	if err := a.handler(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		Log(ctx).Error("invocation failed", zap.Error(err))
		return err
	}
	return nil
}

// Run starts the app and hands control to the Lambda runtime. It does not
// return; stop hooks run when the runtime receives SIGTERM.
func (a *App[T]) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()
	if err := a.Start(ctx); err != nil {
		panic(err)
	}

	lambda.StartWithOptions(a.Invoke, lambda.WithEnableSIGTERM(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycleTimeout)
		defer stopCancel()
		if err := a.Stop(stopCtx); err != nil {
			a.logger.Error("failed to stop app", zap.Error(err))
		}
		_ = a.logger.Sync()
	}))
}
