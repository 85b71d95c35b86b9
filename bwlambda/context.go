package bwlambda

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const ctxKeyDeps ctxKey = iota

// deps holds all dependencies available via context.
type deps struct {
	logger *zap.Logger
	env    any
}

func withDeps(ctx context.Context, d *deps) context.Context {
	return context.WithValue(ctx, ctxKeyDeps, d)
}

func depsFromContext(ctx context.Context) *deps {
	d, ok := ctx.Value(ctxKeyDeps).(*deps)
	if !ok {
		panic("bwlambda: deps not found in context; was the handler invoked through App.Invoke?")
	}
	return d
}

// Log returns a trace-correlated zap logger from the context. The Lambda
// request id is added when the invocation carries one.
func Log(ctx context.Context) *zap.Logger {
	d := depsFromContext(ctx)
	fields := traceFields(ctx)
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		fields = append(fields, zap.String("aws_request_id", lc.AwsRequestID))
	}
	return d.logger.With(fields...)
}

// Span returns the current trace span from the context.
func Span(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// Env retrieves the environment configuration from the context.
func Env[E Environment](ctx context.Context) E {
	d := depsFromContext(ctx)
	env, ok := d.env.(E)
	if !ok {
		panic("bwlambda: environment type mismatch")
	}
	return env
}
