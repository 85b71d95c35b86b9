package bwlambda

import (
	"context"
	"os"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

const (
	exporterStdout  = "stdout"
	exporterXrayUDP = "xrayudp"
)

func newExporter(ctx context.Context, typ string) (sdktrace.SpanExporter, error) {
	switch typ {
	case exporterStdout, "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case exporterXrayUDP:
		return xrayudp.NewSpanExporter(ctx)
	default:
		return nil, errors.Newf("unsupported OTEL_EXPORTER: %q (supported: stdout, xrayudp)", typ)
	}
}

// newResource describes the function. On Lambda the detector fills in the
// function name and version; locally only the service name is known.
func newResource(ctx context.Context, exporterType, serviceName string) (*resource.Resource, error) {
	svc := resource.NewSchemaless(attribute.String("service.name", serviceName))
	if exporterType != exporterXrayUDP {
		return svc, nil
	}

	detected, err := lambda.NewResourceDetector().Detect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to detect lambda resource")
	}
	return resource.Merge(detected, svc)
}

// NewTracerProvider builds the tracer provider for the configured exporter and
// flushes it when the fx app stops.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		return noop.NewTracerProvider(), nil
	}

	ctx := context.Background()
	exp, err := newExporter(ctx, env.otelExporter())
	if err != nil {
		return nil, err
	}
	res, err := newResource(ctx, env.otelExporter(), env.serviceName())
	if err != nil {
		return nil, err
	}

	// Lambda freezes the sandbox between invocations, so spans are exported synchronously.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exp)),
		sdktrace.WithResource(res),
		sdktrace.WithIDGenerator(xray.NewIDGenerator()),
	)

	lc.Append(fx.Hook{
		OnStop: tp.Shutdown,
	})
	return tp, nil
}

// NewPropagator returns the X-Ray propagator on Lambda and W3C trace context
// plus X-Ray everywhere else.
func NewPropagator(env Environment) propagation.TextMapPropagator {
	if env.otelExporter() == exporterXrayUDP {
		return xray.Propagator{}
	}
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		xray.Propagator{},
	)
}
