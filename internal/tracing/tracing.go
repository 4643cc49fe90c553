package tracing

import (
	"context"
	"fmt"
	"os"

	"github.com/richardbizik/msk-proxy/internal/config"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/richardbizik/msk-proxy"

	// lambdaTraceEnv carries the X-Ray header of the current invocation when active tracing is on.
	lambdaTraceEnv = "_X_AMZN_TRACE_ID"
	xrayHeader     = "X-Amzn-Trace-Id"
)

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Setup installs a tracer provider with X-Ray compatible ids and propagation.
// Spans are only exported when an OTLP endpoint is configured.
func Setup(ctx context.Context, service string, conf config.TraceConfig) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithIDGenerator(xray.NewIDGenerator()),
		sdktrace.WithResource(sdkresource.NewSchemaless(attribute.String("service.name", service))),
	}
	if conf.Endpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(conf.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(xray.Propagator{}, propagation.TraceContext{}))
	return tp, nil
}

// FromLambda attaches the invocation's X-Ray segment as the remote parent.
func FromLambda(ctx context.Context) context.Context {
	header := os.Getenv(lambdaTraceEnv)
	if header == "" {
		return ctx
	}
	return xray.Propagator{}.Extract(ctx, propagation.MapCarrier{xrayHeader: header})
}

// End records err on the span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
