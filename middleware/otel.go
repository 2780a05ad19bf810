package middleware

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bjaus/pathway"
)

const defaultTracerName = "github.com/bjaus/pathway"

// TracingConfig configures the OpenTelemetry handler.
type TracingConfig struct {
	// TracerName is the instrumentation name of the tracer.
	TracerName string

	// TracerProvider creates the tracer. Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider

	// IncludeParams adds decoded route parameters as span attributes.
	// Enabled by default.
	IncludeParams bool
}

// TracingOption configures the OpenTelemetry handler.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider the tracer is taken from.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithParams enables or disables parameter attributes.
func WithParams(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeParams = include
	}
}

// OpenTelemetry returns a handler that wraps the rest of the chain in a span.
//
// The span carries the route, the path, the chain ID and, unless disabled,
// every decoded parameter. Its context replaces the request context, so
// handlers later in the chain start child spans from req.Context(). A
// panicking handler is recorded as a span error before the panic continues.
//
// Example:
//
//	r.Defaults().Use(middleware.OpenTelemetry(middleware.WithTracerName("shop")))
func OpenTelemetry(opts ...TracingOption) pathway.Handler {
	config := TracingConfig{
		TracerName:    defaultTracerName,
		IncludeParams: true,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return func(req *pathway.Request, c *pathway.Chain, next func()) {
		attrs := []attribute.KeyValue{
			attribute.String("pathway.route", req.RouteName()),
			attribute.String("pathway.path", req.Path),
			attribute.String("pathway.chain_id", c.ID().String()),
		}
		if config.IncludeParams {
			for _, p := range req.Params {
				if p.Present && p.Err == nil {
					attrs = append(attrs, attribute.String("pathway.param."+p.Key, p.Value))
				}
			}
		}

		ctx, span := tracer.Start(req.Context(), "navigate "+req.RouteName(),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		req.SetContext(ctx)

		defer func() {
			if v := recover(); v != nil {
				err := fmt.Errorf("handler panicked: %v", v)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.End()
				panic(v)
			}
			span.SetAttributes(attribute.Bool("pathway.completed", c.Pending() == 0))
			span.End()
		}()

		next()
	}
}
