package telemetry

import (
	"context"
	"errors"
	"time"

	"madischedule-backend/pkg/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ProtocolGrpc = "grpc"
	ProtocolHttp = "http"
)

// ExporterConfig points one signal at an OTLP collector. An empty endpoint
// leaves the signal on the global no-op provider.
type ExporterConfig struct {
	Endpoint string `json:"endpoint" validate:"omitempty,url"`
	// Protocol defaults to http.
	Protocol string            `json:"protocol" validate:"omitempty,oneof=grpc http"`
	Headers  map[string]string `json:"headers"`
}

func (c ExporterConfig) grpc() bool {
	return c.Protocol == ProtocolGrpc
}

type Config struct {
	Traces  ExporterConfig `json:"traces"`
	Metrics ExporterConfig `json:"metrics"`
	// PushInterval is how often metrics are exported, 5s when empty.
	PushInterval string `json:"push_interval"`
}

// Telemetry is what Setup installed, a nil provider was not configured.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

// Shutdown flushes and stops every installed provider.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// SetupFromEnv reads the nearest telemetry.json5 at or above the working
// directory and calls Setup with it. A missing file yields an error that
// satisfies os.IsNotExist.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}

// Setup installs the global tracer and meter providers described by config.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	err := configutil.Validate(config)
	if err != nil {
		return Telemetry{}, err
	}
	interval := 5 * time.Second
	if config.PushInterval != "" {
		interval, err = time.ParseDuration(config.PushInterval)
		if err != nil {
			return Telemetry{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return Telemetry{}, err
	}

	var tel Telemetry
	if config.Traces.Endpoint != "" {
		exporter, err := spanExporter(ctx, config.Traces)
		if err != nil {
			return Telemetry{}, err
		}
		tel.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tel.TracerProvider)
	}
	if config.Metrics.Endpoint != "" {
		exporter, err := metricExporter(ctx, config.Metrics)
		if err != nil {
			return Telemetry{}, errors.Join(err, tel.Shutdown(ctx))
		}
		tel.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(tel.MeterProvider)
	}
	return tel, nil
}

func spanExporter(ctx context.Context, c ExporterConfig) (sdktrace.SpanExporter, error) {
	if c.grpc() {
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(c.Endpoint),
			otlptracegrpc.WithHeaders(c.Headers),
		)
	}
	return otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(c.Endpoint),
		otlptracehttp.WithHeaders(c.Headers),
	)
}

func metricExporter(ctx context.Context, c ExporterConfig) (sdkmetric.Exporter, error) {
	if c.grpc() {
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpointURL(c.Endpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		)
	}
	return otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpointURL(c.Endpoint),
		otlpmetrichttp.WithHeaders(c.Headers),
	)
}
