package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	rowsImported  metric.Int64Counter
	rowsSkipped   metric.Int64Counter
	filesImported metric.Int64Counter
	metricQueries metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metric instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "merchant-analytics"
	}
	meter := provider.Meter(name)

	rowsImported, err := meter.Int64Counter("analytics_import_rows_imported_total")
	if err != nil {
		return nil, err
	}
	rowsSkipped, err := meter.Int64Counter("analytics_import_rows_skipped_total")
	if err != nil {
		return nil, err
	}
	filesImported, err := meter.Int64Counter("analytics_import_files_total")
	if err != nil {
		return nil, err
	}
	metricQueries, err := meter.Int64Counter("analytics_metric_queries_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		rowsImported:  rowsImported,
		rowsSkipped:   rowsSkipped,
		filesImported: filesImported,
		metricQueries: metricQueries,
	}, nil
}

// RecordFileImported records the outcome of one processed file.
func (m *Metrics) RecordFileImported(ctx context.Context, file string, imported, skipped int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("file", strings.TrimSpace(file)))
	m.filesImported.Add(ctx, 1, attrs)
	m.rowsImported.Add(ctx, imported, attrs)
	m.rowsSkipped.Add(ctx, skipped, attrs)
}

// RecordMetricQuery increments query counts per metric name.
func (m *Metrics) RecordMetricQuery(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.metricQueries.Add(ctx, 1, metric.WithAttributes(attribute.String("metric", strings.TrimSpace(name))))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
