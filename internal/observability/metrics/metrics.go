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
	ExportInterval   time.Duration
	ServiceName      string
	Environment      string
}

// Metrics exposes billing-level instruments.
type Metrics struct {
	invoicesGenerated metric.Int64Counter
	invoicesSkipped   metric.Int64Counter
	invoiceTransition metric.Int64Counter
	invoiceAmount     metric.Int64Counter
	emailsSent        metric.Int64Counter
	readingsRejected  metric.Int64Counter
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

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the billing metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "rentbill"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	if m.invoicesGenerated, err = meter.Int64Counter("rentbill_invoices_generated_total"); err != nil {
		return nil, err
	}
	if m.invoicesSkipped, err = meter.Int64Counter("rentbill_invoices_skipped_total"); err != nil {
		return nil, err
	}
	if m.invoiceTransition, err = meter.Int64Counter("rentbill_invoice_transitions_total"); err != nil {
		return nil, err
	}
	if m.invoiceAmount, err = meter.Int64Counter("rentbill_invoice_paid_amount_total"); err != nil {
		return nil, err
	}
	if m.emailsSent, err = meter.Int64Counter("rentbill_invoice_emails_total"); err != nil {
		return nil, err
	}
	if m.readingsRejected, err = meter.Int64Counter("rentbill_readings_rejected_total"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordInvoiceGenerated counts a newly created invoice.
func (m *Metrics) RecordInvoiceGenerated(ctx context.Context, readingSource string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reading_source", strings.TrimSpace(readingSource)))
	m.invoicesGenerated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvoiceSkipped counts a room left out of a generation run.
func (m *Metrics) RecordInvoiceSkipped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.invoicesSkipped.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordInvoiceTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", from),
		attribute.String("to_status", to),
	)
	m.invoiceTransition.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordPayment(ctx context.Context, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.invoiceAmount.Add(ctx, amount)
}

func (m *Metrics) RecordEmail(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.emailsSent.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordReadingRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.readingsRejected.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
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

var allowedLabelKeys = map[attribute.Key]struct{}{
	"reading_source": {},
	"reason":         {},
	"from_status":    {},
	"to_status":      {},
	"outcome":        {},
	"route":          {},
	"status_code":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
