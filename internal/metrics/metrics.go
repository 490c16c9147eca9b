package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/stateful/notes/pkg/document"
)

const namespace = "notes"

// Metrics holds the collectors of the notes server. A nil *Metrics records
// nothing, so callers never need to check whether metrics are enabled.
type Metrics struct {
	Deserializations *prometheus.CounterVec
	Repairs          *prometheus.CounterVec
	Exports          *prometheus.CounterVec
	ExportPages      prometheus.Histogram
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Deserializations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deserializations_total",
				Help:      "Total number of documents read, by source format.",
			},
			[]string{"format"},
		),
		Repairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repairs_total",
				Help:      "Total number of corrections made while sanitizing trees.",
			},
			[]string{"kind"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of PDF exports, by result.",
			},
			[]string{"result"},
		),
		ExportPages: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_pages",
				Help:      "Pages per exported PDF.",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grpc_requests_total",
				Help:      "Total number of gRPC requests, by method and status code.",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "grpc_request_duration_seconds",
				Help:      "Duration of gRPC requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.Deserializations,
		m.Repairs,
		m.Exports,
		m.ExportPages,
		m.Requests,
		m.RequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Deserialized(format string) {
	if m == nil {
		return
	}
	m.Deserializations.WithLabelValues(format).Inc()
}

// Repaired counts r. It fits document.WithRepairHook.
func (m *Metrics) Repaired(r document.Repair) {
	if m == nil {
		return
	}
	m.Repairs.WithLabelValues(r.Kind.String()).Inc()
}

func (m *Metrics) Exported(pages int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Exports.WithLabelValues("error").Inc()
		return
	}
	m.Exports.WithLabelValues("ok").Inc()
	m.ExportPages.Observe(float64(pages))
}

// UnaryServerInterceptor records the count and duration of unary calls.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if m == nil {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		m.Requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.RequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}
