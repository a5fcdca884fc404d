// Package metrics defines the Prometheus collectors exported by the server
// and the gRPC and gin hooks that feed them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophvote"

// Operation outcomes recorded by RecordOperation.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	GrpcRequestDuration *prometheus.HistogramVec
	GrpcRequestTotal    *prometheus.CounterVec
	GrpcRequestInFlight *prometheus.GaugeVec

	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestTotal    *prometheus.CounterVec

	// proposal service operations by name and outcome
	OperationTotal *prometheus.CounterVec
}

// New creates all collectors and registers them with registry.
// A nil registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	f := promauto.With(registry)

	return &Metrics{
		registry: registry,

		GrpcRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_duration_seconds",
				Help:      "Histogram of gRPC request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
		GrpcRequestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_total",
				Help:      "Total number of gRPC requests",
			},
			[]string{"method", "code"},
		),
		GrpcRequestInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_in_flight",
				Help:      "Current number of in-flight gRPC requests",
			},
			[]string{"method"},
		),

		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		OperationTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "proposals",
				Name:      "operation_total",
				Help:      "Proposal operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

func (m *Metrics) RecordGrpcRequest(method, code string, d time.Duration) {
	m.GrpcRequestTotal.WithLabelValues(method, code).Inc()
	m.GrpcRequestDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	s := strconv.Itoa(status)
	m.HTTPRequestTotal.WithLabelValues(method, route, s).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route, s).Observe(d.Seconds())
}

// RecordOperation counts one proposal operation. Safe on a nil receiver.
func (m *Metrics) RecordOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.OperationTotal.WithLabelValues(op, outcome).Inc()
}
