package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer receives one observation per outbound S3 request.
// code is the HTTP status as a string, or "error" when no response arrived.
type Observer interface {
	ObserveRequest(operation, code string, dur time.Duration)
	ObserveBytes(operation string, n int64)
}

// ClientMetrics instruments the outbound S3 client.
type ClientMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

// NewClientMetrics registers S3 client metrics on reg.
func NewClientMetrics(reg *prometheus.Registry) *ClientMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "s3",
		Name:      "requests_total",
		Help:      "Total number of outbound S3 requests by operation and status code.",
	}, []string{"operation", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "s3",
		Name:      "request_duration_seconds",
		Help:      "Histogram of outbound S3 request durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "s3",
		Name:      "bytes_sent_total",
		Help:      "Total request body bytes sent to S3.",
	}, []string{"operation"})

	_ = reg.Register(requests)
	_ = reg.Register(latency)
	_ = reg.Register(bytes)

	return &ClientMetrics{
		requests: requests,
		latency:  latency,
		bytes:    bytes,
	}
}

// ObserveRequest implements Observer.
func (m *ClientMetrics) ObserveRequest(operation, code string, dur time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, code).Inc()
	m.latency.WithLabelValues(operation).Observe(dur.Seconds())
}

// ObserveBytes implements Observer.
func (m *ClientMetrics) ObserveBytes(operation string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.WithLabelValues(operation).Add(float64(n))
}
