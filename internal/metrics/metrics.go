// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CapturePacketsTotal counts packets read from the capture source
	CapturePacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_capture_packets_total",
			Help: "Total number of packets read from the capture source",
		},
		[]string{"source"},
	)

	// CaptureDropsTotal counts packets the kernel dropped before we read them
	CaptureDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_capture_drops_total",
			Help: "Total number of packets dropped by the capture ring",
		},
		[]string{"source"},
	)

	// DispatchPublishedTotal counts frames handed to the dispatcher
	DispatchPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strix_dispatch_published_total",
			Help: "Total number of frames published to the dispatcher",
		},
	)

	// DispatchDropsTotal counts frames dropped on full partition queues
	DispatchDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_dispatch_drops_total",
			Help: "Total number of frames dropped because a partition queue was full",
		},
		[]string{"partition"},
	)

	// DecodePacketsTotal counts decoded packets by transport protocol
	DecodePacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_decode_packets_total",
			Help: "Total number of packets decoded",
		},
		[]string{"protocol"},
	)

	// DecodeErrorsTotal counts decode rejections by protocol and reason
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_decode_errors_total",
			Help: "Total number of packets rejected by a decoder",
		},
		[]string{"protocol", "reason"},
	)

	// DecodeEventsTotal counts protocol anomaly events by event name
	DecodeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_decode_events_total",
			Help: "Total number of protocol anomaly events raised",
		},
		[]string{"event"},
	)

	// ChecksumFailuresTotal counts checksum verification failures
	ChecksumFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_checksum_failures_total",
			Help: "Total number of checksum verification failures",
		},
		[]string{"protocol"},
	)

	// DropRequestsTotal counts packets flagged for an inline drop verdict
	DropRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strix_drop_requests_total",
			Help: "Total number of packets flagged for an inline drop verdict",
		},
	)

	// ResponsesTotal counts forged response segments by kind and direction
	ResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strix_responses_total",
			Help: "Total number of active response segments forged",
		},
		[]string{"kind", "direction"},
	)

	// DecodeLatencySeconds measures per-packet decode latency
	DecodeLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strix_decode_latency_seconds",
			Help:    "Latency of packet decoding in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20), // 1µs to ~1s
		},
		[]string{"protocol"},
	)
)
