package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/event"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/metrics"
)

// NewLogSink returns a sink that logs every decoder event with its flow
// context. Anomalies are rare relative to traffic, so the field map per
// event is acceptable.
func NewLogSink() event.Sink {
	lg := log.GetLogger()
	return event.SinkFunc(func(p *core.Packet, c event.Code) {
		lg.WithFields(map[string]interface{}{
			"event": c.String(),
			"src":   p.IP.SrcIP.String(),
			"dst":   p.IP.DstIP.String(),
			"sport": p.SrcPort,
			"dport": p.DstPort,
		}).Info(c.Message())
	})
}

// NewMetricsSink returns a sink that counts events by name, with the counter
// handles resolved up front.
func NewMetricsSink() event.Sink {
	codes := event.Codes()
	counters := make([]prometheus.Counter, len(codes))
	for i, c := range codes {
		counters[i] = metrics.DecodeEventsTotal.WithLabelValues(c.String())
	}
	return event.SinkFunc(func(_ *core.Packet, c event.Code) {
		if int(c) < len(counters) {
			counters[c].Inc()
			return
		}
		metrics.DecodeEventsTotal.WithLabelValues(c.String()).Inc()
	})
}
