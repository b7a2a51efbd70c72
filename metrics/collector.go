// Package metrics exports connection counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zereker/amqp"
)

// Source yields the counters to export. *amqp.Stats satisfies it.
type Source interface {
	Snapshot() amqp.StatsSnapshot
}

type metric struct {
	desc  *prometheus.Desc
	typ   prometheus.ValueType
	value func(amqp.StatsSnapshot) float64
}

// Collector is a prometheus.Collector reading a connection's Stats on
// every scrape.
type Collector struct {
	source  Source
	metrics []metric
}

// NewCollector returns a collector for source. labels are attached to
// every metric as constant labels.
func NewCollector(namespace string, source Source, labels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "connection", name), help, nil, labels)
	}
	counter := prometheus.CounterValue
	return &Collector{
		source: source,
		metrics: []metric{
			{desc("frames_received_total", "Frames decoded from the server."), counter,
				func(s amqp.StatsSnapshot) float64 { return float64(s.FramesIn) }},
			{desc("frames_sent_total", "Frames written to the server."), counter,
				func(s amqp.StatsSnapshot) float64 { return float64(s.FramesOut) }},
			{desc("received_bytes_total", "Bytes read from the transport."), counter,
				func(s amqp.StatsSnapshot) float64 { return float64(s.BytesIn) }},
			{desc("sent_bytes_total", "Bytes written to the transport."), counter,
				func(s amqp.StatsSnapshot) float64 { return float64(s.BytesOut) }},
			{desc("heartbeats_sent_total", "Heartbeat frames sent."), counter,
				func(s amqp.StatsSnapshot) float64 { return float64(s.HeartbeatsSent) }},
			{desc("heartbeats_received_total", "Heartbeat frames received."), counter,
				func(s amqp.StatsSnapshot) float64 { return float64(s.HeartbeatsReceived) }},
			{desc("frames_queued_total", "Frames set aside while waiting for another reply."), counter,
				func(s amqp.StatsSnapshot) float64 { return float64(s.FramesQueued) }},
			{desc("pending_frames", "Frames currently waiting in the pending queue."), prometheus.GaugeValue,
				func(s amqp.StatsSnapshot) float64 { return float64(s.PendingFrames) }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector. Every scrape takes a fresh
// snapshot of the connection counters.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.Snapshot()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.typ, m.value(snap))
	}
}
