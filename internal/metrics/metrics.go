// Package metrics instruments the driver with Prometheus collectors,
// grounded on the teacher's PrometheusMetrics constructor pattern
// (promauto-registered gauges/counters on a single struct).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every collector the driver exposes on /metrics.
type Registry struct {
	OutboundQueueDepth   prometheus.Gauge
	InboundQueueDepth    prometheus.Gauge
	ErrorCounter         prometheus.Gauge
	Reconnects           prometheus.Counter
	PingsSent            prometheus.Counter
	SequenceWraps        prometheus.Counter
	FramesDiscarded      prometheus.Counter
	ProtocolIncompatible prometheus.Counter
	EventsEmitted        *prometheus.CounterVec
	ProcessCPUPercent    prometheus.Gauge
	ProcessRSSBytes      prometheus.Gauge
}

// New registers and returns a fresh Registry against the default
// Prometheus registerer.
func New() *Registry {
	return &Registry{
		OutboundQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "radescan_outbound_queue_depth",
			Help: "Number of frames currently waiting to be sent to the radar server.",
		}),
		InboundQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "radescan_inbound_queue_depth",
			Help: "Number of raw byte chunks waiting to be reassembled by the decoder.",
		}),
		ErrorCounter: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "radescan_error_counter",
			Help: "Current value of the session's asymmetric I/O error counter.",
		}),
		Reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "radescan_reconnects_total",
			Help: "Number of sessions the connection manager has established, the first connection included.",
		}),
		PingsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "radescan_pings_sent_total",
			Help: "Number of GetServerStatus keep-alive requests enqueued.",
		}),
		SequenceWraps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "radescan_sequence_wraps_total",
			Help: "Number of times the outbound packet sequence counter has wrapped.",
		}),
		FramesDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "radescan_frames_discarded_total",
			Help: "Number of reassembly buffers discarded due to a malformed frame length.",
		}),
		ProtocolIncompatible: promauto.NewCounter(prometheus.CounterOpts{
			Name: "radescan_protocol_incompatible_total",
			Help: "Number of handshake responses that carried an incompatible protocol version.",
		}),
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "radescan_events_emitted_total",
			Help: "Number of decoded events dispatched to the events manager, by event type.",
		}, []string{"event"}),
		ProcessCPUPercent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "radescan_process_cpu_percent",
			Help: "CPU usage percent of this process, sampled periodically.",
		}),
		ProcessRSSBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "radescan_process_rss_bytes",
			Help: "Resident set size of this process in bytes, sampled periodically.",
		}),
	}
}
