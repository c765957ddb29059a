package connection

import "github.com/prometheus/client_golang/prometheus"

var (
	connState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_sync_connection_state",
			Help: "Current connection state (0=disconnected 1=connecting 2=connected 3=closing 4=closed).",
		},
	)
	connAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_sync_reconnect_attempts_total",
			Help: "Total reconnect attempts scheduled after unexpected closures.",
		},
	)
	framesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_sync_frames_received_total",
			Help: "Total inbound frames successfully decoded.",
		},
	)
	framesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_sync_frames_sent_total",
			Help: "Total outbound frames written to the socket.",
		},
	)
	framesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_sync_frames_dropped_total",
			Help: "Frames dropped because the socket was closed or the payload was malformed.",
		},
	)
)

func init() {
	prometheus.MustRegister(connState, connAttempts, framesReceived, framesSent, framesDropped)
}

func setStateMetric(s State) {
	connState.Set(float64(s))
}
