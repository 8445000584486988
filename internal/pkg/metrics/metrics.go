package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ConnectionState is 1 for the current stream connection state and 0 for the others.
	ConnectionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_connection_state",
			Help: "Current live stream connection state (1 for the active state).",
		},
		[]string{"state"},
	)

	// ReconnectAttempts counts scheduled reconnects of the live stream.
	ReconnectAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_reconnect_attempts_total",
			Help: "Total number of scheduled live stream reconnects.",
		},
	)

	// StreamMessages counts decoded stream messages by event kind.
	StreamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_stream_messages_total",
			Help: "Total number of decoded live stream messages.",
		},
		[]string{"event"}, // add/update/delete/heartbeat
	)

	// DecodeDrops counts stream messages that could not be decoded.
	DecodeDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_stream_decode_drops_total",
			Help: "Total number of stream messages dropped by the decoder.",
		},
	)

	// SnapshotLoads counts snapshot requests by result.
	SnapshotLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_snapshot_loads_total",
			Help: "Total number of roster snapshot loads.",
		},
		[]string{"status"}, // success/failed/stale
	)

	// CommandsTotal counts mutation commands sent to the remote service.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_commands_total",
			Help: "Total number of roster commands sent to the dispatch service.",
		},
		[]string{"type", "status"}, // type: patch/delete/import, status: success/failed
	)

	// CommandLatency records the duration of remote command calls.
	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_command_latency_seconds",
			Help:    "Latency of roster commands sent to the dispatch service.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// Rollbacks counts optimistic patches reverted after a failed command.
	Rollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_patch_rollbacks_total",
			Help: "Total number of optimistic vehicle patches rolled back.",
		},
	)

	// RosterSize is the number of vehicles currently in the roster.
	RosterSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_roster_vehicles",
			Help: "Number of vehicles in the current room roster.",
		},
	)

	// ArchiveUploads counts roster exports to object storage by result.
	ArchiveUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_archive_uploads_total",
			Help: "Total number of roster archive uploads.",
		},
		[]string{"status"},
	)

	// RelayPublishes counts MQTT relay publications by topic kind and result.
	RelayPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_relay_publishes_total",
			Help: "Total number of roster relay publications.",
		},
		[]string{"kind", "status"}, // kind: roster/status
	)
)

func init() {
	prometheus.MustRegister(
		ConnectionState,
		ReconnectAttempts,
		StreamMessages,
		DecodeDrops,
		SnapshotLoads,
		CommandsTotal,
		CommandLatency,
		Rollbacks,
		RosterSize,
		ArchiveUploads,
		RelayPublishes,
	)
}

// SetConnectionState marks state as the only active connection state.
func SetConnectionState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		ConnectionState.WithLabelValues(s).Set(v)
	}
}

// Status returns the label value for a command result.
func Status(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
