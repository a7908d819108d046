package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RoomsActive is the number of rooms currently held by the hub.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_rooms_active",
		Help: "Rooms currently resident in the hub.",
	})

	// ConnectionsActive is the number of open websocket connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_connections_active",
		Help: "Open websocket connections across all rooms.",
	})

	// MessagesTotal counts inbound messages by type tag.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_messages_total",
		Help: "Inbound protocol messages by type.",
	}, []string{"type"})

	// DroppedSends counts outbound frames dropped because a peer's send
	// buffer was full.
	DroppedSends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_dropped_sends_total",
		Help: "Outbound frames dropped on full per-connection buffers.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
