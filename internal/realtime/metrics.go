package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "finboard",
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Live WebSocket connections per channel.",
	}, []string{"channel"})

	wsAuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finboard",
		Subsystem: "ws",
		Name:      "auth_failures_total",
		Help:      "WebSocket handshakes closed with 1008 per channel.",
	}, []string{"channel"})

	wsFramesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finboard",
		Subsystem: "ws",
		Name:      "frames_sent_total",
		Help:      "Data frames pushed to clients per channel.",
	}, []string{"channel"})
)
