package lightclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lightClientUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "light_client_updates_total",
		Help: "Count the light client updates produced, by kind.",
	}, []string{"kind"})
	lightClientParticipation = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "light_client_sync_participation",
		Help: "Sync committee participants of the latest optimistic update.",
	})
)
