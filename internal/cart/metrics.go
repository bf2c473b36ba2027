package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_remote_writes_total",
			Help: "Total number of background cart writes sent to the backend.",
		},
		[]string{"op", "result"},
	)

	hydrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_hydrations_total",
			Help: "Total number of cart hydrations by outcome.",
		},
		[]string{"result"},
	)

	remoteWritesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_remote_writes_in_flight",
			Help: "Number of background cart writes currently waiting on the backend.",
		},
	)
)
