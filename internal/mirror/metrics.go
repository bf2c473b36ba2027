package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WriteFailures counts failed slot writes and deletes, labelled by slot.
var WriteFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_mirror_write_failures_total",
		Help: "Total number of mirror slot writes that failed.",
	},
	[]string{"slot"},
)
