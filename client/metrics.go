package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storeLoadSeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "maison_client",
		Name:      "store_load_seconds",
		Help:      "Time spent restoring each store from device storage.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"store"},
)
