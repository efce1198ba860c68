package asset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// op: store, remove, sweep; result: ok, error, too_large, retry_enqueued
	assetOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_asset_operations_total",
			Help: "Asset manager operations by kind and outcome",
		},
		[]string{"op", "result"},
	)

	assetBytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_asset_bytes_stored_total",
			Help: "Bytes written to the asset backend",
		},
	)
)
