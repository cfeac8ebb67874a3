// Package backup implements the per-node backup endpoint.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package backup

import "github.com/prometheus/client_golang/prometheus"

// Two histograms: per-shard scan wall-clock and per-request total
// wall-clock.
var (
	rangeSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "backup",
		Name:      "range_seconds",
		Help:      "per-shard backup phase wall-clock time, in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	requestSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "backup",
		Name:      "request_seconds",
		Help:      "per-request total backup wall-clock time, in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(rangeSeconds, requestSeconds)
}
