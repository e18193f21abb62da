package blockchain

import (
	"time"

	"github.com/NethermindEth/starknet-api/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "starknet_api"

var (
	storedStateUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "state_updates_total",
		Help:      "State updates written to the store",
	})
	storedClasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "classes_total",
		Help:      "Class bodies written to the store",
	}, []string{"kind"})
	classCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "class_cache_lookups_total",
		Help:      "Class body cache lookups",
	}, []string{"hit"})
	storeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "state_update_seconds",
		Help:      "Time spent storing a state update",
		Buckets:   prometheus.DefBuckets,
	})
	storeReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "reads_total",
		Help:      "Store reads by method",
	}, []string{"method"})

	dbIO = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "io_seconds",
		Help:      "Key-value store operation latency",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
	}, []string{"op"})
)

// MetricsListener reports store reads to prometheus
func MetricsListener() EventListener {
	return &SelectiveListener{
		OnReadCb: func(method string) {
			storeReads.WithLabelValues(method).Inc()
		},
	}
}

// DBMetricsListener reports key-value store latencies to prometheus
func DBMetricsListener() db.EventListener {
	return &db.SelectiveListener{
		OnIOCb: func(write bool, duration time.Duration) {
			op := "read"
			if write {
				op = "write"
			}
			dbIO.WithLabelValues(op).Observe(duration.Seconds())
		},
		OnCommitCb: func(duration time.Duration) {
			dbIO.WithLabelValues("commit").Observe(duration.Seconds())
		},
	}
}
