package sqlite

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repodeps",
			Subsystem: "store",
			Name:      "queries_total",
			Help:      "Total number of database queries issued by the relation store.",
		},
		[]string{"query", "success"},
	)
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "repodeps",
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "The duration of database queries issued by the relation store.",
		},
		[]string{"query"},
	)
	importedPackages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repodeps",
			Subsystem: "store",
			Name:      "imported_packages_total",
			Help:      "Total number of packages written by snapshot imports.",
		},
		[]string{"branch"},
	)
)

// observe records one query started at start.
func observe(query string, start time.Time, err error) {
	queryCounter.WithLabelValues(query, strconv.FormatBool(err == nil)).Add(1)
	queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
