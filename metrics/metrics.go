package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/yeremiapane/restaurant-floor/utils"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floor_operations_total",
			Help: "Table and order lifecycle operations by outcome category",
		},
		[]string{"operation", "outcome"},
	)

	TxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "floor_store_tx_retries_total",
			Help: "Transactions retried after a transient store error",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floor_events_published_total",
			Help: "Events handed to a broadcast sink",
		},
		[]string{"sink", "event"},
	)

	ConnectedObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floor_ws_connected_observers",
			Help: "Websocket observers currently connected",
		},
	)
)

// RecordOperation counts one lifecycle operation; failures are labelled with
// their error category.
func RecordOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(string(utils.KindOf(err)))
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}
