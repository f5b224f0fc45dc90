package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tableside",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	ordersSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tableside",
			Name:      "orders_submitted_total",
			Help:      "Orders appended to the order store.",
		},
	)

	ordersCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tableside",
			Name:      "orders_completed_total",
			Help:      "Orders removed from the order store by the kitchen.",
		},
	)

	menuLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tableside",
			Name:      "menu_loads_total",
			Help:      "Menu loads by outcome (parsed, fallback).",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, ordersSubmitted, ordersCompleted, menuLoads)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncOrdersSubmitted() { ordersSubmitted.Inc() }
func IncOrdersCompleted() { ordersCompleted.Inc() }

// IncMenuLoad records one menu load; outcome is "parsed" or "fallback".
func IncMenuLoad(outcome string) {
	menuLoads.WithLabelValues(outcome).Inc()
}
