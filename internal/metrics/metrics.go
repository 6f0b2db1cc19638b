package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors; it is not the global default.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos_tracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pos_tracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos_tracker",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders created, by order type.",
		},
		[]string{"type"},
	)

	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos_tracker",
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Order status transitions, by source and target status.",
		},
		[]string{"from", "to"},
	)

	stockAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos_tracker",
			Subsystem: "inventory",
			Name:      "adjustments_total",
			Help:      "Inventory adjustments written, by adjustment type.",
		},
		[]string{"type"},
	)

	insufficientStock = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pos_tracker",
			Subsystem: "inventory",
			Name:      "insufficient_stock_total",
			Help:      "Requests rejected because stock was too low.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ordersCreated,
		orderTransitions,
		stockAdjustments,
		insufficientStock,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordOrderCreated(orderType string) {
	ordersCreated.WithLabelValues(orderType).Inc()
}

func RecordOrderTransition(from, to string) {
	orderTransitions.WithLabelValues(from, to).Inc()
}

func RecordStockAdjustment(adjustmentType string) {
	stockAdjustments.WithLabelValues(adjustmentType).Inc()
}

func RecordInsufficientStock() {
	insufficientStock.Inc()
}
