package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

const namespace = "warehouse"

// Failure reasons recorded by OrderFailed.
const (
	ReasonValidation        = "validation"
	ReasonProductNotFound   = "product_not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonStore             = "store"
)

// Metrics holds the service collectors on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced    prometheus.Counter
	orderFailures   *prometheus.CounterVec
	itemsReserved   prometheus.Counter
	statusChanges   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	eventsPublished *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed successfully.",
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_placement_failures_total",
			Help:      "Order placements rejected or rolled back, by reason.",
		}, []string{"reason"}),
		itemsReserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_reserved_total",
			Help:      "Units of stock taken by committed orders.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Order status updates, by new status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Kafka events by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersPlaced,
		m.orderFailures,
		m.itemsReserved,
		m.statusChanges,
		m.httpRequests,
		m.httpDuration,
		m.eventsPublished,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// OrderPlaced records a committed order with the given number of units.
func (m *Metrics) OrderPlaced(units int) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.itemsReserved.Add(float64(units))
}

// OrderFailed records a rejected placement.
func (m *Metrics) OrderFailed(reason string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(reason).Inc()
}

// StatusOther labels status changes to values outside the known set.
const StatusOther = "other"

var knownStatuses = map[string]bool{
	models.OrderStatusInProcess: true,
	models.OrderStatusShipped:   true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

// StatusChanged records an order status update. Statuses are client input,
// so anything outside the known set is counted as StatusOther.
func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	if !knownStatuses[status] {
		status = StatusOther
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// EventPublished records the outcome of a Kafka publish.
func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// Middleware counts requests and observes latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
