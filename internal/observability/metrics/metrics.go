package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homerental_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_logins_total",
		Help: "Login attempts by role and result",
	}, []string{"role", "result"})

	bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_flat_bookings_total",
		Help: "Flat booking and release operations by result",
	}, []string{"operation", "result"})

	maintenanceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_maintenance_transitions_total",
		Help: "Maintenance status changes by target status",
	}, []string{"status"})

	payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_payments_total",
		Help: "Settled payments by method",
	}, []string{"method"})

	paymentAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_payment_amount_total",
		Help: "Sum of settled payment amounts by method",
	}, []string{"method"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_notifications_total",
		Help: "Notifications created by type",
	}, []string{"type"})

	wsSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "homerental_ws_subscribers",
		Help: "Connected notification stream subscribers",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homerental_events_published_total",
		Help: "Domain events handed to the broker by subject and result",
	}, []string{"subject", "result"})

	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "homerental_sessions_swept_total",
		Help: "Expired sessions and one-time passwords evicted by the janitor",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin counts a login attempt; result is "success" or "failure"
func ObserveLogin(role, result string) {
	logins.WithLabelValues(role, result).Inc()
}

// ObserveBooking counts a book or release operation
func ObserveBooking(operation, result string) {
	bookings.WithLabelValues(operation, result).Inc()
}

// ObserveMaintenanceTransition counts a ticket moving to status
func ObserveMaintenanceTransition(status string) {
	maintenanceTransitions.WithLabelValues(status).Inc()
}

// ObservePayment counts a settled invoice
func ObservePayment(method string, amount float64) {
	payments.WithLabelValues(method).Inc()
	paymentAmount.WithLabelValues(method).Add(amount)
}

// ObserveNotifications adds n created notifications of a type
func ObserveNotifications(kind string, n int) {
	if n <= 0 {
		return
	}
	notificationsSent.WithLabelValues(kind).Add(float64(n))
}

// IncrementSubscribers increments the stream subscriber gauge.
func IncrementSubscribers() {
	wsSubscribers.Inc()
}

// DecrementSubscribers decrements the stream subscriber gauge.
func DecrementSubscribers() {
	wsSubscribers.Dec()
}

// ObserveEvent counts a publish attempt
func ObserveEvent(subject, result string) {
	eventsPublished.WithLabelValues(subject, result).Inc()
}

// ObserveSweep adds evicted entries
func ObserveSweep(n int) {
	if n > 0 {
		sessionsSwept.Add(float64(n))
	}
}
