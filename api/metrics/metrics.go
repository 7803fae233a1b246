package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ideavault_api_build_info",
			Help: "Build information of the IdeaVault API",
		},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideavault_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ideavault_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ideavault_api_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Vault operation metrics
	VaultOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideavault_api_vault_operations_total",
			Help: "Total number of vault operations",
		},
		[]string{"operation", "status"}, // operation: "init_vault", "deposit", "withdraw", "admin_withdraw", ...
	)

	VaultOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ideavault_api_vault_operation_duration_seconds",
			Help:    "Duration of vault operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	DepositedAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ideavault_api_deposited_amount_total",
			Help: "Cumulative deposited amount in base units",
		},
	)

	WithdrawnAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideavault_api_withdrawn_amount_total",
			Help: "Cumulative withdrawn amount in base units",
		},
		[]string{"kind"}, // "user", "admin"
	)

	// Transfer gateway metrics
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideavault_api_gateway_requests_total",
			Help: "Total number of transfer gateway requests",
		},
		[]string{"method", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ideavault_api_gateway_request_duration_seconds",
			Help:    "Duration of transfer gateway requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~41s
		},
		[]string{"method"},
	)

	PausedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ideavault_api_protocol_paused",
			Help: "Whether the protocol is currently paused (1) or active (0)",
		},
	)
)

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Use the route pattern if available, otherwise use the path
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}

		status := strconv.Itoa(ww.Status())
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// RecordVaultOperation records a vault operation's outcome and duration.
func RecordVaultOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	VaultOperationsTotal.WithLabelValues(operation, status).Inc()
	VaultOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDeposit records a successful deposit amount.
func RecordDeposit(amount uint64) {
	DepositedAmountTotal.Add(float64(amount))
}

// RecordWithdrawal records a successful withdrawal amount.
func RecordWithdrawal(kind string, amount uint64) {
	WithdrawnAmountTotal.WithLabelValues(kind).Add(float64(amount))
}

// RecordGatewayRequest records a transfer gateway call.
func RecordGatewayRequest(method string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	GatewayRequestsTotal.WithLabelValues(method, status).Inc()
	GatewayRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SetPaused mirrors the protocol pause flag into a gauge.
func SetPaused(paused bool) {
	if paused {
		PausedGauge.Set(1)
	} else {
		PausedGauge.Set(0)
	}
}
