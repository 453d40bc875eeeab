package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                        sync.Once
	metricsRouter               *chi.Mux
	pollerDurationHistogram     *prometheus.HistogramVec
	reportCounter               *prometheus.CounterVec
	donationNotifyErrorCounter  prometheus.Counter
	feeCaptureCounter           *prometheus.CounterVec
	migrationCounter            *prometheus.CounterVec
	vaultTotalAssetsGauge       *prometheus.GaugeVec
	yieldSourceLatency          *prometheus.HistogramVec
	queueSendErrorCounter       prometheus.Counter
	dbLatency                   *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	reportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_report_count",
			Help: "The total number of strategy reports split by strategy and status",
		},
		[]string{"strategy", "status"},
	)

	donationNotifyErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "donation_notify_error_count",
			Help: "Number of donation ledger notifications swallowed during report",
		},
	)

	feeCaptureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_fee_capture_count",
			Help: "The total number of fee checkpoint captures split by vault and status",
		},
		[]string{"vault", "status"},
	)

	migrationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_count",
			Help: "The total number of position migrations split by status",
		},
		[]string{"status"},
	)

	vaultTotalAssetsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vault_total_assets",
			Help: "Last observed total assets per vault",
		},
		[]string{"vault"},
	)

	yieldSourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yield_source_latency_seconds",
			Help:    "Histogram of yield source call durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		pollerDurationHistogram,
		reportCounter,
		donationNotifyErrorCounter,
		feeCaptureCounter,
		migrationCounter,
		vaultTotalAssetsGauge,
		yieldSourceLatency,
		queueSendErrorCounter,
		dbLatency,
	)
}

func outcomeOf(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

func RecordReport(strategy string, failure bool) {
	if reportCounter == nil {
		return
	}
	reportCounter.WithLabelValues(strategy, outcomeOf(failure).String()).Inc()
}

func IncDonationNotifyFailures() {
	if donationNotifyErrorCounter == nil {
		return
	}
	donationNotifyErrorCounter.Inc()
}

func RecordFeeCapture(vault string, failure bool) {
	if feeCaptureCounter == nil {
		return
	}
	feeCaptureCounter.WithLabelValues(vault, outcomeOf(failure).String()).Inc()
}

func RecordMigration(failure bool) {
	if migrationCounter == nil {
		return
	}
	migrationCounter.WithLabelValues(outcomeOf(failure).String()).Inc()
}

func RecordVaultTotalAssets(vault string, totalAssets float64) {
	if vaultTotalAssetsGauge == nil {
		return
	}
	vaultTotalAssetsGauge.WithLabelValues(vault).Set(totalAssets)
}

func RecordYieldSourceLatency(d time.Duration, method string, failure bool) {
	if yieldSourceLatency == nil {
		return
	}
	yieldSourceLatency.WithLabelValues(method, outcomeOf(failure).String()).Observe(d.Seconds())
}

func RecordQueueSendError() {
	if queueSendErrorCounter == nil {
		return
	}
	queueSendErrorCounter.Inc()
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	if dbLatency == nil {
		return
	}
	dbLatency.WithLabelValues(method, outcomeOf(failure).String()).Observe(d.Seconds())
}
