package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payments_ledger/internal/domain"
	"payments_ledger/internal/engine"
)

var _ engine.Recorder = (*MetricsCollector)(nil)

const namespace = "ledger"

// MetricsCollector records engine activity on a private registry. It is safe
// for concurrent use.
type MetricsCollector struct {
	registry        *prometheus.Registry
	recordsApplied  *prometheus.CounterVec
	recordsRejected *prometheus.CounterVec
	applyDuration   prometheus.Histogram
	cacheEvictions  *prometheus.CounterVec
	laneRecords     *prometheus.CounterVec
	accounts        prometheus.Gauge
	server          *http.Server
	logger          *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		recordsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_applied_total",
			Help:      "Records accepted by the engine",
		}, []string{"type"}),
		recordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Records rejected by the engine",
		}, []string{"type", "reason"}),
		applyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "apply_duration_seconds",
			Help:      "Time taken to apply one record",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		cacheEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries evicted from the bounded caches",
		}, []string{"cache"}),
		laneRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lane_records_total",
			Help:      "Records applied per concurrent lane",
		}, []string{"lane"}),
		accounts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts resident in the engine",
		}),
		logger: logger,
	}
}

func (m *MetricsCollector) ObserveApply(rec domain.Record, err error, elapsed time.Duration) {
	m.applyDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.recordsApplied.WithLabelValues(rec.Type.String()).Inc()
		return
	}

	reason := "unknown"
	if kind, ok := domain.KindOf(err); ok {
		reason = kind.String()
	}
	m.recordsRejected.WithLabelValues(rec.Type.String(), reason).Inc()
}

func (m *MetricsCollector) ObserveEviction(cache string) {
	m.cacheEvictions.WithLabelValues(cache).Inc()
}

func (m *MetricsCollector) ObserveLane(lane int) {
	m.laneRecords.WithLabelValues(strconv.Itoa(lane)).Inc()
}

func (m *MetricsCollector) SetAccounts(n int) {
	m.accounts.Set(float64(n))
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.server = server

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

// WriteTextfile dumps the current metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func (m *MetricsCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.server != nil {
		if err := m.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
