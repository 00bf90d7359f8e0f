package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "dairy_"

	// ResultSuccess labels successful operations.
	ResultSuccess = "success"
	// ResultError labels failed operations.
	ResultError = "error"
)

var (
	registerOnce sync.Once

	rateResolveTotal   *prometheus.CounterVec
	rateResolveLatency *prometheus.HistogramVec

	deliveryWriteTotal   *prometheus.CounterVec
	deliveryWriteLatency *prometheus.HistogramVec

	statementBuildTotal   *prometheus.CounterVec
	statementBuildLatency *prometheus.HistogramVec
	statementExportTotal  *prometheus.CounterVec

	notifySendTotal *prometheus.CounterVec
)

// Init registers observability metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		rateResolveTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rate_resolve_total",
				Help: "Total rate resolutions by result",
			},
			[]string{"result"},
		)
		rateResolveLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "rate_resolve_latency_seconds",
				Help:    "Rate resolution latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		deliveryWriteTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "delivery_write_total",
				Help: "Total delivery ledger writes by operation and result",
			},
			[]string{"op", "result"},
		)
		deliveryWriteLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "delivery_write_latency_seconds",
				Help:    "Delivery ledger write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)

		statementBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_build_total",
				Help: "Total billing statement builds by result",
			},
			[]string{"result"},
		)
		statementBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_build_latency_seconds",
				Help:    "Billing statement build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement exports by format and result",
			},
			[]string{"format", "result"},
		)

		notifySendTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notify_send_total",
				Help: "Total notification sends by kind and result",
			},
			[]string{"kind", "result"},
		)

		prometheus.MustRegister(
			rateResolveTotal,
			rateResolveLatency,
			deliveryWriteTotal,
			deliveryWriteLatency,
			statementBuildTotal,
			statementBuildLatency,
			statementExportTotal,
			notifySendTotal,
		)
	})
}

// ObserveRateResolve records a rate resolution.
func ObserveRateResolve(result string, elapsed time.Duration) {
	if rateResolveTotal == nil {
		return
	}
	rateResolveTotal.WithLabelValues(result).Inc()
	rateResolveLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveDeliveryWrite records a ledger create/update/delete.
func ObserveDeliveryWrite(op, result string, elapsed time.Duration) {
	if deliveryWriteTotal == nil {
		return
	}
	deliveryWriteTotal.WithLabelValues(op, result).Inc()
	deliveryWriteLatency.WithLabelValues(op, result).Observe(elapsed.Seconds())
}

// ObserveStatementBuild records a billing statement build.
func ObserveStatementBuild(result string, elapsed time.Duration) {
	if statementBuildTotal == nil {
		return
	}
	statementBuildTotal.WithLabelValues(result).Inc()
	statementBuildLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveStatementExport records a statement export.
func ObserveStatementExport(format, result string) {
	if statementExportTotal == nil {
		return
	}
	statementExportTotal.WithLabelValues(format, result).Inc()
}

// ObserveNotifySend records a notification attempt.
func ObserveNotifySend(kind, result string) {
	if notifySendTotal == nil {
		return
	}
	notifySendTotal.WithLabelValues(kind, result).Inc()
}
