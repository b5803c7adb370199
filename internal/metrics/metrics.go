// Package metrics exposes Prometheus instrumentation for the buffer engine.
// Collectors register against the default registry on import; embedding
// applications that serve promhttp get errship_* series with no extra wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errship_records_total",
		Help: "Error occurrences recorded by the buffer.",
	}, []string{"persistence"})

	flushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errship_flushes_total",
		Help: "Flush attempts by trigger reason and outcome.",
	}, []string{"reason", "status"})

	flushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "errship_flush_duration_seconds",
		Help:    "Time spent delivering a snapshot to the sink.",
		Buckets: prometheus.DefBuckets,
	}, []string{"reason"})

	flushedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "errship_flushed_records_total",
		Help: "Distinct records handed to the sink across all flushes.",
	})

	bufferEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "errship_buffer_entries",
		Help: "Distinct dedup keys currently buffered.",
	})

	bufferBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "errship_buffer_bytes",
		Help: "Estimated serialized size of the buffered map.",
	})

	mirrorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errship_mirror_errors_total",
		Help: "Persistence mirror operation failures.",
	}, []string{"op"})
)

// RecordObserved counts one recorded occurrence.
func RecordObserved(persistence string) {
	recordsTotal.WithLabelValues(persistence).Inc()
}

// BufferSize publishes the current buffer footprint.
func BufferSize(entries, bytes int) {
	bufferEntries.Set(float64(entries))
	bufferBytes.Set(float64(bytes))
}

// FlushObserved counts one flush attempt and its delivery time.
func FlushObserved(reason string, records int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	flushesTotal.WithLabelValues(reason, status).Inc()
	flushDuration.WithLabelValues(reason).Observe(d.Seconds())
	if err == nil {
		flushedRecords.Add(float64(records))
	}
}

// MirrorError counts one failed mirror operation.
func MirrorError(op string) {
	mirrorErrors.WithLabelValues(op).Inc()
}
