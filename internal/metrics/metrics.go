// Package metrics exposes storage counters to Prometheus.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xRadioAc7iv/caskdb/internal/record"
)

type Metrics struct {
	registry *prometheus.Registry

	RecordsWritten   prometheus.Counter
	BytesWritten     prometheus.Counter
	RecordsRead      prometheus.Counter
	ReadErrors       *prometheus.CounterVec
	ReadOnlyRejected prometheus.Counter
	WriteLatency     prometheus.Histogram
	ReadLatency      prometheus.Histogram
	Rotations        prometheus.Counter
	Syncs            prometheus.Counter
	KeyDirSize       prometheus.Gauge
	RecoveredRecords prometheus.Counter
	TornTails        prometheus.Counter
	CorruptRegions   prometheus.Counter
}

// New creates a Metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_records_written_total",
			Help: "Total number of records appended to datafiles",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_bytes_written_total",
			Help: "Total number of bytes appended to datafiles",
		}),
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_records_read_total",
			Help: "Total number of records read and validated",
		}),
		ReadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caskdb_read_errors_total",
			Help: "Record reads rejected, by reason",
		}, []string{"reason"}),
		ReadOnlyRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_readonly_rejections_total",
			Help: "Writes refused because the datafile is read-only",
		}),
		WriteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caskdb_write_latency_seconds",
			Help:    "Histogram of record append latency",
			Buckets: prometheus.DefBuckets,
		}),
		ReadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caskdb_read_latency_seconds",
			Help:    "Histogram of record read latency",
			Buckets: prometheus.DefBuckets,
		}),
		Rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_datafile_rotations_total",
			Help: "Total number of active datafile rotations",
		}),
		Syncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_syncs_total",
			Help: "Total number of fsyncs issued on datafiles",
		}),
		KeyDirSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "caskdb_keydir_keys",
			Help: "Current number of live keys in the keydir",
		}),
		RecoveredRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_recovered_records_total",
			Help: "Records replayed from datafiles at startup",
		}),
		TornTails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_torn_tails_truncated_total",
			Help: "Datafiles whose torn tail was truncated at startup",
		}),
		CorruptRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caskdb_corrupt_regions_total",
			Help: "Damaged datafile ranges found at startup and left in place",
		}),
	}

	m.registry.MustRegister(
		m.RecordsWritten,
		m.BytesWritten,
		m.RecordsRead,
		m.ReadErrors,
		m.ReadOnlyRejected,
		m.WriteLatency,
		m.ReadLatency,
		m.Rotations,
		m.Syncs,
		m.KeyDirSize,
		m.RecoveredRecords,
		m.TornTails,
		m.CorruptRegions,
	)

	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveWrite(n int, start time.Time) {
	if m == nil {
		return
	}
	m.RecordsWritten.Inc()
	m.BytesWritten.Add(float64(n))
	m.WriteLatency.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRead(err error, start time.Time) {
	if m == nil {
		return
	}
	m.ReadLatency.Observe(time.Since(start).Seconds())
	if err == nil {
		m.RecordsRead.Inc()
		return
	}
	m.ReadErrors.WithLabelValues(readErrorReason(err)).Inc()
}

func (m *Metrics) ObserveReadOnlyRejection() {
	if m == nil {
		return
	}
	m.ReadOnlyRejected.Inc()
}

func (m *Metrics) ObserveRotation() {
	if m == nil {
		return
	}
	m.Rotations.Inc()
}

func (m *Metrics) ObserveSync() {
	if m == nil {
		return
	}
	m.Syncs.Inc()
}

func (m *Metrics) SetKeyDirSize(n int) {
	if m == nil {
		return
	}
	m.KeyDirSize.Set(float64(n))
}

func (m *Metrics) ObserveRecovery(records int, truncated bool) {
	if m == nil {
		return
	}
	m.RecoveredRecords.Add(float64(records))
	if truncated {
		m.TornTails.Inc()
	}
}

// ObserveCorruption counts damaged ranges that recovery skipped over.
func (m *Metrics) ObserveCorruption(regions int) {
	if m == nil {
		return
	}
	m.CorruptRegions.Add(float64(regions))
}

func readErrorReason(err error) string {
	switch {
	case errors.Is(err, record.ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, record.ErrTruncated):
		return "truncated"
	case errors.Is(err, record.ErrLengthMismatch):
		return "length"
	default:
		return "io"
	}
}
