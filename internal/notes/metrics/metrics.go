// Package metrics defines Prometheus collectors for the notes service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notes"

// Результаты операций.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultLimit    = "limit_exceeded"
	ResultError    = "error"
)

// Metrics содержит коллекторы сервиса. Методы безопасно вызывать на nil.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveRequests      prometheus.Gauge
	NoteOperations      *prometheus.CounterVec
	QuotaRejections     prometheus.Counter
	TrashPurged         prometheus.Counter
	CacheLookups        *prometheus.CounterVec
}

// New регистрирует коллекторы в reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		ActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_active_requests",
				Help:      "Current number of active HTTP requests",
			},
		),
		NoteOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of note operations by result",
			},
			[]string{"operation", "result"}, // create, edit, soft_delete, restore, ...
		),
		QuotaRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_rejections_total",
				Help:      "Create and restore attempts rejected by the active note limit",
			},
		),
		TrashPurged: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trash_purged_total",
				Help:      "Notes permanently removed by trash retention",
			},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by kind and outcome",
			},
			[]string{"kind", "outcome"}, // summary/analytics, hit/miss
		),
	}
}

// TrackNoteOperation увеличивает счетчик операций с заметками.
func (m *Metrics) TrackNoteOperation(operation, result string) {
	if m == nil {
		return
	}
	m.NoteOperations.WithLabelValues(operation, result).Inc()
	if result == ResultLimit {
		m.QuotaRejections.Inc()
	}
}

// TrackPurged учитывает заметки, удаленные по сроку хранения корзины.
func (m *Metrics) TrackPurged(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.TrashPurged.Add(float64(count))
}

// TrackCacheLookup учитывает попадание или промах кеша.
func (m *Metrics) TrackCacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, outcome).Inc()
}

// TrackRequest учитывает завершенный HTTP-запрос.
func (m *Metrics) TrackRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
