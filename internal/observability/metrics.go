// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains quill's Prometheus metrics. It implements auth.Observer.
type Metrics struct {
	Registrations      *prometheus.CounterVec
	Logins             *prometheus.CounterVec
	SessionValidations *prometheus.CounterVec
	Logouts            prometheus.Counter
	SessionsSwept      prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics creates and registers quill's metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_registrations_total",
				Help: "Total number of registration attempts by result",
			},
			[]string{"result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		SessionValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_session_validations_total",
				Help: "Total number of request session validations by result",
			},
			[]string{"result"},
		),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quill_logouts_total",
			Help: "Total number of logouts",
		}),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quill_sessions_swept_total",
			Help: "Total number of expired or inactive sessions removed",
		}),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quill_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.Registrations,
		m.Logins,
		m.SessionValidations,
		m.Logouts,
		m.SessionsSwept,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveRegistration records a registration outcome.
func (m *Metrics) ObserveRegistration(result string) {
	m.Registrations.WithLabelValues(result).Inc()
}

// ObserveLogin records a login outcome.
func (m *Metrics) ObserveLogin(result string) {
	m.Logins.WithLabelValues(result).Inc()
}

// ObserveValidation records how a request's session resolved.
func (m *Metrics) ObserveValidation(result string) {
	m.SessionValidations.WithLabelValues(result).Inc()
}

// ObserveLogout records a logout.
func (m *Metrics) ObserveLogout() {
	m.Logouts.Inc()
}

// ObserveSweep records the rows removed by a cleanup pass.
func (m *Metrics) ObserveSweep(removed int64) {
	if removed > 0 {
		m.SessionsSwept.Add(float64(removed))
	}
}

// ObserveHTTP records a completed HTTP request. route is the matched
// pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
