package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LeadTransitions     *prometheus.CounterVec
	CustomerConversions *prometheus.CounterVec
	LeadsImported       prometheus.Counter
	ImportBatchFailures prometheus.Counter
	LoginAttempts       *prometheus.CounterVec
	PaymentsRecorded    *prometheus.CounterVec
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		LeadTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_lead_transitions_total",
				Help: "Lead status changes by target status",
			},
			[]string{"status"},
		),
		CustomerConversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_customer_conversions_total",
				Help: "Customer records materialized from closed_won leads",
			},
			[]string{"result"},
		),
		LeadsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_leads_imported_total",
			Help: "Leads created through CSV import",
		}),
		ImportBatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "crm_import_batch_failures_total",
			Help: "CSV import batches that failed to commit",
		}),
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"status"},
		),
		PaymentsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_payments_recorded_total",
				Help: "Payments created by currency",
			},
			[]string{"currency"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.LeadTransitions.WithLabelValues(status).Inc()
}

// RecordConversion counts a closed_won conversion; ok is false when the
// customer row could not be written.
func (m *Metrics) RecordConversion(ok bool) {
	if m == nil {
		return
	}
	result := "created"
	if !ok {
		result = "failed"
	}
	m.CustomerConversions.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordImport(imported int, failed bool) {
	if m == nil {
		return
	}
	m.LeadsImported.Add(float64(imported))
	if failed {
		m.ImportBatchFailures.Inc()
	}
}

func (m *Metrics) RecordLogin(success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordPayment(currency string) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(currency).Inc()
}
