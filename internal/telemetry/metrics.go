// Package telemetry exposes Prometheus metrics for the scheduler.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics collectors. A nil *Metrics is valid
// and records nothing, so tests can run without a registry.
type Metrics struct {
	cyclesTotal       prometheus.Counter
	cycleDuration     prometheus.Histogram
	templatesDue      prometheus.Counter
	invoicesGenerated prometheus.Counter
	seriesStopped     prometheus.Counter
	templatesFailed   prometheus.Counter
	emailsSent        prometheus.Counter
	emailsFailed      prometheus.Counter
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "faktura"
	}

	m := &Metrics{
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_cycles_total",
			Help:      "Total number of scheduler cycles run",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_cycle_duration_seconds",
			Help:      "Scheduler cycle duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		templatesDue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_templates_due_total",
			Help:      "Total number of due recurring templates picked up",
		}),
		invoicesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_invoices_generated_total",
			Help:      "Total number of invoices generated from templates",
		}),
		seriesStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_series_stopped_total",
			Help:      "Total number of recurring series stopped at their cap",
		}),
		templatesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_templates_failed_total",
			Help:      "Total number of templates that failed processing",
		}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_emails_sent_total",
			Help:      "Total number of invoice emails delivered",
		}),
		emailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_emails_failed_total",
			Help:      "Total number of invoice emails that failed to deliver",
		}),
	}

	prometheus.MustRegister(
		m.cyclesTotal,
		m.cycleDuration,
		m.templatesDue,
		m.invoicesGenerated,
		m.seriesStopped,
		m.templatesFailed,
		m.emailsSent,
		m.emailsFailed,
	)

	return m
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) CycleCompleted(duration time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
	m.cycleDuration.Observe(duration.Seconds())
}

func (m *Metrics) TemplatesDue(n int) {
	if m == nil {
		return
	}
	m.templatesDue.Add(float64(n))
}

func (m *Metrics) InvoiceGenerated() {
	if m == nil {
		return
	}
	m.invoicesGenerated.Inc()
}

func (m *Metrics) SeriesStopped() {
	if m == nil {
		return
	}
	m.seriesStopped.Inc()
}

func (m *Metrics) TemplateFailed() {
	if m == nil {
		return
	}
	m.templatesFailed.Inc()
}

func (m *Metrics) EmailSent() {
	if m == nil {
		return
	}
	m.emailsSent.Inc()
}

func (m *Metrics) EmailFailed() {
	if m == nil {
		return
	}
	m.emailsFailed.Inc()
}
