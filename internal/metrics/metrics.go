package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightdelivered/statement-assistant/internal/models"
)

const namespace = "statement"

// Metrics holds the collectors for statement processing. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	parsed       *prometheus.CounterVec
	transactions *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	stored       prometheus.Counter
	duration     prometheus.Histogram
}

// New registers the collectors on a private registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parsed_total",
			Help:      "Statements parsed, by bank.",
		}, []string{"bank"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions extracted, by bank and type.",
		}, []string{"bank", "type"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_skipped_total",
			Help:      "Statement lines that produced no record, by reason.",
		}, []string{"bank", "reason"}),
		stored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_stored_total",
			Help:      "Transactions newly written to the database.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_seconds",
			Help:      "Time to extract and parse one statement.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}

	m.registry.MustRegister(
		m.parsed, m.transactions, m.skipped, m.stored, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveParse records one parsed statement.
func (m *Metrics) ObserveParse(info *models.StatementInfo, elapsed time.Duration) {
	if m == nil || info == nil {
		return
	}
	bank := strings.ToLower(string(info.Bank))

	m.parsed.WithLabelValues(bank).Inc()
	m.duration.Observe(elapsed.Seconds())
	for _, txn := range info.Transactions {
		m.transactions.WithLabelValues(bank, txn.Type).Inc()
	}
	if info.Unrecognized > 0 {
		m.skipped.WithLabelValues(bank, "unrecognized").Add(float64(info.Unrecognized))
	}
	if info.Malformed > 0 {
		m.skipped.WithLabelValues(bank, "malformed").Add(float64(info.Malformed))
	}
}

// ObserveStored records rows inserted by an import.
func (m *Metrics) ObserveStored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.stored.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
