package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identifier generation.
type Metrics struct {
	IdentifiersGenerated *prometheus.CounterVec
	GenerationFailures   *prometheus.CounterVec
	GenerateDuration     prometheus.Histogram
	ValidationResults    *prometheus.CounterVec
	ExportsWritten       prometheus.Counter
}

// New registers every metric with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		IdentifiersGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idgen_identifiers_generated_total",
			Help: "Total number of identifiers generated",
		}, []string{"source"}),
		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idgen_generation_failures_total",
			Help: "Total number of failed generation requests by error kind",
		}, []string{"source", "reason"}),
		GenerateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idgen_generate_duration_seconds",
			Help:    "Duration of GenerateIdentifiers operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ValidationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idgen_validations_total",
			Help: "Total number of identifier validations by result",
		}, []string{"source", "valid"}),
		ExportsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "idgen_exports_written_total",
			Help: "Total number of exported identifier files",
		}),
	}
}

// AddGenerated records n identifiers issued by source.
func (m *Metrics) AddGenerated(source string, n int) {
	m.IdentifiersGenerated.WithLabelValues(source).Add(float64(n))
}

// IncFailure records a failed generation request.
func (m *Metrics) IncFailure(source, reason string) {
	m.GenerationFailures.WithLabelValues(source, reason).Inc()
}

// ObserveGenerate records the duration of a GenerateIdentifiers operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGenerate(start time.Time) {
	m.GenerateDuration.Observe(time.Since(start).Seconds())
}

// IncValidation records the outcome of one validation.
func (m *Metrics) IncValidation(source string, valid bool) {
	label := "false"
	if valid {
		label = "true"
	}
	m.ValidationResults.WithLabelValues(source, label).Inc()
}

// IncExport records a written export file.
func (m *Metrics) IncExport() {
	m.ExportsWritten.Inc()
}
