package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AddGenerated("Main", 3)
	m.AddGenerated("Main", 2)
	m.IncFailure("Main", "format_mismatch")
	m.IncValidation("Main", true)
	m.IncValidation("Main", false)
	m.IncValidation("Main", false)
	m.IncExport()

	assert.Equal(t, float64(5), testutil.ToFloat64(m.IdentifiersGenerated.WithLabelValues("Main")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GenerationFailures.WithLabelValues("Main", "format_mismatch")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ValidationResults.WithLabelValues("Main", "true")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ValidationResults.WithLabelValues("Main", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExportsWritten))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
