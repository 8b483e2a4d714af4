package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserverCounts(t *testing.T) {
	m := &Metrics{prometheus: NewPrometheusMetrics()}

	m.Fit("circle", nil)
	m.Fit("circle", nil)
	m.Fit("circle", errors.New("collinear"))
	m.Step("pca")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.prometheus.Fits.WithLabelValues("circle", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.prometheus.Fits.WithLabelValues("circle", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.prometheus.Steps.WithLabelValues("pca")))
}
