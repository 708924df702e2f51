package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.HeatmapBuilds.WithLabelValues(OutcomePartial).Inc()
	m.StaleResponses.WithLabelValues("commute").Add(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "commute_heatmap_builds_total")
	assert.Contains(t, names, "commute_stale_responses_total")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HeatmapBuilds.WithLabelValues(OutcomePartial)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleResponses.WithLabelValues("commute")))
}

func TestNew_NilRegistererIsUsable(t *testing.T) {
	m := New(nil)
	m.UpstreamRequests.WithLabelValues("ml", OutcomeOK).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("ml", OutcomeOK)))
}
