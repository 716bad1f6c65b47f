package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadreammm/Helply/internal/metrics"
)

func TestCounters(t *testing.T) {
	m := metrics.New()

	m.Guidance("kb")
	m.Guidance("kb")
	m.Guidance("ai")
	m.Persist("update", nil)
	m.Persist("delete", errors.New("boom"))
	m.Detection("url_pattern")
	m.LLM("generate", "malformed")

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	counts := map[string]int{}
	for _, f := range families {
		counts[f.GetName()] = len(f.GetMetric())
	}
	assert.Equal(t, 2, counts["helply_guidance_responses_total"])
	assert.Equal(t, 2, counts["helply_progress_writes_total"])
	assert.Equal(t, 1, counts["helply_step_detections_total"])
	assert.Equal(t, 1, counts["helply_llm_requests_total"])

	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry, "helply_llm_requests_total"))
}

func TestMatchHistogram(t *testing.T) {
	m := metrics.New()
	m.Match(0.95, false)
	m.Match(0.4, true)

	assert.Equal(t, 2, testutil.CollectAndCount(m.Registry, "helply_match_top_confidence"))
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Guidance("kb")
		m.Detection("x")
		m.Persist("update", nil)
		m.Match(1, false)
		m.LLM("clarify", "ok")
	})
}
