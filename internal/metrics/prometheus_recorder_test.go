package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("minify", 150*time.Millisecond)
	pr.IncStageResult("minify", ResultSuccess)
	pr.IncStageResult("linkcheck", ResultWarning)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.ObserveFile("script", 1000, 400)
	pr.ObserveFile("script", 500, 200)

	require.InDelta(t, 2, counterValue(t, reg, "sitebundle_files_total", "script"), 0)
	require.InDelta(t, 1500, counterValue(t, reg, "sitebundle_input_bytes_total", "script"), 0)
	require.InDelta(t, 600, counterValue(t, reg, "sitebundle_output_bytes_total", "script"), 0)
	require.InDelta(t, 1, counterValue(t, reg, "sitebundle_build_outcomes_total", "success"), 0)
}

// counterValue returns the counter of family name whose labels include value.
func counterValue(t *testing.T, reg *prom.Registry, name, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, value)
	return 0
}

func TestPrometheusRecorderTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome(BuildOutcomeFailed)

	path := filepath.Join(t.TempDir(), "sitebundle.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `sitebundle_build_outcomes_total{outcome="failed"} 1`)
}

func TestPrometheusRecorderHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.ObserveFile("asset", 10, 10)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "sitebundle_files_total"))
}
