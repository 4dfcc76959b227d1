package observe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/attune/internal/observe"
)

// newTestMetrics pairs a Metrics instance with a manual reader so tests can
// collect what was recorded.
func newTestMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMetrics_RecordsCounters(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.Utterances.Add(ctx, 3)
	m.RecordDecision(ctx, "suppress", "session_cooldown")
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	metrics := collect(t, reader)

	utter, ok := metrics["attune.utterances"].Data.(metricdata.Sum[int64])
	if !ok || len(utter.DataPoints) != 1 || utter.DataPoints[0].Value != 3 {
		t.Errorf("attune.utterances = %+v", metrics["attune.utterances"].Data)
	}

	dec, ok := metrics["attune.coach.decisions"].Data.(metricdata.Sum[int64])
	if !ok || len(dec.DataPoints) != 1 || dec.DataPoints[0].Value != 1 {
		t.Fatalf("attune.coach.decisions = %+v", metrics["attune.coach.decisions"].Data)
	}
	attrs := dec.DataPoints[0].Attributes
	if v, _ := attrs.Value("kind"); v.AsString() != "suppress" {
		t.Errorf("decision kind attribute = %q", v.AsString())
	}
	if v, _ := attrs.Value("reason"); v.AsString() != "session_cooldown" {
		t.Errorf("decision reason attribute = %q", v.AsString())
	}

	active, ok := metrics["attune.active_sessions"].Data.(metricdata.Sum[int64])
	if !ok || len(active.DataPoints) != 1 || active.DataPoints[0].Value != 0 {
		t.Errorf("attune.active_sessions = %+v", metrics["attune.active_sessions"].Data)
	}
}

func TestNewMetrics_AnalyzerHistogram(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	m.AnalyzerDuration.Record(context.Background(), 0.002)
	m.AnalyzerDuration.Record(context.Background(), 0.004)

	metrics := collect(t, reader)
	hist, ok := metrics["attune.analyzer.duration"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("attune.analyzer.duration = %+v", metrics["attune.analyzer.duration"].Data)
	}
	if hist.DataPoints[0].Count != 2 {
		t.Errorf("histogram count = %d, want 2", hist.DataPoints[0].Count)
	}
}

func TestDefaultMetrics_StablePointer(t *testing.T) {
	t.Parallel()

	if observe.DefaultMetrics() != observe.DefaultMetrics() {
		t.Error("DefaultMetrics() returned different pointers")
	}
}

func TestMiddleware_RecordsRequests(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)

	handler := observe.Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not forwarded: %d", rec.Code)
	}

	metrics := collect(t, reader)
	hist, ok := metrics["attune.http.request.duration"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("attune.http.request.duration = %+v", metrics["attune.http.request.duration"].Data)
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("request count = %d, want 1", dp.Count)
	}
	if v, _ := dp.Attributes.Value("path"); v.AsString() != "/v1/sessions" {
		t.Errorf("path attribute = %q", v.AsString())
	}
	if v, _ := dp.Attributes.Value("method"); v.AsString() != http.MethodGet {
		t.Errorf("method attribute = %q", v.AsString())
	}
}
