package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shamburg82/J-VIBE/internal/engine"
)

// counter sums every sample of the named family whose labels include match.
func counter(t *testing.T, m *Metrics, name string, match map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metric:
		for _, mt := range f.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range mt.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range match {
				if labels[k] != v {
					continue metric
				}
			}
			switch {
			case mt.GetCounter() != nil:
				total += mt.GetCounter().GetValue()
			case mt.GetHistogram() != nil:
				total += float64(mt.GetHistogram().GetSampleCount())
			case mt.GetGauge() != nil:
				total += mt.GetGauge().GetValue()
			}
		}
	}
	return total
}

func TestObserveRecords(t *testing.T) {
	m := New()
	m.ObserveRecords([]engine.Record{
		{Decision: engine.DecisionNewContextSet, DetectionMethod: "flexible_header_analysis", Transitions: 1},
		{Decision: engine.DecisionInherited, Transitions: 1},
		{Decision: engine.DecisionInherited, Transitions: 1},
		{Decision: engine.DecisionNewContext, DetectionMethod: "cached_header", Transitions: 1},
		{Decision: engine.DecisionTOC, Transitions: 1},
		// late commit
		{Decision: engine.DecisionNewContext, DetectionMethod: "pattern", Transitions: 2},
	})

	tests := []struct {
		decision engine.Decision
		want     float64
	}{
		{engine.DecisionNewContextSet, 1},
		{engine.DecisionInherited, 2},
		{engine.DecisionNewContext, 2},
		{engine.DecisionTOC, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			got := counter(t, m, "tlfmeta_records_total", map[string]string{"decision": string(tt.decision)})
			if got != tt.want {
				t.Errorf("records{decision=%s} = %v, want %v", tt.decision, got, tt.want)
			}
		})
	}
	if got := counter(t, m, "tlfmeta_transitions_total", nil); got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}
	if got := counter(t, m, "tlfmeta_header_cache_hits_total", nil); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
}

func TestObserveJudge(t *testing.T) {
	m := New()
	m.ObserveJudge(JudgeOK, 200*time.Millisecond)
	m.ObserveJudge(JudgeOK, 300*time.Millisecond)
	m.ObserveJudge(JudgeTimeout, 5*time.Second)
	m.ObserveJudge(JudgeSkipped, 0)

	if got := counter(t, m, "tlfmeta_judge_calls_total", map[string]string{"outcome": JudgeOK}); got != 2 {
		t.Errorf("ok calls = %v, want 2", got)
	}
	if got := counter(t, m, "tlfmeta_judge_calls_total", nil); got != 4 {
		t.Errorf("all calls = %v, want 4", got)
	}
	if got := counter(t, m, "tlfmeta_judge_latency_seconds", nil); got != 3 {
		t.Errorf("latency samples = %v, want 3 (skipped calls are not timed)", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRecords([]engine.Record{{Decision: engine.DecisionInherited}})
	m.ObserveJudge(JudgeError, time.Second)
	m.ObserveJob("completed")
	m.SetQueueDepth(3)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveJob("completed")
	m.SetQueueDepth(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`tlfmeta_jobs_total{status="completed"} 1`,
		`tlfmeta_queue_depth 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition output:\n%s", want, body)
		}
	}
}
