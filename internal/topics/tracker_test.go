package topics_test

import (
	"testing"
	"time"

	"github.com/MrWong99/attune/internal/interview"
	"github.com/MrWong99/attune/internal/topics"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func judge(topicID string, strength float64, at time.Time) interview.TopicRelevance {
	return interview.TopicRelevance{TopicID: topicID, Strength: strength, At: at}
}

func TestApply_ForwardProgression(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"pricing"})

	st, changed := tr.Apply(judge("pricing", 0.6, t0))
	if !changed || st.Status != topics.StatusTouched {
		t.Fatalf("first judgment: status=%q changed=%v, want touched/true", st.Status, changed)
	}
	if !st.LastUpdated.Equal(t0) {
		t.Errorf("LastUpdated = %v, want %v", st.LastUpdated, t0)
	}

	later := t0.Add(time.Minute)
	st, changed = tr.Apply(judge("pricing", 0.8, later))
	if !changed || st.Status != topics.StatusExplored {
		t.Fatalf("second judgment: status=%q changed=%v, want explored/true", st.Status, changed)
	}
	if !st.LastUpdated.Equal(later) {
		t.Errorf("LastUpdated = %v, want %v", st.LastUpdated, later)
	}
}

func TestApply_StrongJudgmentCannotSkipTouched(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"onboarding"})

	// Maximum strength on an untouched topic still only touches it.
	st, changed := tr.Apply(judge("onboarding", 1.0, t0))
	if !changed || st.Status != topics.StatusTouched {
		t.Fatalf("status=%q changed=%v, want touched/true", st.Status, changed)
	}
}

func TestApply_Thresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		strength float64
		want     topics.Status
		changed  bool
	}{
		{name: "below touch", strength: 0.49, want: topics.StatusUntouched, changed: false},
		{name: "touch boundary inclusive", strength: 0.5, want: topics.StatusTouched, changed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := topics.NewTracker([]string{"trust"})
			st, changed := tr.Apply(judge("trust", tt.strength, t0))
			if st.Status != tt.want || changed != tt.changed {
				t.Errorf("status=%q changed=%v, want %q/%v", st.Status, changed, tt.want, tt.changed)
			}
		})
	}

	// Explore boundary from touched: 0.74 holds, 0.75 advances.
	tr := topics.NewTracker([]string{"trust"})
	tr.Apply(judge("trust", 0.6, t0))
	if st, changed := tr.Apply(judge("trust", 0.74, t0)); changed || st.Status != topics.StatusTouched {
		t.Errorf("0.74 on touched: status=%q changed=%v, want touched/false", st.Status, changed)
	}
	if st, changed := tr.Apply(judge("trust", 0.75, t0)); !changed || st.Status != topics.StatusExplored {
		t.Errorf("0.75 on touched: status=%q changed=%v, want explored/true", st.Status, changed)
	}
}

func TestApply_ExploredIsSticky(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"churn"})
	tr.Apply(judge("churn", 0.9, t0))
	tr.Apply(judge("churn", 0.9, t0))

	// Further judgments of any strength change nothing.
	st, changed := tr.Apply(judge("churn", 0.1, t0.Add(time.Hour)))
	if changed || st.Status != topics.StatusExplored {
		t.Errorf("status=%q changed=%v, want explored/false", st.Status, changed)
	}
}

func TestApply_RegistersUnknownTopic(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"planned"})
	st, changed := tr.Apply(judge("emergent", 0.6, t0))
	if !changed || st.Status != topics.StatusTouched {
		t.Fatalf("unknown topic: status=%q changed=%v, want touched/true", st.Status, changed)
	}

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d topics, want 2", len(snap))
	}
}

func TestApply_EmptyTopicID(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"pricing"})
	if _, changed := tr.Apply(judge("", 0.9, t0)); changed {
		t.Error("empty topic id reported a change")
	}
	if got := len(tr.Snapshot()); got != 1 {
		t.Errorf("snapshot has %d topics, want 1", got)
	}
}

func TestReset_OnlyPathBackward(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"pricing"})
	tr.Apply(judge("pricing", 0.9, t0))
	tr.Apply(judge("pricing", 0.9, t0))

	at := t0.Add(10 * time.Minute)
	if err := tr.Reset("pricing", at); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	snap := tr.Snapshot()
	if snap[0].Status != topics.StatusUntouched {
		t.Errorf("status after reset = %q, want %q", snap[0].Status, topics.StatusUntouched)
	}
	if !snap[0].LastUpdated.Equal(at) {
		t.Errorf("LastUpdated after reset = %v, want %v", snap[0].LastUpdated, at)
	}

	// And progression starts over from the beginning.
	st, changed := tr.Apply(judge("pricing", 1.0, at.Add(time.Minute)))
	if !changed || st.Status != topics.StatusTouched {
		t.Errorf("post-reset judgment: status=%q changed=%v, want touched/true", st.Status, changed)
	}
}

func TestReset_UnknownTopic(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"pricing"})
	if err := tr.Reset("nonexistent", t0); err == nil {
		t.Error("Reset() on unknown topic returned nil error")
	}
}

func TestSnapshot_SortedAndDetached(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"zeta", "alpha", "mid"})
	snap := tr.Snapshot()

	want := []string{"alpha", "mid", "zeta"}
	for i, id := range want {
		if snap[i].TopicID != id {
			t.Errorf("snapshot[%d] = %q, want %q", i, snap[i].TopicID, id)
		}
	}

	// Mutating the returned slice must not leak into the tracker.
	snap[0].Status = topics.StatusExplored
	if got := tr.Snapshot()[0].Status; got != topics.StatusUntouched {
		t.Errorf("tracker state mutated through snapshot copy: %q", got)
	}
}

func TestWithThresholds(t *testing.T) {
	t.Parallel()

	tr := topics.NewTracker([]string{"pricing"}, topics.WithThresholds(0.3, 0.6))
	if st, _ := tr.Apply(judge("pricing", 0.35, t0)); st.Status != topics.StatusTouched {
		t.Errorf("custom touch threshold: status=%q, want touched", st.Status)
	}
	if st, _ := tr.Apply(judge("pricing", 0.65, t0)); st.Status != topics.StatusExplored {
		t.Errorf("custom explore threshold: status=%q, want explored", st.Status)
	}

	// Out-of-range overrides keep the defaults.
	tr = topics.NewTracker([]string{"pricing"}, topics.WithThresholds(-1, 2))
	if st, _ := tr.Apply(judge("pricing", 0.4, t0)); st.Status != topics.StatusUntouched {
		t.Errorf("invalid override changed touch threshold: %q", st.Status)
	}
}
