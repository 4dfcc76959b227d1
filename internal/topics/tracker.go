// Package topics tracks how far each research topic has been taken in a
// session. Topic state is deliberately soft and non-terminal: there is no
// "complete" status because research topics are never considered closed.
//
// Status only ever moves forward under automatic updates (untouched →
// touched → explored) and never skips the touched stage, however strong the
// relevance judgment. Regression exists only as an explicit manual reset.
package topics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrWong99/attune/internal/interview"
)

// Status is the exploration depth of one topic.
type Status string

const (
	StatusUntouched Status = "untouched"
	StatusTouched   Status = "touched"
	StatusExplored  Status = "explored"
)

const (
	// defaultTouchThreshold is the relevance strength that marks a topic
	// touched.
	defaultTouchThreshold = 0.5

	// defaultExploreThreshold is the strength that advances an already
	// touched topic to explored.
	defaultExploreThreshold = 0.75
)

// State is a snapshot of one topic.
type State struct {
	TopicID     string
	Status      Status
	LastUpdated time.Time
}

// Option configures a [Tracker].
type Option func(*Tracker)

// WithThresholds overrides the touch and explore relevance thresholds.
// Values outside (0,1] keep the defaults.
func WithThresholds(touch, explore float64) Option {
	return func(t *Tracker) {
		if touch > 0 && touch <= 1 {
			t.touchThreshold = touch
		}
		if explore > 0 && explore <= 1 {
			t.exploreThreshold = explore
		}
	}
}

// Tracker holds per-session topic state. All exported methods are safe for
// concurrent use; snapshots are read by the live indicator surface while the
// session loop applies judgments.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*State

	touchThreshold   float64
	exploreThreshold float64
}

// NewTracker creates a Tracker seeded with the session's topic guide. Topics
// referenced by later judgments but absent from the guide are registered
// lazily as untouched.
func NewTracker(topicIDs []string, opts ...Option) *Tracker {
	t := &Tracker{
		states:           make(map[string]*State, len(topicIDs)),
		touchThreshold:   defaultTouchThreshold,
		exploreThreshold: defaultExploreThreshold,
	}
	for _, o := range opts {
		o(t)
	}
	for _, id := range topicIDs {
		if id == "" {
			continue
		}
		t.states[id] = &State{TopicID: id, Status: StatusUntouched}
	}
	return t
}

// Apply advances topic state from an externally sourced relevance judgment.
// It returns the resulting state and whether the status changed. A judgment
// strong enough to explore an untouched topic only touches it; explored is
// reachable solely from touched, so a skip requires two separate pieces of
// evidence.
func (t *Tracker) Apply(j interview.TopicRelevance) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if j.TopicID == "" {
		return State{}, false
	}

	st, ok := t.states[j.TopicID]
	if !ok {
		st = &State{TopicID: j.TopicID, Status: StatusUntouched}
		t.states[j.TopicID] = st
	}

	changed := false
	switch st.Status {
	case StatusUntouched:
		if j.Strength >= t.touchThreshold {
			st.Status = StatusTouched
			changed = true
		}
	case StatusTouched:
		if j.Strength >= t.exploreThreshold {
			st.Status = StatusExplored
			changed = true
		}
	}
	if changed {
		st.LastUpdated = j.At
	}
	return *st, changed
}

// Reset is the user-driven manual reset: the only way a topic may regress.
func (t *Tracker) Reset(topicID string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[topicID]
	if !ok {
		return fmt.Errorf("topics: topic %q not found", topicID)
	}
	st.Status = StatusUntouched
	st.LastUpdated = at
	return nil
}

// Snapshot returns all topic states ordered by topic id for deterministic
// rendering.
func (t *Tracker) Snapshot() []State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]State, 0, len(t.states))
	for _, st := range t.states {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicID < out[j].TopicID })
	return out
}
