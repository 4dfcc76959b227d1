// Package eventlog provides the append-only per-session decision record.
// Every candidate evaluation lands here exactly once — shown, suppressed and
// degraded decisions share one entry structure, differing only in variant
// and reason code. That symmetry is a correctness requirement: the product's
// trust model depends on proving the system stayed quiet for good reason,
// so "what we almost showed" is recorded as rigorously as what was shown.
package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/coach"
	"github.com/MrWong99/attune/internal/insight"
)

// EntryKind tags what an entry records.
type EntryKind string

const (
	KindDecision EntryKind = "decision"
	KindInsight  EntryKind = "insight"
)

// Entry is one append-only log record. Exactly one of Decision or Insight is
// set, matching Kind.
type Entry struct {
	ID        uuid.UUID
	SessionID string
	Kind      EntryKind
	At        time.Time

	Decision *coach.Decision
	Insight  *insight.Flag
}

// Sink receives the session's entries at flush time. Implementations must
// tolerate being handed the same entries twice (flush retries).
type Sink interface {
	Persist(ctx context.Context, entries []Entry) error
}

// Log is the in-memory append-only event log for one session. Safe for
// concurrent use.
type Log struct {
	sessionID string

	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates an empty log for the session.
func NewLog(sessionID string) *Log {
	return &Log{sessionID: sessionID}
}

// AppendDecision records one policy decision. Called once per candidate,
// whatever the outcome.
func (l *Log) AppendDecision(d coach.Decision) Entry {
	return l.append(Entry{
		Kind:     KindDecision,
		At:       d.At,
		Decision: &d,
	})
}

// AppendInsight records one auto-flagged insight.
func (l *Log) AppendInsight(f insight.Flag) Entry {
	return l.append(Entry{
		Kind:    KindInsight,
		At:      f.At,
		Insight: &f,
	})
}

func (l *Log) append(e Entry) Entry {
	e.ID = uuid.New()
	e.SessionID = l.sessionID

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy of all entries in append order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// CountKind returns how many entries of the given kind have been appended.
func (l *Log) CountKind(kind EntryKind) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Flush hands all entries to the sink. Called at session teardown; a nil
// sink is a no-op so memory-only deployments need no special casing.
func (l *Log) Flush(ctx context.Context, sink Sink) error {
	if sink == nil {
		return nil
	}
	entries := l.Entries()
	if len(entries) == 0 {
		return nil
	}
	if err := sink.Persist(ctx, entries); err != nil {
		return fmt.Errorf("eventlog: flush session %s: %w", l.sessionID, err)
	}
	return nil
}
