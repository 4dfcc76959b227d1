package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/app"
	"github.com/MrWong99/attune/internal/config"
	"github.com/MrWong99/attune/internal/eventlog"
	"github.com/MrWong99/attune/internal/interview"
)

type memorySink struct {
	entries []eventlog.Entry
}

func (s *memorySink) Persist(_ context.Context, entries []eventlog.Entry) error {
	s.entries = append(s.entries, entries...)
	return nil
}

func newManager(t *testing.T, sink eventlog.Sink) *app.SessionManager {
	t.Helper()
	cfg := &config.Config{}
	cfg.Coaching.Enabled = true
	sm := app.NewSessionManager(app.SessionManagerConfig{Config: cfg, Sink: sink})
	t.Cleanup(func() { sm.StopAll(context.Background()) })
	return sm
}

func TestSessionManager_StartAndGet(t *testing.T) {
	t.Parallel()

	sm := newManager(t, nil)
	info, err := sm.Start(context.Background(), app.StartOptions{
		SessionID: "session-1",
		Title:     "Pilot study",
		Topics:    []string{"pricing", "onboarding"},
	})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if info.SessionID != "session-1" {
		t.Errorf("session id = %q", info.SessionID)
	}
	if info.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}

	if _, ok := sm.Get("session-1"); !ok {
		t.Error("Get() did not find the started session")
	}
	if sm.Count() != 1 {
		t.Errorf("Count() = %d, want 1", sm.Count())
	}
}

func TestSessionManager_GeneratedID(t *testing.T) {
	t.Parallel()

	sm := newManager(t, nil)
	info, err := sm.Start(context.Background(), app.StartOptions{Title: "Weekly Check In"})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !strings.HasPrefix(info.SessionID, "session-weekly-check-in-") {
		t.Errorf("generated id = %q", info.SessionID)
	}

	// No title at all still yields a usable id.
	info2, err := sm.Start(context.Background(), app.StartOptions{})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !strings.HasPrefix(info2.SessionID, "session-interview-") {
		t.Errorf("generated id = %q", info2.SessionID)
	}
}

func TestSessionManager_DuplicateID(t *testing.T) {
	t.Parallel()

	sm := newManager(t, nil)
	if _, err := sm.Start(context.Background(), app.StartOptions{SessionID: "dup"}); err != nil {
		t.Fatalf("first Start() error: %v", err)
	}
	if _, err := sm.Start(context.Background(), app.StartOptions{SessionID: "dup"}); err == nil {
		t.Error("duplicate session id accepted")
	}
}

func TestSessionManager_StopFlushesEventLog(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	sm := newManager(t, sink)
	if _, err := sm.Start(context.Background(), app.StartOptions{SessionID: "session-1"}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	pipeline, ok := sm.Get("session-1")
	if !ok {
		t.Fatal("session not found")
	}
	pipeline.HandleCandidate(interview.NudgeCandidate{
		ID:         uuid.New(),
		Text:       "Ask a follow-up.",
		Confidence: 0.95,
	})

	if err := sm.Stop(context.Background(), "session-1"); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if sm.Count() != 0 {
		t.Errorf("Count() = %d after stop", sm.Count())
	}
	if len(sink.entries) != 1 {
		t.Fatalf("sink received %d entries, want 1", len(sink.entries))
	}
	if sink.entries[0].Kind != eventlog.KindDecision {
		t.Errorf("flushed entry kind = %q", sink.entries[0].Kind)
	}
}

func TestSessionManager_StopUnknown(t *testing.T) {
	t.Parallel()

	sm := newManager(t, nil)
	if err := sm.Stop(context.Background(), "ghost"); err == nil {
		t.Error("Stop() on unknown session returned nil error")
	}
}

func TestSessionManager_StopAll(t *testing.T) {
	t.Parallel()

	sm := newManager(t, nil)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := sm.Start(context.Background(), app.StartOptions{SessionID: id}); err != nil {
			t.Fatalf("Start(%s) error: %v", id, err)
		}
	}
	sm.StopAll(context.Background())
	if sm.Count() != 0 {
		t.Errorf("Count() = %d after StopAll", sm.Count())
	}
	if len(sm.List()) != 0 {
		t.Errorf("List() not empty after StopAll")
	}
}
