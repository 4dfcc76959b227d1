package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/attune/internal/coach"
	"github.com/MrWong99/attune/internal/config"
	"github.com/MrWong99/attune/internal/eventlog"
	"github.com/MrWong99/attune/internal/lexicon"
	"github.com/MrWong99/attune/internal/notify"
	"github.com/MrWong99/attune/internal/observe"
	"github.com/MrWong99/attune/internal/session"
)

// SessionInfo holds metadata about an active session.
type SessionInfo struct {
	// SessionID is the unique identifier for this session.
	SessionID string

	// Title is the human-readable study or interview name, if provided.
	Title string

	// Topics lists the planned interview guide topics in order.
	Topics []string

	// StartedAt is when the session was started.
	StartedAt time.Time
}

// activeSession pairs a running pipeline with its metadata.
type activeSession struct {
	info     SessionInfo
	pipeline *session.Pipeline
}

// SessionManager manages the lifecycle of interview sessions. Any number of
// sessions may run concurrently; each owns its own pipeline and event log.
// All exported methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*activeSession

	// Dependencies injected at construction.
	cfg      *config.Config
	lexicon  *lexicon.Set
	sink     eventlog.Sink
	notifier *notify.Notifier
	metrics  *observe.Metrics
	logger   *slog.Logger
}

// SessionManagerConfig holds all dependencies for a [SessionManager].
type SessionManagerConfig struct {
	Config   *config.Config
	Lexicon  *lexicon.Set
	Sink     eventlog.Sink
	Notifier *notify.Notifier
	Metrics  *observe.Metrics
	Logger   *slog.Logger
}

// NewSessionManager creates a SessionManager with the given dependencies.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &SessionManager{
		sessions: make(map[string]*activeSession),
		cfg:      cfg.Config,
		lexicon:  cfg.Lexicon,
		sink:     cfg.Sink,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// StartOptions carries the client-supplied parameters for a new session.
type StartOptions struct {
	// SessionID names the session; empty generates one from Title and the
	// start time.
	SessionID string

	// Title is the human-readable study or interview name.
	Title string

	// Topics lists the interview guide topics in their planned order.
	Topics []string
}

// Start creates and registers a new session pipeline.
// Returns an error if a session with the same ID is already running.
func (sm *SessionManager) Start(_ context.Context, opts StartOptions) (SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now().UTC()
	sessionID := opts.SessionID
	if sessionID == "" {
		title := opts.Title
		if title == "" {
			title = "interview"
		}
		sessionID = fmt.Sprintf("session-%s-%s", sanitizeName(title), now.Format("20060102T150405Z"))
	}
	if _, ok := sm.sessions[sessionID]; ok {
		return SessionInfo{}, fmt.Errorf("app: session %q is already active", sessionID)
	}

	pipeline := session.New(session.Config{
		SessionID: sessionID,
		Topics:    opts.Topics,
		Coach: coach.Config{
			Enabled:            sm.cfg.Coaching.Enabled,
			MaxPrompts:         sm.cfg.Coaching.MaxPromptsPerSession,
			PostSpeechCooldown: secondsToDuration(sm.cfg.Coaching.PostSpeechCooldownSeconds),
			SessionCooldown:    secondsToDuration(sm.cfg.Coaching.SessionCooldownSeconds),
			MinConfidence:      sm.cfg.Coaching.MinConfidence,
		},
		InsightCap:               sm.cfg.Insights.MaxPerSession,
		JitterWindowSeconds:      sm.cfg.Analysis.JitterWindowSeconds,
		Lexicon:                  sm.lexicon,
		NormalizeBelowConfidence: sm.cfg.Analysis.NormalizeBelowConfidence,
		Sink:                     sm.sink,
		Notifier:                 sm.notifier,
		Metrics:                  sm.metrics,
		Logger:                   sm.logger,
	})

	info := SessionInfo{
		SessionID: sessionID,
		Title:     opts.Title,
		Topics:    opts.Topics,
		StartedAt: now,
	}
	sm.sessions[sessionID] = &activeSession{info: info, pipeline: pipeline}
	sm.metrics.ActiveSessions.Add(context.Background(), 1)

	sm.logger.Info("session started",
		"session_id", sessionID,
		"title", opts.Title,
		"topics", len(opts.Topics),
	)
	return info, nil
}

// Get returns the pipeline for sessionID, or false if none is active.
func (sm *SessionManager) Get(sessionID string) (*session.Pipeline, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s.pipeline, true
}

// Stop gracefully ends the named session: the pipeline drains its queue and
// the event log is flushed to the store. Returns an error if the session is
// unknown or the flush fails.
func (sm *SessionManager) Stop(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	s, ok := sm.sessions[sessionID]
	if ok {
		delete(sm.sessions, sessionID)
	}
	sm.mu.Unlock()

	if !ok {
		return fmt.Errorf("app: no active session %q to stop", sessionID)
	}

	sm.metrics.ActiveSessions.Add(context.Background(), -1)
	if err := s.pipeline.Close(ctx); err != nil {
		sm.logger.Warn("session: event log flush failed", "session_id", sessionID, "err", err)
		return fmt.Errorf("app: stop session %q: %w", sessionID, err)
	}
	sm.logger.Info("session stopped", "session_id", sessionID)
	return nil
}

// StopAll ends every active session, logging rather than aborting on flush
// errors. Used during server shutdown.
func (sm *SessionManager) StopAll(ctx context.Context) {
	sm.mu.Lock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.Unlock()

	for _, id := range ids {
		if err := sm.Stop(ctx, id); err != nil {
			sm.logger.Warn("session: shutdown stop failed", "session_id", id, "err", err)
		}
	}
}

// List returns metadata for every active session.
func (sm *SessionManager) List() []SessionInfo {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]SessionInfo, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s.info)
	}
	return out
}

// Count reports the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// secondsToDuration converts a fractional-seconds config value to a
// [time.Duration]; zero stays zero so engine defaults apply.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// sanitizeName replaces spaces with hyphens and lowercases a name
// for use in session IDs.
func sanitizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	return name
}
