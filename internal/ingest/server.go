// Package ingest exposes the HTTP and WebSocket surface of the Attune
// server. Clients open one WebSocket stream per interview session and push
// tagged JSON envelopes: transcribed utterances, speaking-state changes,
// nudge candidates and topic relevance judgments. Session lifecycle and
// snapshot reads are plain REST endpoints next to the stream.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/attune/internal/app"
	"github.com/MrWong99/attune/internal/interview"
	"github.com/MrWong99/attune/internal/observe"
)

// Server routes session lifecycle and streaming requests to the session
// manager. Safe for concurrent use.
type Server struct {
	sessions *app.SessionManager
	metrics  *observe.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Server around the session manager.
func New(sessions *app.SessionManager, metrics *observe.Metrics, logger *slog.Logger) *Server {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Register adds the session routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/sessions", s.handleStart)
	mux.HandleFunc("GET /v1/sessions", s.handleList)
	mux.HandleFunc("GET /v1/sessions/{id}/snapshot", s.handleSnapshot)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleStop)
	mux.HandleFunc("GET /v1/sessions/{id}/stream", s.handleStream)
}

// startRequest is the body of POST /v1/sessions.
type startRequest struct {
	SessionID string   `json:"session_id"`
	Title     string   `json:"title"`
	Topics    []string `json:"topics"`
}

// startResponse echoes the registered session back to the client.
type startResponse struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title,omitempty"`
	Topics    []string  `json:"topics,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("ingest: decode start request: %w", err))
		return
	}

	info, err := s.sessions.Start(r.Context(), app.StartOptions{
		SessionID: req.SessionID,
		Title:     req.Title,
		Topics:    req.Topics,
	})
	if err != nil {
		httpError(w, http.StatusConflict, err)
		return
	}

	writeJSON(w, http.StatusCreated, startResponse{
		SessionID: info.SessionID,
		Title:     info.Title,
		Topics:    info.Topics,
		StartedAt: info.StartedAt,
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	infos := s.sessions.List()
	out := make([]startResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, startResponse{
			SessionID: info.SessionID,
			Title:     info.Title,
			Topics:    info.Topics,
			StartedAt: info.StartedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pipeline, ok := s.sessions.Get(id)
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Errorf("ingest: unknown session %q", id))
		return
	}
	writeJSON(w, http.StatusOK, pipeline.Snapshot())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Stop(r.Context(), id); err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStream upgrades to WebSocket and pumps envelopes into the session
// pipeline until the client disconnects or sends session_end.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pipeline, ok := s.sessions.Get(id)
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Errorf("ingest: unknown session %q", id))
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("ingest: websocket accept failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	logger := s.logger.With("session_id", id)
	logger.Info("ingest: stream opened")

	for {
		_, msg, err := conn.Read(r.Context())
		if err != nil {
			// Normal close or context cancellation ends the stream.
			logger.Info("ingest: stream closed", "err", err)
			return
		}

		env, err := parseEnvelope(msg)
		if err != nil {
			s.metrics.DroppedEvents.Add(r.Context(), 1)
			logger.Warn("ingest: malformed envelope dropped", "err", err)
			continue
		}

		if env.Type == kindSessionEnd {
			if err := s.sessions.Stop(r.Context(), id); err != nil {
				logger.Warn("ingest: session end stop failed", "err", err)
			}
			conn.Close(websocket.StatusNormalClosure, "session ended")
			return
		}

		s.dispatch(r.Context(), pipeline, env, logger)
	}
}

// sessionPipeline is what dispatch needs from a session; narrowed so tests
// can substitute a recorder.
type sessionPipeline interface {
	HandleUtterance(u interview.Utterance)
	HandleSpeechActivity(sig interview.SpeechActivity)
	HandleCandidate(c interview.NudgeCandidate)
	HandleRelevance(r interview.TopicRelevance)
	ResetTopic(topicID string)
	SetCoachingEnabled(enabled bool)
}

// dispatch routes one decoded envelope. Missing payloads and unknown types
// are dropped with a warning; the stream itself stays healthy.
func (s *Server) dispatch(ctx context.Context, pipeline sessionPipeline, env envelope, logger *slog.Logger) {
	now := s.now()
	switch env.Type {
	case kindUtterance:
		if env.Utterance == nil {
			s.dropped(ctx, logger, env.Type)
			return
		}
		pipeline.HandleUtterance(env.Utterance.toUtterance())
	case kindSpeechActivity:
		if env.SpeechActivity == nil {
			s.dropped(ctx, logger, env.Type)
			return
		}
		pipeline.HandleSpeechActivity(env.SpeechActivity.toActivity(now))
	case kindNudgeCandidate:
		if env.NudgeCandidate == nil {
			s.dropped(ctx, logger, env.Type)
			return
		}
		pipeline.HandleCandidate(env.NudgeCandidate.toCandidate(now))
	case kindTopicRelevance:
		if env.TopicRelevance == nil {
			s.dropped(ctx, logger, env.Type)
			return
		}
		rel, err := env.TopicRelevance.toRelevance(now)
		if err != nil {
			s.dropped(ctx, logger, env.Type)
			return
		}
		pipeline.HandleRelevance(rel)
	case kindTopicReset:
		if env.TopicReset == nil {
			s.dropped(ctx, logger, env.Type)
			return
		}
		pipeline.ResetTopic(env.TopicReset.TopicID)
	case kindSetCoaching:
		if env.SetCoaching == nil {
			s.dropped(ctx, logger, env.Type)
			return
		}
		pipeline.SetCoachingEnabled(env.SetCoaching.Enabled)
	default:
		s.dropped(ctx, logger, env.Type)
	}
}

func (s *Server) dropped(ctx context.Context, logger *slog.Logger, kind string) {
	s.metrics.DroppedEvents.Add(ctx, 1)
	logger.Warn("ingest: unhandled envelope dropped", "type", kind)
}

// httpError writes a JSON error body with the given status.
func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}
