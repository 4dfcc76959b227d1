// Package notify publishes outward session events over NATS so UI
// collaborators can render prompts and insight flags as they happen. The
// publisher is optional: a nil *Notifier is a valid no-op, so deployments
// without a broker need no special casing.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MrWong99/attune/internal/coach"
	"github.com/MrWong99/attune/internal/insight"
)

// DecisionEvent is the wire payload for a coaching decision.
type DecisionEvent struct {
	SessionID   string    `json:"session_id"`
	Kind        string    `json:"kind"`
	CandidateID string    `json:"candidate_id"`
	Text        string    `json:"text,omitempty"`
	ReasonCode  string    `json:"reason_code,omitempty"`
	Sequence    int       `json:"sequence,omitempty"`
	At          time.Time `json:"at"`
}

// InsightEvent is the wire payload for a new insight flag.
type InsightEvent struct {
	SessionID   string    `json:"session_id"`
	FlagID      string    `json:"flag_id"`
	UtteranceID string    `json:"utterance_id"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// Notifier publishes session events. Safe for concurrent use.
type Notifier struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// New connects to the NATS server at url. The connection retries in the
// background so a briefly unavailable broker does not block session start.
func New(url string, logger *slog.Logger) (*Notifier, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("notify: nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("notify: nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: connect %q: %w", url, err)
	}
	return &Notifier{conn: nc, logger: logger}, nil
}

// PublishDecision emits a coaching decision on attune.session.<id>.decision.
// Publishing is best-effort; failures are logged, never propagated into the
// decision path.
func (n *Notifier) PublishDecision(sessionID string, d coach.Decision) {
	if n == nil {
		return
	}
	evt := DecisionEvent{
		SessionID:   sessionID,
		Kind:        string(d.Kind),
		CandidateID: d.CandidateID.String(),
		Text:        d.Text,
		ReasonCode:  string(d.ReasonCode),
		Sequence:    d.Sequence,
		At:          d.At,
	}
	n.publish("attune.session."+sessionID+".decision", evt)
}

// PublishInsight emits a new insight flag on attune.session.<id>.insight.
func (n *Notifier) PublishInsight(sessionID string, f insight.Flag) {
	if n == nil {
		return
	}
	evt := InsightEvent{
		SessionID:   sessionID,
		FlagID:      f.ID.String(),
		UtteranceID: f.UtteranceID.String(),
		Source:      string(f.Source),
		Description: f.Description,
		At:          f.At,
	}
	n.publish("attune.session."+sessionID+".insight", evt)
}

func (n *Notifier) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("notify: marshal payload", "subject", subject, "error", err)
		return
	}
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Warn("notify: publish failed", "subject", subject, "error", err)
	}
}

// Ping reports broker connectivity for readiness probes. A nil Notifier is
// always ready (publication disabled). A connection still retrying in the
// background counts as not ready.
func (n *Notifier) Ping(_ context.Context) error {
	if n == nil {
		return nil
	}
	if status := n.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("notify: nats connection %s", status)
	}
	return nil
}

// Close drains and closes the connection.
func (n *Notifier) Close() {
	if n == nil || n.conn == nil {
		return
	}
	n.conn.Close()
}
