package session

import (
	"github.com/MrWong99/attune/internal/analysis/bias"
	"github.com/MrWong99/attune/internal/analysis/sentiment"
	"github.com/MrWong99/attune/internal/analysis/talktime"
	"github.com/MrWong99/attune/internal/coach"
	"github.com/MrWong99/attune/internal/insight"
	"github.com/MrWong99/attune/internal/interview"
	"github.com/MrWong99/attune/internal/topics"
)

// Snapshot is a point-in-time read of everything the pipeline has derived
// for the session. Slices are copies; callers may hold them past the next
// event.
type Snapshot struct {
	SessionID string `json:"session_id"`

	UtteranceCount int `json:"utterance_count"`

	Sentiment sentiment.SessionResult `json:"sentiment"`
	TalkTime  talktime.Result         `json:"talk_time"`
	TalkTrend []talktime.WindowPoint  `json:"talk_trend,omitempty"`

	BiasAlerts []bias.Alert   `json:"bias_alerts,omitempty"`
	PII        []UtterancePII `json:"pii,omitempty"`

	Topics   []topics.State  `json:"topics"`
	Gate     coach.GateState `json:"gate"`
	Insights []insight.Flag  `json:"insights,omitempty"`

	DecisionCount int `json:"decision_count"`
	EventLogSize  int `json:"event_log_size"`
}

// Snapshot assembles the current session view. Derived series (shifts, arc,
// rolling talk-time) are recomputed from the accumulated per-utterance
// results on each call; the stored state stays incremental.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.RLock()
	utterances := make([]interview.Utterance, len(p.utterances))
	copy(utterances, p.utterances)
	sentiments := make([]sentiment.Result, len(p.sentiments))
	copy(sentiments, p.sentiments)
	alerts := make([]bias.Alert, len(p.alerts))
	copy(alerts, p.alerts)
	spans := make([]UtterancePII, len(p.piiSpans))
	copy(spans, p.piiSpans)
	gate := p.gate
	decisions := p.decisionSeen
	p.mu.RUnlock()

	return Snapshot{
		SessionID:      p.cfg.SessionID,
		UtteranceCount: len(utterances),
		Sentiment: sentiment.SessionResult{
			Results: sentiments,
			Shifts:  sentiment.DetectShifts(sentiments),
			Arc:     sentiment.SummariseArc(sentiments),
		},
		TalkTime:      talktime.Analyze(utterances),
		TalkTrend:     talktime.Rolling(utterances, 0, 0),
		BiasAlerts:    alerts,
		PII:           spans,
		Topics:        p.topics.Snapshot(),
		Gate:          gate,
		Insights:      p.insights.Flags(),
		DecisionCount: decisions,
		EventLogSize:  len(p.log.Entries()),
	}
}
