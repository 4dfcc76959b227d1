package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/interview"
)

// Envelope kinds accepted on the session stream. Unknown kinds are dropped
// with a warning rather than failing the stream; clients may speak a newer
// protocol revision than the server.
const (
	kindUtterance      = "utterance"
	kindSpeechActivity = "speech_activity"
	kindNudgeCandidate = "nudge_candidate"
	kindTopicRelevance = "topic_relevance"
	kindTopicReset     = "topic_reset"
	kindSetCoaching    = "set_coaching"
	kindSessionEnd     = "session_end"
)

// envelope is the tagged wire format for inbound stream messages. Type
// selects which payload field is read; the rest are ignored.
type envelope struct {
	Type string `json:"type"`

	Utterance      *utterancePayload      `json:"utterance,omitempty"`
	SpeechActivity *speechActivityPayload `json:"speech_activity,omitempty"`
	NudgeCandidate *nudgeCandidatePayload `json:"nudge_candidate,omitempty"`
	TopicRelevance *topicRelevancePayload `json:"topic_relevance,omitempty"`
	TopicReset     *topicResetPayload     `json:"topic_reset,omitempty"`
	SetCoaching    *setCoachingPayload    `json:"set_coaching,omitempty"`
}

type utterancePayload struct {
	ID              string  `json:"id"`
	Speaker         string  `json:"speaker"`
	Text            string  `json:"text"`
	StartSeconds    float64 `json:"start_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	Confidence      float64 `json:"confidence"`
}

type speechActivityPayload struct {
	Speaker string `json:"speaker"`
	Active  bool   `json:"active"`
}

type nudgeCandidatePayload struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

type topicRelevancePayload struct {
	UtteranceID string  `json:"utterance_id"`
	TopicID     string  `json:"topic_id"`
	Strength    float64 `json:"strength"`
}

type topicResetPayload struct {
	TopicID string `json:"topic_id"`
}

type setCoachingPayload struct {
	Enabled bool `json:"enabled"`
}

// parseEnvelope decodes one stream message. A missing payload for the stated
// type is a protocol error; an unknown type is not.
func parseEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("ingest: decode envelope: %w", err)
	}
	if env.Type == "" {
		return envelope{}, fmt.Errorf("ingest: envelope has no type")
	}
	return env, nil
}

// toUtterance converts the wire payload into the domain type, minting an ID
// when the client did not supply one. Malformed client IDs are replaced
// rather than rejected; the stream keeps flowing.
func (p *utterancePayload) toUtterance() interview.Utterance {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		id = uuid.New()
	}
	return interview.Utterance{
		ID:              id,
		Speaker:         interview.Speaker(p.Speaker),
		Text:            p.Text,
		StartSeconds:    p.StartSeconds,
		DurationSeconds: p.DurationSeconds,
		Confidence:      p.Confidence,
	}
}

func (p *speechActivityPayload) toActivity(at time.Time) interview.SpeechActivity {
	return interview.SpeechActivity{
		Speaker: interview.Speaker(p.Speaker),
		Active:  p.Active,
		At:      at,
	}
}

func (p *nudgeCandidatePayload) toCandidate(at time.Time) interview.NudgeCandidate {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		id = uuid.New()
	}
	return interview.NudgeCandidate{
		ID:         id,
		Text:       p.Text,
		Reason:     p.Reason,
		Confidence: p.Confidence,
		At:         at,
	}
}

func (p *topicRelevancePayload) toRelevance(at time.Time) (interview.TopicRelevance, error) {
	id, err := uuid.Parse(p.UtteranceID)
	if err != nil {
		return interview.TopicRelevance{}, fmt.Errorf("ingest: topic_relevance.utterance_id: %w", err)
	}
	return interview.TopicRelevance{
		UtteranceID: id,
		TopicID:     p.TopicID,
		Strength:    p.Strength,
		At:          at,
	}, nil
}
