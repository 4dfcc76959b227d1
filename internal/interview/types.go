// Package interview defines the core domain types shared by every stage of
// the attune coaching pipeline: speech segments arriving from the
// transcription collaborator, and the externally sourced boundary signals
// (speech activity, nudge candidates, topic relevance judgments) that drive
// the session-scoped trackers.
//
// Everything in this package is plain data. Values are immutable once
// constructed; analyzers derive results from them but never mutate them.
package interview

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Speaker identifies which side of the interview produced an utterance.
type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerParticipant Speaker = "participant"
)

// IsValid reports whether s is a recognised speaker label.
func (s Speaker) IsValid() bool {
	return s == SpeakerInterviewer || s == SpeakerParticipant
}

// Utterance is one timestamped, speaker-attributed speech segment as emitted
// by the transcription collaborator. StartSeconds is relative to session
// start. Utterances arrive in mostly non-decreasing StartSeconds order; the
// session pipeline tolerates small out-of-order jitter.
type Utterance struct {
	// ID uniquely identifies this segment across the session.
	ID uuid.UUID

	// Speaker attributes the segment. Misattribution is corrected upstream;
	// this core trusts the label as given.
	Speaker Speaker

	// Text is the transcribed speech.
	Text string

	// StartSeconds is the segment start offset from session start.
	StartSeconds float64

	// DurationSeconds is the spoken length of the segment.
	DurationSeconds float64

	// Confidence is the transcription confidence in [0,1].
	Confidence float64
}

// EndSeconds returns the segment end offset from session start.
func (u Utterance) EndSeconds() float64 {
	return u.StartSeconds + u.DurationSeconds
}

// Sanitize returns a copy of u with out-of-range fields clamped to safe
// defaults. Malformed input degrades rather than failing: a negative duration
// becomes zero, confidence is clamped to [0,1], an unknown speaker label is
// attributed to the participant (the conservative choice for coaching gates),
// and text is whitespace-trimmed.
func (u Utterance) Sanitize() Utterance {
	out := u
	out.Text = strings.TrimSpace(u.Text)
	if out.StartSeconds < 0 {
		out.StartSeconds = 0
	}
	if out.DurationSeconds < 0 {
		out.DurationSeconds = 0
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	} else if out.Confidence > 1 {
		out.Confidence = 1
	}
	if !out.Speaker.IsValid() {
		out.Speaker = SpeakerParticipant
	}
	return out
}

// SpeechActivity is the push-style "interviewer is currently speaking" signal
// from the transcription collaborator. Consumed by the coaching policy
// engine's interviewer-speaking gate and speech-end cooldown.
type SpeechActivity struct {
	Speaker Speaker
	Active  bool
	At      time.Time
}

// NudgeCandidate is an externally proposed coaching prompt awaiting gate
// evaluation. The core never generates prompt text; it only decides whether
// to surface it.
type NudgeCandidate struct {
	ID uuid.UUID

	// Text is the prompt the interviewer would see if shown.
	Text string

	// Reason is the proposer's internal rationale, logged but never shown.
	Reason string

	// Confidence is the proposer's self-reported confidence in [0,1].
	Confidence float64

	// At is when the candidate arrived.
	At time.Time
}

// TopicRelevance is an externally sourced judgment that an utterance bears on
// a research topic with a given strength. Consumed by the topic awareness
// tracker; this core never computes relevance itself.
type TopicRelevance struct {
	UtteranceID uuid.UUID
	TopicID     string

	// Strength is the judged relevance in [0,1].
	Strength float64

	At time.Time
}
