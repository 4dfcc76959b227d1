// Package coach implements the coaching policy engine: a timing-aware state
// machine that decides whether an externally proposed coaching prompt may be
// surfaced to the interviewer. The defining constraint is asymmetric cost —
// an intrusive or mistimed prompt damages the interview far more than a
// missed one — so every gate can only suppress, and suppressed decisions are
// recorded with the same rigour as shown ones.
//
// The engine is deliberately not self-locking: all candidates for a session
// must be evaluated one at a time against the current gate state, in arrival
// order. The session pipeline's single-writer event loop provides that
// serialization; evaluating two candidates concurrently against a stale
// state is the primary correctness hazard here (both could pass the cooldown
// gate).
package coach

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/interview"
)

// Default gate parameters.
const (
	DefaultMaxPrompts         = 3
	DefaultPostSpeechCooldown = 5 * time.Second
	DefaultSessionCooldown    = 120 * time.Second
	DefaultMinConfidence      = 0.85
)

// DecisionKind is the variant tag of a [Decision].
type DecisionKind string

const (
	DecisionShow     DecisionKind = "show"
	DecisionSuppress DecisionKind = "suppress"

	// DecisionNoCandidate records that an arriving payload did not coerce
	// into a usable candidate. It is logged but evaluates no gates.
	DecisionNoCandidate DecisionKind = "no_candidate"
)

// GateResult is one entry in a decision's gate-evaluation trace. All gates
// are evaluated even after the first failure so the trace is complete for
// audit.
type GateResult struct {
	Code   ReasonCode
	Passed bool
}

// Decision is the engine's output for one candidate.
type Decision struct {
	Kind DecisionKind

	CandidateID uuid.UUID

	// Text is the prompt to render. Set on Show only.
	Text string

	// Reason is the proposer's internal rationale. Set on Show only; it is
	// logged for audit and never rendered.
	Reason string

	// ReasonCode is the first-failing gate. Set on Suppress only.
	ReasonCode ReasonCode

	// Sequence is the session-scoped 1-based show counter. Set on Show only.
	Sequence int

	At time.Time

	// Trace records every gate's outcome in evaluation order.
	Trace []GateResult
}

// Config holds the per-session gate parameters.
type Config struct {
	// Enabled is the session-level opt-in. Coaching defaults to off; a
	// first-ever session never shows prompts unless the user opted in.
	Enabled bool

	// MaxPrompts caps total shown prompts per session.
	MaxPrompts int

	// PostSpeechCooldown is the minimum quiet time after the interviewer
	// stops speaking before a prompt may appear.
	PostSpeechCooldown time.Duration

	// SessionCooldown is the minimum spacing between shown prompts.
	SessionCooldown time.Duration

	// MinConfidence is the lowest proposer confidence that may be shown.
	MinConfidence float64
}

// DefaultConfig returns the production gate parameters with coaching
// disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:            false,
		MaxPrompts:         DefaultMaxPrompts,
		PostSpeechCooldown: DefaultPostSpeechCooldown,
		SessionCooldown:    DefaultSessionCooldown,
		MinConfidence:      DefaultMinConfidence,
	}
}

// GateState is the engine's mutable per-session memory. It is created at
// session start, mutated only by the engine, and discarded at session end;
// historical decisions persist only in the event log.
type GateState struct {
	PromptsShown        int
	LastPromptAt        time.Time
	LastSpeechEndAt     time.Time
	InterviewerSpeaking bool
}

// Engine evaluates candidates against the gate state. Not safe for
// concurrent use; see the package comment.
type Engine struct {
	cfg   Config
	state GateState
}

// NewEngine creates an Engine with fresh gate state. Zero or negative config
// values fall back to the defaults; Enabled is taken as given.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxPrompts <= 0 {
		cfg.MaxPrompts = DefaultMaxPrompts
	}
	if cfg.PostSpeechCooldown <= 0 {
		cfg.PostSpeechCooldown = DefaultPostSpeechCooldown
	}
	if cfg.SessionCooldown <= 0 {
		cfg.SessionCooldown = DefaultSessionCooldown
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	return &Engine{cfg: cfg}
}

// SetEnabled flips the session-level coaching opt-in.
func (e *Engine) SetEnabled(enabled bool) {
	e.cfg.Enabled = enabled
}

// ObserveSpeechActivity updates the interviewer-speaking flag. A transition
// from speaking to silent records the speech-end timestamp that the
// post-speech cooldown gate measures from. Activity signals for the
// participant are ignored; only interviewer speech gates prompts.
func (e *Engine) ObserveSpeechActivity(sig interview.SpeechActivity) {
	if sig.Speaker != interview.SpeakerInterviewer {
		return
	}
	if e.state.InterviewerSpeaking && !sig.Active {
		e.state.LastSpeechEndAt = sig.At
	}
	e.state.InterviewerSpeaking = sig.Active
}

// Evaluate runs the candidate through every gate in [GateOrder] and returns
// the decision. All gates are evaluated regardless of earlier failures so
// the trace is complete; the decision is Suppress with the first-failing
// gate's code, or Show when all pass. On Show the engine increments the
// prompt counter and records the prompt timestamp.
//
// A candidate with empty text degrades to a NoCandidate decision: an
// unrecognised shape must never crash the pipeline.
func (e *Engine) Evaluate(c interview.NudgeCandidate, now time.Time) Decision {
	if strings.TrimSpace(c.Text) == "" {
		return Decision{Kind: DecisionNoCandidate, CandidateID: c.ID, At: now}
	}

	trace := make([]GateResult, 0, len(GateOrder))
	var firstFailing ReasonCode

	for _, code := range GateOrder {
		passed := e.gatePasses(code, c, now)
		trace = append(trace, GateResult{Code: code, Passed: passed})
		if !passed && firstFailing == "" {
			firstFailing = code
		}
	}

	if firstFailing != "" {
		return Decision{
			Kind:        DecisionSuppress,
			CandidateID: c.ID,
			ReasonCode:  firstFailing,
			At:          now,
			Trace:       trace,
		}
	}

	e.state.PromptsShown++
	e.state.LastPromptAt = now

	return Decision{
		Kind:        DecisionShow,
		CandidateID: c.ID,
		Text:        c.Text,
		Reason:      c.Reason,
		Sequence:    e.state.PromptsShown,
		At:          now,
		Trace:       trace,
	}
}

// gatePasses evaluates a single gate against the current state. Unknown
// codes pass: a future gate added to the order but not implemented here must
// not suppress by accident, it must fail tests instead.
func (e *Engine) gatePasses(code ReasonCode, c interview.NudgeCandidate, now time.Time) bool {
	switch code {
	case ReasonCoachingDisabled:
		return e.cfg.Enabled
	case ReasonMaxPromptsReached:
		return e.state.PromptsShown < e.cfg.MaxPrompts
	case ReasonInterviewerSpeaking:
		return !e.state.InterviewerSpeaking
	case ReasonPostSpeechCooldown:
		return e.state.LastSpeechEndAt.IsZero() ||
			now.Sub(e.state.LastSpeechEndAt) >= e.cfg.PostSpeechCooldown
	case ReasonSessionCooldown:
		return e.state.LastPromptAt.IsZero() ||
			now.Sub(e.state.LastPromptAt) >= e.cfg.SessionCooldown
	case ReasonLowConfidence:
		return c.Confidence >= e.cfg.MinConfidence
	}
	return true
}

// State returns a snapshot of the gate state for diagnostics and tests.
func (e *Engine) State() GateState {
	return e.state
}
