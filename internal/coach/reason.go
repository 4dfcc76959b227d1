package coach

// ReasonCode is the closed set of gate suppression reasons. Introducing a new
// gate means extending this set and every place it is matched: the gate
// order below, the decision log schema, and the outward notification payload.
type ReasonCode string

const (
	ReasonCoachingDisabled    ReasonCode = "coaching_disabled"
	ReasonMaxPromptsReached   ReasonCode = "max_prompts_reached"
	ReasonInterviewerSpeaking ReasonCode = "interviewer_speaking"
	ReasonPostSpeechCooldown  ReasonCode = "post_speech_cooldown"
	ReasonSessionCooldown     ReasonCode = "session_cooldown"
	ReasonLowConfidence       ReasonCode = "low_confidence"
)

// GateOrder is the fixed evaluation precedence. Every gate can only
// suppress, never promote; the decision carries the first-failing gate's
// code. The order is a product decision and is exhaustively tested; do not
// reorder without re-deriving the desired behaviour.
var GateOrder = []ReasonCode{
	ReasonCoachingDisabled,
	ReasonMaxPromptsReached,
	ReasonInterviewerSpeaking,
	ReasonPostSpeechCooldown,
	ReasonSessionCooldown,
	ReasonLowConfidence,
}

// IsValid reports whether r is a recognised reason code.
func (r ReasonCode) IsValid() bool {
	for _, code := range GateOrder {
		if r == code {
			return true
		}
	}
	return false
}
