// Package question implements rule-based classification of interviewer
// utterances into question types. Classification is lexical/syntactic only
// and fully deterministic; the bias detector consumes the resulting labels
// to find session-level questioning patterns.
package question

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/interview"
)

// Type labels the questioning style of one interviewer utterance.
type Type string

const (
	TypeOpen           Type = "open"
	TypeClosed         Type = "closed"
	TypeLeading        Type = "leading"
	TypeDoubleBarreled Type = "double_barreled"
	TypeOther          Type = "other"
)

// Result is the classification for one utterance.
type Result struct {
	UtteranceID uuid.UUID
	Type        Type
	Confidence  float64
}

// leadingPhrases betray an expected answer baked into the question.
var leadingPhrases = []string{
	"don't you think",
	"dont you think",
	"don't you agree",
	"dont you agree",
	"wouldn't you say",
	"wouldnt you say",
	"wouldn't you agree",
	"wouldnt you agree",
	"isn't it true",
	"isnt it true",
	"surely you",
	"i assume you",
	"you must have",
}

// leadingTails are confirmation tags at the end of a question.
var leadingTails = []string{"right?", "correct?", "yes?", "no?", "isn't it?", "isnt it?"}

// openLeads start a question that invites elaboration.
var openLeads = []string{
	"what", "how", "why", "tell me", "describe", "walk me through",
	"in what way", "help me understand",
}

// closedLeads start a question framed for a yes/no or single-fact answer.
var closedLeads = []string{
	"do", "does", "did", "is", "are", "was", "were", "can", "could",
	"will", "would", "have", "has", "had", "should",
	"when", "where", "who", "which",
}

// interrogativeWord matches any question-word token, used to detect two
// questions welded together by a conjunction.
var interrogativeWord = regexp.MustCompile(`\b(what|how|why|when|where|who|which|do|does|did|is|are|can|could|will|would|should)\b`)

// Analyzer classifies interviewer utterances. It is stateless and safe for
// concurrent use.
type Analyzer struct{}

// New returns a question Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Classify labels one utterance. Non-questions classify as [TypeOther].
// Precedence: leading phrasing is checked first (it is the most specific
// cue), then double-barreled conjunction structure, then open/closed leads.
func (a *Analyzer) Classify(u interview.Utterance) Result {
	u = u.Sanitize()
	res := Result{UtteranceID: u.ID, Type: TypeOther, Confidence: 0.5}

	text := strings.ToLower(strings.TrimSpace(u.Text))
	if text == "" {
		return res
	}

	if !isQuestion(text) {
		return res
	}

	switch {
	case isLeading(text):
		res.Type = TypeLeading
		res.Confidence = 0.85
	case isDoubleBarreled(text):
		res.Type = TypeDoubleBarreled
		res.Confidence = 0.75
	case hasLead(text, openLeads):
		res.Type = TypeOpen
		res.Confidence = 0.85
	case hasLead(text, closedLeads):
		res.Type = TypeClosed
		res.Confidence = 0.8
	default:
		// A question with no recognised lead, e.g. "And then?".
		res.Type = TypeOther
		res.Confidence = 0.4
	}
	return res
}

// isQuestion reports whether text looks like a question at all: it ends in a
// question mark or starts with an interrogative lead.
func isQuestion(text string) bool {
	if strings.HasSuffix(text, "?") {
		return true
	}
	return hasLead(text, openLeads) || hasLead(text, closedLeads)
}

func isLeading(text string) bool {
	for _, p := range leadingPhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	for _, t := range leadingTails {
		if strings.HasSuffix(text, t) {
			return true
		}
	}
	return false
}

// isDoubleBarreled detects two questions welded into one: multiple question
// marks, or an "or"/"and" conjunction joining two interrogative clauses.
func isDoubleBarreled(text string) bool {
	if strings.Count(text, "?") > 1 {
		return true
	}
	hasConjunction := strings.Contains(text, " or ") || strings.Contains(text, " and ")
	if !hasConjunction {
		return false
	}
	return len(interrogativeWord.FindAllString(text, 3)) >= 2
}

// hasLead reports whether text begins with one of the given lead phrases as
// whole words.
func hasLead(text string, leads []string) bool {
	for _, lead := range leads {
		if text == lead ||
			strings.HasPrefix(text, lead+" ") ||
			strings.HasPrefix(text, lead+",") ||
			strings.HasPrefix(text, lead+"?") {
			return true
		}
	}
	return false
}
