// Package bias implements session-scoped detection of biased questioning
// patterns. The detector consumes the interviewer's utterances together with
// their question-type classifications and runs a set of independent,
// order-insensitive checks. Each check yields at most one alert describing
// the session so far; re-running Analyze replaces the previous alert set
// rather than appending to it, because the alerts are properties of the
// whole session, not append-only facts.
package bias

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/analysis/question"
)

// AlertType is the closed set of bias alert categories.
type AlertType string

const (
	AlertGenderedLanguage      AlertType = "gendered_language"
	AlertAgeStereotype         AlertType = "age_stereotype"
	AlertConfirmationSeeking   AlertType = "confirmation_seeking"
	AlertLeadingQuestions      AlertType = "leading_questions"
	AlertClosedQuestionOveruse AlertType = "closed_question_overuse"
	AlertAssumptiveLanguage    AlertType = "assumptive_language"
)

const (
	// confidenceOffset is added to a check's match ratio before clamping to
	// 1.0, so that even marginal ratios above a check's threshold produce a
	// reviewable confidence.
	confidenceOffset = 0.3

	// confirmationMinMatches is the match count at which the
	// confirmation-seeking alert fires.
	confirmationMinMatches = 3

	// minQuestions is the sample size below which the ratio checks stay
	// silent.
	minQuestions = 3

	// leadingRatioThreshold fires the systemic leading-question alert.
	leadingRatioThreshold = 0.30

	// closedRatioThreshold fires the closed-question overuse alert.
	closedRatioThreshold = 0.60
)

// Record pairs one interviewer utterance with its classification.
type Record struct {
	UtteranceID uuid.UUID
	Text        string
	Type        question.Type
}

// Alert describes one biased questioning pattern observed in the session so
// far, with the utterances supporting it.
type Alert struct {
	Type                   AlertType
	Description            string
	SupportingUtteranceIDs []uuid.UUID
	Confidence             float64
	Suggestion             string
}

var genderedKeywords = []string{
	"guys", "manpower", "chairman", "mankind", "man up",
	"bossy", "hysterical", "emotional for a", "like a girl",
	"mothering", "career woman", "male nurse", "female engineer",
}

var ageKeywords = []string{
	"millennials are", "boomers are", "gen z are", "kids these days",
	"young people always", "young people never", "old people can't",
	"old people cant", "too old to", "too young to", "digital native",
	"at your age", "back in my day",
}

var confirmationPhrases = []string{
	"right?", "correct?", "don't you think", "dont you think",
	"wouldn't you say", "wouldnt you say", "do you agree",
	"isn't that true", "isnt that true", "wouldn't you agree",
	"wouldnt you agree",
}

var assumptiveKeywords = []string{
	"obviously", "everyone knows", "clearly", "of course",
	"as you know", "naturally", "needless to say", "it goes without saying",
}

// Detector runs the bias checks. It is stateless; session state lives in the
// records handed to [Detector.Analyze].
type Detector struct{}

// New returns a bias Detector.
func New() *Detector {
	return &Detector{}
}

// Analyze runs every check over the records and returns the alerts that
// fired. The checks are independent and order-insensitive; the returned
// slice replaces any previously computed alert set.
func (d *Detector) Analyze(records []Record) []Alert {
	if len(records) == 0 {
		return nil
	}

	var alerts []Alert
	checks := []func([]Record) *Alert{
		checkKeywords(AlertGenderedLanguage, genderedKeywords,
			"gendered language in questioning",
			"Use gender-neutral phrasing (e.g. \"everyone\" instead of \"guys\")."),
		checkKeywords(AlertAgeStereotype, ageKeywords,
			"age or generational stereotyping in questioning",
			"Ask about the participant's own experience instead of their cohort's."),
		checkConfirmationSeeking,
		checkLeadingRatio,
		checkClosedOveruse,
		checkKeywords(AlertAssumptiveLanguage, assumptiveKeywords,
			"assumptive language presuming shared beliefs",
			"Drop words like \"obviously\"; let the participant state what is obvious to them."),
	}
	for _, check := range checks {
		if a := check(records); a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts
}

// checkKeywords builds a check that fires when any keyword from the list
// appears in the records. Confidence derives from the match ratio over all
// records plus the fixed offset.
func checkKeywords(t AlertType, keywords []string, description, suggestion string) func([]Record) *Alert {
	return func(records []Record) *Alert {
		var supporting []uuid.UUID
		for _, r := range records {
			text := strings.ToLower(r.Text)
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					supporting = append(supporting, r.UtteranceID)
					break
				}
			}
		}
		if len(supporting) == 0 {
			return nil
		}
		ratio := float64(len(supporting)) / float64(len(records))
		return &Alert{
			Type:                   t,
			Description:            fmt.Sprintf("%s (%d of %d utterances)", description, len(supporting), len(records)),
			SupportingUtteranceIDs: supporting,
			Confidence:             clampConfidence(ratio),
			Suggestion:             suggestion,
		}
	}
}

// checkConfirmationSeeking fires when confirmation-seeking phrases occur at
// least confirmationMinMatches times across the session.
func checkConfirmationSeeking(records []Record) *Alert {
	var supporting []uuid.UUID
	matches := 0
	for _, r := range records {
		text := strings.ToLower(r.Text)
		hit := false
		for _, p := range confirmationPhrases {
			if strings.Contains(text, p) {
				matches++
				hit = true
			}
		}
		if hit {
			supporting = append(supporting, r.UtteranceID)
		}
	}
	if matches < confirmationMinMatches {
		return nil
	}
	ratio := float64(len(supporting)) / float64(len(records))
	return &Alert{
		Type:                   AlertConfirmationSeeking,
		Description:            fmt.Sprintf("confirmation-seeking phrasing used %d times", matches),
		SupportingUtteranceIDs: supporting,
		Confidence:             clampConfidence(ratio),
		Suggestion:             "Invite disagreement: ask \"what would you change?\" instead of \"right?\".",
	}
}

// checkLeadingRatio fires when leading questions exceed 30% of at least
// three classified questions.
func checkLeadingRatio(records []Record) *Alert {
	questions, supporting := ratioSample(records, question.TypeLeading)
	if questions < minQuestions {
		return nil
	}
	ratio := float64(len(supporting)) / float64(questions)
	if ratio <= leadingRatioThreshold {
		return nil
	}
	return &Alert{
		Type:                   AlertLeadingQuestions,
		Description:            fmt.Sprintf("%.0f%% of questions are leading (%d of %d)", ratio*100, len(supporting), questions),
		SupportingUtteranceIDs: supporting,
		Confidence:             clampConfidence(ratio),
		Suggestion:             "Rephrase to neutral openers: \"how did that feel?\" rather than \"that felt slow, didn't it?\".",
	}
}

// checkClosedOveruse fires when closed questions exceed 60% of at least
// three classified questions.
func checkClosedOveruse(records []Record) *Alert {
	questions, supporting := ratioSample(records, question.TypeClosed)
	if questions < minQuestions {
		return nil
	}
	ratio := float64(len(supporting)) / float64(questions)
	if ratio <= closedRatioThreshold {
		return nil
	}
	return &Alert{
		Type:                   AlertClosedQuestionOveruse,
		Description:            fmt.Sprintf("%.0f%% of questions are closed (%d of %d)", ratio*100, len(supporting), questions),
		SupportingUtteranceIDs: supporting,
		Confidence:             clampConfidence(ratio),
		Suggestion:             "Follow closed questions with an open probe: \"tell me more about that\".",
	}
}

// ratioSample counts classified questions (everything except TypeOther) and
// collects the utterances of the wanted type.
func ratioSample(records []Record, want question.Type) (questions int, supporting []uuid.UUID) {
	for _, r := range records {
		if r.Type == question.TypeOther {
			continue
		}
		questions++
		if r.Type == want {
			supporting = append(supporting, r.UtteranceID)
		}
	}
	return questions, supporting
}

func clampConfidence(ratio float64) float64 {
	c := ratio + confidenceOffset
	if c > 1 {
		return 1
	}
	return c
}
