package insight_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/analysis/bias"
	"github.com/MrWong99/attune/internal/analysis/sentiment"
	"github.com/MrWong99/attune/internal/insight"
	"github.com/MrWong99/attune/internal/interview"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func sentimentResult(intensity float64) sentiment.Result {
	return sentiment.Result{
		UtteranceID:     uuid.New(),
		Polarity:        sentiment.PolarityNegative,
		Score:           -intensity,
		Intensity:       intensity,
		DominantEmotion: "frustration",
	}
}

func TestObserveSentiment_IntensityThreshold(t *testing.T) {
	t.Parallel()

	f := insight.NewFlagger(0)

	if _, ok := f.ObserveSentiment(sentimentResult(0.65), t0); ok {
		t.Error("intensity 0.65 produced a flag")
	}

	fl, ok := f.ObserveSentiment(sentimentResult(0.7), t0)
	if !ok {
		t.Fatal("intensity 0.7 produced no flag")
	}
	if fl.Source != insight.SourceSentiment {
		t.Errorf("source = %q, want %q", fl.Source, insight.SourceSentiment)
	}
	if !strings.Contains(fl.Description, "negative") || !strings.Contains(fl.Description, "frustration") {
		t.Errorf("description %q misses polarity or emotion", fl.Description)
	}
	if !fl.At.Equal(t0) {
		t.Errorf("At = %v, want %v", fl.At, t0)
	}
}

func TestObserveStatement_ParticipantPhrases(t *testing.T) {
	t.Parallel()

	f := insight.NewFlagger(0)

	u := interview.Utterance{
		ID:      uuid.New(),
		Speaker: interview.SpeakerParticipant,
		Text:    "Honestly, I wish the export just worked the first time.",
	}
	fl, ok := f.ObserveStatement(u, t0)
	if !ok {
		t.Fatal("explicit statement produced no flag")
	}
	if fl.Source != insight.SourceStatement {
		t.Errorf("source = %q, want %q", fl.Source, insight.SourceStatement)
	}
	if !strings.Contains(fl.Description, "i wish") {
		t.Errorf("description %q does not name the phrase", fl.Description)
	}

	// The same phrase from the interviewer is not a finding.
	u2 := u
	u2.ID = uuid.New()
	u2.Speaker = interview.SpeakerInterviewer
	if _, ok := f.ObserveStatement(u2, t0); ok {
		t.Error("interviewer statement was flagged")
	}

	// Plain description without a position phrase is ignored.
	u3 := interview.Utterance{
		ID:      uuid.New(),
		Speaker: interview.SpeakerParticipant,
		Text:    "We run the export every Friday afternoon.",
	}
	if _, ok := f.ObserveStatement(u3, t0); ok {
		t.Error("neutral statement was flagged")
	}
}

func TestObserveBiasAlerts_OncePerAlertType(t *testing.T) {
	t.Parallel()

	f := insight.NewFlagger(0)
	support := []uuid.UUID{uuid.New(), uuid.New()}
	alerts := []bias.Alert{{
		Type:                   bias.AlertLeadingQuestions,
		Description:            "leading questions dominate",
		SupportingUtteranceIDs: support,
		Confidence:             0.8,
	}}

	created := f.ObserveBiasAlerts(alerts, t0)
	if len(created) != 1 {
		t.Fatalf("first observation created %d flags, want 1", len(created))
	}
	if created[0].UtteranceID != support[0] {
		t.Errorf("flag points at %v, want first supporting utterance %v", created[0].UtteranceID, support[0])
	}

	// Recomputed alert sets repeat the same types every utterance; only the
	// first occurrence flags.
	if created := f.ObserveBiasAlerts(alerts, t0.Add(time.Minute)); len(created) != 0 {
		t.Errorf("repeated alert type created %d flags", len(created))
	}

	// An alert with no supporting utterances cannot be anchored.
	orphan := []bias.Alert{{Type: bias.AlertGenderedLanguage, Description: "gendered phrasing"}}
	if created := f.ObserveBiasAlerts(orphan, t0); len(created) != 0 {
		t.Errorf("unanchored alert created %d flags", len(created))
	}
}

func TestFlagger_CapStopsFlagging(t *testing.T) {
	t.Parallel()

	f := insight.NewFlagger(2)
	if _, ok := f.ObserveSentiment(sentimentResult(0.9), t0); !ok {
		t.Fatal("first flag rejected")
	}
	if _, ok := f.ObserveSentiment(sentimentResult(0.9), t0); !ok {
		t.Fatal("second flag rejected")
	}
	if _, ok := f.ObserveSentiment(sentimentResult(0.9), t0); ok {
		t.Error("flag accepted beyond the cap")
	}
	if got := len(f.Flags()); got != 2 {
		t.Errorf("Flags() returned %d entries, want 2", got)
	}
}

func TestFlagger_DedupesPerUtterance(t *testing.T) {
	t.Parallel()

	f := insight.NewFlagger(0)
	u := interview.Utterance{
		ID:      uuid.New(),
		Speaker: interview.SpeakerParticipant,
		Text:    "I really want the biggest problem fixed first.",
	}
	if _, ok := f.ObserveStatement(u, t0); !ok {
		t.Fatal("statement produced no flag")
	}

	// A second signal on the same utterance is dropped.
	res := sentimentResult(0.95)
	res.UtteranceID = u.ID
	if _, ok := f.ObserveSentiment(res, t0); ok {
		t.Error("second flag on the same utterance accepted")
	}
	if got := len(f.Flags()); got != 1 {
		t.Errorf("Flags() returned %d entries, want 1", got)
	}
}

func TestFlags_CopyInCreationOrder(t *testing.T) {
	t.Parallel()

	f := insight.NewFlagger(0)
	first, _ := f.ObserveSentiment(sentimentResult(0.8), t0)
	second, _ := f.ObserveSentiment(sentimentResult(0.9), t0.Add(time.Second))

	flags := f.Flags()
	if len(flags) != 2 || flags[0].ID != first.ID || flags[1].ID != second.ID {
		t.Fatalf("flags out of creation order: %+v", flags)
	}

	flags[0].Description = "mutated"
	if f.Flags()[0].Description == "mutated" {
		t.Error("flagger state mutated through returned copy")
	}
}
