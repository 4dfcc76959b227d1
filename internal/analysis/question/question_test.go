package question_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/analysis/question"
	"github.com/MrWong99/attune/internal/interview"
)

func ask(text string) interview.Utterance {
	return interview.Utterance{
		ID:         uuid.New(),
		Speaker:    interview.SpeakerInterviewer,
		Text:       text,
		Confidence: 0.95,
	}
}

func TestClassify_Types(t *testing.T) {
	t.Parallel()
	a := question.New()

	tests := []struct {
		name string
		text string
		want question.Type
	}{
		{"open what", "What did you expect to happen next?", question.TypeOpen},
		{"open walk me through", "Walk me through your morning workflow", question.TypeOpen},
		{"closed did", "Did you finish the setup?", question.TypeClosed},
		{"closed is", "Is the dashboard the first thing you open?", question.TypeClosed},
		{"leading phrase", "Don't you think the new layout is better?", question.TypeLeading},
		{"leading tail", "You used the export feature, right?", question.TypeLeading},
		{"double barreled or", "Do you prefer the app or do you use the website?", question.TypeDoubleBarreled},
		{"double barreled two marks", "What happened? And did you retry?", question.TypeDoubleBarreled},
		{"statement", "That makes a lot of sense.", question.TypeOther},
		{"fragment question", "And then?", question.TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := a.Classify(ask(tt.text))
			if got.Type != tt.want {
				t.Errorf("Classify(%q).Type = %q; want %q", tt.text, got.Type, tt.want)
			}
		})
	}
}

func TestClassify_LeadingBeatsDoubleBarreled(t *testing.T) {
	t.Parallel()
	a := question.New()

	// Both cues present; leading phrasing is the more specific signal.
	got := a.Classify(ask("Don't you think the app is faster and would you say it is prettier?"))
	if got.Type != question.TypeLeading {
		t.Errorf("Type = %q; want leading to win over double-barreled", got.Type)
	}
}

func TestClassify_DoubleBarreledBeatsOpen(t *testing.T) {
	t.Parallel()
	a := question.New()

	got := a.Classify(ask("What do you like and what would you change?"))
	if got.Type != question.TypeDoubleBarreled {
		t.Errorf("Type = %q; want double_barreled to win over open", got.Type)
	}
}

func TestClassify_OpenLeadWithoutQuestionMark(t *testing.T) {
	t.Parallel()
	a := question.New()

	got := a.Classify(ask("Tell me about the last time the sync failed"))
	if got.Type != question.TypeOpen {
		t.Errorf("Type = %q; imperative open leads count without a question mark", got.Type)
	}
}

func TestClassify_EmptyText(t *testing.T) {
	t.Parallel()
	a := question.New()

	got := a.Classify(ask(""))
	if got.Type != question.TypeOther {
		t.Errorf("Type = %q; want other for empty text", got.Type)
	}
}
