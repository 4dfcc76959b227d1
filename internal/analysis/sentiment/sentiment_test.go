package sentiment_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/analysis/sentiment"
	"github.com/MrWong99/attune/internal/interview"
	"github.com/MrWong99/attune/internal/lexicon"
)

func utter(text string) interview.Utterance {
	return interview.Utterance{
		ID:              uuid.New(),
		Speaker:         interview.SpeakerParticipant,
		Text:            text,
		DurationSeconds: 2,
		Confidence:      0.95,
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())
	u := utter("I really loved the onboarding but the export flow was confusing")

	first := a.Analyze(u)
	second := a.Analyze(u)
	if first != second {
		t.Errorf("same input produced different results:\n%+v\n%+v", first, second)
	}
}

func TestAnalyze_PositiveAndNegative(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	pos := a.Analyze(utter("the dashboard is good"))
	if pos.Polarity != sentiment.PolarityPositive {
		t.Errorf("polarity = %q; want positive (score %.2f)", pos.Polarity, pos.Score)
	}
	if pos.Score <= 0 {
		t.Errorf("score = %.2f; want > 0", pos.Score)
	}

	neg := a.Analyze(utter("the setup was terrible"))
	if neg.Polarity != sentiment.PolarityNegative {
		t.Errorf("polarity = %q; want negative (score %.2f)", neg.Polarity, neg.Score)
	}
}

func TestAnalyze_NegatorFlipsSign(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	res := a.Analyze(utter("the search is not good"))
	if res.Score >= 0 {
		t.Errorf("negated positive should score below zero, got %.2f", res.Score)
	}
	if res.Polarity != sentiment.PolarityNegative {
		t.Errorf("polarity = %q; want negative", res.Polarity)
	}
}

func TestAnalyze_IntensifierAmplifies(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	plain := a.Analyze(utter("the report builder is good"))
	boosted := a.Analyze(utter("the report builder is very good"))
	if boosted.Score <= plain.Score {
		t.Errorf("intensified score %.3f should exceed plain score %.3f",
			boosted.Score, plain.Score)
	}
}

func TestAnalyze_MixedPolarity(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	res := a.Analyze(utter("I absolutely love this, but it's extremely frustrating when it crashes"))
	if res.Polarity != sentiment.PolarityMixed {
		t.Errorf("polarity = %q (score %.2f); strong tokens on both sides should read mixed",
			res.Polarity, res.Score)
	}
}

func TestAnalyze_FinalClauseRecencyBias(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	res := a.Analyze(utter("The start was fantastic. The ending was terrible."))
	if res.Score >= 0 {
		t.Errorf("final-clause weighting should pull the score negative, got %.2f", res.Score)
	}
}

func TestAnalyze_DominantEmotionFromKeywords(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	res := a.Analyze(utter("I was confused and honestly still confused about the pricing"))
	if res.DominantEmotion != "confusion" {
		t.Errorf("dominant emotion = %q; want confusion", res.DominantEmotion)
	}
}

func TestAnalyze_EmotionFallbackFromScore(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	res := a.Analyze(utter("the migration tooling is excellent"))
	if res.Score <= 0.5 {
		t.Fatalf("setup: expected a strongly positive score, got %.2f", res.Score)
	}
	if res.DominantEmotion != "delight" {
		t.Errorf("dominant emotion = %q; want score-derived delight", res.DominantEmotion)
	}
}

func TestAnalyze_EmptyTextIsNeutral(t *testing.T) {
	t.Parallel()
	a := sentiment.New(lexicon.Default())

	res := a.Analyze(utter("   "))
	if res.Polarity != sentiment.PolarityNeutral || res.Score != 0 || res.Intensity != 0 {
		t.Errorf("blank utterance should be fully neutral, got %+v", res)
	}
	if res.DominantEmotion != "" {
		t.Errorf("dominant emotion = %q; want empty", res.DominantEmotion)
	}
}

func TestAnalyze_PhoneticFallbackOnLowConfidence(t *testing.T) {
	t.Parallel()
	lex := lexicon.Default()
	a := sentiment.New(lex, sentiment.WithNormalizer(lexicon.NewNormalizer(lex), 0.6))

	noisy := utter("the installer was frustraiting")
	noisy.Confidence = 0.4
	res := a.Analyze(noisy)
	if res.Score >= 0 {
		t.Errorf("phonetic alignment should score the misspelling negative, got %.2f", res.Score)
	}

	clean := utter("the installer was frustraiting")
	clean.Confidence = 0.9
	res = a.Analyze(clean)
	if res.Score != 0 {
		t.Errorf("normalization must not apply above the confidence gate, got %.2f", res.Score)
	}
}
