// Package sentiment implements the lexicon-based sentiment analyzer. Scoring
// is fully deterministic for a fixed lexicon: identical input text always
// yields identical results, which downstream trust analysis relies on.
//
// The per-utterance algorithm tokenizes to lowercase words, looks each token
// up in the positive/negative magnitude tables, inverts the sign when a
// negator appears within the preceding three tokens, amplifies by 1.5 when an
// intensifier appears within the preceding two, weights words in the final
// clause by 1.3 to model recency bias, then averages and clamps to [-1,1].
package sentiment

import (
	"strings"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/interview"
	"github.com/MrWong99/attune/internal/lexicon"
)

// Polarity classifies the averaged utterance score.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"

	// PolarityMixed is reported when both a strong positive and a strong
	// negative token occur in the same utterance, regardless of the average.
	PolarityMixed Polarity = "mixed"
)

const (
	// positiveThreshold and negativeThreshold bound the neutral band.
	positiveThreshold = 0.15
	negativeThreshold = -0.15

	// strongMagnitude is the base magnitude at which a token counts toward
	// mixed-polarity detection.
	strongMagnitude = 0.3

	// negatorWindow and intensifierWindow are the look-back distances, in
	// tokens, for sign inversion and amplification.
	negatorWindow     = 3
	intensifierWindow = 2

	intensifierBoost = 1.5
	finalClauseBoost = 1.3

	// emotionFallback thresholds map a score to a guessed emotion when no
	// emotion keyword matched.
	emotionFallbackHigh = 0.5
	emotionFallbackLow  = -0.5
)

// Result is the scored judgment for one utterance. Results are derived data
// keyed by utterance id; they never mutate the utterance.
type Result struct {
	UtteranceID uuid.UUID

	Polarity Polarity

	// Score is the averaged signed sentiment in [-1,1].
	Score float64

	// Intensity is the averaged unsigned magnitude in [0,1].
	Intensity float64

	// DominantEmotion is the highest-frequency emotion keyword match, or a
	// score-derived guess. Empty when the utterance carries no emotional
	// signal at all.
	DominantEmotion string
}

// Option configures an [Analyzer].
type Option func(*Analyzer)

// WithNormalizer attaches a phonetic token normalizer applied to tokens that
// miss the lexicon tables when the utterance's transcription confidence is
// below threshold. When nil (the default), no normalization is applied.
func WithNormalizer(n *lexicon.Normalizer, belowConfidence float64) Option {
	return func(a *Analyzer) {
		a.normalizer = n
		a.normalizeBelow = belowConfidence
	}
}

// Analyzer scores utterances against a fixed lexicon. Analyzer is read-only
// after construction and safe for concurrent use.
type Analyzer struct {
	lex            *lexicon.Set
	normalizer     *lexicon.Normalizer
	normalizeBelow float64
}

// New creates an Analyzer over lex.
func New(lex *lexicon.Set, opts ...Option) *Analyzer {
	a := &Analyzer{lex: lex}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze scores one utterance. Empty or unscorable text yields a neutral
// result rather than an error; a dropped score must never block the
// utterance stream.
func (a *Analyzer) Analyze(u interview.Utterance) Result {
	u = u.Sanitize()
	res := Result{UtteranceID: u.ID, Polarity: PolarityNeutral}

	tokens := tokenize(u.Text)
	if len(tokens) == 0 {
		return res
	}
	finalStart := finalClauseStart(u.Text, tokens)

	var (
		sum          float64
		absSum       float64
		scored       int
		strongPos    bool
		strongNeg    bool
		emotionCount = map[string]int{}
	)

	for i, tok := range tokens {
		if emo, ok := a.lex.Emotion(tok); ok {
			emotionCount[emo]++
		}

		mag, sign, ok := a.lookup(tok, u.Confidence)
		if !ok {
			continue
		}

		if sign > 0 && mag >= strongMagnitude {
			strongPos = true
		}
		if sign < 0 && mag >= strongMagnitude {
			strongNeg = true
		}

		value := mag * sign
		if hasNegator(a.lex, tokens, i, negatorWindow) {
			value = -value
		}
		if hasIntensifier(a.lex, tokens, i, intensifierWindow) {
			value *= intensifierBoost
		}
		if i >= finalStart {
			value *= finalClauseBoost
		}

		sum += value
		absSum += abs(value)
		scored++
	}

	if scored == 0 {
		res.DominantEmotion = dominantEmotion(emotionCount, 0)
		return res
	}

	res.Score = clamp(sum/float64(scored), -1, 1)
	res.Intensity = clamp(absSum/float64(scored), 0, 1)

	switch {
	case strongPos && strongNeg:
		res.Polarity = PolarityMixed
	case res.Score > positiveThreshold:
		res.Polarity = PolarityPositive
	case res.Score < negativeThreshold:
		res.Polarity = PolarityNegative
	default:
		res.Polarity = PolarityNeutral
	}

	res.DominantEmotion = dominantEmotion(emotionCount, res.Score)
	return res
}

// lookup resolves a token to its unsigned magnitude and sign. When the token
// misses both tables and a normalizer is configured for low-confidence
// transcripts, the phonetically aligned entry is tried instead.
func (a *Analyzer) lookup(token string, confidence float64) (mag float64, sign float64, ok bool) {
	if m, hit := a.lex.Positive(token); hit {
		return m, 1, true
	}
	if m, hit := a.lex.Negative(token); hit {
		return m, -1, true
	}

	if a.normalizer == nil || confidence >= a.normalizeBelow {
		return 0, 0, false
	}
	canonical, hit := a.normalizer.Canonical(token)
	if !hit {
		return 0, 0, false
	}
	if m, h := a.lex.Positive(canonical); h {
		return m, 1, true
	}
	if m, h := a.lex.Negative(canonical); h {
		return m, -1, true
	}
	return 0, 0, false
}

// dominantEmotion picks the most frequent emotion keyword match, breaking
// frequency ties alphabetically so results stay deterministic. When no
// keyword matched, the score-derived fallback applies.
func dominantEmotion(counts map[string]int, score float64) string {
	best := ""
	bestCount := 0
	for emo, c := range counts {
		if c > bestCount || (c == bestCount && c > 0 && emo < best) {
			best, bestCount = emo, c
		}
	}
	if best != "" {
		return best
	}
	switch {
	case score > emotionFallbackHigh:
		return "delight"
	case score < emotionFallbackLow:
		return "frustration"
	}
	return ""
}

// hasNegator reports whether a negator token occurs within window tokens
// before index i.
func hasNegator(lex *lexicon.Set, tokens []string, i, window int) bool {
	for j := i - 1; j >= 0 && j >= i-window; j-- {
		if lex.IsNegator(tokens[j]) {
			return true
		}
	}
	return false
}

// hasIntensifier reports whether an intensifier token occurs within window
// tokens before index i.
func hasIntensifier(lex *lexicon.Set, tokens []string, i, window int) bool {
	for j := i - 1; j >= 0 && j >= i-window; j-- {
		if lex.IsIntensifier(tokens[j]) {
			return true
		}
	}
	return false
}

// tokenize lowercases text and splits it into word tokens, dropping all
// non-alphanumeric runes so that "don't" and "dont" fold together.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		var b strings.Builder
		for _, r := range f {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return out
}

// finalClauseStart returns the index of the first token belonging to the last
// sentence of text, detected by splitting on sentence-terminal punctuation.
// When text contains a single sentence the final clause is the whole
// utterance.
func finalClauseStart(text string, tokens []string) int {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return 0
	}
	lastTokens := tokenize(sentences[len(sentences)-1])
	start := len(tokens) - len(lastTokens)
	if start < 0 {
		return 0
	}
	return start
}

// splitSentences splits on '.', '!' and '?', dropping empty fragments.
func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := raw[:0]
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
