// Package lexicon holds the word tables that drive attune's rule-based text
// scoring: signed sentiment magnitudes, negators, intensifiers, and the
// emotion keyword table. Tables are plain in-memory maps; a YAML overlay can
// extend or override the built-in entries per deployment.
//
// The package also provides a phonetic token normalizer that aligns noisy,
// low-confidence transcript tokens to known lexicon entries using Double
// Metaphone codes ranked by Jaro-Winkler similarity, so that a transcription
// like "frustraiting" still lands on the "frustrating" table entry.
package lexicon

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Set is one complete lexicon: disjoint positive/negative magnitude tables,
// negator and intensifier token sets, and emotion keywords. A Set is
// read-only after construction and safe for concurrent use.
type Set struct {
	positive     map[string]float64
	negative     map[string]float64
	negators     map[string]struct{}
	intensifiers map[string]struct{}

	// emotionByKeyword maps a keyword to its emotion label.
	emotionByKeyword map[string]string
}

// Default returns the built-in lexicon.
func Default() *Set {
	s := &Set{
		positive:         make(map[string]float64, len(defaultPositive)),
		negative:         make(map[string]float64, len(defaultNegative)),
		negators:         make(map[string]struct{}, len(defaultNegators)),
		intensifiers:     make(map[string]struct{}, len(defaultIntensifiers)),
		emotionByKeyword: make(map[string]string, 64),
	}
	for w, m := range defaultPositive {
		s.positive[w] = m
	}
	for w, m := range defaultNegative {
		s.negative[w] = m
	}
	for _, w := range defaultNegators {
		s.negators[w] = struct{}{}
	}
	for _, w := range defaultIntensifiers {
		s.intensifiers[w] = struct{}{}
	}
	for emotion, kws := range defaultEmotions {
		for _, kw := range kws {
			s.emotionByKeyword[kw] = emotion
		}
	}
	return s
}

// Positive returns the positive magnitude for token, if present.
func (s *Set) Positive(token string) (float64, bool) {
	m, ok := s.positive[token]
	return m, ok
}

// Negative returns the negative magnitude for token, if present.
// Magnitudes are stored unsigned; callers apply the sign.
func (s *Set) Negative(token string) (float64, bool) {
	m, ok := s.negative[token]
	return m, ok
}

// IsNegator reports whether token inverts the sign of a following
// sentiment-bearing word.
func (s *Set) IsNegator(token string) bool {
	_, ok := s.negators[token]
	return ok
}

// IsIntensifier reports whether token amplifies a following
// sentiment-bearing word.
func (s *Set) IsIntensifier(token string) bool {
	_, ok := s.intensifiers[token]
	return ok
}

// Emotion returns the emotion label keyed by token, if any.
func (s *Set) Emotion(token string) (string, bool) {
	e, ok := s.emotionByKeyword[token]
	return e, ok
}

// ScoredTokens returns every token that carries a sentiment magnitude, for
// use as the candidate set of the phonetic normalizer.
func (s *Set) ScoredTokens() []string {
	out := make([]string, 0, len(s.positive)+len(s.negative))
	for w := range s.positive {
		out = append(out, w)
	}
	for w := range s.negative {
		out = append(out, w)
	}
	return out
}

// overlay is the YAML schema for deployment-specific lexicon extensions.
type overlay struct {
	Positive     map[string]float64  `yaml:"positive"`
	Negative     map[string]float64  `yaml:"negative"`
	Negators     []string            `yaml:"negators"`
	Intensifiers []string            `yaml:"intensifiers"`
	Emotions     map[string][]string `yaml:"emotions"`
}

// LoadOverlay reads a YAML overlay file at path and merges it into s.
// Entries present in the overlay replace built-in entries with the same key;
// magnitudes are clamped to [0,1].
func (s *Set) LoadOverlay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("lexicon: open %q: %w", path, err)
	}
	defer f.Close()
	if err := s.MergeFromReader(f); err != nil {
		return fmt.Errorf("lexicon: parse %q: %w", path, err)
	}
	return nil
}

// MergeFromReader decodes a YAML overlay from r and merges it into s.
func (s *Set) MergeFromReader(r io.Reader) error {
	var o overlay
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		return fmt.Errorf("lexicon: decode yaml: %w", err)
	}

	for w, m := range o.Positive {
		s.positive[w] = clamp01(m)
	}
	for w, m := range o.Negative {
		s.negative[w] = clamp01(m)
	}
	for _, w := range o.Negators {
		s.negators[w] = struct{}{}
	}
	for _, w := range o.Intensifiers {
		s.intensifiers[w] = struct{}{}
	}
	for emotion, kws := range o.Emotions {
		for _, kw := range kws {
			s.emotionByKeyword[kw] = emotion
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
