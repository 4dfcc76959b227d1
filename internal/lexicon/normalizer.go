package lexicon

import (
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.80
	defaultMinTokenLen       = 4
)

// NormalizerOption configures a [Normalizer].
type NormalizerOption func(*Normalizer)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically matched lexicon entry to be accepted. Default: 0.80.
func WithPhoneticThreshold(threshold float64) NormalizerOption {
	return func(n *Normalizer) {
		n.threshold = threshold
	}
}

// WithMinTokenLength sets the minimum token length considered for phonetic
// alignment. Shorter tokens collide too easily on metaphone codes.
// Default: 4.
func WithMinTokenLength(l int) NormalizerOption {
	return func(n *Normalizer) {
		n.minLen = l
	}
}

// Normalizer aligns noisy transcript tokens to known lexicon entries. A token
// with no exact table hit is Double Metaphone encoded; entries sharing a code
// become candidates and the best Jaro-Winkler score above the threshold wins.
//
// Normalizer is read-only after construction apart from an internal result
// cache, and is safe for concurrent use.
type Normalizer struct {
	threshold float64
	minLen    int

	// codeIndex maps a metaphone code to the lexicon entries producing it.
	codeIndex map[string][]string

	mu    sync.Mutex
	cache map[string]string // token → canonical ("" = no match)
}

// NewNormalizer builds a Normalizer over every scored token in set.
func NewNormalizer(set *Set, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		threshold: defaultPhoneticThreshold,
		minLen:    defaultMinTokenLen,
		codeIndex: make(map[string][]string),
		cache:     make(map[string]string),
	}
	for _, o := range opts {
		o(n)
	}

	for _, entry := range set.ScoredTokens() {
		primary, secondary := matchr.DoubleMetaphone(entry)
		if primary != "" {
			n.codeIndex[primary] = append(n.codeIndex[primary], entry)
		}
		if secondary != "" && secondary != primary {
			n.codeIndex[secondary] = append(n.codeIndex[secondary], entry)
		}
	}
	return n
}

// Canonical returns the lexicon entry that token phonetically aligns to.
// When no entry clears the threshold, Canonical returns ("", false).
// Exact table hits are the caller's responsibility; Canonical is the fallback
// for tokens that missed the tables.
func (n *Normalizer) Canonical(token string) (string, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if len(token) < n.minLen {
		return "", false
	}

	n.mu.Lock()
	if hit, ok := n.cache[token]; ok {
		n.mu.Unlock()
		return hit, hit != ""
	}
	n.mu.Unlock()

	best := ""
	bestScore := 0.0

	primary, secondary := matchr.DoubleMetaphone(token)
	for _, code := range []string{primary, secondary} {
		if code == "" {
			continue
		}
		for _, entry := range n.codeIndex[code] {
			if score := matchr.JaroWinkler(token, entry, false); score > bestScore {
				best, bestScore = entry, score
			}
		}
	}

	if bestScore < n.threshold {
		best = ""
	}

	n.mu.Lock()
	n.cache[token] = best
	n.mu.Unlock()

	return best, best != ""
}
