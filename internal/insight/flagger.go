// Package insight auto-flags notable moments in a session. The flagger
// applies stricter thresholds than coaching — a flag is a quiet annotation,
// but it still competes for the researcher's attention afterwards, so flags
// are capped per session and deduplicated per utterance. Flags are
// append-only; editing them later is a user operation outside this core.
package insight

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/analysis/bias"
	"github.com/MrWong99/attune/internal/analysis/sentiment"
	"github.com/MrWong99/attune/internal/interview"
)

// Source is what kind of signal promoted the utterance.
type Source string

const (
	SourceSentiment Source = "sentiment"
	SourceBias      Source = "bias"
	SourceStatement Source = "statement"
)

const (
	// DefaultCap is the per-session flag budget.
	DefaultCap = 6

	// intensityThreshold is the sentiment intensity at which an utterance
	// becomes flag-worthy; stricter than anything coaching reacts to.
	intensityThreshold = 0.7
)

// explicitPhrases betray an unprompted, first-person position statement.
var explicitPhrases = []string{
	"i wish", "i need", "i really want", "what i really want",
	"the biggest problem", "my biggest", "i always", "i never",
	"the main thing", "if i could change one thing",
}

// Flag is one auto-flagged notable moment.
type Flag struct {
	ID          uuid.UUID
	UtteranceID uuid.UUID
	Source      Source
	Description string
	At          time.Time
}

// Flagger accumulates flags for one session. Safe for concurrent use.
type Flagger struct {
	mu        sync.Mutex
	cap       int
	flags     []Flag
	flagged   map[uuid.UUID]struct{} // utterance ids already flagged
	seenAlert map[bias.AlertType]struct{}
}

// NewFlagger creates a Flagger with the given per-session cap. A
// non-positive cap falls back to [DefaultCap].
func NewFlagger(capLimit int) *Flagger {
	if capLimit <= 0 {
		capLimit = DefaultCap
	}
	return &Flagger{
		cap:       capLimit,
		flagged:   make(map[uuid.UUID]struct{}),
		seenAlert: make(map[bias.AlertType]struct{}),
	}
}

// ObserveSentiment flags the utterance when its sentiment intensity crosses
// the insight threshold. Returns the flag and true when one was created.
func (f *Flagger) ObserveSentiment(res sentiment.Result, at time.Time) (Flag, bool) {
	if res.Intensity < intensityThreshold {
		return Flag{}, false
	}
	desc := fmt.Sprintf("strong %s sentiment (intensity %.2f)", res.Polarity, res.Intensity)
	if res.DominantEmotion != "" {
		desc += ", " + res.DominantEmotion
	}
	return f.add(res.UtteranceID, SourceSentiment, desc, at)
}

// ObserveStatement flags participant utterances containing explicit
// first-person position statements.
func (f *Flagger) ObserveStatement(u interview.Utterance, at time.Time) (Flag, bool) {
	if u.Speaker != interview.SpeakerParticipant {
		return Flag{}, false
	}
	text := strings.ToLower(u.Text)
	for _, p := range explicitPhrases {
		if strings.Contains(text, p) {
			return f.add(u.ID, SourceStatement, "explicit statement: "+p, at)
		}
	}
	return Flag{}, false
}

// ObserveBiasAlerts flags each alert type the first time it appears in a
// recomputed alert set. The flag points at the alert's first supporting
// utterance.
func (f *Flagger) ObserveBiasAlerts(alerts []bias.Alert, at time.Time) []Flag {
	var created []Flag
	for _, a := range alerts {
		f.mu.Lock()
		_, seen := f.seenAlert[a.Type]
		if !seen {
			f.seenAlert[a.Type] = struct{}{}
		}
		f.mu.Unlock()
		if seen || len(a.SupportingUtteranceIDs) == 0 {
			continue
		}
		if fl, ok := f.add(a.SupportingUtteranceIDs[0], SourceBias, a.Description, at); ok {
			created = append(created, fl)
		}
	}
	return created
}

// Flags returns a copy of all flags in creation order.
func (f *Flagger) Flags() []Flag {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Flag, len(f.flags))
	copy(out, f.flags)
	return out
}

// add appends a flag unless the cap is reached or the utterance is already
// flagged.
func (f *Flagger) add(utteranceID uuid.UUID, src Source, desc string, at time.Time) (Flag, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.flags) >= f.cap {
		return Flag{}, false
	}
	if _, ok := f.flagged[utteranceID]; ok {
		return Flag{}, false
	}

	fl := Flag{
		ID:          uuid.New(),
		UtteranceID: utteranceID,
		Source:      src,
		Description: desc,
		At:          at,
	}
	f.flags = append(f.flags, fl)
	f.flagged[utteranceID] = struct{}{}
	return fl, true
}
