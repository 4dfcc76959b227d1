package session

import (
	"sort"

	"github.com/MrWong99/attune/internal/interview"
)

// defaultJitterWindowSeconds is how far behind the newest seen start offset
// an utterance may be held back waiting for earlier segments.
const defaultJitterWindowSeconds = 2.0

// reorderBuffer absorbs the small out-of-order jitter the transcription
// collaborator is allowed to produce. Utterances are held until the stream
// has advanced past them by the jitter window, then admitted in start-offset
// order. An utterance arriving behind something already admitted is let
// through immediately — accepted, but reported late so the caller can flag
// it rather than drop it.
//
// Not safe for concurrent use; it lives inside the pipeline's single-writer
// loop.
type reorderBuffer struct {
	window float64

	pending      []interview.Utterance // sorted by StartSeconds
	maxSeen      float64
	lastAdmitted float64
	admittedAny  bool
}

func newReorderBuffer(windowSeconds float64) *reorderBuffer {
	if windowSeconds <= 0 {
		windowSeconds = defaultJitterWindowSeconds
	}
	return &reorderBuffer{window: windowSeconds}
}

// Add inserts u and returns the utterances that became admissible, in order.
// late is true when u arrived behind an already-admitted segment; in that
// case u is the only admitted utterance and the pending set is untouched.
func (b *reorderBuffer) Add(u interview.Utterance) (admitted []interview.Utterance, late bool) {
	if b.admittedAny && u.StartSeconds < b.lastAdmitted {
		return []interview.Utterance{u}, true
	}

	idx := sort.Search(len(b.pending), func(i int) bool {
		return b.pending[i].StartSeconds > u.StartSeconds
	})
	b.pending = append(b.pending, interview.Utterance{})
	copy(b.pending[idx+1:], b.pending[idx:])
	b.pending[idx] = u

	if u.StartSeconds > b.maxSeen {
		b.maxSeen = u.StartSeconds
	}

	cutoff := b.maxSeen - b.window
	n := 0
	for n < len(b.pending) && b.pending[n].StartSeconds <= cutoff {
		n++
	}
	if n == 0 {
		return nil, false
	}

	admitted = make([]interview.Utterance, n)
	copy(admitted, b.pending[:n])
	b.pending = append(b.pending[:0], b.pending[n:]...)

	b.lastAdmitted = admitted[n-1].StartSeconds
	b.admittedAny = true
	return admitted, false
}

// Flush admits everything still pending, in order. Called at session end.
func (b *reorderBuffer) Flush() []interview.Utterance {
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = nil
	if n := len(out); n > 0 {
		b.lastAdmitted = out[n-1].StartSeconds
		b.admittedAny = true
	}
	return out
}
