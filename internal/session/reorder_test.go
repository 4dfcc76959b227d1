package session

import (
	"testing"

	"github.com/MrWong99/attune/internal/interview"
)

func at(start float64) interview.Utterance {
	return interview.Utterance{
		Speaker:         interview.SpeakerParticipant,
		Text:            "segment",
		StartSeconds:    start,
		DurationSeconds: 1,
		Confidence:      0.9,
	}
}

func starts(utterances []interview.Utterance) []float64 {
	out := make([]float64, len(utterances))
	for i, u := range utterances {
		out[i] = u.StartSeconds
	}
	return out
}

func TestReorderBuffer_InOrderStream(t *testing.T) {
	t.Parallel()

	b := newReorderBuffer(2)

	// Nothing is admitted until the stream advances past the window.
	if admitted, late := b.Add(at(0)); admitted != nil || late {
		t.Fatalf("first segment: admitted=%v late=%v, want held", starts(admitted), late)
	}

	admitted, late := b.Add(at(3))
	if late {
		t.Fatal("in-order segment reported late")
	}
	if len(admitted) != 1 || admitted[0].StartSeconds != 0 {
		t.Fatalf("admitted %v, want [0]", starts(admitted))
	}

	admitted, _ = b.Add(at(6))
	if len(admitted) != 1 || admitted[0].StartSeconds != 3 {
		t.Fatalf("admitted %v, want [3]", starts(admitted))
	}
}

func TestReorderBuffer_JitterReordered(t *testing.T) {
	t.Parallel()

	b := newReorderBuffer(2)
	b.Add(at(0))

	// 5 advances the stream and flushes 0 out.
	if admitted, _ := b.Add(at(5)); len(admitted) != 1 || admitted[0].StartSeconds != 0 {
		t.Fatalf("admitted %v, want [0]", starts(admitted))
	}

	// 4 arrives behind 5 but ahead of everything admitted: held, not late.
	if admitted, late := b.Add(at(4)); admitted != nil || late {
		t.Fatalf("jittered segment: admitted=%v late=%v, want held", starts(admitted), late)
	}

	// Advancing to 8 releases both held segments in start order.
	admitted, late := b.Add(at(8))
	if late {
		t.Fatal("reported late")
	}
	if len(admitted) != 2 || admitted[0].StartSeconds != 4 || admitted[1].StartSeconds != 5 {
		t.Fatalf("admitted %v, want [4 5]", starts(admitted))
	}
}

func TestReorderBuffer_LateArrival(t *testing.T) {
	t.Parallel()

	b := newReorderBuffer(2)
	b.Add(at(0))
	b.Add(at(5)) // admits 0

	// A segment behind the last admitted offset passes straight through,
	// flagged late, without disturbing the pending set.
	b.Add(at(7)) // admits 5; lastAdmitted now 5
	admitted, late := b.Add(at(3))
	if !late {
		t.Fatal("segment behind admitted stream not reported late")
	}
	if len(admitted) != 1 || admitted[0].StartSeconds != 3 {
		t.Fatalf("late admit %v, want [3]", starts(admitted))
	}

	// The held segment at 7 is still pending.
	if got := b.Flush(); len(got) != 1 || got[0].StartSeconds != 7 {
		t.Fatalf("Flush() = %v, want [7]", starts(got))
	}
}

func TestReorderBuffer_FlushOrdersPending(t *testing.T) {
	t.Parallel()

	b := newReorderBuffer(10)
	b.Add(at(2))
	b.Add(at(0))
	b.Add(at(1))

	got := b.Flush()
	if len(got) != 3 {
		t.Fatalf("Flush() returned %d segments, want 3", len(got))
	}
	for i, want := range []float64{0, 1, 2} {
		if got[i].StartSeconds != want {
			t.Errorf("Flush()[%d] start = %v, want %v", i, got[i].StartSeconds, want)
		}
	}

	if got := b.Flush(); got != nil {
		t.Errorf("second Flush() = %v, want nil", starts(got))
	}
}

func TestNewReorderBuffer_DefaultWindow(t *testing.T) {
	t.Parallel()

	b := newReorderBuffer(0)
	b.Add(at(0))

	// With the default 2s window an advance of 1.5s holds everything.
	if admitted, _ := b.Add(at(1.5)); admitted != nil {
		t.Errorf("admitted %v inside the default window", starts(admitted))
	}
	if admitted, _ := b.Add(at(2.5)); len(admitted) != 1 || admitted[0].StartSeconds != 0 {
		t.Errorf("admitted %v, want [0]", starts(admitted))
	}
}
