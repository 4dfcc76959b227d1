package sentiment

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/MrWong99/attune/internal/interview"
)

// shiftThreshold is the minimum absolute score delta between consecutive
// results that counts as an emotional shift.
const shiftThreshold = 0.4

// arcPeaks is how many intensity peaks the arc summary reports.
const arcPeaks = 3

// Shift records a pair of consecutive results whose score moved sharply.
type Shift struct {
	FromUtteranceID uuid.UUID
	ToUtteranceID   uuid.UUID

	// Delta is the signed score change (to minus from).
	Delta float64

	// Description is a human-readable account of the shift.
	Description string
}

// Peak is one high-intensity moment in the session.
type Peak struct {
	UtteranceID uuid.UUID
	Intensity   float64
}

// Arc summarises the emotional trajectory of a whole session.
type Arc struct {
	AverageScore float64
	MinScore     float64
	MaxScore     float64

	// Peaks holds the top intensity moments, highest first.
	Peaks []Peak

	// Description is a three-part narrative covering the start, middle and
	// end of the session.
	Description string
}

// SessionResult bundles per-utterance results with session-level findings.
type SessionResult struct {
	Results []Result
	Shifts  []Shift
	Arc     Arc
}

// AnalyzeSession scores every utterance in order and derives emotional shifts
// plus an arc summary. Passing an empty slice yields an empty result.
func (a *Analyzer) AnalyzeSession(utterances []interview.Utterance) SessionResult {
	out := SessionResult{Results: make([]Result, 0, len(utterances))}
	for _, u := range utterances {
		out.Results = append(out.Results, a.Analyze(u))
	}
	if len(out.Results) == 0 {
		return out
	}

	out.Shifts = DetectShifts(out.Results)
	out.Arc = SummariseArc(out.Results)
	return out
}

// DetectShifts finds consecutive result pairs whose score delta meets the
// shift threshold.
func DetectShifts(results []Result) []Shift {
	var shifts []Shift
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		delta := cur.Score - prev.Score
		if abs(delta) < shiftThreshold {
			continue
		}
		direction := "rose"
		if delta < 0 {
			direction = "fell"
		}
		shifts = append(shifts, Shift{
			FromUtteranceID: prev.UtteranceID,
			ToUtteranceID:   cur.UtteranceID,
			Delta:           delta,
			Description: fmt.Sprintf("sentiment %s sharply from %.2f to %.2f",
				direction, prev.Score, cur.Score),
		})
	}
	return shifts
}

// SummariseArc computes score statistics, the top intensity peaks and a
// three-part start/middle/end narrative. An empty result slice yields a
// zero Arc.
func SummariseArc(results []Result) Arc {
	if len(results) == 0 {
		return Arc{}
	}
	arc := Arc{MinScore: results[0].Score, MaxScore: results[0].Score}

	var sum float64
	for _, r := range results {
		sum += r.Score
		if r.Score < arc.MinScore {
			arc.MinScore = r.Score
		}
		if r.Score > arc.MaxScore {
			arc.MaxScore = r.Score
		}
	}
	arc.AverageScore = sum / float64(len(results))

	// Top intensity peaks, highest first; ties keep utterance order so the
	// summary stays deterministic.
	byIntensity := make([]Result, len(results))
	copy(byIntensity, results)
	sort.SliceStable(byIntensity, func(i, j int) bool {
		return byIntensity[i].Intensity > byIntensity[j].Intensity
	})
	for i := 0; i < len(byIntensity) && i < arcPeaks; i++ {
		if byIntensity[i].Intensity == 0 {
			break
		}
		arc.Peaks = append(arc.Peaks, Peak{
			UtteranceID: byIntensity[i].UtteranceID,
			Intensity:   byIntensity[i].Intensity,
		})
	}

	arc.Description = fmt.Sprintf("started %s, %s through the middle, ended %s",
		tone(segmentAverage(results, 0)),
		tone(segmentAverage(results, 1)),
		tone(segmentAverage(results, 2)),
	)
	return arc
}

// segmentAverage averages the scores of one third of the session.
// segment 0 is the start, 1 the middle, 2 the end. Sessions shorter than
// three utterances collapse segments onto the nearest available result.
func segmentAverage(results []Result, segment int) float64 {
	n := len(results)
	lo := segment * n / 3
	hi := (segment + 1) * n / 3
	if hi <= lo {
		idx := lo
		if idx >= n {
			idx = n - 1
		}
		return results[idx].Score
	}
	var sum float64
	for _, r := range results[lo:hi] {
		sum += r.Score
	}
	return sum / float64(hi-lo)
}

// tone maps an averaged score to a narrative word.
func tone(score float64) string {
	switch {
	case score > positiveThreshold:
		return "positive"
	case score < negativeThreshold:
		return "negative"
	}
	return "neutral"
}
