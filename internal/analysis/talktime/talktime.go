// Package talktime computes speaking-time balance between interviewer and
// participant. In a well-run research interview the interviewer should hold
// well under a third of the speaking time; the status thresholds encode that
// rule of thumb.
package talktime

import (
	"github.com/MrWong99/attune/internal/interview"
)

// Status grades the interviewer's share of total speaking time.
type Status string

const (
	// StatusGood: interviewer under 30% of speaking time.
	StatusGood Status = "good"

	// StatusWarning: interviewer between 30% and 40%.
	StatusWarning Status = "warning"

	// StatusOver: interviewer above 40%.
	StatusOver Status = "over"

	// StatusNoData: no timed speech yet.
	StatusNoData Status = "no_data"
)

const (
	warningRatio = 0.30
	overRatio    = 0.40

	// DefaultWindowSeconds and DefaultStepSeconds parameterise the rolling
	// balance series.
	DefaultWindowSeconds = 300.0
	DefaultStepSeconds   = 30.0
)

// Result is the speaking-time balance over a span of utterances.
type Result struct {
	InterviewerSeconds float64
	ParticipantSeconds float64
	TotalSeconds       float64
	InterviewerRatio   float64
	ParticipantRatio   float64
	Status             Status
}

// WindowPoint is one sample of the rolling balance series.
type WindowPoint struct {
	StartSeconds float64
	EndSeconds   float64
	Result       Result
}

// Analyze sums speaking time per speaker over all utterances. Negative
// durations have already been clamped by sanitisation; zero total time
// yields [StatusNoData].
func Analyze(utterances []interview.Utterance) Result {
	var res Result
	for _, u := range utterances {
		u = u.Sanitize()
		switch u.Speaker {
		case interview.SpeakerInterviewer:
			res.InterviewerSeconds += u.DurationSeconds
		default:
			res.ParticipantSeconds += u.DurationSeconds
		}
	}
	return finalize(res)
}

// Rolling computes the balance over a sliding window for trend rendering.
// Each utterance contributes the intersection of its duration with the
// window bounds. widthSeconds and stepSeconds fall back to the defaults when
// non-positive. The series spans from zero to the end of the last utterance.
func Rolling(utterances []interview.Utterance, widthSeconds, stepSeconds float64) []WindowPoint {
	if widthSeconds <= 0 {
		widthSeconds = DefaultWindowSeconds
	}
	if stepSeconds <= 0 {
		stepSeconds = DefaultStepSeconds
	}

	var sessionEnd float64
	sanitized := make([]interview.Utterance, 0, len(utterances))
	for _, u := range utterances {
		u = u.Sanitize()
		sanitized = append(sanitized, u)
		if end := u.EndSeconds(); end > sessionEnd {
			sessionEnd = end
		}
	}
	if sessionEnd == 0 {
		return nil
	}

	var points []WindowPoint
	for start := 0.0; start < sessionEnd; start += stepSeconds {
		end := start + widthSeconds
		var res Result
		for _, u := range sanitized {
			overlap := intersect(u.StartSeconds, u.EndSeconds(), start, end)
			if overlap <= 0 {
				continue
			}
			if u.Speaker == interview.SpeakerInterviewer {
				res.InterviewerSeconds += overlap
			} else {
				res.ParticipantSeconds += overlap
			}
		}
		points = append(points, WindowPoint{
			StartSeconds: start,
			EndSeconds:   end,
			Result:       finalize(res),
		})
	}
	return points
}

// finalize derives totals, ratios and status from the accumulated seconds.
func finalize(res Result) Result {
	res.TotalSeconds = res.InterviewerSeconds + res.ParticipantSeconds
	if res.TotalSeconds == 0 {
		res.Status = StatusNoData
		return res
	}
	res.InterviewerRatio = res.InterviewerSeconds / res.TotalSeconds
	res.ParticipantRatio = res.ParticipantSeconds / res.TotalSeconds

	switch {
	case res.InterviewerRatio > overRatio:
		res.Status = StatusOver
	case res.InterviewerRatio >= warningRatio:
		res.Status = StatusWarning
	default:
		res.Status = StatusGood
	}
	return res
}

// intersect returns the length of the overlap between [aStart,aEnd) and
// [bStart,bEnd), or zero when disjoint.
func intersect(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	return hi - lo
}
