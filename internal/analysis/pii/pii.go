// Package pii implements detection of personally identifying content in
// transcript text. Detection only proposes spans; redaction is a separate,
// reviewable rendering step and is never applied silently anywhere in the
// pipeline.
//
// Fixed-format identifiers (email, phone, SSN-like, card-like) are matched
// with high-confidence regexes. Names, companies and street addresses are
// heuristic: introduction phrasing, capitalized-word sequences filtered
// against a place-name denylist, corporate suffixes and employment context.
package pii

import (
	"regexp"
	"sort"
	"strings"
)

// Type is the closed set of detection categories.
type Type string

const (
	TypeEmail      Type = "email"
	TypePhone      Type = "phone"
	TypeSSN        Type = "ssn"
	TypeCreditCard Type = "credit_card"
	TypeName       Type = "name"
	TypeCompany    Type = "company"
	TypeAddress    Type = "address"
)

// Severity tiers drive downstream review prioritisation only; they never
// trigger automatic redaction.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// severityFor maps each detection type to its review tier.
var severityFor = map[Type]Severity{
	TypeSSN:        SeverityHigh,
	TypeCreditCard: SeverityHigh,
	TypeEmail:      SeverityMedium,
	TypePhone:      SeverityMedium,
	TypeName:       SeverityMedium,
	TypeAddress:    SeverityMedium,
	TypeCompany:    SeverityLow,
}

// redactionLabel is the type-labeled replacement used by [Detector.Redact].
var redactionLabel = map[Type]string{
	TypeEmail:      "[EMAIL]",
	TypePhone:      "[PHONE]",
	TypeSSN:        "[SSN]",
	TypeCreditCard: "[CARD]",
	TypeName:       "[NAME]",
	TypeCompany:    "[COMPANY]",
	TypeAddress:    "[ADDRESS]",
}

// Detection is one proposed PII span, with byte offsets into the input text.
type Detection struct {
	Type       Type
	Severity   Severity
	Start      int
	End        int
	Text       string
	Confidence float64
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?1[\s.\-])?(\(\d{3}\)|\d{3})[\s.\-]\d{3}[\s.\-]\d{4}`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	cardPattern  = regexp.MustCompile(`\b\d{4}[ \-]?\d{4}[ \-]?\d{4}[ \-]?\d{4}\b`)

	// strongIntro captures a name after explicit self-introduction phrasing.
	strongIntro = regexp.MustCompile(`\b(?:[Mm]y name is|[Cc]all me)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)

	// weakIntro captures a name after looser introduction phrasing.
	weakIntro = regexp.MustCompile(`\b(?:[Ii]'?m|[Ii] am|[Tt]his is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)

	// capitalizedRun matches two or more consecutive capitalized words; a
	// generic, low-confidence name heuristic further filtered below.
	capitalizedRun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

	// companySuffix matches names carrying a corporate suffix.
	companySuffix = regexp.MustCompile(`\b[A-Z][A-Za-z&]*(?:\s+[A-Z&][A-Za-z&]*)*[,]?\s+(?:Inc|LLC|Corp|Corporation|Ltd|GmbH|Co)\.?`)

	// workContext captures capitalized words after employment phrasing.
	workContext = regexp.MustCompile(`\b(?:work(?:s|ed|ing)?\s+(?:at|for)|employed\s+(?:at|by))\s+([A-Z][A-Za-z0-9&]*(?:\s+[A-Z][A-Za-z0-9&]*)*)`)

	addressPattern = regexp.MustCompile(`\b\d{1,5}\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl)\b`)
)

// placeDenylist holds common multi-capitalized proper-noun phrases that the
// generic name heuristic must not flag.
var placeDenylist = map[string]struct{}{
	"new york":      {},
	"new york city": {},
	"san francisco": {},
	"los angeles":   {},
	"las vegas":     {},
	"new zealand":   {},
	"new jersey":    {},
	"north america": {},
	"south america": {},
	"united states": {},
	"united kingdom": {},
	"hong kong":     {},
	"silicon valley": {},
	"middle east":   {},
}

// Detector holds the compiled pattern set. It is stateless and safe for
// concurrent use.
type Detector struct{}

// New returns a PII Detector.
func New() *Detector {
	return &Detector{}
}

// Detect returns every proposed PII span in text, sorted by start offset.
// Overlapping spans are resolved in favour of the higher-confidence
// detection; the fixed-format patterns therefore always win over the
// heuristics. Empty text yields nil.
func (d *Detector) Detect(text string) []Detection {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var found []Detection
	found = append(found, matchAll(text, emailPattern, TypeEmail, 0.95)...)
	found = append(found, matchAll(text, ssnPattern, TypeSSN, 0.95)...)
	found = append(found, matchAll(text, cardPattern, TypeCreditCard, 0.9)...)
	found = append(found, matchAll(text, phonePattern, TypePhone, 0.9)...)
	found = append(found, matchGroup(text, strongIntro, TypeName, 0.8)...)
	found = append(found, matchGroup(text, weakIntro, TypeName, 0.7)...)
	found = append(found, d.genericNames(text)...)
	found = append(found, matchAll(text, companySuffix, TypeCompany, 0.7)...)
	found = append(found, matchGroup(text, workContext, TypeCompany, 0.5)...)
	found = append(found, matchAll(text, addressPattern, TypeAddress, 0.85)...)

	return resolveOverlaps(found)
}

// Redact renders text with every detection replaced by its type label.
// Replacements are applied last-to-first so earlier offsets stay valid.
func (d *Detector) Redact(text string) string {
	detections := d.Detect(text)
	for i := len(detections) - 1; i >= 0; i-- {
		det := detections[i]
		text = text[:det.Start] + redactionLabel[det.Type] + text[det.End:]
	}
	return text
}

// genericNames applies the multi-capitalized-word heuristic: runs of two or
// more capitalized words that are not at the start of a sentence and not on
// the place denylist.
func (d *Detector) genericNames(text string) []Detection {
	var out []Detection
	for _, loc := range capitalizedRun.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if atSentenceStart(text, start) {
			continue
		}
		match := text[start:end]
		if _, denied := placeDenylist[strings.ToLower(match)]; denied {
			continue
		}
		out = append(out, Detection{
			Type:       TypeName,
			Severity:   severityFor[TypeName],
			Start:      start,
			End:        end,
			Text:       match,
			Confidence: 0.6,
		})
	}
	return out
}

// atSentenceStart reports whether offset is the start of the text or follows
// sentence-terminal punctuation, where capitalization carries no signal.
func atSentenceStart(text string, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t', '\n', '"', '\'':
			continue
		case '.', '!', '?':
			return true
		default:
			return false
		}
	}
	return true
}

// matchAll emits a detection for every whole-pattern match.
func matchAll(text string, re *regexp.Regexp, t Type, confidence float64) []Detection {
	var out []Detection
	for _, loc := range re.FindAllStringIndex(text, -1) {
		out = append(out, Detection{
			Type:       t,
			Severity:   severityFor[t],
			Start:      loc[0],
			End:        loc[1],
			Text:       text[loc[0]:loc[1]],
			Confidence: confidence,
		})
	}
	return out
}

// matchGroup emits a detection for the first capture group of every match,
// so that introduction phrasing itself is not flagged, only the name.
func matchGroup(text string, re *regexp.Regexp, t Type, confidence float64) []Detection {
	var out []Detection
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		out = append(out, Detection{
			Type:       t,
			Severity:   severityFor[t],
			Start:      loc[2],
			End:        loc[3],
			Text:       text[loc[2]:loc[3]],
			Confidence: confidence,
		})
	}
	return out
}

// resolveOverlaps sorts detections by offset and drops any span overlapping
// a higher-confidence one. Ties keep the earlier, longer span.
func resolveOverlaps(detections []Detection) []Detection {
	if len(detections) == 0 {
		return nil
	}
	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].Confidence != detections[j].Confidence {
			return detections[i].Confidence > detections[j].Confidence
		}
		if detections[i].Start != detections[j].Start {
			return detections[i].Start < detections[j].Start
		}
		return detections[i].End > detections[j].End
	})

	var kept []Detection
	for _, d := range detections {
		overlaps := false
		for _, k := range kept {
			if d.Start < k.End && k.Start < d.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, d)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}
