package lexicon

// defaultPositive maps lowercase tokens to unsigned positive magnitudes.
// Magnitudes at or above 0.3 count as "strong" for mixed-polarity detection.
var defaultPositive = map[string]float64{
	"love":        0.8,
	"loved":       0.8,
	"fantastic":   0.9,
	"brilliant":   0.8,
	"amazing":     0.8,
	"wonderful":   0.8,
	"awesome":     0.8,
	"excellent":   0.8,
	"perfect":     0.8,
	"delighted":   0.9,
	"thrilled":    0.8,
	"great":       0.7,
	"impressed":   0.7,
	"excited":     0.7,
	"enjoy":       0.6,
	"enjoyed":     0.6,
	"happy":       0.6,
	"intuitive":   0.6,
	"smooth":      0.6,
	"pleased":     0.6,
	"satisfying":  0.6,
	"satisfied":   0.6,
	"comfortable": 0.5,
	"helpful":     0.5,
	"useful":      0.5,
	"easy":        0.5,
	"good":        0.5,
	"reliable":    0.5,
	"appreciate":  0.5,
	"like":        0.4,
	"liked":       0.4,
	"fast":        0.4,
	"clear":       0.4,
	"nice":        0.4,
	"fine":        0.3,
}

// defaultNegative maps lowercase tokens to unsigned negative magnitudes.
var defaultNegative = map[string]float64{
	"worst":         0.9,
	"hate":          0.8,
	"hated":         0.8,
	"terrible":      0.8,
	"awful":         0.8,
	"horrible":      0.8,
	"dreadful":      0.8,
	"frustrating":   0.7,
	"frustrated":    0.7,
	"infuriating":   0.8,
	"painful":       0.7,
	"useless":       0.7,
	"disappointing": 0.7,
	"disappointed":  0.7,
	"angry":         0.7,
	"broken":        0.7,
	"annoying":      0.6,
	"annoyed":       0.6,
	"confusing":     0.6,
	"confused":      0.6,
	"crash":         0.6,
	"crashes":       0.6,
	"crashed":       0.6,
	"buggy":         0.6,
	"failed":        0.6,
	"fails":         0.6,
	"failure":       0.6,
	"upset":         0.6,
	"unreliable":    0.6,
	"bad":           0.5,
	"difficult":     0.5,
	"slow":          0.5,
	"clunky":        0.5,
	"worried":       0.5,
	"bug":           0.5,
	"hard":          0.4,
	"problem":       0.4,
	"issue":         0.3,
	"unclear":       0.4,
}

// defaultNegators invert the sign of a sentiment word within the following
// three tokens. Apostrophe-stripped contractions are listed alongside the
// punctuated forms because tokenization strips punctuation.
var defaultNegators = []string{
	"not", "no", "never", "neither", "nor", "nothing", "without",
	"hardly", "barely",
	"don't", "dont", "doesn't", "doesnt", "didn't", "didnt",
	"can't", "cant", "cannot", "won't", "wont",
	"isn't", "isnt", "wasn't", "wasnt", "aren't", "arent", "weren't", "werent",
}

// defaultIntensifiers amplify a sentiment word within the following two tokens.
var defaultIntensifiers = []string{
	"very", "really", "extremely", "absolutely", "incredibly", "totally",
	"so", "super", "completely", "utterly", "deeply", "highly",
	"especially", "particularly",
}

// defaultEmotions maps emotion labels to their trigger keywords. Dominant
// emotion is chosen by highest keyword frequency within one utterance.
var defaultEmotions = map[string][]string{
	"delight": {
		"love", "loved", "delighted", "thrilled", "excited",
		"fantastic", "wonderful", "amazing", "awesome",
	},
	"frustration": {
		"frustrating", "frustrated", "annoying", "annoyed",
		"irritating", "infuriating", "painful",
	},
	"confusion": {
		"confusing", "confused", "unclear", "lost", "puzzled",
	},
	"anxiety": {
		"worried", "nervous", "anxious", "scared", "afraid", "concerned",
	},
	"satisfaction": {
		"satisfied", "satisfying", "pleased", "happy", "content", "comfortable",
	},
	"disappointment": {
		"disappointed", "disappointing", "underwhelmed",
	},
}
