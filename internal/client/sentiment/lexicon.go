package sentiment

import "strings"

// Minimal finance lexicon for the quota-exhausted fallback. Deterministic:
// score is the normalized difference of bullish and bearish hits.
var bullishTerms = []string{
	"buy", "bull", "bullish", "moon", "rocket", "calls", "long", "upgrade",
	"beat", "growth", "rally", "breakout", "undervalued", "strong",
}

var bearishTerms = []string{
	"sell", "bear", "bearish", "crash", "puts", "short", "downgrade",
	"miss", "drop", "dump", "overvalued", "weak", "bubble", "bankrupt",
}

func lexiconScore(text string) *Score {
	lower := strings.ToLower(text)
	var pos, neg int
	for _, term := range bullishTerms {
		pos += strings.Count(lower, term)
	}
	for _, term := range bearishTerms {
		neg += strings.Count(lower, term)
	}
	total := pos + neg
	if total == 0 {
		return &Score{Label: "neutral"}
	}
	v := float64(pos-neg) / float64(total)
	return &Score{Value: v, Label: labelFor(v)}
}
