package intent

import "github.com/ashureev/campus-assistant/internal/textnorm"

// Consent is the reading of a reply to a yes/no question.
type Consent int

const (
	ConsentUnclear Consent = iota
	ConsentNegative
	ConsentAffirmative
)

func (c Consent) String() string {
	switch c {
	case ConsentNegative:
		return "negative"
	case ConsentAffirmative:
		return "affirmative"
	default:
		return "unclear"
	}
}

// ClassifyConsent classifies a folded reply. Negation is checked first, so
// "nao quero" is negative even though "quero" alone is affirmative.
func (l *Lexicon) ClassifyConsent(folded string) Consent {
	c := l.Consent
	if textnorm.ContainsAny(folded, c.NegativePhrases) || textnorm.HasAnyWord(folded, c.NegativeWords) {
		return ConsentNegative
	}
	if textnorm.ContainsAny(folded, c.AffirmativePhrases) || textnorm.HasAnyWord(folded, c.AffirmativeWords) {
		return ConsentAffirmative
	}
	return ConsentUnclear
}

// IsConfessional reports whether the text states a first-person intention
// ("quero", "vou", "decidi") or a complaint ("nao gostei").
func (l *Lexicon) IsConfessional(folded string) bool {
	c := l.Consent
	return textnorm.ContainsAny(folded, c.ConfessionPhrases) || textnorm.HasAnyWord(folded, c.ConfessionWords)
}
