package intent

import (
	"strings"

	"github.com/ashureev/campus-assistant/internal/textnorm"
)

const (
	maxOpportunityBlocks = 2
	maxSuggestions       = 2
)

// Opportunity is one block of follow-up suggestions.
type Opportunity struct {
	Title       string   `json:"title"`
	Suggestions []string `json:"suggestions"`
}

// OpportunitiesFor returns the blocks relevant to an academic utterance, capped
// at two blocks of two suggestions. Non-academic text yields nil.
func (l *Lexicon) OpportunitiesFor(folded string) []Opportunity {
	if !textnorm.ContainsAny(folded, l.Opportunities.Academic) {
		return nil
	}
	var out []Opportunity
	for _, b := range l.Opportunities.Blocks {
		if !textnorm.ContainsAny(folded, b.When) {
			continue
		}
		if len(b.With) > 0 && !textnorm.ContainsAny(folded, b.With) {
			continue
		}
		if textnorm.ContainsAny(folded, b.Without) {
			continue
		}
		sugg := b.Suggestions
		if len(sugg) > maxSuggestions {
			sugg = sugg[:maxSuggestions]
		}
		out = append(out, Opportunity{Title: b.Title, Suggestions: sugg})
		if len(out) == maxOpportunityBlocks {
			break
		}
	}
	return out
}

// FormatOpportunities renders blocks as a reply suffix, or "" for none.
func FormatOpportunities(blocks []Opportunity) string {
	if len(blocks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n**Oportunidades e Próximas Ações:**")
	for _, o := range blocks {
		b.WriteString("\n\n")
		b.WriteString(o.Title)
		for _, s := range o.Suggestions {
			b.WriteString("\n   • ")
			b.WriteString(s)
		}
	}
	return b.String()
}
