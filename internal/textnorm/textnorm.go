// Package textnorm folds user text into a canonical matching form.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics ("Matrícula" -> "matricula").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// FoldAll folds every entry of list.
func FoldAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if f := Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ContainsAny reports whether text contains any of the phrases as a substring.
func ContainsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// HasWord reports whether word occurs in text delimited by word boundaries.
// Letters, digits and underscore count as word characters.
func HasWord(text, word string) bool {
	if word == "" {
		return false
	}
	from := 0
	for from <= len(text) {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		from = start + 1
	}
	return false
}

// HasAnyWord reports whether any of words occurs in text as a whole word.
func HasAnyWord(text string, words []string) bool {
	for _, w := range words {
		if HasWord(text, w) {
			return true
		}
	}
	return false
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	for _, r := range text[i:] {
		return !isWordRune(r)
	}
	return true
}
