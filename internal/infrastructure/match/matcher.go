// Package match wraps an Aho-Corasick automaton for weighted keyword
// matching over normalized text. One pass through the text finds all
// keywords regardless of how many rules share it.
package match

import (
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

type Keyword struct {
	Phrase string
	Weight float64
}

type Matcher struct {
	automaton *ahocorasick.Matcher
	keywords  []Keyword // normalized phrases, parallel to automaton indices
	total     float64
}

// Result accumulates the evidence one matcher found in a text.
type Result struct {
	TotalHits     int
	UniqueMatches int
	MatchedWeight float64
	TotalWeight   float64
	Matched       []string
}

func New(keywords []Keyword) *Matcher {
	m := &Matcher{keywords: make([]Keyword, 0, len(keywords))}
	phrases := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		phrase := Normalize(kw.Phrase)
		if phrase == "" {
			continue
		}
		weight := kw.Weight
		if weight <= 0 {
			weight = 1
		}
		m.keywords = append(m.keywords, Keyword{Phrase: phrase, Weight: weight})
		phrases = append(phrases, phrase)
		m.total += weight
	}
	if len(phrases) > 0 {
		m.automaton = ahocorasick.NewStringMatcher(phrases)
	}
	return m
}

// Match scans already-normalized text. Hits are verified against word
// boundaries so "acme" does not match inside "acmeta".
func (m *Matcher) Match(text string) Result {
	result := Result{TotalWeight: m.total}
	if m.automaton == nil || text == "" {
		return result
	}

	for _, idx := range m.automaton.Match([]byte(text)) {
		if idx >= len(m.keywords) {
			continue
		}
		kw := m.keywords[idx]
		hits := countTokenHits(text, kw.Phrase)
		if hits == 0 {
			continue
		}
		result.TotalHits += hits
		result.UniqueMatches++
		result.MatchedWeight += kw.Weight
		result.Matched = append(result.Matched, kw.Phrase)
	}
	return result
}

// Normalize lowercases and collapses all whitespace runs to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ContainsToken reports whether phrase occurs in text on word boundaries.
// Both arguments must already be normalized.
func ContainsToken(text, phrase string) bool {
	return countTokenHits(text, phrase) > 0
}

// countTokenHits counts boundary-respecting occurrences of phrase in text.
func countTokenHits(text, phrase string) int {
	count := 0
	for offset := 0; ; {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return count
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryAt(text, start-1) && boundaryAt(text, end) {
			count++
		}
		offset = start + 1
	}
}

func boundaryAt(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
