package search

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/tplsearch/internal/domain/catalogue"
)

// Score weights per matching token.
const (
	scoreExactTitle = 20
	scoreTitle      = 10
	scoreAuthor     = 8
	scoreSubject    = 5
	scoreHaystack   = 2
)

// Scorer ranks static catalogue entries against a free-text query.
type Scorer struct {
	minTokenLen      int
	withDescriptions bool
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithDescriptions adds entry descriptions to the haystack and drops tokens shorter than 3 characters.
func WithDescriptions() ScorerOption {
	return func(s *Scorer) {
		s.withDescriptions = true
		s.minTokenLen = 3
	}
}

// NewScorer creates a Scorer. By default tokens of a single character are ignored.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{minTokenLen: 2}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scored is a catalogue entry with its relevance score.
type Scored struct {
	Entry catalogue.Entry
	Score int
}

// Top returns up to k entries with a positive score, best first.
// Equal scores keep catalogue order.
func (s *Scorer) Top(query string, entries []catalogue.Entry, k int) []Scored {
	tokens := s.tokens(query)
	if len(tokens) == 0 || k <= 0 {
		return nil
	}
	whole := strings.ToLower(strings.TrimSpace(query))

	out := make([]Scored, 0, len(entries))
	for _, e := range entries {
		if score := s.score(e, whole, tokens); score > 0 {
			out = append(out, Scored{Entry: e, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (s *Scorer) tokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= s.minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func (s *Scorer) score(e catalogue.Entry, whole string, tokens []string) int {
	title := strings.ToLower(e.Title)
	author := strings.ToLower(e.Author)
	subjects := make([]string, len(e.Subjects))
	for i, sub := range e.Subjects {
		subjects[i] = strings.ToLower(sub)
	}

	parts := append([]string{title, author}, subjects...)
	if s.withDescriptions {
		parts = append(parts, strings.ToLower(e.Description))
	}
	haystack := strings.Join(parts, " ")

	score := 0
	for _, t := range tokens {
		switch {
		case title == whole:
			score += scoreExactTitle
		case strings.Contains(title, t):
			score += scoreTitle
		}
		if strings.Contains(author, t) {
			score += scoreAuthor
		}
		for _, sub := range subjects {
			if strings.Contains(sub, t) {
				score += scoreSubject
				break
			}
		}
		if strings.Contains(haystack, t) {
			score += scoreHaystack
		}
	}
	return score
}
