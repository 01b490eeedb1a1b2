package matcher

import (
	"strings"
	"unicode"

	"github.com/mycok/uResolve/record"
)

// Scorer should be implemented by types that compute the distance between
// two records. Lower weights mean more similar records.
type Scorer interface {
	Score(a, b *record.Record) (float64, error)
}

// ScorerFunc serves as an adapter that allows the use of normal functions
// as scorers.
type ScorerFunc func(a, b *record.Record) (float64, error)

// Score calls f(a, b).
func (f ScorerFunc) Score(a, b *record.Record) (float64, error) {
	return f(a, b)
}

// JaccardScorer scores record pairs by the Jaccard distance of their
// lower-cased property value tokens. The distance is in [0, 1]; records
// without tokens are at distance 1 from every record.
type JaccardScorer struct {
	// Property types to compare. An empty list compares all properties.
	Properties []string
}

// Score returns the Jaccard distance between a and b.
func (s *JaccardScorer) Score(a, b *record.Record) (float64, error) {
	ta, tb := s.tokens(a), s.tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 1, nil
	}

	var shared int
	for t := range ta {
		if _, exists := tb[t]; exists {
			shared++
		}
	}

	union := len(ta) + len(tb) - shared

	return 1 - float64(shared)/float64(union), nil
}

func (s *JaccardScorer) tokens(r *record.Record) map[string]struct{} {
	keys := s.Properties
	if len(keys) == 0 {
		keys = r.Properties.Keys()
	}

	set := make(map[string]struct{})
	for _, k := range keys {
		for _, v := range r.Properties[k] {
			for _, t := range strings.FieldsFunc(strings.ToLower(v), isSeparator) {
				set[t] = struct{}{}
			}
		}
	}

	return set
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}
