package highlight

import (
	"math"
	"strings"

	"github.com/hyperifyio/sheetlink/internal/textnorm"
	"github.com/hyperifyio/sheetlink/internal/view"
)

// exactMatches returns the indices of spans whose folded text contains the
// folded query.
func exactMatches(spans []view.Span, query string) []int {
	q := textnorm.Fold(query)
	if q == "" {
		return nil
	}
	var out []int
	for i, s := range spans {
		if strings.Contains(textnorm.Fold(s.Text()), q) {
			out = append(out, i)
		}
	}
	return out
}

// Tokens returns the distinct folded content tokens of query: words with at
// least minRunes runes that are not stop words.
func Tokens(query string, minRunes int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, w := range textnorm.ContentWords(query, minRunes) {
		f := textnorm.Fold(w)
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// required is the number of tokens a span must contain: ceil(threshold*n),
// at least one.
func required(n int, threshold float64) int {
	k := int(math.Ceil(threshold*float64(n) - 1e-9))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// overlapMatches returns the indices of spans containing at least
// required(len(tokens)) of tokens.
func overlapMatches(spans []view.Span, tokens []string, threshold float64) []int {
	if len(tokens) == 0 {
		return nil
	}
	need := required(len(tokens), threshold)
	var out []int
	for i, s := range spans {
		text := textnorm.Fold(s.Text())
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				hits++
			}
		}
		if hits >= need {
			out = append(out, i)
		}
	}
	return out
}
