package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns s in NFC form with every run of whitespace (including
// non-breaking and zero-width spaces) collapsed to a single ASCII space.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if r == '\u200b' || r == '\ufeff' {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimRight(b.String(), " ")
}

// Fold returns a caseless form of s suitable for substring comparison.
// A fresh Caser is used per call because casers are stateful.
func Fold(s string) string {
	return cases.Fold().String(Normalize(s))
}

// Words splits s into letter/digit words. Hyphens and dots inside a word are
// kept ("КР-03.1", "т.е"), but stripped from the edges.
func Words(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-.")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ContentWords returns the words of s with at least minRunes runes that are
// not stop words, in their original order and casing.
func ContentWords(s string, minRunes int) []string {
	var out []string
	for _, w := range Words(s) {
		if utf8.RuneCountInString(w) < minRunes {
			continue
		}
		if IsStopWord(w) {
			continue
		}
		if !hasLetter(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// HasCyrillic reports whether s contains at least one Cyrillic letter.
func HasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

// TruncateRunes returns at most max runes of s. When a cut is needed it backs
// off to the last space in the kept prefix so words are not split, unless
// that would drop more than half of the budget.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > 0 && utf8.RuneCountInString(cut[:i]) >= max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
