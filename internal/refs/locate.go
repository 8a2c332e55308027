package refs

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperifyio/sheetlink/internal/textnorm"
)

const (
	// MaxLocatorRunes caps locators built from citation prose.
	MaxLocatorRunes = 80
	// MaxFallbackLocatorRunes caps the solution-text prefix used by the
	// numeric fallback.
	MaxFallbackLocatorRunes = 100

	maxLocatorWords = 5
	minContentRunes = 4
	windowBefore    = 30
	windowAfter     = 80
)

// clauseEnd is the set of runes that close a candidate phrase.
const clauseEnd = `.;!?\n`

// A strategy looks for a locator phrase for label inside text and returns the
// reduced phrase, or "" when its citation shape is absent.
type strategy func(text, label string) string

// strategies run in order; the first non-empty phrase wins.
var strategies = []strategy{
	afterSeparator,
	afterClause,
	beforeParenthesis,
	afterMention,
	beforeMention,
}

// afterSeparator: "on sheet AR-03: external wall", "лист 5 — узел крепления".
func afterSeparator(text, label string) string {
	re := compile(mentionPattern(label) + `\s*(?:[:—–]|-\s)\s*(?P<c>[^` + clauseEnd + `]+)`)
	return firstCandidate(re, text, nil)
}

// afterClause: "sheet 5, where the roof node is shown".
func afterClause(text, label string) string {
	re := compile(mentionPattern(label) + `\s*,\s*(?:где|на котором|на которой|в котором|в которой|which shows|that shows|showing|where|containing|with)\s+(?P<c>[^` + clauseEnd + `]+)`)
	return firstCandidate(re, text, nil)
}

// beforeParenthesis: "roof drainage node (sheet 7)", "узел (см. лист 7)".
func beforeParenthesis(text, label string) string {
	re := compile(`(?P<c>[^` + clauseEnd + `(),]+?)\s*\(\s*(?:см\.?\s*|see\s+)?` + mentionPattern(label) + `\s*\)`)
	return firstCandidate(re, text, nil)
}

// afterMention: "sheet 7 shows the roof drainage node." up to the sentence end
// or the next citation.
func afterMention(text, label string) string {
	re := compile(mentionPattern(label) + `\s+(?P<c>[^` + clauseEnd + `]+)`)
	return firstCandidate(re, text, cutAtCitation)
}

// beforeMention: "the stair railing detail is on sheet 9".
func beforeMention(text, label string) string {
	re := compile(`(?P<c>[^` + clauseEnd + `(),]+?)\s+(?:(?:на|в|см\.?|see|on|in|at)\s+)?` + mentionPattern(label))
	return firstCandidate(re, text, nil)
}

func compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

// firstCandidate walks the matches of re and returns the first candidate
// group (named c) that survives reduction. Matches whose mention is glued to
// surrounding letters or digits are skipped.
func firstCandidate(re *regexp.Regexp, text string, trim func(string) string) string {
	mi, group := re.SubexpIndex("m"), re.SubexpIndex("c")
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if mi >= 0 && m[2*mi] >= 0 {
			if !boundaryBefore(text, m[2*mi]) || !boundaryAfter(text, m[2*mi+1]) {
				continue
			}
		}
		if m[2*group] < 0 {
			continue
		}
		cand := text[m[2*group]:m[2*group+1]]
		if trim != nil {
			cand = trim(cand)
		}
		if phrase := reduceCandidate(cand); phrase != "" {
			return phrase
		}
	}
	return ""
}

// cutAtCitation drops everything from the next sheet/page word onwards.
func cutAtCitation(s string) string {
	for _, loc := range citeWordRe.FindAllStringIndex(s, -1) {
		if boundaryBefore(s, loc[0]) {
			return s[:loc[0]]
		}
	}
	return s
}

var seeSheetRe = regexp.MustCompile(`(?i)^(?:см\.?|see)\s*(?:также\s+|also\s+)?` + citeWord)

// reduceCandidate trims a raw phrase and keeps its first content words.
// It returns "" for phrases that only restate the citation or hold no
// content words.
func reduceCandidate(s string) string {
	s = strings.TrimFunc(textnorm.Normalize(s), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
	})
	if s == "" || seeSheetRe.MatchString(s) {
		return ""
	}
	return contentPhrase(s)
}

// contentPhrase joins up to maxLocatorWords content words of s, dropping
// tokens that carry digits (labels, dimensions) since they rarely help find
// the passage on the drawing.
func contentPhrase(s string) string {
	var words []string
	for _, w := range textnorm.ContentWords(s, minContentRunes) {
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			continue
		}
		words = append(words, w)
		if len(words) == maxLocatorWords {
			break
		}
	}
	if len(words) == 0 {
		return ""
	}
	return textnorm.TruncateRunes(strings.Join(words, " "), MaxLocatorRunes)
}

// contextWindow reduces the text around the first mention of label: up to
// windowBefore runes before it and windowAfter runes after it, with the
// mention itself removed.
func contextWindow(text, label string) string {
	re := compile(mentionPattern(label))
	for _, m := range re.FindAllStringIndex(text, -1) {
		if !boundaryBefore(text, m[0]) || !boundaryAfter(text, m[1]) {
			continue
		}
		before := []rune(text[:m[0]])
		if len(before) > windowBefore {
			before = before[len(before)-windowBefore:]
		}
		after := []rune(text[m[1]:])
		if len(after) > windowAfter {
			after = after[:windowAfter]
		}
		return contentPhrase(string(before) + " " + string(after))
	}
	return ""
}

// placeholder is the locator used when the prose offers nothing better. It
// follows the script of the solution text.
func placeholder(text, label string) string {
	format := "reference to sheet %s in the documentation"
	if textnorm.HasCyrillic(text) {
		format = "ссылка на лист %s в документации"
	}
	return textnorm.TruncateRunes(fmt.Sprintf(format, label), MaxLocatorRunes)
}

// locate runs the strategies, then the context window, then the placeholder.
func locate(text, label string) string {
	for _, s := range strategies {
		if phrase := s(text, label); phrase != "" {
			return phrase
		}
	}
	if phrase := contextWindow(text, label); phrase != "" {
		return phrase
	}
	return placeholder(text, label)
}
