package refs

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/sheetlink/internal/sheetmap"
)

// Citation vocabulary. Longer inflections come first because alternation is
// leftmost-first.
const (
	sheetWord = `(?:листами|листах|листов|листы|листе|листа|листу|лист|л\.|чертежах|чертеже|чертежа|чертеж|sheets|sheet|dwg\.?|drawings|drawing)`
	pageWord  = `(?:страницах|страницами|страницы|странице|страницу|страница|страниц|стр\.|pages|page|pp\.|p\.)`
	citeWord  = `(?:` + sheetWord + `|` + pageWord + `)`
	numSign   = `(?:№\s*|No\.?\s*|#\s*)?`
	dashClass = `[-‐‑‒–—−]`
	// anyLabel matches a sheet label: an optional short letter prefix with an
	// optional dash, then digits with dot/dash separated parts.
	anyLabel = `\p{L}{0,6}` + dashClass + `?\d+(?:[.\-]\d+)*`
)

var (
	citeWordRe = regexp.MustCompile(`(?i)` + citeWord)

	// citationRe finds "sheet X", "листах 5, 7 и 9", "page 26".
	citationRe = regexp.MustCompile(`(?i)` + citeWord + `\s*` + numSign +
		`(` + anyLabel + `(?:\s*(?:,|и|and|&)\s*(?:` + citeWord + `\s*` + numSign + `)?` + anyLabel + `)*)`)

	labelRe     = regexp.MustCompile(anyLabel)
	fullLabelRe = regexp.MustCompile(`^` + anyLabel + `$`)

	// fieldTokenRe splits a reference field into candidate tokens.
	fieldTokenRe = regexp.MustCompile(`[\p{L}\p{N}№#][\p{L}\p{N}.\-‐‑‒–—−]*`)
	// prefixRe strips abbreviations glued to a label: "л.5", "стр.26", "p.5".
	prefixRe = regexp.MustCompile(`(?i)^(?:листы|лист|л|стр|с|pp|p|sheet|page|dwg)\.(.+)$`)
	digitsRe = regexp.MustCompile(`\d+`)
)

// placeholderReferences are values the analysis service emits when it has no
// reference at all.
var placeholderReferences = map[string]struct{}{
	"": {}, "-": {}, "—": {}, "–": {}, "н/д": {}, "нет": {}, "n/a": {}, "na": {},
	"none": {}, "не указано": {}, "отсутствует": {}, "нет данных": {},
}

func isPlaceholderReference(s string) bool {
	_, ok := placeholderReferences[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseReferenceLabels splits a compact reference field ("АР-03, л.5; КР-05.1")
// into sheet labels in order of appearance, without duplicates. Tokens with no
// digit ("Лист", "ГОСТ") are skipped.
func ParseReferenceLabels(field string) []string {
	if isPlaceholderReference(field) {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range fieldTokenRe.FindAllString(field, -1) {
		tok = strings.TrimLeft(tok, "№#")
		if m := prefixRe.FindStringSubmatch(tok); m != nil {
			tok = m[1]
		}
		tok = strings.TrimRight(tok, ".-‐‑‒–—−")
		if !fullLabelRe.MatchString(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// UnresolvedLabels returns the labels of field that resolve to no page.
func UnresolvedLabels(field string, m sheetmap.Map) []string {
	var out []string
	for _, l := range ParseReferenceLabels(field) {
		if _, ok := m.Resolve(l); !ok {
			out = append(out, l)
		}
	}
	return out
}

// textCitation is one label cited in free text.
type textCitation struct {
	label string
	start int
}

// scanCitations returns every label cited with sheet/page vocabulary in text,
// in order of appearance. Plural enumerations yield one entry per label.
func scanCitations(text string) []textCitation {
	var out []textCitation
	for _, m := range citationRe.FindAllStringSubmatchIndex(text, -1) {
		if !boundaryBefore(text, m[0]) {
			continue
		}
		list := text[m[2]:m[3]]
		// Blank out inner cite words so "лист 7" inside a list is not read
		// as a letter-prefixed label.
		masked := citeWordRe.ReplaceAllStringFunc(list, func(w string) string {
			return strings.Repeat(" ", len(w))
		})
		for _, lm := range labelRe.FindAllStringIndex(masked, -1) {
			start, end := m[2]+lm[0], m[2]+lm[1]
			if !boundaryBefore(text, start) || !boundaryAfter(text, end) {
				continue
			}
			out = append(out, textCitation{label: text[start:end], start: start})
		}
	}
	return out
}

// boundaryBefore reports whether the rune before byte offset i is not part
// of a word. Go's \b is ASCII-only, so Cyrillic text needs this check.
func boundaryBefore(s string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r))
}

// boundaryAfter reports whether the rune at byte offset i is not part of a word.
func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r))
}

// letterTwins lists the letters a sheet label letter may appear as in prose:
// Latin/Cyrillic look-alikes and single-letter transliterations, so "AR-03"
// in a reference field matches "АР-03" in the text.
var letterTwins = map[rune]string{
	'A': "А", 'B': "ВБ", 'C': "С", 'D': "Д", 'E': "ЕЭ", 'F': "Ф", 'G': "Г",
	'H': "Н", 'I': "И", 'K': "К", 'L': "Л", 'M': "М", 'N': "Н", 'O': "О",
	'P': "РП", 'R': "Р", 'S': "С", 'T': "Т", 'U': "У", 'V': "В", 'X': "Х",
	'Y': "У", 'Z': "З",
	'А': "A", 'Б': "B", 'В': "BV", 'Г': "G", 'Д': "D", 'Е': "E", 'З': "Z",
	'И': "I", 'К': "K", 'Л': "L", 'М': "M", 'Н': "HN", 'О': "O", 'П': "P",
	'Р': "PR", 'С': "CS", 'Т': "T", 'У': "YU", 'Ф': "F", 'Х': "X", 'Э': "E",
}

// labelPattern returns a regexp fragment matching label literally, tolerant
// of dash variants, spacing around dashes and look-alike letters. Matching is
// case-insensitive through the caller's (?i) flag.
func labelPattern(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case strings.ContainsRune("-‐‑‒–—−", r):
			b.WriteString(`\s?` + dashClass + `\s?`)
		case unicode.IsLetter(r):
			up := unicode.ToUpper(r)
			if twins, ok := letterTwins[up]; ok {
				b.WriteString("[" + string(up) + twins + "]")
			} else {
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// mentionPattern returns a fragment matching a citation of label. Purely
// numeric labels need the sheet/page word, otherwise every number in the
// text would count as a citation; labels with letters may stand alone.
func mentionPattern(label string) string {
	cite := citeWord + `\s*` + numSign
	if hasLetter(label) {
		return `(?P<m>(?:` + cite + `)?` + labelPattern(label) + `)`
	}
	return `(?P<m>` + cite + labelPattern(label) + `)`
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
