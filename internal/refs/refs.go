// Package refs turns free-form citations produced by a compliance analysis
// ("see sheet AR-03", "на листах 5 и 7", "л.5") into page references that a
// document viewer can navigate to.
package refs

import (
	"sort"
	"strings"

	"github.com/hyperifyio/sheetlink/internal/sheetmap"
	"github.com/hyperifyio/sheetlink/internal/textnorm"
)

// PageReference points at one page of the loaded PDF together with a short
// phrase to search for on that page.
type PageReference struct {
	Page        int    `json:"page"`
	SheetNumber string `json:"sheetNumber"`
	LocatorText string `json:"locatorText"`
}

// Tier names which pass produced a reference.
type Tier int

const (
	TierReferenceField Tier = iota + 1
	TierFreeText
	TierNumericFallback
)

func (t Tier) String() string {
	switch t {
	case TierReferenceField:
		return "reference-field"
	case TierFreeText:
		return "free-text"
	case TierNumericFallback:
		return "numeric-fallback"
	}
	return "unknown"
}

// Traced is a PageReference annotated with the tier that produced it.
type Traced struct {
	PageReference
	Tier Tier `json:"tier"`
}

// ExtractPageReferences resolves the citations of one finding into page
// references, unique by page and sorted ascending.
//
// The reference field is tried first, label by label. The solution text is
// then scanned for sheet/page citations the field missed. Only when both
// yield nothing are bare 1-3 digit numbers in the reference field taken as
// page numbers. Unresolvable labels are dropped silently. The function is
// pure and total: any input, including empty strings, returns a list.
func ExtractPageReferences(solutionText, referenceField string, m sheetmap.Map) []PageReference {
	traced := ExtractTraced(solutionText, referenceField, m)
	if len(traced) == 0 {
		return []PageReference{}
	}
	out := make([]PageReference, len(traced))
	for i, t := range traced {
		out[i] = t.PageReference
	}
	return out
}

// ExtractTraced is ExtractPageReferences with the producing tier kept.
func ExtractTraced(solutionText, referenceField string, m sheetmap.Map) []Traced {
	text := textnorm.Normalize(solutionText)
	field := textnorm.Normalize(referenceField)

	var c collector
	for _, label := range ParseReferenceLabels(field) {
		page, ok := m.Resolve(label)
		if !ok || c.seen(page) {
			continue
		}
		c.add(page, label, locate(text, label), TierReferenceField)
	}

	for _, cit := range scanCitations(text) {
		page, ok := m.Resolve(cit.label)
		if !ok || c.seen(page) {
			continue
		}
		c.add(page, cit.label, locate(text, cit.label), TierFreeText)
	}

	if len(c.out) == 0 && !isPlaceholderReference(field) {
		prefix := textnorm.TruncateRunes(text, MaxFallbackLocatorRunes)
		for _, n := range numericCandidates(field) {
			page, ok := sheetmap.Map(nil).Resolve(n)
			if !ok || c.seen(page) {
				continue
			}
			c.add(page, n, prefix, TierNumericFallback)
		}
	}

	sort.SliceStable(c.out, func(i, j int) bool { return c.out[i].Page < c.out[j].Page })
	return c.out
}

type collector struct {
	pages map[int]struct{}
	out   []Traced
}

func (c *collector) seen(page int) bool {
	_, ok := c.pages[page]
	return ok
}

func (c *collector) add(page int, label, locator string, tier Tier) {
	if c.pages == nil {
		c.pages = map[int]struct{}{}
	}
	c.pages[page] = struct{}{}
	c.out = append(c.out, Traced{
		PageReference: PageReference{Page: page, SheetNumber: label, LocatorText: locator},
		Tier:          tier,
	})
}

// numericCandidates returns 1-3 digit runs of field that stand on their own.
// Digits inside a token that also carries letters ("ZZ-99", "АР3") belong to
// an unresolved sheet label and are not page numbers.
func numericCandidates(field string) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(field, isFieldSeparator) {
		if hasLetter(tok) {
			continue
		}
		for _, d := range digitsRe.FindAllString(tok, -1) {
			if len(d) <= 3 {
				out = append(out, d)
			}
		}
	}
	return out
}

func isFieldSeparator(r rune) bool {
	switch r {
	case ' ', ',', ';', '/', '|', '(', ')', '[', ']', '\t', '\n':
		return true
	}
	return false
}
