package refs

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperifyio/sheetlink/internal/sheetmap"
)

func TestExtract_SeparatorLocator(t *testing.T) {
	got := ExtractPageReferences("Shown on sheet AR-03: external wall insulation detail.", "AR-03", sheetmap.Map{"AR-03": 12})
	if len(got) != 1 {
		t.Fatalf("expected one reference, got %+v", got)
	}
	if got[0].Page != 12 || got[0].SheetNumber != "AR-03" {
		t.Fatalf("unexpected reference %+v", got[0])
	}
	if !strings.Contains(got[0].LocatorText, "external wall insulation") {
		t.Fatalf("locator missing phrase: %q", got[0].LocatorText)
	}
}

func TestExtract_BareNumberResolvesAsPage(t *testing.T) {
	got := ExtractPageReferences("Узел не детализирован.", "5", sheetmap.Map{})
	if len(got) != 1 || got[0].Page != 5 || got[0].SheetNumber != "5" {
		t.Fatalf("unexpected references %+v", got)
	}
	if got[0].LocatorText != "ссылка на лист 5 в документации" {
		t.Fatalf("expected cyrillic placeholder, got %q", got[0].LocatorText)
	}
}

func TestExtract_UnresolvableLabelDropped(t *testing.T) {
	got := ExtractPageReferences("Nothing to see here.", "ZZ-99", sheetmap.Map{})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestExtract_SamePageCitedTwiceYieldsOneEntry(t *testing.T) {
	got := ExtractPageReferences("See sheet 5 for the roof drainage node.", "5", nil)
	if len(got) != 1 || got[0].Page != 5 {
		t.Fatalf("expected exactly one entry for page 5, got %+v", got)
	}
	if got[0].LocatorText != "roof drainage node" {
		t.Fatalf("unexpected locator %q", got[0].LocatorText)
	}
}

func TestExtract_MappedLabelWinsOverNumericParse(t *testing.T) {
	got := ExtractPageReferences("See sheet 5.", "5", sheetmap.Map{"5": 9})
	if len(got) != 1 || got[0].Page != 9 {
		t.Fatalf("mapped page must win, got %+v", got)
	}
}

func TestExtract_ClauseConnectorRussian(t *testing.T) {
	text := "Узел крепления утеплителя показан на листе АР-03, где видна схема анкеровки."
	got := ExtractPageReferences(text, "АР-03", sheetmap.Map{"AR-03": 12})
	if len(got) != 1 || got[0].Page != 12 {
		t.Fatalf("unexpected references %+v", got)
	}
	if !strings.Contains(got[0].LocatorText, "схема анкеровки") {
		t.Fatalf("unexpected locator %q", got[0].LocatorText)
	}
}

func TestExtract_PhraseBeforeParenthesis(t *testing.T) {
	got := ExtractPageReferences("Roof drainage node is detailed (sheet 7).", "7", nil)
	if len(got) != 1 || got[0].Page != 7 {
		t.Fatalf("unexpected references %+v", got)
	}
	if !strings.HasPrefix(got[0].LocatorText, "Roof drainage node") {
		t.Fatalf("unexpected locator %q", got[0].LocatorText)
	}
}

func TestExtract_PhraseAfterMention(t *testing.T) {
	got := ExtractPageReferences("Лист 5 содержит узел примыкания кровли к парапету.", "5", nil)
	if len(got) != 1 {
		t.Fatalf("unexpected references %+v", got)
	}
	if got[0].LocatorText != "содержит узел примыкания кровли парапету" {
		t.Fatalf("unexpected locator %q", got[0].LocatorText)
	}
}

func TestExtract_FreeTextCatchesUnlistedSheet(t *testing.T) {
	m := sheetmap.Map{"AR-03": 12, "AR-05": 14}
	got := ExtractTraced("Fire exits are shown on sheet AR-05: evacuation plan.", "AR-03", m)
	if len(got) != 2 {
		t.Fatalf("expected two references, got %+v", got)
	}
	if got[0].Page != 12 || got[0].Tier != TierReferenceField {
		t.Fatalf("unexpected first reference %+v", got[0])
	}
	if got[0].LocatorText != "reference to sheet AR-03 in the documentation" {
		t.Fatalf("expected placeholder for unmentioned sheet, got %q", got[0].LocatorText)
	}
	if got[1].Page != 14 || got[1].Tier != TierFreeText || got[1].LocatorText != "evacuation plan" {
		t.Fatalf("unexpected second reference %+v", got[1])
	}
}

func TestExtract_PluralSheetList(t *testing.T) {
	got := ExtractPageReferences("Решения приведены на листах 7 и 5.", "", nil)
	var pages []int
	for _, r := range got {
		pages = append(pages, r.Page)
	}
	if !reflect.DeepEqual(pages, []int{5, 7}) {
		t.Fatalf("expected pages [5 7], got %v", pages)
	}
}

func TestExtract_NumericFallbackOnRange(t *testing.T) {
	text := strings.Repeat("Проектом предусмотрено устройство вентилируемого фасада. ", 5)
	got := ExtractTraced(text, "2-3", nil)
	if len(got) != 2 || got[0].Page != 2 || got[1].Page != 3 {
		t.Fatalf("unexpected references %+v", got)
	}
	for _, r := range got {
		if r.Tier != TierNumericFallback {
			t.Fatalf("expected numeric fallback tier, got %v", r.Tier)
		}
		if n := utf8.RuneCountInString(r.LocatorText); n == 0 || n > MaxFallbackLocatorRunes {
			t.Fatalf("fallback locator length %d out of range", n)
		}
	}
}

func TestExtract_PlaceholderFieldSkipsFallback(t *testing.T) {
	for _, field := range []string{"-", "н/д", "N/A", "  "} {
		if got := ExtractPageReferences("Требование 12 не выполнено", field, nil); len(got) != 0 {
			t.Fatalf("field %q: expected no references, got %+v", field, got)
		}
	}
}

func TestExtract_Totality(t *testing.T) {
	if got := ExtractPageReferences("", "", sheetmap.Map{}); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	garbage := "\x00\xff日本語 ((( [[ лист лист 99999 ☃ p. sheet —:"
	_ = ExtractPageReferences(garbage, "###", sheetmap.Map{})
	_ = ExtractPageReferences(garbage, garbage, sheetmap.Map{"": 1})
}

func TestExtract_LocatorLengthCapped(t *testing.T) {
	long := "sheet 4: " + strings.Repeat("verylongdescriptiveword", 10) + " more words here."
	got := ExtractPageReferences(long, "4", nil)
	if len(got) != 1 {
		t.Fatalf("unexpected references %+v", got)
	}
	if n := utf8.RuneCountInString(got[0].LocatorText); n > MaxLocatorRunes {
		t.Fatalf("locator exceeds cap: %d runes", n)
	}
}

func TestExtract_DeterministicSortedUnique(t *testing.T) {
	inputs := []struct{ text, field string }{
		{"See sheet 9, sheet 2 and page 4. Sheet 2 again.", "9; 2"},
		{"Листы 12, 3 и 7 содержат узлы, лист 3: разрез.", "л.3, л.12"},
		{"На странице 40 и листе АР-1: фасад", "АР-1"},
	}
	m := sheetmap.Map{"AR-1": 40}
	for _, in := range inputs {
		a := ExtractPageReferences(in.text, in.field, m)
		b := ExtractPageReferences(in.text, in.field, m)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("non-deterministic output for %q", in.text)
		}
		seen := map[int]bool{}
		for i, r := range a {
			if seen[r.Page] {
				t.Fatalf("duplicate page %d in %+v", r.Page, a)
			}
			seen[r.Page] = true
			if i > 0 && a[i-1].Page > r.Page {
				t.Fatalf("output not sorted: %+v", a)
			}
			if utf8.RuneCountInString(r.LocatorText) > 150 {
				t.Fatalf("locator too long: %q", r.LocatorText)
			}
		}
	}
}

func TestParseReferenceLabels(t *testing.T) {
	got := ParseReferenceLabels("АР-03, л.5; КР-05.1, Лист 7, стр.26, ГОСТ 21.101, АР-03")
	want := []string{"АР-03", "5", "КР-05.1", "7", "26", "21.101"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labels mismatch:\n got %v\nwant %v", got, want)
	}
	if ParseReferenceLabels("—") != nil {
		t.Fatalf("placeholder field must yield no labels")
	}
}

func TestUnresolvedLabels(t *testing.T) {
	got := UnresolvedLabels("AR-03, ZZ-99, 7", sheetmap.Map{"AR-03": 2})
	if !reflect.DeepEqual(got, []string{"ZZ-99"}) {
		t.Fatalf("unexpected unresolved labels %v", got)
	}
}

func TestScanCitations_SkipsGluedWords(t *testing.T) {
	got := scanCitations("Подлист 5 не считается, а лист 6 считается.")
	if len(got) != 1 || got[0].label != "6" {
		t.Fatalf("unexpected citations %+v", got)
	}
}
