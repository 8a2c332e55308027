package validate

import (
    "strings"
    "testing"

    "github.com/hyperifyio/sheetlink/internal/finding"
    "github.com/hyperifyio/sheetlink/internal/refs"
    "github.com/hyperifyio/sheetlink/internal/sheetmap"
)

func TestValidateFindings_ReportsProblems(t *testing.T) {
    fs := []finding.Finding{
        {Number: 1, Requirement: "a", Status: finding.StatusFulfilled, Reference: "-"},
        {Number: 1, Requirement: "b", Status: finding.StatusPartial, Reference: "ZZ-99"},
        {Number: 2, Requirement: "", Status: finding.StatusUnknown, StatusText: "???", Reference: "АР-03"},
    }
    issues := ValidateFindings(fs, sheetmap.Map{"AR-03": 4})
    var msgs []string
    for _, i := range issues {
        msgs = append(msgs, i.String())
    }
    joined := strings.Join(msgs, "\n")
    for _, want := range []string{
        "warning: finding 1: fulfilled without a reference",
        "warning: finding 1: duplicate finding number",
        "info: finding 1: unresolved sheet labels [ZZ-99]",
        `warning: finding 2: unrecognized status "???"`,
        "info: finding 2: empty requirement text",
    } {
        if !strings.Contains(joined, want) {
            t.Fatalf("missing issue %q in:\n%s", want, joined)
        }
    }
    if strings.Contains(joined, "АР-03") {
        t.Fatalf("resolvable label reported:\n%s", joined)
    }
}

func TestValidateReferences_PastLastPage(t *testing.T) {
    by := map[int][]refs.PageReference{
        2: {{Page: 3, SheetNumber: "3"}, {Page: 41, SheetNumber: "AR-9"}},
        1: {{Page: 1, SheetNumber: "1"}},
    }
    issues := ValidateReferences(by, 40)
    if len(issues) != 1 || issues[0].Finding != 2 || !strings.Contains(issues[0].Message, "page 41") {
        t.Fatalf("unexpected issues %v", issues)
    }
    if ValidateReferences(by, 0) != nil {
        t.Fatalf("unknown page count must disable the check")
    }
}

func TestValidateSheetMap(t *testing.T) {
    issues := ValidateSheetMap(sheetmap.Map{"A": 1, "B": 9}, 5)
    if len(issues) != 1 || !strings.Contains(issues[0].Message, "B=9") {
        t.Fatalf("unexpected issues %v", issues)
    }
}

const goodReport = `# Отчет

| № | Требование | Статус | Достоверность | Решение | Ссылка | Несоответствия | Рекомендации |
|---|---|---|---|---|---|---|---|
| 1 | Утепление | Полностью исполнено | 95 | узел \| деталь | [стр. 12](#finding-1) | - | - |

<a id="finding-1"></a>
## Требование 1
`

func TestValidateReport_OK(t *testing.T) {
    if err := ValidateReport(goodReport); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
}

func TestValidateReport_Failures(t *testing.T) {
    if err := ValidateReport("# empty\n"); err == nil {
        t.Fatalf("expected missing table error")
    }
    short := strings.Replace(goodReport, "| - | - |\n", "| - |\n", 1)
    if err := ValidateReport(short); err == nil || !strings.Contains(err.Error(), "7 cells") {
        t.Fatalf("expected cell count error, got %v", err)
    }
    broken := strings.Replace(goodReport, "#finding-1)", "#finding-9)", 1)
    if err := ValidateReport(broken); err == nil || !strings.Contains(err.Error(), "finding-9") {
        t.Fatalf("expected broken anchor error, got %v", err)
    }
}

func TestMakeSlug_KeepsCyrillic(t *testing.T) {
    if got := makeSlug("Требование 1: Утепление"); got != "требование-1-утепление" {
        t.Fatalf("unexpected slug %q", got)
    }
}
