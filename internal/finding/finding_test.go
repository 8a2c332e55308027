package finding

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `{
  "stage": "ПД",
  "req_type": "ТЗ",
  "requirements": [
    {"number": 1, "requirement": "Утепление наружных стен", "status": "Полностью исполнено", "confidence": 95,
     "solution_description": "Показано на листе АР-03: узел утепления стены.", "reference": "АР-03",
     "discrepancies": "-", "recommendations": "-", "trace_id": "TZ-1"},
    {"number": "2", "requirement": "Водосток", "status": "частично исполнено", "confidence": "70%",
     "solution_description": "Водосточная воронка (лист 7).", "reference": "л.7", "discrepancies": "Нет узла", "recommendations": "Добавить узел"},
    {"requirement": "Эвакуация", "status": "Требует уточнения", "confidence": 140, "solution_description": "", "reference": "-"},
    {"number": 4, "requirement": "Лифты", "status": "???", "confidence": -3, "solution_description": "", "reference": ""}
  ],
  "summary": "Анализ документации завершен."
}`

func TestParse_NormalizesFindings(t *testing.T) {
	resp, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.Stage != "ПД" || len(resp.Requirements) != 4 {
		t.Fatalf("unexpected response %+v", resp)
	}
	r := resp.Requirements
	if r[0].Status != StatusFulfilled || r[0].Confidence != 95 || r[0].TraceID != "TZ-1" {
		t.Fatalf("unexpected first finding %+v", r[0])
	}
	if r[1].Number != 2 || r[1].Status != StatusPartial || r[1].Confidence != 70 {
		t.Fatalf("unexpected second finding %+v", r[1])
	}
	if r[2].Number != 3 || r[2].Confidence != 100 || r[2].Status != StatusNeedsClarification {
		t.Fatalf("unexpected third finding %+v", r[2])
	}
	if r[3].Status != StatusUnknown || r[3].Confidence != 0 {
		t.Fatalf("unexpected fourth finding %+v", r[3])
	}
}

func TestParse_BareArrayAndEmpty(t *testing.T) {
	resp, err := Parse([]byte(`[{"requirement": "x", "status": "Не исполнено"}]`))
	if err != nil || len(resp.Requirements) != 1 || resp.Requirements[0].Status != StatusNotFulfilled {
		t.Fatalf("unexpected bare array parse %+v %v", resp, err)
	}
	if _, err := Parse([]byte(`{"requirements": []}`)); !errors.Is(err, ErrNoRequirements) {
		t.Fatalf("expected ErrNoRequirements, got %v", err)
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoad_WrapsPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "result.json")
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	resp, err := Load(p)
	if err != nil || len(resp.Requirements) != 4 {
		t.Fatalf("load: %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"Полностью исполнено":  StatusFulfilled,
		" ЧАСТИЧНО ИСПОЛНЕНО.": StatusPartial,
		"Not fulfilled":        StatusNotFulfilled,
		"needs-clarification":  StatusNeedsClarification,
		"maybe":                StatusUnknown,
	}
	for in, want := range cases {
		if got := ParseStatus(in); got != want {
			t.Fatalf("ParseStatus(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	resp, _ := Parse([]byte(sample))
	s := Summarize(resp.Requirements)
	if s.Total != 4 || s.Counts[StatusFulfilled] != 1 || s.Counts[StatusUnknown] != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Percent(StatusPartial) != 25 {
		t.Fatalf("unexpected percent %v", s.Percent(StatusPartial))
	}
	if s.AverageConfidence != (95+70+100+0)/4.0 {
		t.Fatalf("unexpected average %v", s.AverageConfidence)
	}
	text := s.Text()
	if !strings.Contains(text, "- Частично исполнено: 1 (25.0%)") || !strings.Contains(text, "Средняя достоверность: 66.2%") {
		t.Fatalf("unexpected summary text:\n%s", text)
	}
	if Summarize(nil).Percent(StatusFulfilled) != 0 {
		t.Fatalf("empty summary must report zero")
	}
}

func TestLabels(t *testing.T) {
	if StageLabel("РД") != "Рабочая документация" || StageLabel("XX") != "XX" {
		t.Fatalf("stage label mismatch")
	}
	if ReqTypeLabel("ТУ_ПД") != "ТУ на проектирование для ПД" {
		t.Fatalf("req type label mismatch")
	}
}
