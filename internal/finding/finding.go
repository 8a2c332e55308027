// Package finding decodes the compliance analysis service's response: one
// finding per requirement with a status, a confidence, a free-text solution
// description and a free-text reference to drawing sheets.
package finding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hyperifyio/sheetlink/internal/textnorm"
)

// Status is the normalized fulfilment status of a requirement.
type Status int

const (
	StatusUnknown Status = iota
	StatusFulfilled
	StatusPartial
	StatusNotFulfilled
	StatusNeedsClarification
)

// Statuses lists the known statuses in report order.
var Statuses = []Status{StatusFulfilled, StatusPartial, StatusNotFulfilled, StatusNeedsClarification}

func (s Status) String() string {
	switch s {
	case StatusFulfilled:
		return "fulfilled"
	case StatusPartial:
		return "partial"
	case StatusNotFulfilled:
		return "not-fulfilled"
	case StatusNeedsClarification:
		return "needs-clarification"
	}
	return "unknown"
}

// Label is the status as the analysis service spells it.
func (s Status) Label() string {
	switch s {
	case StatusFulfilled:
		return "Полностью исполнено"
	case StatusPartial:
		return "Частично исполнено"
	case StatusNotFulfilled:
		return "Не исполнено"
	case StatusNeedsClarification:
		return "Требует уточнения"
	}
	return "-"
}

var statusAliases = map[string]Status{
	"полностью исполнено": StatusFulfilled,
	"исполнено":           StatusFulfilled,
	"выполнено":           StatusFulfilled,
	"fulfilled":           StatusFulfilled,
	"complete":            StatusFulfilled,
	"done":                StatusFulfilled,
	"частично исполнено":  StatusPartial,
	"частично":            StatusPartial,
	"partial":             StatusPartial,
	"partially fulfilled": StatusPartial,
	"не исполнено":        StatusNotFulfilled,
	"не выполнено":        StatusNotFulfilled,
	"not-fulfilled":       StatusNotFulfilled,
	"not fulfilled":       StatusNotFulfilled,
	"missing":             StatusNotFulfilled,
	"требует уточнения":   StatusNeedsClarification,
	"needs-clarification": StatusNeedsClarification,
	"needs clarification": StatusNeedsClarification,
	"unclear":             StatusNeedsClarification,
}

// ParseStatus maps a status label in Russian or English, any case, to a
// Status. Unrecognized labels yield StatusUnknown.
func ParseStatus(s string) Status {
	key := textnorm.Fold(strings.Trim(s, " .!\"'«»"))
	if st, ok := statusAliases[key]; ok {
		return st
	}
	return StatusUnknown
}

// Finding is one analyzed requirement.
type Finding struct {
	Number              int    `json:"number"`
	Requirement         string `json:"requirement"`
	StatusText          string `json:"status"`
	Status              Status `json:"-"`
	Confidence          int    `json:"confidence"`
	SolutionDescription string `json:"solution_description"`
	Reference           string `json:"reference"`
	Discrepancies       string `json:"discrepancies"`
	Recommendations     string `json:"recommendations"`
	Section             string `json:"section,omitempty"`
	TraceID             string `json:"trace_id,omitempty"`
}

// UnmarshalJSON accepts number and confidence as JSON numbers or strings
// ("95", "95%"), which model output mixes freely.
func (f *Finding) UnmarshalJSON(b []byte) error {
	type plain Finding
	var aux struct {
		plain
		Number     json.RawMessage `json:"number"`
		Confidence json.RawMessage `json:"confidence"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*f = Finding(aux.plain)
	f.Number = int(looseNumber(aux.Number))
	f.Confidence = int(looseNumber(aux.Confidence) + 0.5)
	return nil
}

func looseNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return n
}

// Response is the analysis result for one document set.
type Response struct {
	Stage        string    `json:"stage"`
	ReqType      string    `json:"req_type"`
	Requirements []Finding `json:"requirements"`
	Summary      string    `json:"summary"`
}

// ErrNoRequirements is returned when a payload decodes but carries no findings.
var ErrNoRequirements = errors.New("no requirements in analysis response")

// Parse decodes a response. A bare JSON array of findings is accepted too.
// Findings are normalized: status parsed, confidence clamped to [0, 100],
// missing numbers filled with the 1-based position.
func Parse(data []byte) (*Response, error) {
	data = bytes.TrimSpace(data)
	var resp Response
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &resp.Requirements); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
	} else if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if len(resp.Requirements) == 0 {
		return &resp, ErrNoRequirements
	}
	for i := range resp.Requirements {
		normalize(&resp.Requirements[i], i)
	}
	return &resp, nil
}

// Decode reads and parses a response from r.
func Decode(r io.Reader) (*Response, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Load parses the response stored at path.
func Load(path string) (*Response, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	resp, err := Parse(b)
	if err != nil {
		return resp, fmt.Errorf("%s: %w", path, err)
	}
	return resp, nil
}

func normalize(f *Finding, i int) {
	f.Status = ParseStatus(f.StatusText)
	if f.Confidence < 0 {
		f.Confidence = 0
	}
	if f.Confidence > 100 {
		f.Confidence = 100
	}
	if f.Number <= 0 {
		f.Number = i + 1
	}
}

var stageLabels = map[string]string{
	"ГК": "Градостроительная концепция",
	"ФЭ": "Форэскизный проект",
	"ЭП": "Эскизный проект",
	"ПД": "Проектная документация (стадия П)",
	"РД": "Рабочая документация",
}

var reqTypeLabels = map[string]string{
	"ТЗ":    "ТЗ на проектирование (общие требования)",
	"ТУ_РД": "ТУ на проектирование для РД",
	"ТУ_ПД": "ТУ на проектирование для ПД",
	"ТУ_ФЭ": "ТУ на проектирование для ФЭ",
	"ТУ_ЭП": "ТУ на проектирование для ЭП",
	"ТЗ+ТУ": "ТЗ и ТУ на проектирование",
}

// StageLabel expands a design stage code ("ПД"); unknown codes are returned as is.
func StageLabel(code string) string {
	if l, ok := stageLabels[code]; ok {
		return l
	}
	return code
}

// ReqTypeLabel expands a requirement type code ("ТУ_РД").
func ReqTypeLabel(code string) string {
	if l, ok := reqTypeLabels[code]; ok {
		return l
	}
	return code
}
