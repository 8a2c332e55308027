package finding

import (
	"fmt"
	"strings"
)

// Summary counts findings per status.
type Summary struct {
	Total             int
	Counts            map[Status]int
	AverageConfidence float64
}

// Summarize computes per-status counts and the mean confidence.
func Summarize(findings []Finding) Summary {
	s := Summary{Total: len(findings), Counts: map[Status]int{}}
	if len(findings) == 0 {
		return s
	}
	sum := 0
	for _, f := range findings {
		s.Counts[f.Status]++
		sum += f.Confidence
	}
	s.AverageConfidence = float64(sum) / float64(len(findings))
	return s
}

// Percent returns the share of findings with status st, 0 when empty.
func (s Summary) Percent(st Status) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Counts[st]) * 100 / float64(s.Total)
}

// Text renders the summary the way the analysis service words it.
func (s Summary) Text() string {
	var b strings.Builder
	b.WriteString("Анализ документации завершен.\n\n")
	fmt.Fprintf(&b, "Проанализировано требований: %d\n", s.Total)
	for _, st := range Statuses {
		fmt.Fprintf(&b, "- %s: %d (%.1f%%)\n", st.Label(), s.Counts[st], s.Percent(st))
	}
	if n := s.Counts[StatusUnknown]; n > 0 {
		fmt.Fprintf(&b, "- Статус не распознан: %d (%.1f%%)\n", n, s.Percent(StatusUnknown))
	}
	fmt.Fprintf(&b, "\nСредняя достоверность: %.1f%%", s.AverageConfidence)
	return b.String()
}
