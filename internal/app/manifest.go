package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// manifestEntry is a compact record of one finding and the pages it links to.
type manifestEntry struct {
	Number    int      `json:"number"`
	Status    string   `json:"status"`
	Reference string   `json:"reference"`
	Pages     []int    `json:"pages"`
	Tiers     []string `json:"tiers"`
	SHA256    string   `json:"sha256"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	RunID          string    `json:"run_id"`
	Version        string    `json:"version"`
	FindingsSource string    `json:"findings_source"`
	FindingsSHA256 string    `json:"findings_sha256"`
	SheetMapSource string    `json:"sheet_map_source,omitempty"`
	SheetMapSize   int       `json:"sheet_map_size"`
	Document       string    `json:"document,omitempty"`
	PageCount      int       `json:"page_count"`
	FindingCount   int       `json:"finding_count"`
	ReferenceCount int       `json:"reference_count"`
	HTTPCache      bool      `json:"http_cache"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// newRunID returns a random identifier tying the report, its footer and
// the sidecar manifest together.
func newRunID() string {
	return uuid.New().String()
}

// computeSHA256Hex returns a lowercase hex-encoded SHA-256 of the given text.
func computeSHA256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// buildManifestEntries records the resolved pages for each finding. The
// digest covers the solution text and reference field the pages came from.
func buildManifestEntries(all []FindingRefs) []manifestEntry {
	out := make([]manifestEntry, 0, len(all))
	for _, fr := range all {
		f := fr.Finding
		e := manifestEntry{
			Number:    f.Number,
			Status:    f.Status.String(),
			Reference: strings.TrimSpace(f.Reference),
			Pages:     []int{},
			Tiers:     []string{},
			SHA256:    computeSHA256Hex(f.SolutionDescription + "\x00" + f.Reference),
		}
		for _, r := range fr.Refs {
			e.Pages = append(e.Pages, r.Page)
			e.Tiers = append(e.Tiers, r.Tier.String())
		}
		out = append(out, e)
	}
	return out
}

// appendEmbeddedManifest appends a compact Markdown manifest section.
func appendEmbeddedManifest(markdown string, meta manifestMeta, entries []manifestEntry) string {
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n## Manifest\n\n")
	b.WriteString("- Run: ")
	b.WriteString(meta.RunID)
	b.WriteString("\n- Findings: ")
	b.WriteString(strings.TrimSpace(meta.FindingsSource))
	b.WriteString(" (sha256=")
	b.WriteString(meta.FindingsSHA256)
	b.WriteString(")\n- Findings count: ")
	b.WriteString(strconv.Itoa(meta.FindingCount))
	b.WriteString("\n- Page references: ")
	b.WriteString(strconv.Itoa(meta.ReferenceCount))
	b.WriteString("\n- Generated: ")
	b.WriteString(meta.GeneratedAt.UTC().Format(time.RFC3339))
	b.WriteString("\n\n")

	for _, e := range entries {
		b.WriteString(strconv.Itoa(e.Number))
		b.WriteString(". pages=")
		b.WriteString(joinInts(e.Pages))
		b.WriteString("; sha256=")
		b.WriteString(e.SHA256)
		b.WriteString("\n")
	}
	return b.String()
}

// marshalManifestJSON encodes a machine-readable sidecar manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta     manifestMeta    `json:"meta"`
		Findings []manifestEntry `json:"findings"`
	}{Meta: meta, Findings: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// deriveManifestSidecarPath returns a sidecar JSON path next to the output Markdown.
func deriveManifestSidecarPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

func joinInts(ns []int) string {
	if len(ns) == 0 {
		return "-"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
