package app

import (
    "net/url"
    "path"
    "path/filepath"
    "strings"

    "github.com/hyperifyio/sheetlink/internal/fetch"
)

// deriveReportOutputPath returns "<findings base>.report.md" next to a local
// findings file, or in the working directory for a URL.
func deriveReportOutputPath(findingsSource string) string {
    base := sourceBaseName(findingsSource)
    if base == "" { base = "findings" }
    name := strings.TrimSuffix(base, filepath.Ext(base)) + ".report.md"
    if fetch.IsURL(findingsSource) {
        return name
    }
    return filepath.Join(filepath.Dir(findingsSource), name)
}

// sourceBaseName returns the last path element of a local path or URL.
func sourceBaseName(src string) string {
    if fetch.IsURL(src) {
        u, err := url.Parse(src)
        if err != nil { return "" }
        b := path.Base(u.Path)
        if b == "/" || b == "." { return "" }
        return b
    }
    if strings.TrimSpace(src) == "" { return "" }
    return filepath.Base(src)
}

// documentLinkFor picks the cross-link target for report page links.
func documentLinkFor(cfg Config) string {
    if s := strings.TrimSpace(cfg.DocumentLink); s != "" { return s }
    if cfg.DocumentPath == "" || !isPDFPath(cfg.DocumentPath) { return "" }
    return filepath.Base(cfg.DocumentPath)
}

func isPDFPath(p string) bool {
    return strings.EqualFold(filepath.Ext(p), ".pdf")
}

func isHTMLPath(p string) bool {
    switch strings.ToLower(filepath.Ext(p)) {
    case ".html", ".htm", ".xhtml":
        return true
    }
    return false
}
