package sheetmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// MaxPlausiblePage bounds numeric labels accepted directly as page indices.
const MaxPlausiblePage = 500

// Map maps a physical sheet label ("AR-03", "5", "KR-05.1") to its 1-based
// page index inside the loaded PDF. It is rebuilt for every document and
// treated as read-only afterwards.
type Map map[string]int

// Resolve turns a sheet label into a page index. Lookup order:
//  1. exact key
//  2. normalized key (case, dash variants, Cyrillic/Latin look-alikes or
//     transliteration, so "АР-03" finds "AR-03")
//  3. the label itself as an integer when 0 < n < MaxPlausiblePage
//
// A label found in the map always resolves to the mapped page, even when it
// also parses as a number.
func (m Map) Resolve(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, false
	}
	if p, ok := m[label]; ok && p > 0 {
		return p, true
	}
	if len(m) > 0 {
		want, wantT := NormalizeLabel(label), TransliterateLabel(label)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if m[k] > 0 && NormalizeLabel(k) == want {
				return m[k], true
			}
		}
		for _, k := range keys {
			if m[k] > 0 && TransliterateLabel(k) == wantT {
				return m[k], true
			}
		}
	}
	n, err := strconv.Atoi(label)
	if err != nil || n <= 0 || n >= MaxPlausiblePage {
		return 0, false
	}
	return n, true
}

var lookAlikes = map[rune]rune{
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M', 'Н': 'H', 'О': 'O',
	'Р': 'P', 'С': 'C', 'Т': 'T', 'Х': 'X', 'У': 'Y',
}

// NormalizeLabel returns a canonical form of a sheet label: upper case,
// whitespace and "№" removed, dash variants folded to '-', and Cyrillic
// letters that look like Latin ones replaced by their Latin twin so that
// "АР-03" (Cyrillic) and "AR-03" compare equal.
func NormalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(label)) {
		switch r {
		case ' ', '\t', '\u00a0', '№':
			continue
		case '‐', '‑', '‒', '–', '—', '−':
			r = '-'
		}
		if l, ok := lookAlikes[r]; ok {
			r = l
		}
		b.WriteRune(r)
	}
	return b.String()
}

var translit = map[rune]string{
	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Е': "E", 'Ё': "E",
	'Ж': "ZH", 'З': "Z", 'И': "I", 'Й': "I", 'К': "K", 'Л': "L", 'М': "M",
	'Н': "N", 'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'У': "U",
	'Ф': "F", 'Х': "KH", 'Ц': "TS", 'Ч': "CH", 'Ш': "SH", 'Щ': "SHCH",
	'Ы': "Y", 'Э': "E", 'Ю': "YU", 'Я': "YA", 'Ъ': "", 'Ь': "",
}

// TransliterateLabel is NormalizeLabel with Cyrillic letters spelled out in
// Latin ("КЖ-2" becomes "KZH-2", "АР-03" becomes "AR-03").
func TransliterateLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(label)) {
		switch r {
		case ' ', '\t', '\u00a0', '№':
			continue
		case '‐', '‑', '‒', '–', '—', '−':
			r = '-'
		}
		if l, ok := translit[r]; ok {
			b.WriteString(l)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Load reads a sheet map from a JSON or YAML file. Both an object form
// {"AR-03": 12} and a list form [{"sheet": "AR-03", "page": 12}] are accepted.
func Load(path string) (Map, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("sheet map %s: %w", path, err)
	}
	return m, nil
}

type entry struct {
	Sheet string `yaml:"sheet" json:"sheet"`
	Page  int    `yaml:"page" json:"page"`
}

// Parse decodes a sheet map. ext selects the decoder (".json", ".yaml",
// ".yml"); anything else tries YAML, which also accepts JSON documents.
func Parse(data []byte, ext string) (Map, error) {
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(ext, ".json") {
		unmarshal = json.Unmarshal
	}
	var obj map[string]int
	if err := unmarshal(data, &obj); err == nil {
		return clean(obj), nil
	}
	var list []entry
	if err := unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse: expected {label: page} or [{sheet, page}]: %w", err)
	}
	obj = make(map[string]int, len(list))
	for _, e := range list {
		if _, dup := obj[e.Sheet]; dup {
			continue
		}
		obj[e.Sheet] = e.Page
	}
	return clean(obj), nil
}

func clean(in map[string]int) Map {
	out := make(Map, len(in))
	for k, v := range in {
		k = strings.TrimSpace(k)
		if k == "" || v <= 0 {
			continue
		}
		out[k] = v
	}
	return out
}

// Validate returns a copy of m without entries pointing past pageCount,
// together with the sorted list of dropped labels. A non-positive pageCount
// means the page count is unknown and nothing is dropped.
func (m Map) Validate(pageCount int) (Map, []string) {
	out := make(Map, len(m))
	var dropped []string
	for k, v := range m {
		if pageCount > 0 && v > pageCount {
			dropped = append(dropped, k)
			continue
		}
		out[k] = v
	}
	sort.Strings(dropped)
	return out, dropped
}
