package app

import (
    "bufio"
    "fmt"
    "regexp"
    "strings"
    "unicode"

    "github.com/jung-kurt/gofpdf"
)

var pdfLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`) // [text](url)

// writeSimplePDF renders a minimal PDF from the Markdown report, preserving
// paragraphs, flattening table rows and turning external links into
// clickable PDF links. With fontPath set the text is drawn with that UTF-8
// TrueType font; otherwise the core Helvetica font is used and Cyrillic text
// is transliterated, since core fonts only cover cp1252.
func writeSimplePDF(markdown string, outPath string, fontPath string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    family := "Helvetica"
    conv := func(s string) string { return s }
    if strings.TrimSpace(fontPath) != "" {
        family = "body"
        pdf.AddUTF8Font(family, "", fontPath)
        pdf.AddUTF8Font(family, "B", fontPath)
    } else {
        tr := pdf.UnicodeTranslatorFromDescriptor("")
        conv = func(s string) string { return tr(latinize(s)) }
    }
    if err := pdf.Error(); err != nil {
        return fmt.Errorf("pdf font: %w", err)
    }
    pdf.SetFont(family, "", 10)
    pdf.AddPage()

    scanner := bufio.NewScanner(strings.NewReader(markdown))
    scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
    for scanner.Scan() {
        s := strings.TrimSpace(scanner.Text())
        switch {
        case s == "":
            pdf.Ln(4)
            continue
        case strings.HasPrefix(s, "<a "), s == "---", isTableSeparator(s):
            continue
        case strings.HasPrefix(s, "#"):
            i := countPrefix(s, '#')
            text := strings.TrimSpace(s[i:])
            if text == "" { continue }
            size := 14.0
            if i >= 2 { size = 12.0 }
            pdf.SetFont(family, "B", size)
            pdf.MultiCell(0, 7, conv(text), "", "L", false)
            pdf.SetFont(family, "", 10)
            continue
        case strings.HasPrefix(s, "|"):
            s = flattenTableRow(s)
        }
        s = strings.ReplaceAll(s, "<br>", " / ")
        parts := pdfLinkRe.FindAllStringSubmatchIndex(s, -1)
        if len(parts) == 0 {
            pdf.MultiCell(0, 5, conv(s), "", "L", false)
            continue
        }
        pos := 0
        for _, m := range parts {
            if m[0] > pos {
                pdf.Write(5, conv(s[pos:m[0]]))
            }
            text := s[m[2]:m[3]]
            target := s[m[4]:m[5]]
            if strings.HasPrefix(target, "#") {
                pdf.Write(5, conv(text))
            } else {
                pdf.WriteLinkString(5, conv(text), target)
            }
            pos = m[1]
        }
        if pos < len(s) {
            pdf.Write(5, conv(s[pos:]))
        }
        pdf.Ln(6)
    }
    if err := scanner.Err(); err != nil {
        return err
    }
    return pdf.OutputFileAndClose(outPath)
}

func isTableSeparator(s string) bool {
    return strings.HasPrefix(s, "|") && strings.Trim(s, "|-: ") == ""
}

// flattenTableRow turns "| a | b\|c |" into "a | b|c".
func flattenTableRow(s string) string {
    s = strings.TrimSuffix(strings.TrimPrefix(s, "|"), "|")
    s = strings.ReplaceAll(s, `\|`, "\x00")
    cells := strings.Split(s, "|")
    for i := range cells {
        cells[i] = strings.ReplaceAll(strings.TrimSpace(cells[i]), "\x00", "|")
    }
    return strings.Join(cells, " | ")
}

var cyrillicLatin = map[rune]string{
    'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
    'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
    'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
    'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
    'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
    '№': "No",
}

// latinize transliterates Cyrillic letters, keeping the case of each letter.
func latinize(s string) string {
    var b strings.Builder
    for _, r := range s {
        lower := unicode.ToLower(r)
        rep, ok := cyrillicLatin[lower]
        if !ok {
            b.WriteRune(r)
            continue
        }
        if r != lower && rep != "" {
            rep = strings.ToUpper(rep[:1]) + rep[1:]
        }
        b.WriteString(rep)
    }
    return b.String()
}
