// Package htmlview adapts a saved pdf.js viewer DOM to view.Document.
//
// Pages are div.page elements carrying data-page-number; a page counts as
// rendered once pdf.js marked it data-loaded="true" or filled in its canvas
// or text layer. Spans are the leaf span elements under div.textLayer.
// Marking toggles the "highlight" class pdf.js uses for find results, and
// scrolling tags the element with data-scroll so the rendered HTML shows
// where the viewer would be.
package htmlview

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/hyperifyio/sheetlink/internal/view"
)

const (
	HighlightClass = "highlight"
	ScrollAttr     = "data-scroll"
)

// Document is a parsed snapshot. Mutations go through its lock so a
// highlighter goroutine and Render can share it.
type Document struct {
	mu       sync.Mutex
	root     *html.Node
	pages    []*page
	scrolled *html.Node
}

// Parse reads a pdf.js viewer snapshot.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{root: root}
	walk(root, func(n *html.Node) bool {
		if !isElement(n, "div") || !hasClass(n, "page") {
			return true
		}
		num, err := strconv.Atoi(attr(n, "data-page-number"))
		if err != nil || num <= 0 {
			return true
		}
		d.pages = append(d.pages, newPage(d, n, num))
		return false
	})
	return d, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

func newPage(d *Document, n *html.Node, num int) *page {
	p := &page{doc: d, node: n, number: num}
	layer := findFirst(n, func(c *html.Node) bool { return isElement(c, "div") && hasClass(c, "textLayer") })
	p.rendered = attr(n, "data-loaded") == "true" || layer != nil ||
		findFirst(n, func(c *html.Node) bool { return hasClass(c, "canvasWrapper") }) != nil
	if layer == nil {
		return p
	}
	p.hasText = true
	walk(layer, func(c *html.Node) bool {
		if !isElement(c, "span") {
			return true
		}
		if findFirst(c, func(x *html.Node) bool { return x != c && isElement(x, "span") }) != nil {
			return true
		}
		p.spans = append(p.spans, &span{doc: d, node: c})
		return false
	})
	return p
}

// PageCount returns the number of pages in the snapshot, rendered or not.
func (d *Document) PageCount() int {
	return len(d.pages)
}

func (d *Document) Page(n int) (view.Page, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.pages {
		if p.number == n && p.rendered {
			return p, true
		}
	}
	return nil, false
}

func (d *Document) Pages() []view.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []view.Page
	for _, p := range d.pages {
		if p.rendered {
			out = append(out, p)
		}
	}
	return out
}

// Render writes the snapshot with current marks and scroll position.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

func (d *Document) scrollTo(n *html.Node, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scrolled != nil {
		removeAttr(d.scrolled, ScrollAttr)
	}
	setAttr(n, ScrollAttr, value)
	d.scrolled = n
}

type page struct {
	doc      *Document
	node     *html.Node
	number   int
	rendered bool
	hasText  bool
	spans    []*span
}

func (p *page) Number() int { return p.number }

func (p *page) ScrollIntoView() { p.doc.scrollTo(p.node, "page") }

func (p *page) TextLayer() ([]view.Span, bool) {
	if !p.hasText {
		return nil, false
	}
	out := make([]view.Span, len(p.spans))
	for i, s := range p.spans {
		out[i] = s
	}
	return out, true
}

type span struct {
	doc  *Document
	node *html.Node
}

func (s *span) Text() string {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	var b strings.Builder
	walk(s.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return b.String()
}

func (s *span) SetMarked(v bool) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	if v {
		addClass(s.node, HighlightClass)
	} else {
		removeClass(s.node, HighlightClass)
	}
}

func (s *span) Marked() bool {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return hasClass(s.node, HighlightClass)
}

func (s *span) ScrollIntoView(center bool) {
	v := "nearest"
	if center {
		v = "center"
	}
	s.doc.scrollTo(s.node, v)
}

// walk visits n and its descendants depth-first; fn returns false to skip
// the children of the node it was given.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var res *html.Node
	walk(n, func(c *html.Node) bool {
		if res != nil {
			return false
		}
		if match(c) {
			res = c
			return false
		}
		return true
	})
	return res
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	classes := strings.TrimSpace(attr(n, "class") + " " + class)
	setAttr(n, "class", classes)
}

func removeClass(n *html.Node, class string) {
	if !hasClass(n, class) {
		return
	}
	var keep []string
	for _, c := range strings.Fields(attr(n, "class")) {
		if c != class {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(keep, " "))
}
