// Package view describes the rendered, paginated document the highlighter
// drives. A Document only exposes pages that are currently rendered; pages
// appear asynchronously, which is why callers retry lookups.
package view

// Span is one run of text in a page's text layer.
type Span interface {
	Text() string
	SetMarked(bool)
	Marked() bool
	// ScrollIntoView scrolls the span into the viewport, vertically centered
	// when center is true.
	ScrollIntoView(center bool)
}

// Page is a rendered page.
type Page interface {
	// Number is the 1-based page index.
	Number() int
	ScrollIntoView()
	// TextLayer returns the page's spans. ok is false for pages rendered
	// without a text layer (scans, images).
	TextLayer() (spans []Span, ok bool)
}

// Document is a paginated view.
type Document interface {
	// Page returns page n if it is rendered.
	Page(n int) (Page, bool)
	// Pages returns every rendered page in page order.
	Pages() []Page
}
