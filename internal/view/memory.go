package view

import (
	"sync"
)

// ScrollEvent records one ScrollIntoView call. Span is -1 for a page scroll.
type ScrollEvent struct {
	Page   int
	Span   int
	Center bool
}

// Memory is an in-memory Document. Pages are added with their text layer and
// only become visible to Page/Pages after Render. It is safe for concurrent
// use.
type Memory struct {
	mu       sync.Mutex
	pages    []*memPage
	rendered map[int]bool
	scrolls  []ScrollEvent
}

// NewMemory returns an empty document.
func NewMemory() *Memory {
	return &Memory{rendered: map[int]bool{}}
}

// AddPage appends a page whose text layer holds one span per element of
// spans and returns its page number.
func (m *Memory) AddPage(spans ...string) int {
	return m.add(spans, true)
}

// AddImagePage appends a page without a text layer.
func (m *Memory) AddImagePage() int {
	return m.add(nil, false)
}

func (m *Memory) add(texts []string, hasText bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &memPage{doc: m, number: len(m.pages) + 1, hasText: hasText}
	for i, t := range texts {
		p.spans = append(p.spans, &memSpan{page: p, index: i, text: t})
	}
	m.pages = append(m.pages, p)
	return p.number
}

// Render makes page n visible. Unknown pages are ignored.
func (m *Memory) Render(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= 1 && n <= len(m.pages) {
		m.rendered[n] = true
	}
}

// RenderAll makes every page visible.
func (m *Memory) RenderAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages {
		m.rendered[p.number] = true
	}
}

// PageCount returns the number of pages, rendered or not.
func (m *Memory) PageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages)
}

func (m *Memory) Page(n int) (Page, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 || n > len(m.pages) || !m.rendered[n] {
		return nil, false
	}
	return m.pages[n-1], true
}

func (m *Memory) Pages() []Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Page
	for _, p := range m.pages {
		if m.rendered[p.number] {
			out = append(out, p)
		}
	}
	return out
}

// Scrolls returns a copy of the recorded scroll events.
func (m *Memory) Scrolls() []ScrollEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScrollEvent(nil), m.scrolls...)
}

// Marked returns the text of every marked span on page n.
func (m *Memory) Marked(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 || n > len(m.pages) {
		return nil
	}
	var out []string
	for _, s := range m.pages[n-1].spans {
		if s.marked {
			out = append(out, s.text)
		}
	}
	return out
}

// PageTexts returns the span texts of page n regardless of render state.
func (m *Memory) PageTexts(n int) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 || n > len(m.pages) {
		return nil, false
	}
	p := m.pages[n-1]
	if !p.hasText {
		return nil, false
	}
	out := make([]string, len(p.spans))
	for i, s := range p.spans {
		out[i] = s.text
	}
	return out, true
}

type memPage struct {
	doc     *Memory
	number  int
	hasText bool
	spans   []*memSpan
}

func (p *memPage) Number() int { return p.number }

func (p *memPage) ScrollIntoView() {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	p.doc.scrolls = append(p.doc.scrolls, ScrollEvent{Page: p.number, Span: -1})
}

func (p *memPage) TextLayer() ([]Span, bool) {
	if !p.hasText {
		return nil, false
	}
	out := make([]Span, len(p.spans))
	for i, s := range p.spans {
		out[i] = s
	}
	return out, true
}

type memSpan struct {
	page   *memPage
	index  int
	text   string
	marked bool
}

func (s *memSpan) Text() string { return s.text }

func (s *memSpan) SetMarked(v bool) {
	s.page.doc.mu.Lock()
	s.marked = v
	s.page.doc.mu.Unlock()
}

func (s *memSpan) Marked() bool {
	s.page.doc.mu.Lock()
	defer s.page.doc.mu.Unlock()
	return s.marked
}

func (s *memSpan) ScrollIntoView(center bool) {
	s.page.doc.mu.Lock()
	defer s.page.doc.mu.Unlock()
	s.page.doc.scrolls = append(s.page.doc.scrolls, ScrollEvent{Page: s.page.number, Span: s.index, Center: center})
}
