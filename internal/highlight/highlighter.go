// Package highlight scrolls a rendered document to a page and marks the text
// spans matching a locator phrase. Pages render asynchronously, so the page
// lookup is retried; a newer target always supersedes an older one.
package highlight

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sheetlink/internal/view"
)

// QueryID identifies one SetTarget call. IDs increase monotonically.
type QueryID uint64

// State is the controller's progress on the active query.
type State int

const (
	Idle State = iota
	Scrolling
	Highlighting
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scrolling:
		return "scrolling"
	case Highlighting:
		return "highlighting"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// MatchKind says which tier marked the spans.
type MatchKind int

const (
	None MatchKind = iota
	Exact
	TokenOverlap
)

func (k MatchKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case TokenOverlap:
		return "token-overlap"
	}
	return "none"
}

// Reason explains how a query settled.
type Reason int

const (
	Matched Reason = iota
	EmptyQuery
	NoTextLayer
	NoMatch
	PageNotReady
)

func (r Reason) String() string {
	switch r {
	case Matched:
		return "matched"
	case EmptyQuery:
		return "empty-query"
	case NoTextLayer:
		return "no-text-layer"
	case NoMatch:
		return "no-match"
	case PageNotReady:
		return "page-not-ready"
	}
	return "unknown"
}

// Result is the outcome of one query that was not superseded.
type Result struct {
	ID               QueryID
	Page             int
	Query            string
	MatchKind        MatchKind
	MatchedSpanCount int
	Reason           Reason
}

// Timer abstracts time.After so tests can drive the retry and render delays.
// It has the same shape as retry-go's Timer.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

type realTimer struct{}

func (realTimer) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Options tune the controller. Zero values take the defaults below; a
// negative RenderDelay searches the page right after scrolling.
type Options struct {
	// OverlapThreshold is the fraction of locator tokens a span must contain
	// in the token-overlap tier.
	OverlapThreshold float64
	// MinTokenRunes is the shortest word counted as a locator token.
	MinTokenRunes  int
	ScrollInterval time.Duration
	ScrollAttempts int
	// RenderDelay is the wait between scrolling and searching the text layer.
	RenderDelay time.Duration
	Timer       Timer
	Logger      *zerolog.Logger
	// OnSettled, when set, receives the result of a query that is still
	// active at delivery time, so a superseded result never arrives after a
	// newer one. Calls are serialized and made without the controller lock.
	OnSettled func(Result)
}

const (
	DefaultOverlapThreshold = 0.6
	DefaultMinTokenRunes    = 3
	DefaultScrollInterval   = 200 * time.Millisecond
	DefaultScrollAttempts   = 10
	DefaultRenderDelay      = 500 * time.Millisecond
)

func (o Options) withDefaults() Options {
	if o.OverlapThreshold <= 0 || o.OverlapThreshold > 1 {
		o.OverlapThreshold = DefaultOverlapThreshold
	}
	if o.MinTokenRunes <= 0 {
		o.MinTokenRunes = DefaultMinTokenRunes
	}
	if o.ScrollInterval <= 0 {
		o.ScrollInterval = DefaultScrollInterval
	}
	if o.ScrollAttempts <= 0 {
		o.ScrollAttempts = DefaultScrollAttempts
	}
	if o.RenderDelay < 0 {
		o.RenderDelay = 0
	} else if o.RenderDelay == 0 {
		o.RenderDelay = DefaultRenderDelay
	}
	if o.Timer == nil {
		o.Timer = realTimer{}
	}
	if o.Logger == nil {
		o.Logger = &log.Logger
	}
	return o
}

var (
	errPageNotReady = errors.New("page not rendered")
	errSuperseded   = errors.New("query superseded")
)

type query struct {
	id     QueryID
	page   int
	text   string
	cancel context.CancelFunc
}

// Highlighter is bound to one document view for its lifetime.
type Highlighter struct {
	doc  view.Document
	opts Options
	log  zerolog.Logger

	root     context.Context
	stopRoot context.CancelFunc
	wg       sync.WaitGroup

	// reportMu orders OnSettled deliveries.
	reportMu sync.Mutex

	mu     sync.Mutex
	seq    QueryID
	active *query
	page   int
	state  State
	closed bool
}

// New returns an idle controller for doc.
func New(doc view.Document, opts Options) *Highlighter {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Highlighter{
		doc:      doc,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "highlight").Logger(),
		root:     ctx,
		stopRoot: cancel,
	}
}

// SetTarget makes (page, text) the active query and returns its ID. Any
// earlier query is cancelled; its pending work will not touch the view.
// The call returns immediately; outcomes reach Options.OnSettled.
func (h *Highlighter) SetTarget(page int, text string) QueryID {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0
	}
	if h.active != nil {
		h.active.cancel()
	}
	h.seq++
	ctx, cancel := context.WithCancel(h.root)
	q := &query{id: h.seq, page: page, text: text, cancel: cancel}
	h.active = q
	h.state = Scrolling
	h.wg.Add(1)
	h.mu.Unlock()

	h.log.Debug().Uint64("query", uint64(q.id)).Int("page", page).Str("text", text).Msg("target set")
	go h.run(ctx, q)
	return q.id
}

// ClearHighlight drops the active query and removes every mark.
func (h *Highlighter) ClearHighlight() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != nil {
		h.active.cancel()
		h.active = nil
	}
	h.clearMarksLocked()
	h.state = Idle
}

// Current returns the page last scrolled to and the state of the active query.
func (h *Highlighter) Current() (page int, state State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.page, h.state
}

// Close cancels pending work and waits for it to stop. The controller
// ignores SetTarget afterwards.
func (h *Highlighter) Close() {
	h.mu.Lock()
	h.closed = true
	if h.active != nil {
		h.active.cancel()
		h.active = nil
	}
	h.mu.Unlock()
	h.stopRoot()
	h.wg.Wait()
}

func (h *Highlighter) isActiveLocked(id QueryID) bool {
	return h.active != nil && h.active.id == id
}

func (h *Highlighter) isActive(id QueryID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isActiveLocked(id)
}

func (h *Highlighter) run(ctx context.Context, q *query) {
	defer h.wg.Done()
	defer q.cancel()

	var page view.Page
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			if !h.isActive(q.id) {
				return retry.Unrecoverable(errSuperseded)
			}
			p, ok := h.doc.Page(q.page)
			if !ok {
				return errPageNotReady
			}
			page = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(h.opts.ScrollAttempts)),
		retry.Delay(h.opts.ScrollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.WithTimer(h.opts.Timer),
	)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, errSuperseded) {
			return
		}
		h.log.Debug().Uint64("query", uint64(q.id)).Int("page", q.page).Int("attempts", attempt).Msg("page not rendered, giving up")
		h.finish(q, Result{ID: q.id, Page: q.page, Query: q.text, Reason: PageNotReady})
		return
	}

	h.mu.Lock()
	if !h.isActiveLocked(q.id) {
		h.mu.Unlock()
		return
	}
	page.ScrollIntoView()
	h.page = q.page
	h.state = Highlighting
	h.mu.Unlock()

	select {
	case <-ctx.Done():
		return
	case <-h.opts.Timer.After(h.opts.RenderDelay):
	}

	h.mu.Lock()
	if !h.isActiveLocked(q.id) {
		h.mu.Unlock()
		return
	}
	res := h.highlightLocked(q)
	h.state = Settled
	h.mu.Unlock()
	h.report(res)
}

// finish settles q with res if it is still active.
func (h *Highlighter) finish(q *query, res Result) {
	h.mu.Lock()
	if !h.isActiveLocked(q.id) {
		h.mu.Unlock()
		return
	}
	h.state = Settled
	h.mu.Unlock()
	h.report(res)
}

func (h *Highlighter) report(res Result) {
	h.reportMu.Lock()
	defer h.reportMu.Unlock()
	if !h.isActive(res.ID) {
		return
	}
	if res.Reason == NoMatch {
		h.log.Info().Int("page", res.Page).Str("text", res.Query).Msg("no matching text on page")
	} else {
		h.log.Debug().Int("page", res.Page).Str("kind", res.MatchKind.String()).Str("reason", res.Reason.String()).Int("spans", res.MatchedSpanCount).Msg("highlight settled")
	}
	if h.opts.OnSettled != nil {
		h.opts.OnSettled(res)
	}
}

func (h *Highlighter) clearMarksLocked() {
	for _, p := range h.doc.Pages() {
		spans, ok := p.TextLayer()
		if !ok {
			continue
		}
		for _, s := range spans {
			if s.Marked() {
				s.SetMarked(false)
			}
		}
	}
}

func (h *Highlighter) highlightLocked(q *query) Result {
	res := Result{ID: q.id, Page: q.page, Query: q.text}
	h.clearMarksLocked()

	text := strings.TrimSpace(q.text)
	if text == "" {
		res.Reason = EmptyQuery
		return res
	}
	page, ok := h.doc.Page(q.page)
	if !ok {
		res.Reason = PageNotReady
		return res
	}
	spans, ok := page.TextLayer()
	if !ok {
		res.Reason = NoTextLayer
		return res
	}

	kind := Exact
	matched := exactMatches(spans, text)
	if len(matched) == 0 {
		kind = TokenOverlap
		matched = overlapMatches(spans, Tokens(text, h.opts.MinTokenRunes), h.opts.OverlapThreshold)
	}
	if len(matched) == 0 {
		res.Reason = NoMatch
		return res
	}
	for _, i := range matched {
		spans[i].SetMarked(true)
	}
	spans[matched[0]].ScrollIntoView(true)
	res.MatchKind = kind
	res.MatchedSpanCount = len(matched)
	res.Reason = Matched
	return res
}
