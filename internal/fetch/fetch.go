// Package fetch downloads analysis results and sheet maps published over
// http(s), with conditional-GET caching and bounded retry.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/hyperifyio/sheetlink/internal/cache"
)

// MaxBodyBytes caps a downloaded body.
const MaxBodyBytes = 32 << 20

// ErrTransient marks failures worth retrying (5xx, timeouts).
var ErrTransient = errors.New("transient fetch error")

// Client wraps http.Client and provides timeouts and limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// RetryDelay is the base backoff between attempts. Zero means 200ms.
	RetryDelay time.Duration
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for GET bodies and validators.
	Cache *cache.HTTPCache
    // If true, skip conditional headers but still save the latest response.
    BypassCache bool

	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests per client. Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, user-agent, and bounded retry for transient
// errors. It returns the body and its content type. A 304 answer is served
// from the cache.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var etag, lastMod string
    if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	resp, err := retry.DoWithData(
		func() (response, error) {
			r, err := c.tryOnce(ctx, rawURL, etag, lastMod)
			if err != nil && !errors.Is(err, ErrTransient) {
				return r, retry.Unrecoverable(err)
			}
			return r, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, "", err
	}
	if resp.status == http.StatusNotModified && c.Cache != nil {
		cached, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("not modified but cache missing: %w", err)
		}
		ct := resp.contentType
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta.ContentType != "" {
			ct = meta.ContentType
		}
		return cached, ct, nil
	}
	if c.Cache != nil {
		_ = c.Cache.Save(ctx, rawURL, resp.contentType, resp.etag, resp.lastModified, resp.body)
	}
	return resp.body, resp.contentType, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (response, error) {
	c.acquire()
	defer c.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return response{}, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return response{}, fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return response{}, err
	}
	defer resp.Body.Close()

	out := response{
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
	}
	switch {
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return out, fmt.Errorf("%w: server error: %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode == http.StatusNotModified:
		return out, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return out, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if !isAllowedContentType(out.contentType) {
		return out, fmt.Errorf("unsupported content type: %s", out.contentType)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return out, fmt.Errorf("read body: %w", err)
	}
	if len(b) > MaxBodyBytes {
		return out, fmt.Errorf("body exceeds %d bytes", MaxBodyBytes)
	}
	out.body = b
	return out, nil
}

// ReadSource returns the bytes behind src: an http(s) URL is fetched with c,
// anything else is read as a local path.
func ReadSource(ctx context.Context, c *Client, src string) ([]byte, error) {
	if IsURL(src) {
		if c == nil {
			c = &Client{MaxAttempts: 1}
		}
		b, _, err := c.Get(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", src, err)
		}
		return b, nil
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return b, nil
}

// IsURL reports whether s is an absolute http(s) URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && isHTTPScheme(u) && u.Host != ""
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// isAllowedContentType accepts JSON, YAML and plain text. An empty header is
// allowed since static file servers often omit it for .yaml.
func isAllowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "", "application/json", "text/json", "text/plain",
		"application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml",
		"application/octet-stream":
		return true
	}
	return strings.HasSuffix(ct, "+json")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
