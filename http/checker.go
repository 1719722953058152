// Package http provides an HTTP-based implementation of plandok.LinkChecker
// for verifying that document source URLs are still live.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/plandok"
)

// DefaultCheckTimeout is the default timeout for a single liveness check.
const DefaultCheckTimeout = 10 * time.Second

// maxSniffBytes bounds how much of a response body is read for title
// sniffing. Planning documents can be large PDFs; only the head of an
// HTML page is interesting.
const maxSniffBytes = 64 << 10

// Ensure Checker implements plandok.LinkChecker at compile time.
var _ plandok.LinkChecker = (*Checker)(nil)

// Checker verifies URL liveness with a HEAD request, falling back to GET
// when the target rejects or doesn't support HEAD. Responses are
// classified: 2xx/3xx is verified, 4xx/5xx is unreachable. Transport
// failures return an error so the caller can apply its retry policy.
type Checker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the timeout for a single check.
// Defaults to DefaultCheckTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with checks.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		c.userAgent = ua
	}
}

// NewChecker creates a new HTTP-based Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		timeout:   DefaultCheckTimeout,
		userAgent: "plandok-linkcheck/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.client = &http.Client{
		Timeout: c.timeout,
		// Redirects count as liveness; don't chase more than a few.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return c
}

// Check performs one liveness check against the URL.
func (c *Checker) Check(ctx context.Context, url string) (*plandok.CheckResult, error) {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		// HEAD failed at the transport level; some servers reset HEAD
		// but serve GET fine, so try GET before reporting failure.
		return c.checkGET(ctx, url)
	}
	resp.Body.Close()

	if headRejected(resp.StatusCode) {
		return c.checkGET(ctx, url)
	}

	return classify(resp.StatusCode, ""), nil
}

// checkGET performs the GET fallback. For an HTML success response the
// page title is sniffed into the note: a live URL serving a "page not
// found" title is the usual soft-404 telltale operators look for.
func (c *Checker) checkGET(ctx context.Context, url string) (*plandok.CheckResult, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var note string
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && isHTML(resp.Header.Get("Content-Type")) {
		if title := sniffTitle(io.LimitReader(resp.Body, maxSniffBytes)); title != "" {
			note = fmt.Sprintf("page title: %s", title)
		}
	}

	return classify(resp.StatusCode, note), nil
}

func (c *Checker) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	return c.client.Do(req)
}

// headRejected reports whether the status indicates the server does not
// serve HEAD rather than the resource being dead.
func headRejected(status int) bool {
	switch status {
	case http.StatusMethodNotAllowed, http.StatusForbidden, http.StatusNotImplemented:
		return true
	}
	return false
}

// classify maps an HTTP status to a verification outcome.
func classify(status int, note string) *plandok.CheckResult {
	outcome := plandok.OutcomeUnreachable
	if status >= 200 && status < 400 {
		outcome = plandok.OutcomeVerified
	}
	return &plandok.CheckResult{
		StatusCode: status,
		Outcome:    outcome,
		Note:       note,
	}
}

func isHTML(contentType string) bool {
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

// sniffTitle extracts the <title> text from an HTML document, collapsed
// to a single line. Returns an empty string if the document has no title
// or cannot be parsed.
func sniffTitle(r io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
