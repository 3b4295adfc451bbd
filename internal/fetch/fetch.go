// Package fetch retrieves listing pages so detected NAP values can be read from the page
// itself when a search snippet is incomplete.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 20 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; NAPVerifier/1.0)"

// maxBodyBytes bounds how much of a listing page is read.
const maxBodyBytes = 4 << 20

// Result holds the raw content of a fetched page.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
	Rendered    bool // produced by the headless browser
}

// Error represents an error during page fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	BrowserTimeout time.Duration
	Client         *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		BrowserTimeout: 30 * time.Second,
	}
}

// URL retrieves HTML content from a URL over plain HTTP.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return result, nil
}

// PageFetcher fetches listing pages, rendering them in a headless browser when the
// site is known to build its content with JavaScript.
type PageFetcher struct {
	opts   *Options
	render func(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// NewPageFetcher creates a PageFetcher. A nil opts uses DefaultOptions.
func NewPageFetcher(opts *Options) *PageFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &PageFetcher{opts: opts, render: WithBrowser}
}

// Fetch returns the page HTML. requiresBrowser skips plain HTTP and renders directly;
// otherwise a page whose body is too thin to hold a listing is re-rendered.
func (f *PageFetcher) Fetch(ctx context.Context, urlStr string, requiresBrowser bool) (*Result, error) {
	if !requiresBrowser {
		result, err := URL(ctx, urlStr, f.opts)
		if err != nil {
			return nil, err
		}
		if !ShouldUseBrowser(result.HTML) {
			return result, nil
		}
	}

	html, err := f.render(ctx, urlStr, f.opts.BrowserTimeout)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "browser rendering failed", Cause: err}
	}
	return &Result{URL: urlStr, HTML: html, StatusCode: http.StatusOK, Rendered: true}, nil
}
