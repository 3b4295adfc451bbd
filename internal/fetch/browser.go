// Package fetch - browser.go provides headless browser rendering for listing sites built as SPAs.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// MinContentLength is the minimum page length for a plain HTTP fetch to count as rendered.
const MinContentLength = 500

// ShouldUseBrowser returns true if the page is too short to contain a listing,
// indicating it is likely a JavaScript-rendered SPA shell.
func ShouldUseBrowser(html string) bool {
	return len(strings.TrimSpace(html)) < MinContentLength
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	log := logrus.WithFields(logrus.Fields{"component": "browser", "url": url})
	log.Debug("starting headless browser")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("lang", "ja-JP"),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// listing widgets (maps, phone blocks) load after the shell
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.WithField("bytes", len(html)).Debug("rendered page")
	return html, nil
}
