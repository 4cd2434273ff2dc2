package crawler

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// renderPageHTML loads the page in a headless browser, waits for the body to
// be ready, and returns the resulting DOM as HTML.
func renderPageHTML(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(browserUserAgent),
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(pageURL)); err != nil {
		return "", err
	}

	// Soft wait: a page that never signals ready still gets its HTML read.
	readyCtx, readyCancel := context.WithTimeout(browserCtx, 10*time.Second)
	defer readyCancel()
	_ = chromedp.Run(readyCtx, chromedp.WaitReady("body", chromedp.ByQuery))

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}
