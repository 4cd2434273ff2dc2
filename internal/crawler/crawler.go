package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"campus-chatbot-backend/internal/logger"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var httpTransport = &http.Transport{
	DisableCompression: false,
}

// ScrapeConfig configures a single-page scrape.
type ScrapeConfig struct {
	URL     string
	Timeout time.Duration
	// RenderJS fetches the page through a headless browser instead of a
	// plain HTTP request, for sites that build their content client-side.
	RenderJS      bool
	RenderTimeout time.Duration
}

// ScrapeResult is the readable content of one page.
type ScrapeResult struct {
	URL       string
	Title     string
	Text      string
	WordCount int
	FetchedAt time.Time
}

// NormalizeURL canonicalizes a URL so the same page always maps to the same
// source identity: no fragment, lowercase scheme and host, no default port,
// no trailing slash on non-root paths.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" {
		// "campus.edu/page" parses as a bare path; re-parse with a scheme.
		parsed, err = url.Parse("https://" + rawURL)
		if err != nil {
			return "", err
		}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}

	parsed.Fragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if parsed.Port() == "80" && parsed.Scheme == "http" ||
		parsed.Port() == "443" && parsed.Scheme == "https" {
		host, _, _ := strings.Cut(parsed.Host, ":")
		parsed.Host = host
	}

	path := parsed.Path
	if path != "" && path != "/" {
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			path = "/"
		}
	}
	parsed.Path = path

	return parsed.String(), nil
}

// Scrape fetches one page and extracts its title and readable text.
func Scrape(ctx context.Context, cfg ScrapeConfig) (*ScrapeResult, error) {
	normalized, err := NormalizeURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if cfg.RenderJS {
		return scrapeRendered(ctx, normalized, cfg.RenderTimeout)
	}
	return scrapeStatic(ctx, normalized, cfg.Timeout)
}

func scrapeStatic(ctx context.Context, pageURL string, timeout time.Duration) (*ScrapeResult, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := colly.NewCollector()
	c.WithTransport(httpTransport)
	c.SetRequestTimeout(timeout)
	c.UserAgent = browserUserAgent

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
	})

	var (
		result   *ScrapeResult
		pageErr  error
		statusOK bool
	)

	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") &&
			!strings.Contains(contentType, "application/xhtml+xml") {
			pageErr = fmt.Errorf("URL %s is not an HTML page (Content-Type %s)", pageURL, contentType)
			return
		}
		statusOK = true

		// The standard transport decompresses gzip on its own; brotli it does not.
		if strings.Contains(r.Headers.Get("Content-Encoding"), "br") {
			decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(r.Body)))
			if err == nil {
				r.Body = decompressed
			}
		}

		if len(r.Body) > 0 {
			utf8Reader, err := charset.NewReader(bytes.NewReader(r.Body), contentType)
			if err == nil {
				if decoded, readErr := io.ReadAll(utf8Reader); readErr == nil && len(decoded) > 0 {
					r.Body = decoded
				}
			}
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.DOM.Find("title").Text())
		text := extractReadableText(e.DOM)
		result = &ScrapeResult{
			URL:       pageURL,
			Title:     title,
			Text:      text,
			WordCount: len(strings.Fields(text)),
			FetchedAt: time.Now(),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		switch {
		case r.StatusCode == http.StatusForbidden:
			pageErr = fmt.Errorf("access forbidden (403): the site blocked the scraper")
		case r.StatusCode == http.StatusTooManyRequests:
			pageErr = fmt.Errorf("rate limited (429): try again later")
		case r.StatusCode >= 500:
			pageErr = fmt.Errorf("server error (%d) fetching %s", r.StatusCode, pageURL)
		default:
			pageErr = fmt.Errorf("failed to fetch %s: %w", pageURL, err)
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	c.Wait()

	if pageErr != nil {
		return nil, pageErr
	}
	if result == nil {
		if statusOK {
			return nil, fmt.Errorf("no HTML document found at %s", pageURL)
		}
		return nil, fmt.Errorf("no response from %s", pageURL)
	}
	if result.WordCount < 10 {
		return nil, fmt.Errorf("page %s has too little readable text", pageURL)
	}
	return result, nil
}

func scrapeRendered(ctx context.Context, pageURL string, timeout time.Duration) (*ScrapeResult, error) {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	html, err := renderPageHTML(ctx, pageURL, timeout)
	if err != nil {
		logger.Warn("JS render failed, falling back to static fetch", "url", pageURL, "error", err)
		return scrapeStatic(ctx, pageURL, timeout)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").Text())
	text := extractReadableText(doc.Selection)
	result := &ScrapeResult{
		URL:       pageURL,
		Title:     title,
		Text:      text,
		WordCount: len(strings.Fields(text)),
		FetchedAt: time.Now(),
	}
	if result.WordCount < 10 {
		return nil, fmt.Errorf("page %s has too little readable text", pageURL)
	}
	return result, nil
}

// extractReadableText strips chrome elements and pulls the main content,
// preferring semantic containers over a raw body dump.
func extractReadableText(selection *goquery.Selection) string {
	doc := selection.Clone()
	doc.Find("script, style, nav, footer, header, aside, .nav, .navbar, .footer, .header, .sidebar, .advertisement, .ads").Remove()

	contentSelectors := []string{
		"main",
		"article",
		"[role='main']",
		".main-content",
		".content",
		"#content",
		"body",
	}

	var content strings.Builder
	found := false
	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 100 {
				content.WriteString(text)
				content.WriteString("\n\n")
				found = true
			}
		})
		if found {
			break
		}
	}
	if !found {
		content.WriteString(doc.Find("body").Text())
	}

	lines := strings.Split(content.String(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
