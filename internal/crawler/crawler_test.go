package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://Campus.EDU/Admissions/", "https://campus.edu/Admissions"},
		{"https://campus.edu:443/faq", "https://campus.edu/faq"},
		{"http://campus.edu:80/", "http://campus.edu/"},
		{"https://campus.edu/page#section", "https://campus.edu/page"},
		{"campus.edu/handbook", "https://campus.edu/handbook"},
	}
	for _, c := range cases {
		got, err := NormalizeURL(c.in)
		if err != nil {
			t.Fatalf("NormalizeURL(%q) failed: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeURLRejectsBadInput(t *testing.T) {
	for _, in := range []string{"ftp://campus.edu/file", "https://"} {
		if _, err := NormalizeURL(in); err == nil {
			t.Errorf("NormalizeURL(%q) succeeded, want error", in)
		}
	}
}

func TestExtractReadableTextPrefersMain(t *testing.T) {
	html := `<html><body>
		<nav>Home About Contact and lots of other navigation chrome text here</nav>
		<main>` + strings.Repeat("Tuition is due by the first week of the semester. ", 5) + `</main>
		<footer>Copyright campus, all rights reserved, long footer boilerplate text</footer>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	text := extractReadableText(doc.Selection)
	if !strings.Contains(text, "Tuition is due") {
		t.Fatal("main content missing from extracted text")
	}
	if strings.Contains(text, "navigation chrome") || strings.Contains(text, "footer boilerplate") {
		t.Fatalf("chrome elements leaked into extracted text: %q", text)
	}
}

func TestScrapeStaticPage(t *testing.T) {
	page := `<html><head><title>Campus FAQ</title></head><body><main>` +
		strings.Repeat("The registrar office is open weekdays from nine to five. ", 6) +
		`</main></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	res, err := Scrape(context.Background(), ScrapeConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if res.Title != "Campus FAQ" {
		t.Fatalf("title = %q", res.Title)
	}
	if !strings.Contains(res.Text, "registrar office") {
		t.Fatal("text missing page content")
	}
	if res.WordCount < 10 {
		t.Fatalf("word count = %d", res.WordCount)
	}
}

func TestScrapeRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	if _, err := Scrape(context.Background(), ScrapeConfig{URL: srv.URL}); err == nil {
		t.Fatal("expected error for non-HTML content")
	}
}

func TestScrapeTooLittleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>Empty</title></head><body><p>hi</p></body></html>"))
	}))
	defer srv.Close()

	if _, err := Scrape(context.Background(), ScrapeConfig{URL: srv.URL}); err == nil {
		t.Fatal("expected error for near-empty page")
	}
}
