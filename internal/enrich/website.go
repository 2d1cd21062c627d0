// Package enrich derives a short token description from a project website.
package enrich

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"token-launchpad/internal/httpx"
)

const (
	DefaultTimeout  = 8 * time.Second
	MaxDescription  = 280
	minParagraphLen = 40
)

var (
	metaDescription = regexp.MustCompile(`(?is)<meta[^>]+(?:name|property)=["'](?:og:)?description["'][^>]*content=["']([^"']+)["']`)
	mdLink          = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdEmphasis      = regexp.MustCompile("[*_`]+")
)

// Website fetches a page and extracts a one-paragraph description.
type Website struct {
	client  *httpx.Client
	timeout time.Duration
}

// NewWebsite creates a new Website enricher.
func NewWebsite(client *httpx.Client) *Website {
	return &Website{client: client, timeout: DefaultTimeout}
}

// Describe returns a description for the page at url.
// The page's meta description wins; otherwise the first prose paragraph of
// the page body (converted to markdown) is used.
func (w *Website) Describe(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported url %q", url)
	}

	body, err := w.client.GetText(ctx, url, w.timeout)
	if err != nil {
		return "", fmt.Errorf("fetch website: %w", err)
	}

	if m := metaDescription.FindStringSubmatch(body); m != nil {
		if d := clean(html.UnescapeString(m[1])); d != "" {
			return truncate(d), nil
		}
	}

	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	if p := firstParagraph(md); p != "" {
		return truncate(p), nil
	}
	return "", fmt.Errorf("no description found")
}

// firstParagraph returns the first block of prose, skipping headings,
// lists, images and navigation fragments.
func firstParagraph(md string) string {
	for _, block := range strings.Split(md, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch block[0] {
		case '#', '-', '*', '+', '|', '>', '!':
			continue
		}
		text := clean(block)
		if len(text) >= minParagraphLen {
			return text
		}
	}
	return ""
}

func clean(s string) string {
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdEmphasis.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= MaxDescription {
		return s
	}
	cut := strings.LastIndex(s[:MaxDescription], " ")
	if cut <= 0 {
		cut = MaxDescription
	}
	return s[:cut] + "..."
}
