package assist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Fetcher resolves an article URL to readable text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher downloads a page and strips it to its visible text.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher returns a fetcher using client, or a client with a 20s
// timeout when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTTPFetcher{client: client, maxBytes: 2 << 20}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; workbook/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		return string(body), nil
	}
	return ReadableText(string(body))
}

// ReadableText returns the visible text of an HTML document.
func ReadableText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var sb strings.Builder
	collectText(root, &sb)
	return sb.String(), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "svg":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// Clean collapses whitespace runs and truncates to max characters.
func Clean(s string, max int) string {
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if max <= 0 {
		return s
	}
	if r := []rune(s); len(r) > max {
		return string(r[:max])
	}
	return s
}

var urlPattern = regexp.MustCompile(`(?i)https?://[\w.-]+(?:/[\w\-._~:/?#\[\]@!$&'()*+,;=%]*)?`)

// ExtractURLs returns the distinct links in text, in order of appearance,
// up to limit.
func ExtractURLs(text string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out
}
