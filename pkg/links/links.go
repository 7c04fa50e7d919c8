// Package links gathers same-origin anchors from an HTML document.
package links

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor resolves every a[href] against the page address and keeps the
// ones sharing its origin. Fragments are preserved; filtering them is up to
// the caller.
type Extractor struct{}

// NewExtractor returns a goquery backed extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns absolute addresses in document order. Duplicates are kept.
func (e *Extractor) Extract(html string, base *url.URL) ([]string, error) {
	if base == nil {
		return nil, fmt.Errorf("links: base url is required")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("links: parse html: %w", err)
	}

	out := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		u, err := base.Parse(href)
		if err != nil {
			return
		}
		if !SameOrigin(base, u) {
			return
		}
		out = append(out, u.String())
	})
	return out, nil
}

// SameOrigin compares scheme, host and effective port.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	if !strings.EqualFold(a.Scheme, b.Scheme) {
		return false
	}
	if !strings.EqualFold(a.Hostname(), b.Hostname()) {
		return false
	}
	return effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
