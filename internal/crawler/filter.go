package crawler

import (
	"net/url"
	"path"
	"strings"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

// visitedSet is the membership view FilterLinks needs.
type visitedSet interface {
	Has(string) bool
}

// FilterLinks drops discovered links that must not enter the frontier, in order:
// already visited pages, ignored extensions (exact, case-sensitive, with the
// leading dot), then any link carrying a fragment when fragments are ignored.
// The fragment rule does not tell heading anchors from client-side routes.
func FilterLinks(links []string, visited visitedSet, opts domain.CrawlOptions) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		if visited != nil && visited.Has(link) {
			continue
		}

		u, err := url.Parse(link)
		if err != nil {
			continue
		}

		if len(opts.IgnoreExtensions) > 0 && hasIgnoredExtension(u, opts.IgnoreExtensions) {
			continue
		}
		if opts.IgnoreFragmentLinks && u.Fragment != "" {
			continue
		}
		out = append(out, link)
	}
	return out
}

func hasIgnoredExtension(u *url.URL, ignored []string) bool {
	ext := extName(u.EscapedPath())
	if ext == "" {
		return false
	}
	for _, candidate := range ignored {
		if ext == candidate {
			return true
		}
	}
	return false
}

// extName returns the extension of the last path element. Trailing slashes
// are ignored and a leading dot does not start an extension, so "/a.pdf/"
// has ".pdf" and "/dir/.pdf" has none.
func extName(p string) string {
	base := path.Base(strings.TrimRight(p, "/"))
	if base == ".." {
		return ""
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i:]
}
