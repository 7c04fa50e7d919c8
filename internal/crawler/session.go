package crawler

import (
	"fmt"
	"net/url"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

// Session holds everything that is scoped to one run: the frontier, the
// visitation registries and the run counter. Sessions are not shared between
// runs and are not safe for concurrent use.
type Session struct {
	entry     string
	opts      domain.CrawlOptions
	manifest  []string
	routes    []RouteDefinition
	pageLimit int

	frontier      *Frontier
	visitedPages  *orderedSet
	visitedRoutes *orderedSet
	runCount      int
}

// NewSession seeds a session with the entry address. A nil manifest disables route dedup.
func NewSession(entry string, opts domain.CrawlOptions, manifest []string) (*Session, error) {
	var routes []RouteDefinition
	if manifest != nil {
		compiled, err := CompileRoutes(manifest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrManifest, err)
		}
		routes = compiled
	}

	opts = opts.WithDefaults()

	return &Session{
		entry:         entry,
		opts:          opts,
		manifest:      manifest,
		routes:        routes,
		pageLimit:     opts.PageLimit,
		frontier:      NewFrontier(entry),
		visitedPages:  newOrderedSet(),
		visitedRoutes: newOrderedSet(),
	}, nil
}

// Restore carries the registries of a previous run into this session. The
// frontier becomes the previous toVisit list, or just the entry when that
// list is empty. The run counter is not restored: the page limit applies to
// the new run.
func (s *Session) Restore(prev domain.RunState) {
	for _, href := range prev.PagesVisited {
		s.visitedPages.Add(href)
	}
	for _, route := range prev.RoutesVisited {
		s.visitedRoutes.Add(route)
	}
	if len(prev.ToVisit) == 0 {
		return
	}
	s.frontier = NewFrontier(prev.ToVisit...)
}

// Decide runs the visitation policy for href without changing any state.
// The page limit is compared literally, so a limit of 0 rejects the entry.
func (s *Session) Decide(href string) Decision {
	if s.runCount >= s.pageLimit {
		return Decision{ShouldProcess: false, Reason: PageLimitReason{}}
	}

	if path, ok := pathOf(href); ok && s.routes != nil {
		if route, ok := MatchRoute(path, s.routes); ok {
			return Decision{
				ShouldProcess: !s.visitedRoutes.Has(route.Pattern),
				Reason:        RouteReason{Route: route.Pattern},
			}
		}
	}

	return Decision{
		ShouldProcess: !s.visitedPages.Has(href),
		Reason:        VerbatimReason{Href: href},
	}
}

// Apply records the side effects of a decision made for href.
func (s *Session) Apply(href string, d Decision) {
	if !d.ShouldProcess {
		switch d.Reason.(type) {
		case PageLimitReason, VerbatimReason, RouteReason:
			// after a page limit rejection the rest of the frontier surfaces as toVisit
			s.frontier.Remove(href)
		default:
			panic(fmt.Sprintf("crawler: unknown reason %T", d.Reason))
		}
		return
	}

	s.runCount++
	s.visitedPages.Add(href)
	s.frontier.Remove(href)

	switch r := d.Reason.(type) {
	case RouteReason:
		s.visitedRoutes.Add(r.Route)
	case VerbatimReason:
	case PageLimitReason:
		panic("crawler: page limit reason cannot accept a page")
	default:
		panic(fmt.Sprintf("crawler: unknown reason %T", d.Reason))
	}
}

// Next returns the oldest pending address.
func (s *Session) Next() (string, bool) {
	return s.frontier.Next()
}

// Enqueue filters discovered links and adds the survivors to the frontier.
// It returns how many new addresses were queued.
func (s *Session) Enqueue(links []string) int {
	added := 0
	for _, link := range FilterLinks(links, s.visitedPages, s.opts) {
		if s.frontier.Add(link) {
			added++
		}
	}
	return added
}

// RunCount is the number of pages accepted so far.
func (s *Session) RunCount() int { return s.runCount }

// Options returns the effective options of the run.
func (s *Session) Options() domain.CrawlOptions { return s.opts }

// Snapshot builds the terminal run state.
func (s *Session) Snapshot() domain.RunState {
	var routes []string
	if s.manifest != nil {
		routes = append([]string{}, s.manifest...)
	}
	return domain.RunState{
		Entry:         s.entry,
		Options:       s.opts,
		RunCount:      s.runCount,
		Routes:        routes,
		PagesVisited:  s.visitedPages.Items(),
		RoutesVisited: s.visitedRoutes.Items(),
		ToVisit:       s.frontier.Items(),
	}
}

func pathOf(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return u.EscapedPath(), true
}
