package crawler

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

func TestDecideIsPure(t *testing.T) {
	sess, err := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 1}, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	first := sess.Decide("https://x.test/")
	second := sess.Decide("https://x.test/")
	if first != second {
		t.Fatalf("decisions differ: %v vs %v", first, second)
	}
	if !first.ShouldProcess {
		t.Fatalf("expected entry to be processed")
	}
	if sess.RunCount() != 0 || len(sess.Snapshot().PagesVisited) != 0 {
		t.Fatalf("Decide changed state")
	}
}

func TestDecideVerbatimDedup(t *testing.T) {
	sess, _ := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 10}, nil)
	href := "https://x.test/"
	d := sess.Decide(href)
	sess.Apply(href, d)

	again := sess.Decide(href)
	if again.ShouldProcess {
		t.Fatalf("visited page should be rejected")
	}
	if r, ok := again.Reason.(VerbatimReason); !ok || r.Href != href {
		t.Fatalf("unexpected reason %#v", again.Reason)
	}
}

func TestDecideRouteDedup(t *testing.T) {
	sess, err := NewSession("https://x.test/users/1", domain.CrawlOptions{PageLimit: 10}, []string{"/users/:id"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	d := sess.Decide("https://x.test/users/1")
	if r, ok := d.Reason.(RouteReason); !ok || r.Route != "/users/:id" || !d.ShouldProcess {
		t.Fatalf("unexpected decision %v", d)
	}
	sess.Apply("https://x.test/users/1", d)

	other := sess.Decide("https://x.test/users/2")
	if other.ShouldProcess {
		t.Fatalf("second page of the same route should be rejected")
	}

	// unmatched paths fall back to verbatim
	about := sess.Decide("https://x.test/about")
	if _, ok := about.Reason.(VerbatimReason); !ok || !about.ShouldProcess {
		t.Fatalf("unexpected decision %v", about)
	}
}

func TestPageLimitTakesPrecedence(t *testing.T) {
	sess, _ := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 1}, nil)
	sess.Apply("https://x.test/", sess.Decide("https://x.test/"))
	sess.Enqueue([]string{"https://x.test/a", "https://x.test/b"})

	d := sess.Decide("https://x.test/a")
	if _, ok := d.Reason.(PageLimitReason); !ok || d.ShouldProcess {
		t.Fatalf("expected page limit decision, got %v", d)
	}
	sess.Apply("https://x.test/a", d)

	state := sess.Snapshot()
	if !reflect.DeepEqual(state.ToVisit, []string{"https://x.test/b"}) {
		t.Fatalf("rejected page must leave the frontier and the rest stay, toVisit=%v", state.ToVisit)
	}
	if state.RunCount != 1 {
		t.Fatalf("runCount=%d", state.RunCount)
	}
}

func TestApplyRejectionRemovesFromFrontier(t *testing.T) {
	sess, _ := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 10}, nil)
	sess.Apply("https://x.test/", sess.Decide("https://x.test/"))
	sess.frontier.Add("https://x.test/")

	d := sess.Decide("https://x.test/")
	sess.Apply("https://x.test/", d)
	if _, ok := sess.Next(); ok {
		t.Fatalf("rejected page should leave the frontier")
	}
}

func TestNewSessionRejectsBadManifest(t *testing.T) {
	_, err := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 10}, []string{"/a/*/b"})
	if !errors.Is(err, ErrManifest) {
		t.Fatalf("expected ErrManifest, got %v", err)
	}
}

func TestSnapshotRoutes(t *testing.T) {
	sess, _ := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 10}, nil)
	if sess.Snapshot().Routes != nil {
		t.Fatalf("routes should be absent without a manifest")
	}
	sess, _ = NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 10}, []string{})
	if routes := sess.Snapshot().Routes; routes == nil || len(routes) != 0 {
		t.Fatalf("routes should be an empty list for an empty manifest, got %#v", routes)
	}
}

func TestRestore(t *testing.T) {
	sess, _ := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 10}, nil)
	sess.Restore(domain.RunState{
		RunCount:      9,
		PagesVisited:  []string{"https://x.test/"},
		RoutesVisited: []string{"/users/:id"},
		ToVisit:       []string{"https://x.test/b", "https://x.test/c"},
	})
	next, ok := sess.Next()
	if !ok || next != "https://x.test/b" {
		t.Fatalf("next=%q", next)
	}
	if sess.Decide("https://x.test/").ShouldProcess {
		t.Fatalf("restored page should count as visited")
	}
	if sess.RunCount() != 0 {
		t.Fatalf("run counter should start fresh")
	}

	empty, _ := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 10}, nil)
	empty.Restore(domain.RunState{PagesVisited: []string{"https://x.test/a"}})
	if next, _ := empty.Next(); next != "https://x.test/" {
		t.Fatalf("expected entry when toVisit is empty, got %q", next)
	}
}

func TestDecisionString(t *testing.T) {
	d := Decision{ShouldProcess: false, Reason: RouteReason{Route: "/users/:id"}}
	if !strings.Contains(d.String(), "Route(/users/:id)") {
		t.Fatalf("unexpected string %q", d.String())
	}
}

func TestZeroPageLimitRejectsEntry(t *testing.T) {
	sess, _ := NewSession("https://x.test/", domain.CrawlOptions{PageLimit: 0}, nil)

	d := sess.Decide("https://x.test/")
	if _, ok := d.Reason.(PageLimitReason); !ok || d.ShouldProcess {
		t.Fatalf("expected page limit decision for the entry, got %v", d)
	}
	sess.Apply("https://x.test/", d)
	if sess.RunCount() != 0 || len(sess.Snapshot().PagesVisited) != 0 {
		t.Fatalf("nothing may be processed with a zero limit")
	}
}
