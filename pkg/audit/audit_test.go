package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/pkg/render"
)

type htmlPage struct {
	html string
}

func (p htmlPage) Navigate(context.Context, string) error { return nil }
func (p htmlPage) HTML(context.Context) (string, error)   { return p.html, nil }
func (p htmlPage) URL() string                            { return "https://site.test/" }
func (p htmlPage) Close() error                           { return nil }

type scriptPage struct {
	htmlPage
	calls   []string
	results [][]byte
}

func (p *scriptPage) Eval(_ context.Context, js string) ([]byte, error) {
	p.calls = append(p.calls, js)
	if len(p.results) == 0 {
		return nil, errors.New("no result queued")
	}
	out := p.results[0]
	p.results = p.results[1:]
	return out, nil
}

func ruleIDs(rules []domain.RuleResult) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

func findRule(rules []domain.RuleResult, id string) *domain.RuleResult {
	for i := range rules {
		if rules[i].ID == id {
			return &rules[i]
		}
	}
	return nil
}

func TestStaticFlagsViolations(t *testing.T) {
	page := htmlPage{html: `<html><head></head><body>
		<div id="main">
			<img src="a.png">
			<img src="b.png" alt="">
			<a href="/x"></a>
			<a href="/y">ok</a>
			<button></button>
		</div>
	</body></html>`}

	res, err := NewStatic().Analyze(context.Background(), page)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	got := strings.Join(ruleIDs(res.Violations), ",")
	if got != "html-has-lang,document-title,image-alt,link-name,button-name" {
		t.Fatalf("violations=%s", got)
	}

	img := findRule(res.Violations, "image-alt")
	if len(img.Nodes) != 1 || img.Nodes[0].Target[0] != "#main > img:nth-child(1)" {
		t.Fatalf("image-alt nodes=%+v", img.Nodes)
	}
	if img.HelpURL != helpBase+"image-alt" || img.Impact != "critical" {
		t.Fatalf("unexpected metadata %+v", img)
	}
	link := findRule(res.Violations, "link-name")
	if len(link.Nodes) != 1 || link.Nodes[0].Target[0] != "#main > a:nth-child(3)" {
		t.Fatalf("link-name nodes=%+v", link.Nodes)
	}
	if lang := findRule(res.Violations, "html-has-lang"); lang.Nodes[0].Target[0] != "html" {
		t.Fatalf("html-has-lang target=%v", lang.Nodes[0].Target)
	}
}

func TestStaticCleanPage(t *testing.T) {
	page := htmlPage{html: `<html lang="en"><head><title>Home</title></head><body>
		<a href="/"><img src="logo.png" alt="Home"></a>
		<input type="submit">
		<button aria-label="Close">x</button>
	</body></html>`}

	res, err := NewStatic().Analyze(context.Background(), page)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations %v", ruleIDs(res.Violations))
	}
	if len(res.Passes) != 5 {
		t.Fatalf("passes=%v", ruleIDs(res.Passes))
	}
	if res.Incomplete == nil || res.Inapplicable == nil {
		t.Fatalf("lists must be non-nil")
	}
}

func TestStaticInapplicable(t *testing.T) {
	res, err := NewStatic().Analyze(context.Background(), htmlPage{html: `<html lang="en"><title>t</title><p>text</p></html>`})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	got := strings.Join(ruleIDs(res.Inapplicable), ",")
	if got != "image-alt,link-name,button-name" {
		t.Fatalf("inapplicable=%s", got)
	}
}

func TestAxeRequiresScriptPage(t *testing.T) {
	axe, err := newAxeFromSource("window.axe = {};")
	if err != nil {
		t.Fatalf("newAxeFromSource: %v", err)
	}
	_, err = axe.Analyze(context.Background(), htmlPage{})
	if !errors.Is(err, render.ErrScriptUnsupported) {
		t.Fatalf("expected ErrScriptUnsupported, got %v", err)
	}
}

func TestAxeDecodesResults(t *testing.T) {
	axe, err := newAxeFromSource(`window.axe = {run: () => "</script>"};`)
	if err != nil {
		t.Fatalf("newAxeFromSource: %v", err)
	}
	page := &scriptPage{results: [][]byte{
		[]byte(`"object"`),
		[]byte(`{"violations":[{"id":"color-contrast","impact":"serious","description":"d","help":"h","helpUrl":"u","nodes":[{"target":["#a"]}]}],"passes":[]}`),
	}}

	res, err := axe.Analyze(context.Background(), page)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Nodes[0].Target[0] != "#a" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Incomplete == nil || res.Inapplicable == nil {
		t.Fatalf("missing lists should be normalized")
	}
	if len(page.calls) != 2 || strings.Contains(page.calls[0], `</script>`) {
		t.Fatalf("script should be injected as an escaped literal: %q", page.calls[0])
	}
}

func TestAxeScriptNotLoaded(t *testing.T) {
	axe, _ := newAxeFromSource("x")
	page := &scriptPage{results: [][]byte{[]byte(`"undefined"`)}}
	if _, err := axe.Analyze(context.Background(), page); err == nil {
		t.Fatalf("expected error when axe is missing")
	}
}

func TestNewFactory(t *testing.T) {
	if a, err := New("static", Options{}); err != nil || a == nil {
		t.Fatalf("static: %v", err)
	}
	if _, err := New("axe", Options{}); err == nil {
		t.Fatalf("axe without a script should fail")
	}
	path := filepath.Join(t.TempDir(), "axe.min.js")
	if err := os.WriteFile(path, []byte("window.axe = {};"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New("AXE", Options{AxeScriptPath: path}); err != nil {
		t.Fatalf("axe: %v", err)
	}
	if _, err := New("lighthouse", Options{}); err == nil {
		t.Fatalf("unknown auditor should fail")
	}
}
