package domain

import (
	"time"
)

// Domain contains core models shared by the crawler, reporters and sinks.

// DefaultMaxRetries is the number of attempts made for a page when the caller does not say otherwise.
const DefaultMaxRetries = 5

// CrawlOptions controls which pages a run visits and how hard it tries.
type CrawlOptions struct {
	PageLimit           int           `json:"pageLimit" yaml:"page_limit"`
	MaxRetries          int           `json:"maxRetries" yaml:"max_retries"`
	IgnoreFragmentLinks bool          `json:"ignoreFragmentLinks" yaml:"ignore_fragment_links"`
	IgnoreExtensions    []string      `json:"ignoreExtensions,omitempty" yaml:"ignore_extensions"`
	RouteManifestPath   string        `json:"routeManifestPath,omitempty" yaml:"route_manifest_path"`
	RequestDelay        time.Duration `json:"-" yaml:"-"`
	RequestDelayMs      int64         `json:"requestDelayMs,omitempty" yaml:"request_delay_ms"`
}

// WithDefaults returns a copy of the options with unset fields filled in.
func (o CrawlOptions) WithDefaults() CrawlOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RequestDelay <= 0 && o.RequestDelayMs > 0 {
		o.RequestDelay = time.Duration(o.RequestDelayMs) * time.Millisecond
	}
	if o.RequestDelay > 0 {
		o.RequestDelayMs = o.RequestDelay.Milliseconds()
	}
	if len(o.IgnoreExtensions) > 0 {
		o.IgnoreExtensions = append([]string(nil), o.IgnoreExtensions...)
	}
	return o
}

// NodeResult identifies one element an accessibility rule applied to.
type NodeResult struct {
	Target []string `json:"target"`
}

// RuleResult is the outcome of one accessibility rule on one page.
type RuleResult struct {
	ID          string       `json:"id"`
	Impact      string       `json:"impact,omitempty"`
	Description string       `json:"description"`
	Help        string       `json:"help"`
	HelpURL     string       `json:"helpUrl"`
	Tags        []string     `json:"tags,omitempty"`
	Nodes       []NodeResult `json:"nodes"`
}

// AnalysisResult groups rule outcomes the way axe-core reports them.
type AnalysisResult struct {
	Violations   []RuleResult `json:"violations"`
	Passes       []RuleResult `json:"passes"`
	Incomplete   []RuleResult `json:"incomplete"`
	Inapplicable []RuleResult `json:"inapplicable"`
}

// EmptyAnalysis returns an analysis with every list present but empty.
func EmptyAnalysis() AnalysisResult {
	return AnalysisResult{
		Violations:   []RuleResult{},
		Passes:       []RuleResult{},
		Incomplete:   []RuleResult{},
		Inapplicable: []RuleResult{},
	}
}

// Normalize replaces nil lists with empty ones so reports always carry arrays.
func (a AnalysisResult) Normalize() AnalysisResult {
	if a.Violations == nil {
		a.Violations = []RuleResult{}
	}
	if a.Passes == nil {
		a.Passes = []RuleResult{}
	}
	if a.Incomplete == nil {
		a.Incomplete = []RuleResult{}
	}
	if a.Inapplicable == nil {
		a.Inapplicable = []RuleResult{}
	}
	return a
}

// PageResult is the per-page record carried by a results event.
type PageResult struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Attempts  int       `json:"attempts"`
	Failed    bool      `json:"failed,omitempty"`
	AnalysisResult
}

// HasViolations reports whether any rule failed on the page.
func (p PageResult) HasViolations() bool {
	return len(p.Violations) > 0
}

// RunState is the terminal snapshot of one crawl, enough to audit or resume it.
type RunState struct {
	Entry         string       `json:"entry"`
	Options       CrawlOptions `json:"options"`
	RunCount      int          `json:"runCount"`
	Routes        []string     `json:"routes"`
	PagesVisited  []string     `json:"pagesVisited"`
	RoutesVisited []string     `json:"routesVisited"`
	ToVisit       []string     `json:"toVisit"`
}
