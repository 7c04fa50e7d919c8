package crawler

import (
	"context"
	"net/url"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/pkg/render"
)

// Renderer opens the single browser (or client) session of a run.
type Renderer = render.Renderer

// Auditor runs the accessibility analysis on a loaded page.
type Auditor interface {
	Analyze(ctx context.Context, page render.Page) (domain.AnalysisResult, error)
}

// LinkExtractor returns absolute same-origin addresses linked from html.
type LinkExtractor interface {
	Extract(html string, base *url.URL) ([]string, error)
}

// ManifestLoader reads a route manifest.
type ManifestLoader func(path string) ([]string, error)
