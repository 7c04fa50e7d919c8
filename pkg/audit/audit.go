// Package audit runs accessibility checks on loaded pages and reports them in
// the axe-core result shape.
package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/pkg/render"
)

const (
	KindAxe    = "axe"
	KindStatic = "static"
)

// Auditor analyzes one page that has already been navigated.
type Auditor interface {
	Analyze(ctx context.Context, page render.Page) (domain.AnalysisResult, error)
}

// Options configures New.
type Options struct {
	// AxeScriptPath points at axe.min.js; required for the axe auditor.
	AxeScriptPath string
}

// New builds an auditor by kind.
func New(kind string, opts Options) (Auditor, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindAxe:
		return NewAxe(opts.AxeScriptPath)
	case KindStatic, "":
		return NewStatic(), nil
	default:
		return nil, fmt.Errorf("audit: unknown auditor %q", kind)
	}
}
