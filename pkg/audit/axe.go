package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/pkg/render"
)

// runAxeJS runs axe against the whole document and keeps only what the
// report needs from each node: its target selectors.
const runAxeJS = `() => axe.run(document).then(r => {
	const slim = rules => rules.map(rule => ({
		id: rule.id,
		impact: rule.impact || "",
		description: rule.description,
		help: rule.help,
		helpUrl: rule.helpUrl,
		tags: rule.tags,
		nodes: rule.nodes.map(n => ({
			target: n.target.map(t => Array.isArray(t) ? t.join(" >>> ") : String(t))
		}))
	}));
	return {
		violations: slim(r.violations),
		passes: slim(r.passes),
		incomplete: slim(r.incomplete),
		inapplicable: slim(r.inapplicable)
	};
})`

// Axe injects axe-core into a scriptable page and runs it there.
type Axe struct {
	inject string
}

// NewAxe reads the axe-core bundle from path.
func NewAxe(path string) (*Axe, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("audit: axe script path is required")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audit: read axe script: %w", err)
	}
	return newAxeFromSource(string(src))
}

func newAxeFromSource(src string) (*Axe, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("audit: axe script is empty")
	}
	literal, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("audit: encode axe script: %w", err)
	}
	inject := `() => {
	if (typeof window.axe === "undefined") {
		const s = document.createElement("script");
		s.textContent = ` + string(literal) + `;
		(document.head || document.documentElement).appendChild(s);
	}
	return typeof window.axe;
}`
	return &Axe{inject: inject}, nil
}

func (a *Axe) Analyze(ctx context.Context, page render.Page) (domain.AnalysisResult, error) {
	sp, ok := page.(render.ScriptPage)
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("axe: %w", render.ErrScriptUnsupported)
	}

	kind, err := sp.Eval(ctx, a.inject)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("axe: inject: %w", err)
	}
	if strings.Trim(string(kind), `"`) != "object" {
		return domain.AnalysisResult{}, fmt.Errorf("axe: script did not load on %s", page.URL())
	}

	raw, err := sp.Eval(ctx, runAxeJS)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("axe: run: %w", err)
	}

	var res domain.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("axe: decode results: %w", err)
	}
	return res.Normalize(), nil
}
