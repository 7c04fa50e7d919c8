package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/pkg/render"
)

const helpBase = "https://dequeuniversity.com/rules/axe/4.10/"

type staticRule struct {
	id          string
	impact      string
	description string
	help        string
	tags        []string
	// check returns the elements the rule applies to, split by outcome.
	check func(doc *goquery.Document) (pass, fail []*goquery.Selection)
}

var staticRules = []staticRule{
	{
		id:          "html-has-lang",
		impact:      "serious",
		description: "Ensure every HTML document has a lang attribute",
		help:        "<html> element must have a lang attribute",
		tags:        []string{"cat.language", "wcag2a", "wcag311"},
		check: func(doc *goquery.Document) (pass, fail []*goquery.Selection) {
			html := doc.Find("html").First()
			if html.Length() == 0 {
				return nil, nil
			}
			if strings.TrimSpace(html.AttrOr("lang", "")) != "" {
				return []*goquery.Selection{html}, nil
			}
			return nil, []*goquery.Selection{html}
		},
	},
	{
		id:          "document-title",
		impact:      "serious",
		description: "Ensure each HTML document contains a non-empty <title> element",
		help:        "Documents must have <title> element to aid in navigation",
		tags:        []string{"cat.text-alternatives", "wcag2a", "wcag242"},
		check: func(doc *goquery.Document) (pass, fail []*goquery.Selection) {
			html := doc.Find("html").First()
			if html.Length() == 0 {
				return nil, nil
			}
			if strings.TrimSpace(doc.Find("title").First().Text()) != "" {
				return []*goquery.Selection{html}, nil
			}
			return nil, []*goquery.Selection{html}
		},
	},
	{
		id:          "image-alt",
		impact:      "critical",
		description: "Ensure <img> elements have alternative text or a role of none or presentation",
		help:        "Images must have alternative text",
		tags:        []string{"cat.text-alternatives", "wcag2a", "wcag111"},
		check: func(doc *goquery.Document) (pass, fail []*goquery.Selection) {
			doc.Find("img").Each(func(_ int, s *goquery.Selection) {
				_, hasAlt := s.Attr("alt")
				if hasAlt || isPresentational(s) || ariaLabelled(s) {
					pass = append(pass, s)
					return
				}
				fail = append(fail, s)
			})
			return pass, fail
		},
	},
	{
		id:          "link-name",
		impact:      "serious",
		description: "Ensure links have discernible text",
		help:        "Links must have discernible text",
		tags:        []string{"cat.name-role-value", "wcag2a", "wcag244", "wcag412"},
		check: func(doc *goquery.Document) (pass, fail []*goquery.Selection) {
			doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
				if hasAccessibleName(s) {
					pass = append(pass, s)
					return
				}
				fail = append(fail, s)
			})
			return pass, fail
		},
	},
	{
		id:          "button-name",
		impact:      "critical",
		description: "Ensure buttons have discernible text",
		help:        "Buttons must have discernible text",
		tags:        []string{"cat.name-role-value", "wcag2a", "wcag412"},
		check: func(doc *goquery.Document) (pass, fail []*goquery.Selection) {
			doc.Find(`button, input[type="button"], input[type="submit"], input[type="reset"]`).Each(func(_ int, s *goquery.Selection) {
				named := hasAccessibleName(s)
				if !named && goquery.NodeName(s) == "input" {
					// submit and reset buttons get a default label from the browser
					t := strings.ToLower(s.AttrOr("type", ""))
					_, hasValue := s.Attr("value")
					named = strings.TrimSpace(s.AttrOr("value", "")) != "" || (!hasValue && t != "button")
				}
				if named {
					pass = append(pass, s)
					return
				}
				fail = append(fail, s)
			})
			return pass, fail
		},
	},
}

// Static checks a handful of axe rules against the served HTML. It needs no
// script support, so it pairs with the http renderer.
type Static struct{}

// NewStatic returns the static rule set.
func NewStatic() *Static { return &Static{} }

func (Static) Analyze(ctx context.Context, page render.Page) (domain.AnalysisResult, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("static: read html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("static: parse html: %w", err)
	}

	res := domain.EmptyAnalysis()
	for _, rule := range staticRules {
		pass, fail := rule.check(doc)
		switch {
		case len(fail) > 0:
			res.Violations = append(res.Violations, rule.result(fail))
		case len(pass) > 0:
			res.Passes = append(res.Passes, rule.result(pass))
		default:
			res.Inapplicable = append(res.Inapplicable, rule.result(nil))
		}
	}
	return res, nil
}

func (r staticRule) result(nodes []*goquery.Selection) domain.RuleResult {
	out := domain.RuleResult{
		ID:          r.id,
		Impact:      r.impact,
		Description: r.description,
		Help:        r.help,
		HelpURL:     helpBase + r.id,
		Tags:        append([]string(nil), r.tags...),
		Nodes:       make([]domain.NodeResult, 0, len(nodes)),
	}
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, domain.NodeResult{Target: []string{cssPath(n)}})
	}
	return out
}

func isPresentational(s *goquery.Selection) bool {
	role := strings.ToLower(strings.TrimSpace(s.AttrOr("role", "")))
	return role == "presentation" || role == "none"
}

func ariaLabelled(s *goquery.Selection) bool {
	if strings.TrimSpace(s.AttrOr("aria-label", "")) != "" {
		return true
	}
	return strings.TrimSpace(s.AttrOr("aria-labelledby", "")) != ""
}

func hasAccessibleName(s *goquery.Selection) bool {
	if ariaLabelled(s) || strings.TrimSpace(s.AttrOr("title", "")) != "" {
		return true
	}
	if strings.TrimSpace(s.Text()) != "" {
		return true
	}
	named := false
	s.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		named = strings.TrimSpace(img.AttrOr("alt", "")) != ""
		return !named
	})
	return named
}

// cssPath builds a selector for s, anchored at the nearest ancestor with an id.
func cssPath(s *goquery.Selection) string {
	var parts []string
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		name := goquery.NodeName(cur)
		if name == "" || strings.HasPrefix(name, "#") {
			break
		}
		if id := strings.TrimSpace(cur.AttrOr("id", "")); id != "" && !strings.ContainsAny(id, " \t") {
			parts = append(parts, "#"+id)
			break
		}
		if name == "html" || name == "head" || name == "body" {
			parts = append(parts, name)
			continue
		}
		if cur.Siblings().Filter(name).Length() > 0 {
			name = fmt.Sprintf("%s:nth-child(%d)", name, cur.Index()+1)
		}
		parts = append(parts, name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
