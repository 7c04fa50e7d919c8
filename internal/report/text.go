package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

var (
	failBadge = color.New(color.BgRed, color.FgBlack)
	passBadge = color.New(color.BgGreen, color.FgBlack)
	runBadge  = color.New(color.BgYellow, color.FgBlack)
	red       = color.New(color.FgRed)
	green     = color.New(color.FgGreen)
	blue      = color.New(color.FgBlue)
	dim       = color.New(color.Faint)
	bold      = color.New(color.Bold)
)

// Summary counts pages by outcome.
type Summary struct {
	Pages      int
	Passed     int
	Failed     int
	Violations int
	Errored    int
}

// Summarize counts pages without violations, pages with violations and
// pages whose processing failed.
func Summarize(results []domain.PageResult) Summary {
	var s Summary
	for _, r := range results {
		s.Pages++
		if r.Failed {
			s.Errored++
		}
		if r.HasViolations() {
			s.Failed++
			s.Violations += len(r.Violations)
		} else {
			s.Passed++
		}
	}
	return s
}

// WriteText renders the view for a terminal.
func WriteText(w io.Writer, v *View) error {
	var b strings.Builder

	for _, r := range v.Results {
		writeResult(&b, r)
		b.WriteString("\n")
	}

	for _, href := range v.InProgress {
		fmt.Fprintf(&b, "%s %s\n", runBadge.Sprint("RUN"), href)
	}

	sum := Summarize(v.Results)
	fmt.Fprintf(&b, "Pages: %s, %d of %d total\n",
		green.Sprintf("%d had no violations", sum.Passed), sum.Passed, sum.Pages+len(v.InProgress))
	if sum.Errored > 0 {
		fmt.Fprintf(&b, "%s\n", red.Sprintf("%d could not be processed", sum.Errored))
	}

	for _, note := range v.Info {
		fmt.Fprintf(&b, "\n%s\n", blue.Sprint(note))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResult(b *strings.Builder, r domain.PageResult) {
	badge := passBadge.Sprint("PASS")
	if r.HasViolations() {
		badge = failBadge.Sprint("FAIL")
	}
	fmt.Fprintf(b, "%s %s\n", badge, bold.Sprint(r.URL))
	if r.Failed {
		fmt.Fprintf(b, "%s\n", red.Sprintf("Page could not be processed after %d attempts", r.Attempts))
	}

	if r.HasViolations() {
		fmt.Fprintf(b, "%s\n", red.Sprintf("Violations: %d", len(r.Violations)))
		for _, v := range r.Violations {
			fmt.Fprintf(b, " - %s\n", v.Description)
			fmt.Fprintf(b, "   %s\n", v.Help)
			fmt.Fprintf(b, "   Learn more: %s\n", v.HelpURL)
			b.WriteString("   Nodes:\n")
			for _, n := range v.Nodes {
				fmt.Fprintf(b, "     %s\n", dim.Sprint(strings.Join(n.Target, " ")))
			}
		}
	}

	fmt.Fprintf(b, "%s\n", green.Sprintf("Passes: %d", len(r.Passes)))
	fmt.Fprintf(b, "%s\n", blue.Sprintf("Incomplete: %d", len(r.Incomplete)))
}
