package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

// WriteMarkdown renders a report as GitHub flavored Markdown.
func WriteMarkdown(w io.Writer, results []domain.PageResult) error {
	md := markdown.NewMarkdown(w)
	sum := Summarize(results)

	md.H1("Accessibility Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Pages", "Passed", "Failed", "Violations", "Errored"},
		Rows: [][]string{{
			strconv.Itoa(sum.Pages),
			strconv.Itoa(sum.Passed),
			strconv.Itoa(sum.Failed),
			strconv.Itoa(sum.Violations),
			strconv.Itoa(sum.Errored),
		}},
	})
	md.PlainText("")

	switch {
	case sum.Failed > 0:
		md.Cautionf("%d of %d page(s) have accessibility violations.", sum.Failed, sum.Pages)
	case sum.Errored > 0:
		md.Warningf("%d page(s) could not be processed.", sum.Errored)
	default:
		md.Tip("No accessibility violations found.")
	}
	md.PlainText("")

	for _, r := range results {
		status := "PASS"
		if r.HasViolations() {
			status = "FAIL"
		}
		md.H2(fmt.Sprintf("%s %s", status, r.URL))
		md.PlainText("")
		md.BulletList(
			"Violations: "+strconv.Itoa(len(r.Violations)),
			"Passes: "+strconv.Itoa(len(r.Passes)),
			"Incomplete: "+strconv.Itoa(len(r.Incomplete)),
		)
		md.PlainText("")

		if !r.HasViolations() {
			continue
		}
		rows := make([][]string, 0, len(r.Violations))
		for _, v := range r.Violations {
			rows = append(rows, []string{
				v.ID,
				v.Impact,
				escapeCell(v.Help),
				v.HelpURL,
				escapeCell(joinTargets(v.Nodes)),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Rule", "Impact", "Help", "Learn more", "Nodes"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return md.Build()
}

func joinTargets(nodes []domain.NodeResult) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, "`"+strings.Join(n.Target, " ")+"`")
	}
	return strings.Join(parts, "<br>")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
