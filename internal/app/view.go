package app

import (
	"fmt"
	"io"
	"os"

	"github.com/samvad-hq/accessible-pipeline/internal/report"
)

// ViewFormat selects how a saved report is rendered.
type ViewFormat string

const (
	ViewText     ViewFormat = "text"
	ViewMarkdown ViewFormat = "markdown"
)

// ViewReport renders a report file written by a previous run.
func ViewReport(w io.Writer, path string, format ViewFormat) error {
	results, err := report.ReadReport(path)
	if err != nil {
		return err
	}
	switch format {
	case ViewMarkdown:
		return report.WriteMarkdown(w, results)
	case ViewText, "":
		return report.WriteText(w, &report.View{Results: results})
	default:
		return fmt.Errorf("unknown view format %q", format)
	}
}

// ViewStream follows an NDJSON event stream, such as the stdout of a
// streaming run piped in, and prints the final view once the stream ends.
// When live is set every update is printed as it arrives.
func ViewStream(w io.Writer, r io.Reader, live bool) error {
	if r == nil {
		r = os.Stdin
	}
	var onUpdate func(*report.View)
	if live {
		seen := 0
		onUpdate = func(v *report.View) {
			for ; seen < len(v.Results); seen++ {
				fmt.Fprintf(w, "checked %s\n", v.Results[seen].URL)
			}
		}
	}
	view, err := report.ReadStream(r, onUpdate)
	if err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return report.WriteText(w, view)
}
