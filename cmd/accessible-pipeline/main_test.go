package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/samvad-hq/accessible-pipeline/internal/config"
	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/internal/report"
)

func init() {
	color.NoColor = true
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRunCmdFlags(t *testing.T) {
	cmd := NewRunCmd()
	for _, name := range []string{
		"pageLimit", "maxRetries", "routeManifestPath", "ignoreFragmentLinks",
		"ignoreExtensions", "requestDelay", "streaming", "ci", "resume",
		"renderer", "auditor", "axeScript", "chromeArg", "outDir", "publishers",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("expected --%s flag", name)
		}
	}
	if got := cmd.Flags().Lookup("pageLimit").DefValue; got != "20" {
		t.Fatalf("expected pageLimit default 20, got %s", got)
	}
}

func TestRootHasSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"run", "view", "history"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("expected %s subcommand, got %v", name, err)
		}
	}
}

func TestRunRejectsConflictingModes(t *testing.T) {
	t.Setenv("A11Y_STORAGE_TYPE", "none")
	_, err := execute(t, "", "run", "--streaming", "--ci", "https://example.com")
	if !errors.Is(err, config.ErrConflictingModes) {
		t.Fatalf("expected ErrConflictingModes, got %v", err)
	}
}

func TestRunRequiresURLOrResume(t *testing.T) {
	if _, err := execute(t, "", "run"); err == nil {
		t.Fatalf("expected error without url or --resume")
	}
}

func TestRunAgainstStaticSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!doctype html><html lang="en"><head><title>home</title></head><body><p>hello</p></body></html>`)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("A11Y_STORAGE_TYPE", "none")
	outDir := t.TempDir()
	out, err := execute(t, "", "run",
		"--renderer", "http",
		"--auditor", "static",
		"--ci",
		"--outDir", outDir,
		srv.URL,
	)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "PASS "+srv.URL+"/") {
		t.Fatalf("expected passing page in output, got %q", out)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "report-*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one report file, got %v (%v)", matches, err)
	}
	if states, _ := filepath.Glob(filepath.Join(outDir, "state-*.json")); len(states) != 1 {
		t.Fatalf("expected one state file, got %v", states)
	}
}

func TestViewFile(t *testing.T) {
	dir := t.TempDir()
	path, err := report.WriteReport(dir, "42", []domain.PageResult{{
		URL:            "https://site.test/",
		AnalysisResult: domain.EmptyAnalysis(),
	}})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	out, err := execute(t, "", "view", "--file", path)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(out, "PASS https://site.test/") {
		t.Fatalf("unexpected view output %q", out)
	}

	out, err = execute(t, "", "view", "--file", path, "--markdown")
	if err != nil {
		t.Fatalf("view --markdown: %v", err)
	}
	if !strings.Contains(out, "# Accessibility Report") {
		t.Fatalf("unexpected markdown output %q", out)
	}
}

func TestViewStreamingFromStdin(t *testing.T) {
	var stream bytes.Buffer
	w := report.NewStreamWriter(&stream)
	_ = w.Write(domain.InProgressEvent("https://site.test/"))
	_ = w.Write(domain.ResultsEvent(domain.PageResult{URL: "https://site.test/", AnalysisResult: domain.EmptyAnalysis()}))
	_ = w.Write(domain.InfoEvent("wrote report file to report-1.json"))

	out, err := execute(t, stream.String(), "view", "--streaming")
	if err != nil {
		t.Fatalf("view --streaming: %v", err)
	}
	if !strings.Contains(out, "PASS https://site.test/") || !strings.Contains(out, "wrote report file to report-1.json") {
		t.Fatalf("unexpected streaming view %q", out)
	}
}

func TestViewNeedsExactlyOneSource(t *testing.T) {
	if _, err := execute(t, "", "view"); err == nil {
		t.Fatalf("expected error without --file or --streaming")
	}
	if _, err := execute(t, "", "view", "--file", "x.json", "--streaming"); err == nil {
		t.Fatalf("expected error for --file with --streaming")
	}
}

func TestHistoryEmpty(t *testing.T) {
	t.Setenv("A11Y_STORAGE_TYPE", "bbolt")
	t.Setenv("A11Y_BBOLT_PATH", filepath.Join(t.TempDir(), "runs.db"))

	out, err := execute(t, "", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "no runs recorded") {
		t.Fatalf("unexpected history output %q", out)
	}
}
