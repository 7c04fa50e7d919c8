// Package report persists crawl output and renders it for people: JSON
// report and state files, text and Markdown views, and the NDJSON event
// stream used by --streaming.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

// NewRunID derives a run id from the wall clock, in Unix milliseconds.
func NewRunID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// ReportPath is where the results of runID are written.
func ReportPath(dir, runID string) string {
	return filepath.Join(dir, "report-"+runID+".json")
}

// StatePath is where the terminal state of runID is written.
func StatePath(dir, runID string) string {
	return filepath.Join(dir, "state-"+runID+".json")
}

// WriteReport writes results as a JSON array and returns the file path.
func WriteReport(dir, runID string, results []domain.PageResult) (string, error) {
	if results == nil {
		results = []domain.PageResult{}
	}
	path := ReportPath(dir, runID)
	if err := writeJSON(path, results); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// WriteState writes the run state and returns the file path.
func WriteState(dir, runID string, state domain.RunState) (string, error) {
	path := StatePath(dir, runID)
	if err := writeJSON(path, state); err != nil {
		return "", fmt.Errorf("write state: %w", err)
	}
	return path, nil
}

// ReadReport loads a report file.
func ReadReport(path string) ([]domain.PageResult, error) {
	var results []domain.PageResult
	if err := readJSON(path, &results); err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	for i := range results {
		results[i].AnalysisResult = results[i].AnalysisResult.Normalize()
	}
	return results, nil
}

// ReadState loads a state file for resuming a run.
func ReadState(path string) (domain.RunState, error) {
	var state domain.RunState
	if err := readJSON(path, &state); err != nil {
		return domain.RunState{}, fmt.Errorf("read state: %w", err)
	}
	if state.Entry == "" {
		return domain.RunState{}, fmt.Errorf("read state: %s has no entry", path)
	}
	return state, nil
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
