package app

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/internal/storage"
)

func TestWriteHistoryTable(t *testing.T) {
	runs := []storage.RunRecord{
		{
			ID:         "1700000000002",
			Entry:      "https://site.test/",
			StartedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Pages:      3,
			Violations: 4,
			State:      domain.RunState{ToVisit: []string{"https://site.test/x"}},
		},
		{ID: "1700000000001", Entry: "https://other.test/", Pages: 1},
	}

	var out bytes.Buffer
	if err := writeHistory(&out, runs); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}
	text := out.String()
	for _, want := range []string{"1700000000002", "1700000000001", "https://site.test/", "VIOLATIONS"} {
		if !strings.Contains(strings.ToUpper(text), strings.ToUpper(want)) {
			t.Fatalf("history table missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "1700000000002") > strings.Index(text, "1700000000001") {
		t.Fatalf("runs must keep the newest-first order:\n%s", text)
	}
}

func TestWriteHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := writeHistory(&out, nil); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}
	if strings.TrimSpace(out.String()) != "no runs recorded" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
