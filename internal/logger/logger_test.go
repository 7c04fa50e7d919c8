package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/samvad-hq/accessible-pipeline/internal/config"
)

func TestZapLoggerWritesObjectField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.InfoObj("visit decision", "decision", map[string]any{"url": "https://site.test/"})
	log.WarnObj("crawl cancelled", "error", "context canceled")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "visit decision" || entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("unexpected first entry %+v", entries[0].Entry)
	}
	fields := entries[0].ContextMap()
	decision, ok := fields["decision"].(map[string]any)
	if !ok || decision["url"] != "https://site.test/" {
		t.Fatalf("unexpected decision field %#v", fields["decision"])
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", entries[1].Level)
	}
}

func TestNamedKeepsWriting(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := New(zap.New(core)).Named("crawler")

	log.ErrorObj("renderer close failed", "error", "boom")
	log.DebugObj("dropped", "k", 1)

	if logs.Len() != 1 {
		t.Fatalf("expected only the error entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["module"]; got != "crawler" {
		t.Fatalf("expected module field crawler, got %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestEnsureAndPackageHelpers(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil")
	}

	prev := S
	t.Cleanup(func() { S = prev })

	S = nil
	InfoObj("ignored before init", "k", 1)

	core, logs := observer.New(zapcore.InfoLevel)
	S = zap.New(core).Sugar()
	InfoObj("pipeline starting", "config", &config.Config{AppName: config.AppName})
	if logs.Len() != 1 {
		t.Fatalf("expected one entry after init, got %d", logs.Len())
	}
}
