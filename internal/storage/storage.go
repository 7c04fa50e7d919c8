package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

// Package storage keeps a local history of finished crawl runs so a later
// invocation can list them or resume one by id.

// RunRecord is one finished run as stored in the history.
type RunRecord struct {
	ID         string          `json:"id"`
	Entry      string          `json:"entry"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Pages      int             `json:"pages"`
	Violations int             `json:"violations"`
	ReportPath string          `json:"report_path,omitempty"`
	StatePath  string          `json:"state_path,omitempty"`
	State      domain.RunState `json:"state"`
}

// Store persists run records.
type Store interface {
	Close() error
	SaveRun(rec RunRecord) error
	// LoadRun returns the record for id; ok is false when it is unknown or expired.
	LoadRun(id string) (rec RunRecord, ok bool, err error)
	// ListRuns returns up to limit records, newest first. limit <= 0 means all.
	ListRuns(limit int) ([]RunRecord, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	RunTTL          time.Duration
	CleanupInterval time.Duration
}

const (
	defaultRunTTL          = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.RunTTL <= 0 {
		opts.RunTTL = defaultRunTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                            { return nil }
func (noopStore) SaveRun(RunRecord) error                 { return nil }
func (noopStore) LoadRun(string) (RunRecord, bool, error) { return RunRecord{}, false, nil }
func (noopStore) ListRuns(int) ([]RunRecord, error)       { return nil, nil }
