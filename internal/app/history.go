package app

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/samvad-hq/accessible-pipeline/internal/config"
	"github.com/samvad-hq/accessible-pipeline/internal/storage"
)

// History prints the most recent runs kept in the local run history.
func History(w io.Writer, cfg *config.Config, limit int) error {
	if cfg == nil {
		return fmt.Errorf("config must not be nil")
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		RunTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	return writeHistory(w, runs)
}

func writeHistory(w io.Writer, runs []storage.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("Run ID", "Started", "Entry", "Pages", "Violations", "To visit")
	for _, r := range runs {
		if err := table.Append([]string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Entry,
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.Violations),
			strconv.Itoa(len(r.State.ToVisit)),
		}); err != nil {
			return fmt.Errorf("history row %s: %w", r.ID, err)
		}
	}
	return table.Render()
}
