package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/accessible-pipeline/internal/config"
	"github.com/samvad-hq/accessible-pipeline/internal/crawler"
	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/internal/logger"
	"github.com/samvad-hq/accessible-pipeline/internal/report"
	"github.com/samvad-hq/accessible-pipeline/internal/storage"
	"github.com/samvad-hq/accessible-pipeline/pkg/audit"
	"github.com/samvad-hq/accessible-pipeline/pkg/links"
	"github.com/samvad-hq/accessible-pipeline/pkg/publishers"
	"github.com/samvad-hq/accessible-pipeline/pkg/render"
)

// ErrViolationsFound is returned in CI mode when any page has violations.
var ErrViolationsFound = errors.New("accessibility violations found")

// Pipeline wires the crawler with its renderer, auditor, publishers, run
// history and output files, and executes one crawl per Run call.
type Pipeline struct {
	cfg    *config.Config
	crawl  *crawler.Service
	fanout *publishers.Fanout
	pubs   []publishers.Publisher
	store  storage.Store
	stdout io.Writer
	log    logger.Logger
	now    func() time.Time
}

// Option customizes a Pipeline.
type Option func(*pipelineDeps)

type pipelineDeps struct {
	renderer render.Renderer
	auditor  audit.Auditor
	stdout   io.Writer
	now      func() time.Time
}

// WithRenderer overrides the renderer chosen by config.
func WithRenderer(r render.Renderer) Option {
	return func(d *pipelineDeps) { d.renderer = r }
}

// WithAuditor overrides the auditor chosen by config.
func WithAuditor(a audit.Auditor) Option {
	return func(d *pipelineDeps) { d.auditor = a }
}

// WithStdout redirects user facing output (NDJSON events, CI summary).
func WithStdout(w io.Writer) Option {
	return func(d *pipelineDeps) { d.stdout = w }
}

// WithClock replaces time.Now, mainly for deterministic run ids.
func WithClock(now func() time.Time) Option {
	return func(d *pipelineDeps) { d.now = now }
}

// NewPipeline builds the runtime from config.
func NewPipeline(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	deps := pipelineDeps{stdout: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(&deps)
	}

	if deps.renderer == nil {
		deps.renderer = newRenderer(cfg)
	}
	if deps.auditor == nil {
		a, err := audit.New(cfg.Auditor, audit.Options{AxeScriptPath: cfg.AxeScriptPath})
		if err != nil {
			return nil, fmt.Errorf("init auditor: %w", err)
		}
		deps.auditor = a
	}
	log.InfoObj("collaborators selected", "pipeline_meta", map[string]any{
		"renderer": cfg.Renderer,
		"auditor":  cfg.Auditor,
	})

	pubs, err := buildPublishers(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		RunTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = publishers.CloseAll(pubs)
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"run_ttl_seconds":          int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	svc := crawler.NewService(deps.renderer, deps.auditor, links.NewExtractor(),
		crawler.WithLogger(log),
		crawler.WithClock(deps.now),
	)

	return &Pipeline{
		cfg:    cfg,
		crawl:  svc,
		fanout: publishers.NewFanout(pubs),
		pubs:   pubs,
		store:  store,
		stdout: deps.stdout,
		log:    log,
		now:    deps.now,
	}, nil
}

func newRenderer(cfg *config.Config) render.Renderer {
	opts := render.Options{
		Headless:          cfg.Headless,
		Bin:               cfg.ChromeBin,
		Args:              cfg.ChromeArgs,
		NavigationTimeout: cfg.NavigationTimeout,
		UserAgent:         cfg.AppName,
	}
	if cfg.Renderer == config.RendererHTTP {
		return render.NewHTTPRenderer(opts)
	}
	return render.NewRodRenderer(opts)
}

func buildPublishers(ctx context.Context, cfg *config.Config, log logger.Logger) ([]publishers.Publisher, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return nil, nil
	}
	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("publishers file has no enabled publishers", "publishers_file", cfg.PublishersFile)
		return nil, nil
	}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]any{
			"id":     pubCfg.ID,
			"type":   pubCfg.Type,
			"events": pubCfg.Events,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return pubs, nil
}

// Close releases the run history and publisher clients.
func (p *Pipeline) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if err := publishers.CloseAll(p.pubs); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RunRequest names the site to crawl and, optionally, a previous run to resume.
type RunRequest struct {
	Entry string
	// Resume is a state file path or a run id from the history.
	Resume string
}

// RunResult describes a finished run.
type RunResult struct {
	RunID      string
	ReportPath string
	StatePath  string
	Results    []domain.PageResult
	State      domain.RunState
	Summary    report.Summary
}

// Run crawls once. In streaming mode every event goes to stdout as NDJSON;
// in CI mode a text summary is printed and ErrViolationsFound is returned
// when any page fails. A cancelled run still writes its state file so it can
// be resumed.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if p == nil || p.crawl == nil {
		return RunResult{}, fmt.Errorf("pipeline is not initialized")
	}

	var resume *domain.RunState
	if strings.TrimSpace(req.Resume) != "" {
		state, err := p.resolveResume(req.Resume)
		if err != nil {
			return RunResult{}, err
		}
		resume = &state
		if req.Entry == "" {
			req.Entry = state.Entry
		}
	}

	started := p.now()
	runID := report.NewRunID(started)
	out := RunResult{RunID: runID}

	var stream *report.StreamWriter
	if p.cfg.Streaming {
		stream = report.NewStreamWriter(p.stdout)
	}

	p.log.InfoObj("crawl started", "crawl_meta", map[string]any{
		"run_id":     runID,
		"entry":      req.Entry,
		"resume":     req.Resume,
		"publishers": p.fanout.Size(),
	})

	crawlCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan domain.StreamEvent, 16)
	var (
		g        errgroup.Group
		gotState bool
		sinkErr  error
	)
	g.Go(func() error {
		return p.crawl.Stream(crawlCtx, crawler.Request{
			Entry:   req.Entry,
			Options: p.crawlOptions(),
			Resume:  resume,
		}, events)
	})
	g.Go(func() error {
		for evt := range events {
			switch evt.Type {
			case domain.EventResults:
				out.Results = append(out.Results, *evt.Results)
			case domain.EventState:
				out.State = *evt.State
				gotState = true
			}
			if err := p.emit(ctx, stream, runID, req.Entry, evt); err != nil && sinkErr == nil {
				// stdout is gone; stop crawling but keep draining
				sinkErr = err
				cancel()
			}
		}
		return nil
	})
	crawlErr := g.Wait()

	if !gotState {
		return out, crawlErr
	}

	if err := p.persist(ctx, stream, &out, req.Entry, started); err != nil {
		return out, err
	}
	out.Summary = report.Summarize(out.Results)

	p.log.InfoObj("crawl completed", "crawl_meta", map[string]any{
		"run_id":     runID,
		"pages":      out.Summary.Pages,
		"violations": out.Summary.Violations,
		"to_visit":   len(out.State.ToVisit),
		"elapsed_ms": time.Since(started).Milliseconds(),
	})

	if sinkErr != nil {
		return out, fmt.Errorf("write event stream: %w", sinkErr)
	}
	if crawlErr != nil {
		return out, crawlErr
	}

	switch {
	case p.cfg.CI:
		if err := report.WriteText(p.stdout, &report.View{Results: out.Results}); err != nil {
			return out, fmt.Errorf("write summary: %w", err)
		}
		if out.Summary.Failed > 0 {
			return out, fmt.Errorf("%w: %d of %d pages", ErrViolationsFound, out.Summary.Failed, out.Summary.Pages)
		}
	case !p.cfg.Streaming:
		fmt.Fprintf(p.stdout, "wrote report file to %s\nwrote state file to %s\n", out.ReportPath, out.StatePath)
	}
	return out, nil
}

// emit forwards one event to stdout (streaming mode) and to publishers.
// Publisher failures are logged, never fatal.
func (p *Pipeline) emit(ctx context.Context, stream *report.StreamWriter, runID, entry string, evt domain.StreamEvent) error {
	if p.fanout.Size() > 0 {
		if _, err := p.fanout.Publish(ctx, publishers.NewEvent(runID, entry, evt)); err != nil {
			p.log.ErrorObj("publish event failed", "publish_error", map[string]any{
				"run_id":     runID,
				"event_type": string(evt.Type),
				"error":      err.Error(),
			})
		}
	}
	if stream == nil {
		return nil
	}
	return stream.Write(evt)
}

// persist writes the report and state files, announces them and records the run.
func (p *Pipeline) persist(ctx context.Context, stream *report.StreamWriter, out *RunResult, entry string, started time.Time) error {
	reportPath, err := report.WriteReport(p.cfg.OutDir, out.RunID, out.Results)
	if err != nil {
		return err
	}
	out.ReportPath = reportPath
	if err := p.emit(ctx, stream, out.RunID, entry, domain.InfoEvent("wrote report file to "+reportPath)); err != nil {
		return fmt.Errorf("write event stream: %w", err)
	}

	statePath, err := report.WriteState(p.cfg.OutDir, out.RunID, out.State)
	if err != nil {
		return err
	}
	out.StatePath = statePath
	if err := p.emit(ctx, stream, out.RunID, entry, domain.InfoEvent("wrote state file to "+statePath)); err != nil {
		return fmt.Errorf("write event stream: %w", err)
	}

	sum := report.Summarize(out.Results)
	rec := storage.RunRecord{
		ID:         out.RunID,
		Entry:      out.State.Entry,
		StartedAt:  started.UTC(),
		FinishedAt: p.now().UTC(),
		Pages:      sum.Pages,
		Violations: sum.Violations,
		ReportPath: reportPath,
		StatePath:  statePath,
		State:      out.State,
	}
	if err := p.store.SaveRun(rec); err != nil {
		// history is a convenience; the files above are the record of truth
		p.log.ErrorObj("save run history failed", "storage_error", map[string]any{
			"run_id": out.RunID,
			"error":  err.Error(),
		})
	}
	return nil
}

// resolveResume accepts a state file path or a run id kept in the history.
func (p *Pipeline) resolveResume(ref string) (domain.RunState, error) {
	ref = strings.TrimSpace(ref)
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		state, err := report.ReadState(ref)
		if err != nil {
			return domain.RunState{}, fmt.Errorf("resume: %w", err)
		}
		return state, nil
	}

	rec, ok, err := p.store.LoadRun(ref)
	if err != nil {
		return domain.RunState{}, fmt.Errorf("resume: load run %s: %w", ref, err)
	}
	if !ok {
		return domain.RunState{}, fmt.Errorf("resume: %q is neither a state file nor a known run id", ref)
	}
	return rec.State, nil
}

func (p *Pipeline) crawlOptions() domain.CrawlOptions {
	return domain.CrawlOptions{
		PageLimit:           p.cfg.PageLimit,
		MaxRetries:          p.cfg.MaxRetries,
		IgnoreFragmentLinks: p.cfg.IgnoreFragmentLinks,
		IgnoreExtensions:    p.cfg.IgnoreExtensions,
		RouteManifestPath:   p.cfg.RouteManifestPath,
		RequestDelayMs:      p.cfg.RequestDelayMs,
	}.WithDefaults()
}
