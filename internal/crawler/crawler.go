package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
	"github.com/samvad-hq/accessible-pipeline/internal/logger"
	"github.com/samvad-hq/accessible-pipeline/pkg/render"
)

var (
	// ErrInvalidRoot is returned when the entry address is not an absolute http(s) URL.
	ErrInvalidRoot = errors.New("invalid root address")
	// ErrManifest is returned when the route manifest cannot be read or parsed.
	ErrManifest = errors.New("route manifest")
	// ErrRenderer is returned when the renderer session cannot be opened.
	ErrRenderer = errors.New("renderer launch failed")
)

// Request describes one crawl run.
type Request struct {
	Entry   string
	Options domain.CrawlOptions
	// Resume, when set, seeds the run with the registries and pending pages of a previous run.
	Resume *domain.RunState
}

// Report is the buffered outcome of a run.
type Report struct {
	Results []domain.PageResult
	State   domain.RunState
}

// Service coordinates one crawl at a time over injected collaborators.
type Service struct {
	renderer     Renderer
	auditor      Auditor
	extractor    LinkExtractor
	loadManifest ManifestLoader
	log          logger.Logger
	now          func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) { s.log = logger.Ensure(log) }
}

// WithManifestLoader replaces the file based manifest loader.
func WithManifestLoader(fn ManifestLoader) Option {
	return func(s *Service) {
		if fn != nil {
			s.loadManifest = fn
		}
	}
}

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a crawler with its collaborators.
func NewService(renderer Renderer, auditor Auditor, extractor LinkExtractor, opts ...Option) *Service {
	s := &Service{
		renderer:     renderer,
		auditor:      auditor,
		extractor:    extractor,
		loadManifest: LoadManifest,
		log:          logger.NopLogger{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run crawls and collects every event, returning the results and the final state.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	events := make(chan domain.StreamEvent, 16)
	var report Report

	var g errgroup.Group
	g.Go(func() error {
		return s.Stream(ctx, req, events)
	})
	g.Go(func() error {
		for evt := range events {
			switch evt.Type {
			case domain.EventResults:
				report.Results = append(report.Results, *evt.Results)
			case domain.EventState:
				report.State = *evt.State
			}
		}
		return nil
	})

	err := g.Wait()
	return report, err
}

// Stream crawls from req.Entry and sends events on events, which it closes
// before returning. Consumers must drain the channel until it is closed;
// cancelling ctx is how a consumer stops the crawl early.
//
// Fatal errors (bad entry, manifest, renderer launch) are returned before
// any event is sent. Otherwise exactly one state event is sent last, also
// when ctx is cancelled mid-run, in which case ctx.Err() is returned.
func (s *Service) Stream(ctx context.Context, req Request, events chan<- domain.StreamEvent) error {
	defer close(events)

	if s == nil || s.renderer == nil || s.auditor == nil || s.extractor == nil {
		return fmt.Errorf("crawler service is not initialized")
	}

	entry, err := normalizeEntry(req.Entry)
	if err != nil {
		return err
	}

	opts := req.Options.WithDefaults()

	var manifest []string
	if opts.RouteManifestPath != "" {
		manifest, err = s.loadManifest(opts.RouteManifestPath)
		if err != nil {
			s.log.ErrorObj("there was an error when trying to read the route manifest", "manifest_error", map[string]any{
				"path":  opts.RouteManifestPath,
				"error": err.Error(),
			})
			if !errors.Is(err, ErrManifest) {
				err = fmt.Errorf("%w: %v", ErrManifest, err)
			}
			return err
		}
		s.log.InfoObj("read manifest", "manifest", manifest)
	}

	sess, err := NewSession(entry, opts, manifest)
	if err != nil {
		return err
	}
	if req.Resume != nil {
		sess.Restore(*req.Resume)
		s.log.InfoObj("resuming previous run", "resume_meta", map[string]any{
			"entry":         req.Resume.Entry,
			"pages_visited": len(req.Resume.PagesVisited),
			"to_visit":      len(req.Resume.ToVisit),
		})
	}

	s.log.InfoObj("will run with", "options", sess.Options())

	browser, err := s.renderer.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderer, err)
	}
	defer func() {
		s.log.InfoObj("cleaning up", "entry", entry)
		if cerr := browser.Close(); cerr != nil {
			s.log.ErrorObj("renderer close failed", "error", cerr.Error())
		}
	}()

	loopErr := s.loop(ctx, sess, browser, events)

	state := sess.Snapshot()
	events <- domain.StateEvent(state)
	s.log.InfoObj("crawl finished", "crawl_meta", map[string]any{
		"entry":     state.Entry,
		"run_count": state.RunCount,
		"to_visit":  len(state.ToVisit),
	})
	return loopErr
}

func (s *Service) loop(ctx context.Context, sess *Session, browser render.Session, events chan<- domain.StreamEvent) error {
	limiter := newPageLimiter(sess.Options().RequestDelay)

	for {
		if err := ctx.Err(); err != nil {
			s.log.WarnObj("crawl cancelled", "error", err.Error())
			return err
		}

		href, ok := sess.Next()
		if !ok {
			return nil
		}

		decision := sess.Decide(href)
		sess.Apply(href, decision)
		s.log.InfoObj("visit decision", "decision", map[string]any{
			"url":            href,
			"should_process": decision.ShouldProcess,
			"reason":         decision.Reason.Kind(),
		})

		if !decision.ShouldProcess {
			if _, limited := decision.Reason.(PageLimitReason); limited {
				return nil
			}
			continue
		}

		events <- domain.InProgressEvent(href)

		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		outcome := Attempt(ctx, href, sess.Options().MaxRetries, func(ctx context.Context) (Outcome, error) {
			return s.processPage(ctx, browser, href)
		}, s.log)

		events <- domain.ResultsEvent(domain.PageResult{
			URL:            href,
			Timestamp:      s.now().UTC(),
			Attempts:       outcome.Attempts,
			Failed:         outcome.Failed,
			AnalysisResult: outcome.Analysis,
		})

		added := sess.Enqueue(outcome.Links)
		s.log.DebugObj("links queued", "links_meta", map[string]any{
			"url":        href,
			"discovered": len(outcome.Links),
			"queued":     added,
			"run_count":  sess.RunCount(),
		})
	}
}

// processPage renders href, analyzes it and gathers its links. The page is
// always closed.
func (s *Service) processPage(ctx context.Context, browser render.Session, href string) (out Outcome, err error) {
	page, err := browser.NewPage(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("new page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			s.log.WarnObj("page close failed", "error", cerr.Error())
		}
	}()

	if err := page.Navigate(ctx, href); err != nil {
		return Outcome{}, fmt.Errorf("navigate %s: %w", href, err)
	}

	analysis, err := s.auditor.Analyze(ctx, page)
	if err != nil {
		return Outcome{}, fmt.Errorf("analyze %s: %w", href, err)
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read content %s: %w", href, err)
	}

	base, err := url.Parse(href)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse page url: %w", err)
	}
	links, err := s.extractor.Extract(html, base)
	if err != nil {
		return Outcome{}, fmt.Errorf("extract links %s: %w", href, err)
	}

	return Outcome{Analysis: analysis, Links: links}, nil
}

// normalizeEntry validates the root address and returns its canonical href.
func normalizeEntry(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q must be an absolute http(s) URL", ErrInvalidRoot, raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
