package render

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// chromeCandidates are probed, in order, when no binary is configured.
var chromeCandidates = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

// RodRenderer launches a local Chromium through go-rod.
type RodRenderer struct {
	opts Options
}

// NewRodRenderer returns a renderer that launches Chromium on Open.
func NewRodRenderer(opts Options) *RodRenderer {
	return &RodRenderer{opts: opts}
}

// Open launches the browser and connects to it.
func (r *RodRenderer) Open(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.opts.Headless).
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("mute-audio")

	for _, arg := range r.opts.Args {
		name, value := splitChromeArg(arg)
		if name == "" {
			continue
		}
		if value == "" {
			l = l.Set(flags.Flag(name))
		} else {
			l = l.Set(flags.Flag(name), value)
		}
	}

	if bin := r.resolveBin(); bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	return &rodSession{browser: browser, launcher: l, opts: r.opts}, nil
}

func (r *RodRenderer) resolveBin() string {
	if r.opts.Bin != "" {
		return r.opts.Bin
	}
	for _, path := range chromeCandidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	// rod downloads a matching Chromium when no binary is set
	return ""
}

// splitChromeArg turns "--name=value" into its flag name and value.
func splitChromeArg(arg string) (string, string) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	name, value, _ := strings.Cut(arg, "=")
	return name, value
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     Options
}

func (s *rodSession) NewPage(ctx context.Context) (Page, error) {
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	// audit scripts are injected into pages that may forbid inline script
	if err := (proto.PageSetBypassCSP{Enabled: true}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("bypass csp: %w", err)
	}
	if s.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.opts.UserAgent}); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	return &rodPage{page: page, timeout: s.opts}, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

type rodPage struct {
	page    *rod.Page
	timeout Options
	url     string
}

func (p *rodPage) Navigate(ctx context.Context, href string) error {
	p.url = href
	page := p.page.Context(ctx).Timeout(p.timeout.navigationTimeout())
	if err := page.Navigate(href); err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: wait load: %v", ErrNavigation, err)
	}
	if info, err := p.page.Info(); err == nil && info.URL != "" {
		p.url = info.URL
	}
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) URL() string { return p.url }

func (p *rodPage) Close() error { return p.page.Close() }

// Eval runs js, a function expression such as "() => 1", and returns its
// result as JSON.
func (p *rodPage) Eval(ctx context.Context, js string) ([]byte, error) {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, fmt.Errorf("eval: %w", err)
	}
	return []byte(res.Value.JSON("", "")), nil
}
