// Package render opens pages for the crawler: a headless Chromium session
// driven by go-rod, or a plain HTTP session for sites that need no script.
package render

import (
	"context"
	"errors"
	"time"
)

// ErrNavigation wraps every failure to load a page (timeout, network, bad status).
var ErrNavigation = errors.New("navigation failed")

// ErrScriptUnsupported is returned by pages that cannot evaluate scripts.
var ErrScriptUnsupported = errors.New("page does not support script evaluation")

// Renderer launches a session. A run opens exactly one.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session hands out pages and owns the underlying browser or client.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one navigable tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	// URL is the address after redirects, or the requested one before navigation.
	URL() string
	Close() error
}

// ScriptPage is implemented by pages that can run JavaScript and return its
// JSON-encoded result. Promises are awaited.
type ScriptPage interface {
	Page
	Eval(ctx context.Context, js string) ([]byte, error)
}

// Options configures both renderer kinds.
type Options struct {
	Headless          bool
	Bin               string
	Args              []string
	NavigationTimeout time.Duration
	UserAgent         string
}

const defaultNavigationTimeout = 30 * time.Second

func (o Options) navigationTimeout() time.Duration {
	if o.NavigationTimeout <= 0 {
		return defaultNavigationTimeout
	}
	return o.NavigationTimeout
}
