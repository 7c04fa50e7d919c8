package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/samvad-hq/accessible-pipeline/pkg/httpclient"
)

// HTTPRenderer fetches raw HTML without running scripts. Pages it returns do
// not implement ScriptPage.
type HTTPRenderer struct {
	client httpclient.Client
}

// NewHTTPRenderer builds a renderer over a resty client.
func NewHTTPRenderer(opts Options) *HTTPRenderer {
	client := httpclient.NewRestyClient(opts.navigationTimeout()).SetUserAgent(opts.UserAgent)
	return &HTTPRenderer{client: client}
}

// NewHTTPRendererWithClient injects the transport, mainly for tests.
func NewHTTPRendererWithClient(client httpclient.Client) *HTTPRenderer {
	return &HTTPRenderer{client: client}
}

func (r *HTTPRenderer) Open(context.Context) (Session, error) {
	if r.client == nil {
		return nil, errors.New("http renderer has no client")
	}
	return &httpSession{client: r.client}, nil
}

type httpSession struct {
	client httpclient.Client
}

func (s *httpSession) NewPage(context.Context) (Page, error) {
	return &httpPage{client: s.client}, nil
}

func (s *httpSession) Close() error { return nil }

type httpPage struct {
	client httpclient.Client
	url    string
	body   string
	loaded bool
}

func (p *httpPage) Navigate(ctx context.Context, href string) error {
	p.url = href
	resp, err := p.client.Get(ctx, href, map[string]string{"Accept": "text/html,application/xhtml+xml"})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s returned status %d", ErrNavigation, href, resp.StatusCode())
	}
	if final := resp.FinalURL(); final != "" {
		p.url = final
	}
	p.body = string(resp.Body())
	p.loaded = true
	return nil
}

func (p *httpPage) HTML(context.Context) (string, error) {
	if !p.loaded {
		return "", errors.New("page not loaded")
	}
	return p.body, nil
}

func (p *httpPage) URL() string { return p.url }

func (p *httpPage) Close() error { return nil }
