package publishers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/accessible-pipeline/internal/logger"
	"github.com/samvad-hq/accessible-pipeline/pkg/httpclient"
)

const (
	headerEventType = "X-Event-Type"
	headerRunID     = "X-Run-Id"

	httpRetryWait = 200 * time.Millisecond
)

// httpPublisher posts each crawl event as JSON to a webhook.
type httpPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.HTTP.Retries).
		SetRetryWaitTime(httpRetryWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	if len(cfg.HTTP.Headers) > 0 {
		client.SetHeaders(cfg.HTTP.Headers)
	}

	return &httpPublisher{
		id:     cfg.ID,
		method: cfg.HTTP.Method,
		url:    cfg.HTTP.URL,
		client: client,
		log:    logger.Ensure(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish delivers one event. Non-2xx answers are errors carrying the start of the body.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(headerEventType, evt.Type()).
		SetHeader(headerRunID, evt.RunID).
		SetBody(evt).
		Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", h.id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s answered %d: %s", h.id, resp.StatusCode(), bodySnippet(resp.Body()))
	}

	h.log.DebugObj("event delivered to webhook", "webhook_delivery", map[string]any{
		"publisher_id": h.id,
		"run_id":       evt.RunID,
		"event_type":   evt.Type(),
		"status":       resp.StatusCode(),
		"attempts":     resp.Request.Attempt,
	})
	return nil
}

const maxSnippet = 512

func bodySnippet(body []byte) string {
	if len(body) > maxSnippet {
		body = body[:maxSnippet]
	}
	return strings.TrimSpace(string(body))
}
