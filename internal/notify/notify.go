package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single webhook delivery.
const DefaultTimeout = 10 * time.Second

// Category groups messages so each kind can go to different sinks.
type Category string

const (
	CategoryTick             Category = "tick"
	CategoryConflictNew      Category = "conflict_new"
	CategoryConflictScored   Category = "conflict_scored"
	CategoryConflictResolved Category = "conflict_resolved"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryTick,
	CategoryConflictNew,
	CategoryConflictScored,
	CategoryConflictResolved,
}

// Notifier sends a message for a category. It never fails from the
// caller's point of view.
type Notifier interface {
	Notify(ctx context.Context, category Category, message string)
}

// Webhook posts {"content": message} to every URL configured for the
// category. A category without URLs is silently skipped.
type Webhook struct {
	sinks   map[Category][]string
	client  *http.Client
	timeout time.Duration
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithTimeout sets the per-delivery timeout.
func WithTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.client = c
		}
	}
}

// NewWebhook creates a notifier for the given sinks. The map is copied.
func NewWebhook(sinks map[Category][]string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		sinks:   make(map[Category][]string, len(sinks)),
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for cat, urls := range sinks {
		w.sinks[cat] = append([]string(nil), urls...)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, category Category, message string) {
	for _, sink := range w.sinks[category] {
		if err := w.deliver(ctx, sink, message); err != nil {
			slog.Warn("notification failed",
				"category", string(category),
				"sink", sinkHost(sink),
				"error", err,
			)
			continue
		}
		slog.Debug("notification sent",
			"category", string(category),
			"sink", sinkHost(sink),
		)
	}
}

// AnnounceTick sends the tick message to the tick sinks.
func (w *Webhook) AnnounceTick(ctx context.Context, marker time.Time) {
	w.Notify(ctx, CategoryTick, FormatTick(marker))
}

type webhookPayload struct {
	Content string `json:"content"`
}

func (w *Webhook) deliver(ctx context.Context, sink, message string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	body, err := json.Marshal(webhookPayload{Content: message})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sink, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

// sinkHost keeps webhook tokens out of the logs.
func sinkHost(sink string) string {
	u, err := url.Parse(sink)
	if err != nil || u.Host == "" {
		return "invalid-url"
	}
	return u.Host
}

// Discard drops every message. Used for dry runs.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(context.Context, Category, string) {}

// AnnounceTick drops the tick announcement.
func (Discard) AnnounceTick(context.Context, time.Time) {}
