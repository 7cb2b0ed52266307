// Package outbox delivers queued webhook events to registered
// subscribers. Events are written to the outbox table in the same
// transaction as the change they describe; the dispatcher polls that
// table and delivers at-least-once, so consumers dedupe with the
// idempotency key carried on every attempt.
package outbox

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/quadroapp/quadro-server/internal/config"
	"github.com/quadroapp/quadro-server/internal/domain"
)

// batchSize caps how many pending events one poll picks up.
const batchSize = 50

// backoff schedule bounds.
const (
	baseBackoff = 30 * time.Second
	maxBackoff  = time.Hour
)

// DispatcherStore is the slice of the store the dispatcher needs.
type DispatcherStore interface {
	PendingOutboxEvents(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error)
	MarkOutboxDelivered(ctx context.Context, id string, at time.Time) error
	MarkOutboxFailed(ctx context.Context, id string, attempts int, nextAttempt time.Time, dead bool) error
	ListWebhookSubscriptions(ctx context.Context) ([]*domain.WebhookSubscription, error)
}

// Dispatcher polls the outbox and posts events to subscribers.
type Dispatcher struct {
	store  DispatcherStore
	client *http.Client
	logger *slog.Logger
	cfg    config.WebhookConfig
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(st DispatcherStore, cfg config.WebhookConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  st,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
		cfg:    cfg,
	}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchPending(ctx)
		}
	}
}

// DispatchPending delivers one batch of due events. Exposed so tests
// and the poll loop share the same path.
func (d *Dispatcher) DispatchPending(ctx context.Context) {
	now := time.Now().UTC()

	events, err := d.store.PendingOutboxEvents(ctx, now, batchSize)
	if err != nil {
		d.logger.Error("load pending outbox events", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	subs, err := d.store.ListWebhookSubscriptions(ctx)
	if err != nil {
		d.logger.Error("load webhook subscriptions", "error", err)
		return
	}

	for _, event := range events {
		d.dispatch(ctx, event, subs)
	}
}

// envelope is the JSON body posted to subscribers.
type envelope struct {
	ID        string                  `json:"id"`
	EventType domain.WebhookEventType `json:"event_type"`
	Timestamp time.Time               `json:"timestamp"`
	Payload   jsontext.Value          `json:"payload"`
}

func (d *Dispatcher) dispatch(ctx context.Context, event *domain.OutboxEvent, subs []*domain.WebhookSubscription) {
	targets := make([]*domain.WebhookSubscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Wants(event.EventType) {
			targets = append(targets, sub)
		}
	}

	now := time.Now().UTC()

	// No subscriber wants this event: nothing to deliver, retire it.
	if len(targets) == 0 {
		if err := d.store.MarkOutboxDelivered(ctx, event.ID, now); err != nil {
			d.logger.Error("retire outbox event", "id", event.ID, "error", err)
		}
		return
	}

	body, err := json.Marshal(envelope{
		ID:        event.IdempotencyKey,
		EventType: event.EventType,
		Timestamp: event.CreatedAt,
		Payload:   jsontext.Value(event.Payload),
	})
	if err != nil {
		d.logger.Error("marshal webhook envelope", "id", event.ID, "error", err)
		return
	}

	// Deliver to every target. A single failing target retries the
	// whole event; duplicates on the others are covered by the
	// idempotency key.
	delivered := true
	for _, sub := range targets {
		if err := d.deliver(ctx, sub, event, body); err != nil {
			d.logger.Warn("webhook delivery failed",
				"event", event.ID,
				"subscription", sub.ID,
				"attempt", event.Attempts+1,
				"error", err,
			)
			delivered = false
		}
	}

	if delivered {
		if err := d.store.MarkOutboxDelivered(ctx, event.ID, now); err != nil {
			d.logger.Error("mark outbox delivered", "id", event.ID, "error", err)
		}
		return
	}

	attempts := event.Attempts + 1
	dead := attempts >= d.cfg.MaxAttempts
	if dead {
		d.logger.Error("webhook event exhausted retries, marking dead",
			"event", event.ID,
			"event_type", event.EventType,
			"attempts", attempts,
		)
	}
	if err := d.store.MarkOutboxFailed(ctx, event.ID, attempts, now.Add(backoffDelay(attempts)), dead); err != nil {
		d.logger.Error("mark outbox failed", "id", event.ID, "error", err)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sub *domain.WebhookSubscription, event *domain.OutboxEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Quadro-Event", string(event.EventType))
	req.Header.Set("X-Quadro-Delivery", event.IdempotencyKey)
	if sub.Secret != "" {
		req.Header.Set("X-Quadro-Signature", Sign(sub.Secret, body, time.Now().UTC()))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("subscriber returned %d", resp.StatusCode)
	}
	return nil
}

// Sign builds the signature header value: ts=<unix>,h1=<hex> where h1
// is HMAC-SHA256 over "<unix>:<body>". Receivers recompute it with
// the shared secret.
func Sign(secret string, body []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":"))
	mac.Write(body)
	return "ts=" + ts + ",h1=" + hex.EncodeToString(mac.Sum(nil))
}

// backoffDelay doubles per attempt from baseBackoff up to maxBackoff.
func backoffDelay(attempts int) time.Duration {
	delay := baseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
