package domain

import "time"

// WebhookEventType identifies a webhook payload kind. The values
// match what subscribers filter on.
type WebhookEventType string

// Webhook event types.
const (
	WebhookCardCreated  WebhookEventType = "card_created"
	WebhookCardMoved    WebhookEventType = "card_moved"
	WebhookCardUpdated  WebhookEventType = "card_updated"
	WebhookCardDeleted  WebhookEventType = "card_deleted"
	WebhookLabelAdded   WebhookEventType = "label_added"
	WebhookLabelRemoved WebhookEventType = "label_removed"
	WebhookBoardDeleted WebhookEventType = "board_deleted"
)

// WebhookSubscription is a registered delivery target. Secret signs
// outgoing payloads; an empty EventTypes slice means all events.
type WebhookSubscription struct {
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	ID         string             `json:"id"`
	CreatorID  string             `json:"creator_id"`
	URL        string             `json:"url"`
	Secret     string             `json:"-"`
	EventTypes []WebhookEventType `json:"event_types"`
	Enabled    bool               `json:"enabled"`
}

// Wants reports whether the subscription receives the given event type.
func (s *WebhookSubscription) Wants(eventType WebhookEventType) bool {
	if !s.Enabled {
		return false
	}
	if len(s.EventTypes) == 0 {
		return true
	}
	for _, t := range s.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// OutboxStatus tracks an outbox row through delivery.
type OutboxStatus string

// Outbox statuses.
const (
	OutboxPending   OutboxStatus = "pending"
	OutboxDelivered OutboxStatus = "delivered"
	OutboxDead      OutboxStatus = "dead"
)

// OutboxEvent is one pending webhook delivery. It is inserted in the
// same transaction as the change it describes; the dispatcher owns it
// from there. IdempotencyKey travels with every delivery attempt so
// consumers can dedupe retries.
type OutboxEvent struct {
	CreatedAt      time.Time        `json:"created_at"`
	NextAttemptAt  time.Time        `json:"next_attempt_at"`
	DeliveredAt    *time.Time       `json:"delivered_at,omitempty"`
	ID             string           `json:"id"`
	IdempotencyKey string           `json:"idempotency_key"`
	EventType      WebhookEventType `json:"event_type"`
	Payload        []byte           `json:"payload"`
	Status         OutboxStatus     `json:"status"`
	Attempts       int              `json:"attempts"`
}
