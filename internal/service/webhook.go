package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/validation"
)

const webhookSecretSize = 32

// knownWebhookEvents is the set of event types a subscription may
// filter on.
var knownWebhookEvents = map[domain.WebhookEventType]bool{
	domain.WebhookCardCreated:  true,
	domain.WebhookCardMoved:    true,
	domain.WebhookCardUpdated:  true,
	domain.WebhookCardDeleted:  true,
	domain.WebhookLabelAdded:   true,
	domain.WebhookLabelRemoved: true,
	domain.WebhookBoardDeleted: true,
}

// WebhookService manages webhook subscriptions. All operations are
// admin only; the secret is returned exactly once, on creation.
type WebhookService struct {
	store    store.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(st store.Store, validate *validation.Validator, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		store:    st,
		validate: validate,
		logger:   logger,
	}
}

// SubscriptionRequest carries the mutable fields of a subscription.
type SubscriptionRequest struct {
	URL        string                    `json:"url" validate:"required,url,max=2048"`
	EventTypes []domain.WebhookEventType `json:"event_types,omitempty"`
	Enabled    *bool                     `json:"enabled,omitempty"`
}

// CreatedSubscription pairs a new subscription with its plaintext
// secret. The secret is not retrievable afterwards.
type CreatedSubscription struct {
	Subscription *domain.WebhookSubscription `json:"subscription"`
	Secret       string                      `json:"secret"`
}

// CreateSubscription registers a new delivery target.
func (s *WebhookService) CreateSubscription(ctx context.Context, user *domain.User, req SubscriptionRequest) (*CreatedSubscription, error) {
	if !user.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can manage webhooks")
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if err := validateEventTypes(req.EventTypes); err != nil {
		return nil, err
	}

	subID, err := id.Generate("wh")
	if err != nil {
		return nil, err
	}
	secret, err := generateWebhookSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sub := &domain.WebhookSubscription{
		ID:         subID,
		CreatorID:  user.ID,
		URL:        req.URL,
		Secret:     secret,
		EventTypes: req.EventTypes,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Enabled != nil {
		sub.Enabled = *req.Enabled
	}

	if err := s.store.CreateWebhookSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("webhook subscription created", "id", sub.ID, "url", sub.URL)
	return &CreatedSubscription{Subscription: sub, Secret: secret}, nil
}

// GetSubscription returns one subscription. Admin only.
func (s *WebhookService) GetSubscription(ctx context.Context, user *domain.User, subID string) (*domain.WebhookSubscription, error) {
	if !user.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can manage webhooks")
	}
	return s.store.GetWebhookSubscription(ctx, subID)
}

// ListSubscriptions returns all subscriptions. Admin only.
func (s *WebhookService) ListSubscriptions(ctx context.Context, user *domain.User) ([]*domain.WebhookSubscription, error) {
	if !user.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can manage webhooks")
	}
	return s.store.ListWebhookSubscriptions(ctx)
}

// UpdateSubscription replaces a subscription's URL, event filter and
// enabled flag. The secret never changes after creation.
func (s *WebhookService) UpdateSubscription(ctx context.Context, user *domain.User, subID string, req SubscriptionRequest) (*domain.WebhookSubscription, error) {
	if !user.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can manage webhooks")
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if err := validateEventTypes(req.EventTypes); err != nil {
		return nil, err
	}

	sub, err := s.store.GetWebhookSubscription(ctx, subID)
	if err != nil {
		return nil, err
	}

	sub.URL = req.URL
	sub.EventTypes = req.EventTypes
	if req.Enabled != nil {
		sub.Enabled = *req.Enabled
	}
	sub.UpdatedAt = time.Now()

	if err := s.store.UpdateWebhookSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// DeleteSubscription removes a subscription. Pending outbox rows stay
// and retire naturally once no subscriber wants them.
func (s *WebhookService) DeleteSubscription(ctx context.Context, user *domain.User, subID string) error {
	if !user.IsAdmin() {
		return apperrors.Forbidden("only admins can manage webhooks")
	}
	return s.store.DeleteWebhookSubscription(ctx, subID)
}

func validateEventTypes(types []domain.WebhookEventType) error {
	for _, t := range types {
		if !knownWebhookEvents[t] {
			return apperrors.Validationf("unknown event type %q", t)
		}
	}
	return nil
}

func generateWebhookSecret() (string, error) {
	b := make([]byte, webhookSecretSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
