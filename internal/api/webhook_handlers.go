package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/service"
)

func (s *Server) registerWebhookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createWebhook",
		Method:      http.MethodPost,
		Path:        "/api/v1/webhooks",
		Summary:     "Create webhook subscription",
		Description: "Registers a delivery target. The signing secret is returned once and cannot be retrieved later. Admin only.",
		Tags:        []string{"Webhooks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateWebhook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listWebhooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/webhooks",
		Summary:     "List webhook subscriptions",
		Description: "Admin only",
		Tags:        []string{"Webhooks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListWebhooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWebhook",
		Method:      http.MethodGet,
		Path:        "/api/v1/webhooks/{id}",
		Summary:     "Get webhook subscription",
		Description: "Admin only",
		Tags:        []string{"Webhooks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetWebhook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateWebhook",
		Method:      http.MethodPut,
		Path:        "/api/v1/webhooks/{id}",
		Summary:     "Update webhook subscription",
		Description: "Replaces URL, event types, and enabled flag. The secret never changes. Admin only.",
		Tags:        []string{"Webhooks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateWebhook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteWebhook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/webhooks/{id}",
		Summary:     "Delete webhook subscription",
		Description: "Admin only",
		Tags:        []string{"Webhooks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteWebhook)
}

// === DTOs ===

// WebhookInput wraps the subscription request for Huma.
type WebhookInput struct {
	Authorization string `header:"Authorization"`
	Body          service.SubscriptionRequest
}

// WebhookIDInput identifies a subscription.
type WebhookIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Subscription ID"`
}

// UpdateWebhookInput wraps a subscription update for Huma.
type UpdateWebhookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Subscription ID"`
	Body          service.SubscriptionRequest
}

// CreatedWebhookOutput wraps a new subscription plus its one-time
// secret for Huma.
type CreatedWebhookOutput struct {
	Body *service.CreatedSubscription
}

// WebhookOutput wraps a subscription for Huma.
type WebhookOutput struct {
	Body *domain.WebhookSubscription
}

// WebhooksOutput wraps the subscription listing for Huma.
type WebhooksOutput struct {
	Body struct {
		Subscriptions []*domain.WebhookSubscription `json:"subscriptions" doc:"Registered subscriptions"`
	}
}

// === Handlers ===

func (s *Server) handleCreateWebhook(ctx context.Context, input *WebhookInput) (*CreatedWebhookOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.services.Webhook.CreateSubscription(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}
	return &CreatedWebhookOutput{Body: created}, nil
}

func (s *Server) handleListWebhooks(ctx context.Context, _ *AuthedInput) (*WebhooksOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	subs, err := s.services.Webhook.ListSubscriptions(ctx, user)
	if err != nil {
		return nil, err
	}

	out := &WebhooksOutput{}
	out.Body.Subscriptions = subs
	return out, nil
}

func (s *Server) handleGetWebhook(ctx context.Context, input *WebhookIDInput) (*WebhookOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.services.Webhook.GetSubscription(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}
	return &WebhookOutput{Body: sub}, nil
}

func (s *Server) handleUpdateWebhook(ctx context.Context, input *UpdateWebhookInput) (*WebhookOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.services.Webhook.UpdateSubscription(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &WebhookOutput{Body: sub}, nil
}

func (s *Server) handleDeleteWebhook(ctx context.Context, input *WebhookIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Webhook.DeleteSubscription(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Subscription deleted"}}, nil
}
