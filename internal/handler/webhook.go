package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/identity"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

// SignatureHeader carries the webhook body's HMAC signature
const SignatureHeader = "X-Webhook-Signature"

// maxWebhookBody bounds webhook payload size at 1 MiB
const maxWebhookBody = 1 << 20

// WebhookHandler consumes identity provider sync events
type WebhookHandler struct {
	sync   *service.SyncService
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(sync *service.SyncService, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{sync: sync, secret: secret, logger: logger}
}

// Handle handles POST /v1/webhooks/identity
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		WriteError(w, model.NewBadRequestError("Could not read request body"))
		return
	}

	if !identity.VerifySignature(h.secret, body, r.Header.Get(SignatureHeader)) {
		WriteError(w, model.NewUnauthorizedError("Invalid webhook signature"))
		return
	}

	var event identity.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		WriteError(w, model.NewBadRequestError("Invalid webhook payload"))
		return
	}

	if err := h.dispatch(r, event); err != nil {
		h.logger.Error("webhook event failed",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		WriteError(w, err)
		return
	}
	WriteNoContent(w)
}

func (h *WebhookHandler) dispatch(r *http.Request, event identity.WebhookEvent) error {
	ctx := r.Context()

	switch event.Type {
	case identity.EventUserCreated, identity.EventUserUpdated:
		var payload identity.UserPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return model.NewBadRequestError("Invalid user payload")
		}
		return h.sync.UpsertUser(ctx, &model.User{
			ID:        payload.ID,
			Name:      payload.Name,
			Email:     payload.Email,
			ImageURL:  payload.ImageURL,
			CreatedAt: payload.CreatedTime(),
		})

	case identity.EventUserDeleted:
		var payload identity.UserPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return model.NewBadRequestError("Invalid user payload")
		}
		return h.sync.DeleteUser(ctx, payload.ID)

	case identity.EventOrganizationCreated, identity.EventOrganizationUpdated:
		var payload identity.OrganizationPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return model.NewBadRequestError("Invalid organization payload")
		}
		return h.sync.UpsertOrganization(ctx, &model.Organization{
			ID:        payload.ID,
			Name:      payload.Name,
			ImageURL:  payload.ImageURL,
			CreatedAt: payload.CreatedTime(),
		})

	case identity.EventOrganizationDeleted:
		var payload identity.OrganizationPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return model.NewBadRequestError("Invalid organization payload")
		}
		return h.sync.DeleteOrganization(ctx, payload.ID)

	default:
		// Unknown events acknowledge cleanly so the provider stops retrying
		h.logger.Debug("ignoring webhook event", zap.String("event_type", event.Type))
		return nil
	}
}
