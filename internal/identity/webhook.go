package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// WebhookEvent is one identity sync event delivered by the provider
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Webhook event types the sync handler consumes
const (
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserDeleted         = "user.deleted"
	EventOrganizationCreated = "organization.created"
	EventOrganizationUpdated = "organization.updated"
	EventOrganizationDeleted = "organization.deleted"
)

// UserPayload is the data of a user.* webhook event
type UserPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	ImageURL  string `json:"image_url"`
	CreatedAt int64  `json:"created_at"`
}

// CreatedTime converts the payload's unix-milliseconds timestamp
func (p UserPayload) CreatedTime() time.Time {
	if p.CreatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.CreatedAt).UTC()
}

// OrganizationPayload is the data of an organization.* webhook event
type OrganizationPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	CreatedAt int64  `json:"created_at"`
}

// CreatedTime converts the payload's unix-milliseconds timestamp
func (p OrganizationPayload) CreatedTime() time.Time {
	if p.CreatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.CreatedAt).UTC()
}

// Sign computes the hex HMAC-SHA256 signature of a webhook body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook body against its signature header
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
