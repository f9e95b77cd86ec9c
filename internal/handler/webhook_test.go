package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashot-israelyan/ai-job-board/internal/identity"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

type mockUserRepo struct {
	upserted *model.User
	deleted  string
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *model.User) error {
	m.upserted = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockOrgRepo struct {
	upserted *model.Organization
	deleted  string
}

func (m *mockOrgRepo) Upsert(ctx context.Context, org *model.Organization) error {
	m.upserted = org
	return nil
}

func (m *mockOrgRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockSettingsCleaner struct {
	deleted string
}

func (m *mockSettingsCleaner) DeleteUserSettings(ctx context.Context, userID string) error {
	m.deleted = userID
	return nil
}

const webhookSecret = "whsec-test"

func newWebhookFixture() (*WebhookHandler, *mockUserRepo, *mockOrgRepo, *mockSettingsCleaner) {
	users := &mockUserRepo{}
	orgs := &mockOrgRepo{}
	cleaner := &mockSettingsCleaner{}
	sync := service.NewSyncService(service.SyncServiceConfig{
		Users:    users,
		Orgs:     orgs,
		Settings: cleaner,
	})
	return NewWebhookHandler(sync, webhookSecret, nil), users, orgs, cleaner
}

func signedRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identity", bytes.NewReader([]byte(body)))
	req.Header.Set(SignatureHeader, identity.Sign(webhookSecret, []byte(body)))
	return req
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, users, _, _ := newWebhookFixture()

	body := `{"type":"user.created","data":{"id":"u1","name":"Ada","email":"ada@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identity", bytes.NewReader([]byte(body)))
	req.Header.Set(SignatureHeader, "deadbeef")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, users.upserted)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h, _, _, _ := newWebhookFixture()

	body := `{"type":"user.created","data":{"id":"u1"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/identity", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookUserCreated(t *testing.T) {
	h, users, _, _ := newWebhookFixture()

	body := `{"type":"user.created","data":{"id":"u1","name":"Ada Lovelace","email":"ada@example.com","image_url":"https://img.example.com/u1.png","created_at":1704067200000}}`
	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(body))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, users.upserted)
	assert.Equal(t, "u1", users.upserted.ID)
	assert.Equal(t, "ada@example.com", users.upserted.Email)
	assert.Equal(t, 2024, users.upserted.CreatedAt.Year())
}

func TestWebhookUserDeletedCleansSettings(t *testing.T) {
	h, users, _, cleaner := newWebhookFixture()

	body := `{"type":"user.deleted","data":{"id":"u1"}}`
	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(body))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", users.deleted)
	assert.Equal(t, "u1", cleaner.deleted)
}

func TestWebhookOrganizationLifecycle(t *testing.T) {
	h, _, orgs, _ := newWebhookFixture()

	created := `{"type":"organization.created","data":{"id":"o1","name":"Acme"}}`
	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(created))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, orgs.upserted)
	assert.Equal(t, "Acme", orgs.upserted.Name)

	deleted := `{"type":"organization.deleted","data":{"id":"o1"}}`
	rec = httptest.NewRecorder()
	h.Handle(rec, signedRequest(deleted))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "o1", orgs.deleted)
}

func TestWebhookIgnoresUnknownEventTypes(t *testing.T) {
	h, users, orgs, _ := newWebhookFixture()

	body := `{"type":"session.created","data":{"id":"s1"}}`
	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(body))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, users.upserted)
	assert.Nil(t, orgs.upserted)
}

func TestWebhookInvalidUserPayloadFailsValidation(t *testing.T) {
	h, _, _, _ := newWebhookFixture()

	// missing name and email
	body := `{"type":"user.created","data":{"id":"u1"}}`
	rec := httptest.NewRecorder()
	h.Handle(rec, signedRequest(body))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
