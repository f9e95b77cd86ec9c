package handler

import (
	"net/http"

	"github.com/ashot-israelyan/ai-job-board/internal/middleware"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

// SettingsHandler serves notification settings endpoints
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type userSettingsRequest struct {
	NewJobEmailNotifications bool   `json:"new_job_email_notifications"`
	AIPrompt                 string `json:"ai_prompt"`
}

type orgSettingsRequest struct {
	NewApplicationEmailNotifications bool `json:"new_application_email_notifications"`
	MinimumRating                    *int `json:"minimum_rating"`
}

// GetUserSettings handles GET /v1/users/me/notification-settings
func (h *SettingsHandler) GetUserSettings(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	settings, err := h.settings.GetUserSettings(r.Context(), ident.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, settings)
}

// UpdateUserSettings handles PUT /v1/users/me/notification-settings
func (h *SettingsHandler) UpdateUserSettings(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req userSettingsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	settings := &model.UserNotificationSettings{
		UserID:                   ident.UserID,
		NewJobEmailNotifications: req.NewJobEmailNotifications,
		AIPrompt:                 req.AIPrompt,
	}
	if err := h.settings.UpdateUserSettings(r.Context(), settings); err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, settings)
}

// GetOrgSettings handles GET /v1/organizations/me/notification-settings
func (h *SettingsHandler) GetOrgSettings(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	settings, err := h.settings.GetOrganizationUserSettings(r.Context(), ident.UserID, ident.OrganizationID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, settings)
}

// UpdateOrgSettings handles PUT /v1/organizations/me/notification-settings
func (h *SettingsHandler) UpdateOrgSettings(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req orgSettingsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	settings := &model.OrganizationUserSettings{
		UserID:                           ident.UserID,
		OrganizationID:                   ident.OrganizationID,
		NewApplicationEmailNotifications: req.NewApplicationEmailNotifications,
		MinimumRating:                    req.MinimumRating,
	}
	if err := h.settings.UpdateOrganizationUserSettings(r.Context(), settings); err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, settings)
}
