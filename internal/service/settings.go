package service

import (
	"context"
	"errors"

	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// ErrInvalidMinimumRating indicates a threshold outside the 1-5 range
var ErrInvalidMinimumRating = errors.New("minimum rating must be between 1 and 5")

// SettingsRepository defines the interface for notification settings storage
type SettingsRepository interface {
	UpsertUserSettings(ctx context.Context, s *model.UserNotificationSettings) error
	GetUserSettings(ctx context.Context, userID string) (*model.UserNotificationSettings, error)
	UpsertOrganizationUserSettings(ctx context.Context, s *model.OrganizationUserSettings) error
	GetOrganizationUserSettings(ctx context.Context, userID, orgID string) (*model.OrganizationUserSettings, error)
}

// SettingsService handles notification settings business logic
type SettingsService struct {
	repo SettingsRepository
}

// SettingsServiceConfig holds configuration for the settings service
type SettingsServiceConfig struct {
	Repo SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(cfg SettingsServiceConfig) *SettingsService {
	return &SettingsService{repo: cfg.Repo}
}

// GetUserSettings returns a user's digest settings, defaulting to opted-out
// when the user never saved any.
func (s *SettingsService) GetUserSettings(ctx context.Context, userID string) (*model.UserNotificationSettings, error) {
	settings, err := s.repo.GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &model.UserNotificationSettings{UserID: userID}, nil
	}
	return settings, nil
}

// UpdateUserSettings saves a user's digest opt-in and AI prompt
func (s *SettingsService) UpdateUserSettings(ctx context.Context, settings *model.UserNotificationSettings) error {
	return s.repo.UpsertUserSettings(ctx, settings)
}

// GetOrganizationUserSettings returns one member's settings for one
// organization, defaulting to opted-out.
func (s *SettingsService) GetOrganizationUserSettings(ctx context.Context, userID, orgID string) (*model.OrganizationUserSettings, error) {
	settings, err := s.repo.GetOrganizationUserSettings(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &model.OrganizationUserSettings{UserID: userID, OrganizationID: orgID}, nil
	}
	return settings, nil
}

// UpdateOrganizationUserSettings saves one member's per-organization
// application digest settings.
func (s *SettingsService) UpdateOrganizationUserSettings(ctx context.Context, settings *model.OrganizationUserSettings) error {
	if settings.MinimumRating != nil && !model.ValidRating(*settings.MinimumRating) {
		return ErrInvalidMinimumRating
	}
	return s.repo.UpsertOrganizationUserSettings(ctx, settings)
}
