package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// UserRepository defines the interface for synced user storage
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// OrganizationRepository defines the interface for synced organization storage
type OrganizationRepository interface {
	Upsert(ctx context.Context, org *model.Organization) error
	Delete(ctx context.Context, id string) error
}

type settingsCleaner interface {
	DeleteUserSettings(ctx context.Context, userID string) error
}

// SyncService mirrors identity provider webhook events into local records
type SyncService struct {
	users    UserRepository
	orgs     OrganizationRepository
	settings settingsCleaner
	logger   *zap.Logger
}

// SyncServiceConfig holds configuration for the sync service
type SyncServiceConfig struct {
	Users    UserRepository
	Orgs     OrganizationRepository
	Settings settingsCleaner
	Logger   *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(cfg SyncServiceConfig) *SyncService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SyncService{
		users:    cfg.Users,
		orgs:     cfg.Orgs,
		settings: cfg.Settings,
		logger:   cfg.Logger,
	}
}

// UpsertUser mirrors a user created or updated at the provider
func (s *SyncService) UpsertUser(ctx context.Context, user *model.User) error {
	if errs := user.Validate(); len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user synced", zap.String("user_id", user.ID))
	return nil
}

// DeleteUser removes a deleted user and their notification settings
func (s *SyncService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.settings.DeleteUserSettings(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user removed", zap.String("user_id", userID))
	return nil
}

// UpsertOrganization mirrors an organization created or updated at the provider
func (s *SyncService) UpsertOrganization(ctx context.Context, org *model.Organization) error {
	if errs := org.Validate(); len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	if err := s.orgs.Upsert(ctx, org); err != nil {
		return err
	}
	s.logger.Info("organization synced", zap.String("organization_id", org.ID))
	return nil
}

// DeleteOrganization removes a deleted organization and everything under it
func (s *SyncService) DeleteOrganization(ctx context.Context, orgID string) error {
	if err := s.orgs.Delete(ctx, orgID); err != nil {
		return err
	}
	s.logger.Info("organization removed", zap.String("organization_id", orgID))
	return nil
}
