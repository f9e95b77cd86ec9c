package repository

import (
	"context"
	"errors"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// SettingsRepository handles both notification settings tables: the job
// seeker's daily listing opt-in and the employer member's per-organization
// application opt-in.
type SettingsRepository struct {
	db database.Database
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db database.Database) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// UpsertUserSettings creates or replaces a user's digest settings
func (r *SettingsRepository) UpsertUserSettings(ctx context.Context, s *model.UserNotificationSettings) error {
	query := `
		UPSERT type::thing('user_notification_settings', $user_id) CONTENT {
			user_id: $user_id,
			new_job_email_notifications: $opted_in,
			ai_prompt: $ai_prompt,
			updated_at: time::now()
		}
	`
	vars := map[string]interface{}{
		"user_id":   s.UserID,
		"opted_in":  s.NewJobEmailNotifications,
		"ai_prompt": s.AIPrompt,
	}
	return r.db.Execute(ctx, query, vars)
}

// GetUserSettings retrieves a user's digest settings
func (r *SettingsRepository) GetUserSettings(ctx context.Context, userID string) (*model.UserNotificationSettings, error) {
	query := `SELECT * FROM type::thing('user_notification_settings', $user_id)`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var s model.UserNotificationSettings
	found, err := decodeRecord(result, &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

// ListJobDigestSubscribers returns the settings of every user opted in to
// the daily job listing digest, ordered by user ID for deterministic fan-out.
func (r *SettingsRepository) ListJobDigestSubscribers(ctx context.Context) ([]*model.UserNotificationSettings, error) {
	query := `SELECT * FROM user_notification_settings WHERE new_job_email_notifications = true ORDER BY user_id ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var subs []*model.UserNotificationSettings
	err = decodeRows(result, func(row map[string]interface{}) error {
		var s model.UserNotificationSettings
		if err := decodeRowInto(row, &s); err != nil {
			return err
		}
		subs = append(subs, &s)
		return nil
	})
	return subs, err
}

// UpsertOrganizationUserSettings creates or replaces one member's settings
// for one organization.
func (r *SettingsRepository) UpsertOrganizationUserSettings(ctx context.Context, s *model.OrganizationUserSettings) error {
	query := `
		UPSERT type::thing('organization_user_settings', [$user_id, $org_id]) CONTENT {
			user_id: $user_id,
			organization_id: $org_id,
			new_application_email_notifications: $opted_in,
			minimum_rating: $minimum_rating,
			updated_at: time::now()
		}
	`
	vars := map[string]interface{}{
		"user_id":        s.UserID,
		"org_id":         s.OrganizationID,
		"opted_in":       s.NewApplicationEmailNotifications,
		"minimum_rating": s.MinimumRating,
	}
	return r.db.Execute(ctx, query, vars)
}

// GetOrganizationUserSettings retrieves one member's settings for one organization
func (r *SettingsRepository) GetOrganizationUserSettings(ctx context.Context, userID, orgID string) (*model.OrganizationUserSettings, error) {
	query := `SELECT * FROM type::thing('organization_user_settings', [$user_id, $org_id])`
	vars := map[string]interface{}{"user_id": userID, "org_id": orgID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var s model.OrganizationUserSettings
	found, err := decodeRecord(result, &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

// ListApplicationDigestSubscribers returns every subscription opted in to
// the application digest, ordered by user ID so a user's rows group together.
func (r *SettingsRepository) ListApplicationDigestSubscribers(ctx context.Context) ([]*model.OrganizationUserSettings, error) {
	query := `SELECT * FROM organization_user_settings WHERE new_application_email_notifications = true ORDER BY user_id ASC, organization_id ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var subs []*model.OrganizationUserSettings
	err = decodeRows(result, func(row map[string]interface{}) error {
		var s model.OrganizationUserSettings
		if err := decodeRowInto(row, &s); err != nil {
			return err
		}
		subs = append(subs, &s)
		return nil
	})
	return subs, err
}

// DeleteUserSettings removes every settings row for a user
func (r *SettingsRepository) DeleteUserSettings(ctx context.Context, userID string) error {
	batch := database.NewAtomicBatch()
	batch.Add(`DELETE type::thing('user_notification_settings', $user_id)`,
		map[string]interface{}{"user_id": userID})
	batch.Add(`DELETE organization_user_settings WHERE user_id = $user_id`,
		map[string]interface{}{"user_id": userID})
	return batch.Execute(ctx, r.db)
}
