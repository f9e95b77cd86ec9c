package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// ApplicationRepository handles job listing application data access
type ApplicationRepository struct {
	db database.Database
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db database.Database) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application. The record ID is derived from the
// listing and user pair, so a second application to the same listing fails
// with database.ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.JobListingApplication) error {
	query := `
		CREATE type::thing('job_listing_application', [$listing_id, $user_id]) CONTENT {
			job_listing_id: $listing_id,
			user_id: $user_id,
			cover_letter: $cover_letter,
			rating: $rating,
			stage: $stage,
			created_at: time::now(),
			updated_at: time::now()
		}
	`
	vars := map[string]interface{}{
		"listing_id":   app.JobListingID,
		"user_id":      app.UserID,
		"cover_letter": app.CoverLetter,
		"rating":       app.Rating,
		"stage":        app.Stage,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: user %s already applied to listing %s", database.ErrDuplicate, app.UserID, app.JobListingID)
		}
		return err
	}

	var created model.JobListingApplication
	if _, err := decodeRecord(result, &created); err != nil {
		return err
	}
	app.ID = bareID(created.ID, "job_listing_application")
	app.CreatedAt = created.CreatedAt
	app.UpdatedAt = created.UpdatedAt
	return nil
}

// Get retrieves one application by listing and user
func (r *ApplicationRepository) Get(ctx context.Context, listingID, userID string) (*model.JobListingApplication, error) {
	query := `SELECT * FROM type::thing('job_listing_application', [$listing_id, $user_id])`
	vars := map[string]interface{}{"listing_id": listingID, "user_id": userID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var app model.JobListingApplication
	found, err := decodeRecord(result, &app)
	if err != nil || !found {
		return nil, err
	}
	app.ID = bareID(app.ID, "job_listing_application")
	return &app, nil
}

// SetRating updates an application's rating
func (r *ApplicationRepository) SetRating(ctx context.Context, listingID, userID string, rating int) error {
	query := `UPDATE type::thing('job_listing_application', [$listing_id, $user_id]) SET rating = $rating, updated_at = time::now()`
	vars := map[string]interface{}{"listing_id": listingID, "user_id": userID, "rating": rating}
	return r.db.Execute(ctx, query, vars)
}

// SetStage updates an application's hiring stage
func (r *ApplicationRepository) SetStage(ctx context.Context, listingID, userID string, stage model.ApplicationStage) error {
	query := `UPDATE type::thing('job_listing_application', [$listing_id, $user_id]) SET stage = $stage, updated_at = time::now()`
	vars := map[string]interface{}{"listing_id": listingID, "user_id": userID, "stage": stage}
	return r.db.Execute(ctx, query, vars)
}

// ListByJobListing returns a listing's applications, newest first
func (r *ApplicationRepository) ListByJobListing(ctx context.Context, listingID string) ([]*model.JobListingApplication, error) {
	query := `SELECT * FROM job_listing_application WHERE job_listing_id = $listing_id ORDER BY created_at DESC`
	vars := map[string]interface{}{"listing_id": listingID}
	return r.list(ctx, query, vars)
}

// ListByUser returns a user's applications, newest first
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID string) ([]*model.JobListingApplication, error) {
	query := `SELECT * FROM job_listing_application WHERE user_id = $user_id ORDER BY created_at DESC`
	vars := map[string]interface{}{"user_id": userID}
	return r.list(ctx, query, vars)
}

// ListCreatedSince returns applications created on or after since, oldest
// first. This feeds the daily application digest window.
func (r *ApplicationRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*model.JobListingApplication, error) {
	query := `SELECT * FROM job_listing_application WHERE created_at >= $since ORDER BY created_at ASC`
	vars := map[string]interface{}{"since": since}
	return r.list(ctx, query, vars)
}

func (r *ApplicationRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.JobListingApplication, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	var apps []*model.JobListingApplication
	err = decodeRows(result, func(row map[string]interface{}) error {
		var app model.JobListingApplication
		if err := decodeRowInto(row, &app); err != nil {
			return err
		}
		app.ID = bareID(app.ID, "job_listing_application")
		apps = append(apps, &app)
		return nil
	})
	return apps, err
}
