package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// JobListingFilter narrows public listing searches. Zero-value fields are
// ignored.
type JobListingFilter struct {
	Title               string
	City                string
	StateAbbreviation   string
	LocationRequirement model.LocationRequirement
	ExperienceLevel     model.ExperienceLevel
	Type                model.JobListingType
}

// JobListingRepository handles job listing data access
type JobListingRepository struct {
	db database.Database
}

// NewJobListingRepository creates a new job listing repository
func NewJobListingRepository(db database.Database) *JobListingRepository {
	return &JobListingRepository{db: db}
}

// Create inserts a new listing and fills in its generated ID and timestamps
func (r *JobListingRepository) Create(ctx context.Context, listing *model.JobListing) error {
	query := `
		CREATE job_listing CONTENT {
			organization_id: $organization_id,
			title: $title,
			description: $description,
			wage: $wage,
			wage_interval: $wage_interval,
			state_abbreviation: $state_abbreviation,
			city: $city,
			location_requirement: $location_requirement,
			experience_level: $experience_level,
			type: $type,
			status: $status,
			is_featured: $is_featured,
			posted_at: $posted_at,
			created_at: time::now(),
			updated_at: time::now()
		}
	`
	vars := map[string]interface{}{
		"organization_id":      listing.OrganizationID,
		"title":                listing.Title,
		"description":          listing.Description,
		"wage":                 listing.Wage,
		"wage_interval":        listing.WageInterval,
		"state_abbreviation":   listing.StateAbbreviation,
		"city":                 listing.City,
		"location_requirement": listing.LocationRequirement,
		"experience_level":     listing.ExperienceLevel,
		"type":                 listing.Type,
		"status":               listing.Status,
		"is_featured":          listing.IsFeatured,
		"posted_at":            listing.PostedAt,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}

	var created model.JobListing
	if _, err := decodeRecord(result, &created); err != nil {
		return err
	}
	listing.ID = bareID(created.ID, "job_listing")
	listing.CreatedAt = created.CreatedAt
	listing.UpdatedAt = created.UpdatedAt
	return nil
}

// GetByID retrieves a listing by ID
func (r *JobListingRepository) GetByID(ctx context.Context, id string) (*model.JobListing, error) {
	query := `SELECT * FROM type::thing('job_listing', $listing_id)`
	vars := map[string]interface{}{"listing_id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var listing model.JobListing
	found, err := decodeRecord(result, &listing)
	if err != nil || !found {
		return nil, err
	}
	listing.ID = bareID(listing.ID, "job_listing")
	return &listing, nil
}

// GetByIDs retrieves listings for a set of IDs, keyed by ID
func (r *JobListingRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*model.JobListing, error) {
	listings := make(map[string]*model.JobListing, len(ids))
	if len(ids) == 0 {
		return listings, nil
	}

	query := `SELECT * FROM job_listing WHERE record::id(id) IN $ids`
	vars := map[string]interface{}{"ids": ids}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	err = decodeRows(result, func(row map[string]interface{}) error {
		var listing model.JobListing
		if err := decodeRowInto(row, &listing); err != nil {
			return err
		}
		listing.ID = bareID(listing.ID, "job_listing")
		listings[listing.ID] = &listing
		return nil
	})
	return listings, err
}

// Update replaces the mutable fields of a listing
func (r *JobListingRepository) Update(ctx context.Context, listing *model.JobListing) error {
	query := `
		UPDATE type::thing('job_listing', $listing_id) SET
			title = $title,
			description = $description,
			wage = $wage,
			wage_interval = $wage_interval,
			state_abbreviation = $state_abbreviation,
			city = $city,
			location_requirement = $location_requirement,
			experience_level = $experience_level,
			type = $type,
			updated_at = time::now()
	`
	vars := map[string]interface{}{
		"listing_id":           listing.ID,
		"title":                listing.Title,
		"description":          listing.Description,
		"wage":                 listing.Wage,
		"wage_interval":        listing.WageInterval,
		"state_abbreviation":   listing.StateAbbreviation,
		"city":                 listing.City,
		"location_requirement": listing.LocationRequirement,
		"experience_level":     listing.ExperienceLevel,
		"type":                 listing.Type,
	}
	return r.db.Execute(ctx, query, vars)
}

// SetStatus updates a listing's status. postedAt is written only when
// non-nil, so the first-publish timestamp survives delist and republish.
func (r *JobListingRepository) SetStatus(ctx context.Context, id string, status model.JobListingStatus, postedAt *time.Time) error {
	query := `
		UPDATE type::thing('job_listing', $listing_id) SET
			status = $status,
			posted_at = $posted_at OR posted_at,
			updated_at = time::now()
	`
	vars := map[string]interface{}{
		"listing_id": id,
		"status":     status,
		"posted_at":  postedAt,
	}
	return r.db.Execute(ctx, query, vars)
}

// SetFeatured toggles the featured flag
func (r *JobListingRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	query := `UPDATE type::thing('job_listing', $listing_id) SET is_featured = $featured, updated_at = time::now()`
	vars := map[string]interface{}{"listing_id": id, "featured": featured}
	return r.db.Execute(ctx, query, vars)
}

// Delete removes a listing and its applications atomically
func (r *JobListingRepository) Delete(ctx context.Context, id string) error {
	batch := database.NewAtomicBatch()
	batch.Add(`DELETE job_listing_application WHERE job_listing_id = $listing_id`,
		map[string]interface{}{"listing_id": id})
	batch.Add(`DELETE type::thing('job_listing', $listing_id)`,
		map[string]interface{}{"listing_id": id})
	return batch.Execute(ctx, r.db)
}

// ListByOrganization returns all of an organization's listings, newest first
func (r *JobListingRepository) ListByOrganization(ctx context.Context, orgID string) ([]*model.JobListing, error) {
	query := `SELECT * FROM job_listing WHERE organization_id = $org_id ORDER BY created_at DESC`
	vars := map[string]interface{}{"org_id": orgID}
	return r.list(ctx, query, vars)
}

// ListPublished returns published listings matching the filter, featured
// first and then newest first.
func (r *JobListingRepository) ListPublished(ctx context.Context, filter JobListingFilter) ([]*model.JobListing, error) {
	query := `SELECT * FROM job_listing WHERE status = 'published'`
	vars := map[string]interface{}{}

	if filter.Title != "" {
		query += ` AND string::lowercase(title) CONTAINS string::lowercase($title)`
		vars["title"] = filter.Title
	}
	if filter.City != "" {
		query += ` AND string::lowercase(city) CONTAINS string::lowercase($city)`
		vars["city"] = filter.City
	}
	if filter.StateAbbreviation != "" {
		query += ` AND state_abbreviation = $state`
		vars["state"] = filter.StateAbbreviation
	}
	if filter.LocationRequirement != "" {
		query += ` AND location_requirement = $location_requirement`
		vars["location_requirement"] = filter.LocationRequirement
	}
	if filter.ExperienceLevel != "" {
		query += ` AND experience_level = $experience_level`
		vars["experience_level"] = filter.ExperienceLevel
	}
	if filter.Type != "" {
		query += ` AND type = $type`
		vars["type"] = filter.Type
	}

	query += ` ORDER BY is_featured DESC, posted_at DESC`
	return r.list(ctx, query, vars)
}

// ListPublishedSince returns listings first published on or after since,
// ordered by posting time. This feeds the daily digest window.
func (r *JobListingRepository) ListPublishedSince(ctx context.Context, since time.Time) ([]*model.JobListing, error) {
	query := `SELECT * FROM job_listing WHERE status = 'published' AND posted_at != NONE AND posted_at >= $since ORDER BY posted_at ASC`
	vars := map[string]interface{}{"since": since}
	return r.list(ctx, query, vars)
}

// CountActiveByOrganization counts an organization's published listings
func (r *JobListingRepository) CountActiveByOrganization(ctx context.Context, orgID string) (int, error) {
	query := `SELECT count() AS count FROM job_listing WHERE organization_id = $org_id AND status = 'published' GROUP ALL`
	return r.count(ctx, query, map[string]interface{}{"org_id": orgID})
}

// CountFeaturedByOrganization counts an organization's featured published listings
func (r *JobListingRepository) CountFeaturedByOrganization(ctx context.Context, orgID string) (int, error) {
	query := `SELECT count() AS count FROM job_listing WHERE organization_id = $org_id AND status = 'published' AND is_featured = true GROUP ALL`
	return r.count(ctx, query, map[string]interface{}{"org_id": orgID})
}

func (r *JobListingRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.JobListing, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	var listings []*model.JobListing
	err = decodeRows(result, func(row map[string]interface{}) error {
		var listing model.JobListing
		if err := decodeRowInto(row, &listing); err != nil {
			return err
		}
		listing.ID = bareID(listing.ID, "job_listing")
		listings = append(listings, &listing)
		return nil
	})
	return listings, err
}

func (r *JobListingRepository) count(ctx context.Context, query string, vars map[string]interface{}) (int, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	rows := rowsOf(result)
	if len(rows) == 0 {
		return 0, nil
	}
	return getInt(rows[0], "count"), nil
}
