package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// OrganizationRepository handles organization data access. Like users,
// organizations are synced from the identity provider and keyed by its ID.
type OrganizationRepository struct {
	db database.Database
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db database.Database) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Upsert creates or replaces an organization record
func (r *OrganizationRepository) Upsert(ctx context.Context, org *model.Organization) error {
	query := `
		UPSERT type::thing('organization', $org_id) CONTENT {
			name: $name,
			image_url: $image_url,
			created_at: $created_at OR time::now(),
			updated_at: time::now()
		}
	`
	vars := map[string]interface{}{
		"org_id":     org.ID,
		"name":       org.Name,
		"image_url":  org.ImageURL,
		"created_at": nil,
	}
	if !org.CreatedAt.IsZero() {
		vars["created_at"] = org.CreatedAt
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: organization %s", database.ErrDuplicate, org.ID)
		}
		return err
	}
	return nil
}

// GetByID retrieves an organization by provider ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	query := `SELECT * FROM type::thing('organization', $org_id)`
	vars := map[string]interface{}{"org_id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var org model.Organization
	found, err := decodeRecord(result, &org)
	if err != nil || !found {
		return nil, err
	}
	org.ID = bareID(org.ID, "organization")
	return &org, nil
}

// GetByIDs retrieves organizations for a set of provider IDs, keyed by ID
func (r *OrganizationRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Organization, error) {
	orgs := make(map[string]*model.Organization, len(ids))
	if len(ids) == 0 {
		return orgs, nil
	}

	query := `SELECT * FROM organization WHERE record::id(id) IN $ids`
	vars := map[string]interface{}{"ids": ids}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	err = decodeRows(result, func(row map[string]interface{}) error {
		var org model.Organization
		if err := decodeRowInto(row, &org); err != nil {
			return err
		}
		org.ID = bareID(org.ID, "organization")
		orgs[org.ID] = &org
		return nil
	})
	return orgs, err
}

// Delete removes an organization and its dependent records atomically
func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	batch := database.NewAtomicBatch()
	batch.Add(`DELETE job_listing_application WHERE job_listing_id IN (SELECT VALUE record::id(id) FROM job_listing WHERE organization_id = $org_id)`,
		map[string]interface{}{"org_id": id})
	batch.Add(`DELETE job_listing WHERE organization_id = $org_id`,
		map[string]interface{}{"org_id": id})
	batch.Add(`DELETE organization_user_settings WHERE organization_id = $org_id`,
		map[string]interface{}{"org_id": id})
	batch.Add(`DELETE type::thing('organization', $org_id)`,
		map[string]interface{}{"org_id": id})
	return batch.Execute(ctx, r.db)
}
