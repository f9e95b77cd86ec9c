package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// UserRepository handles user data access. Users are synced from the
// identity provider, so writes are upserts keyed by the provider's user ID.
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates or replaces a user record
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		UPSERT type::thing('user', $user_id) CONTENT {
			name: $name,
			email: $email,
			image_url: $image_url,
			created_at: $created_at OR time::now(),
			updated_at: time::now()
		}
	`
	vars := map[string]interface{}{
		"user_id":    user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"image_url":  user.ImageURL,
		"created_at": nil,
	}
	if !user.CreatedAt.IsZero() {
		vars["created_at"] = user.CreatedAt
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: user %s", database.ErrDuplicate, user.ID)
		}
		return err
	}
	return nil
}

// GetByID retrieves a user by provider ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::thing('user', $user_id)`
	vars := map[string]interface{}{"user_id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var user model.User
	found, err := decodeRecord(result, &user)
	if err != nil || !found {
		return nil, err
	}
	user.ID = bareID(user.ID, "user")
	return &user, nil
}

// GetByIDs retrieves users for a set of provider IDs, keyed by ID.
// IDs with no record are simply absent from the map.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	users := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT * FROM user WHERE record::id(id) IN $ids`
	vars := map[string]interface{}{"ids": ids}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	err = decodeRows(result, func(row map[string]interface{}) error {
		var user model.User
		if err := decodeRowInto(row, &user); err != nil {
			return err
		}
		user.ID = bareID(user.ID, "user")
		users[user.ID] = &user
		return nil
	})
	return users, err
}

// Delete removes a user record
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::thing('user', $user_id)`
	return r.db.Execute(ctx, query, map[string]interface{}{"user_id": id})
}
