package model

import "time"

// User is a job seeker or employer account synced from the identity provider.
// The ID is the provider's user ID, not a database-generated one.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required user fields
func (u *User) Validate() []FieldError {
	var errs []FieldError
	if u.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "is required"})
	}
	if u.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "is required"})
	}
	if u.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	}
	return errs
}
