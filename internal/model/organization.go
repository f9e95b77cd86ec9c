package model

import "time"

// Organization is an employer account synced from the identity provider.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required organization fields
func (o *Organization) Validate() []FieldError {
	var errs []FieldError
	if o.ID == "" {
		errs = append(errs, FieldError{Field: "id", Message: "is required"})
	}
	if o.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	}
	return errs
}
