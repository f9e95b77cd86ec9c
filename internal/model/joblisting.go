package model

import (
	"fmt"
	"time"
)

// JobListingStatus is the lifecycle state of a listing
type JobListingStatus string

const (
	JobListingStatusDraft     JobListingStatus = "draft"
	JobListingStatusPublished JobListingStatus = "published"
	JobListingStatusDelisted  JobListingStatus = "delisted"
)

// WageInterval is how the wage figure is expressed
type WageInterval string

const (
	WageIntervalHourly WageInterval = "hourly"
	WageIntervalYearly WageInterval = "yearly"
)

// LocationRequirement is where the work happens
type LocationRequirement string

const (
	LocationInOffice LocationRequirement = "in-office"
	LocationHybrid   LocationRequirement = "hybrid"
	LocationRemote   LocationRequirement = "remote"
)

// ExperienceLevel buckets seniority
type ExperienceLevel string

const (
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid-level"
	ExperienceSenior ExperienceLevel = "senior"
)

// JobListingType is the employment type
type JobListingType string

const (
	JobTypeFullTime   JobListingType = "full-time"
	JobTypePartTime   JobListingType = "part-time"
	JobTypeInternship JobListingType = "internship"
)

// JobListing is a job posting owned by an organization.
// PostedAt is set on first publish and preserved across delist/republish.
type JobListing struct {
	ID                  string              `json:"id"`
	OrganizationID      string              `json:"organization_id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Wage                *int                `json:"wage,omitempty"`
	WageInterval        WageInterval        `json:"wage_interval"`
	StateAbbreviation   *string             `json:"state_abbreviation,omitempty"`
	City                *string             `json:"city,omitempty"`
	LocationRequirement LocationRequirement `json:"location_requirement"`
	ExperienceLevel     ExperienceLevel     `json:"experience_level"`
	Type                JobListingType      `json:"type"`
	Status              JobListingStatus    `json:"status"`
	IsFeatured          bool                `json:"is_featured"`
	PostedAt            *time.Time          `json:"posted_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NextStatus returns the status a toggle transitions to:
// draft and delisted listings publish, published listings delist.
func (j *JobListing) NextStatus() JobListingStatus {
	if j.Status == JobListingStatusPublished {
		return JobListingStatusDelisted
	}
	return JobListingStatusPublished
}

// Validate checks listing fields against the allowed enumerations
func (j *JobListing) Validate() []FieldError {
	var errs []FieldError
	if j.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "is required"})
	}
	if j.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "is required"})
	}
	if j.Wage != nil && *j.Wage <= 0 {
		errs = append(errs, FieldError{Field: "wage", Message: "must be positive"})
	}
	switch j.WageInterval {
	case WageIntervalHourly, WageIntervalYearly:
	default:
		errs = append(errs, FieldError{Field: "wage_interval", Message: fmt.Sprintf("invalid value %q", j.WageInterval)})
	}
	switch j.LocationRequirement {
	case LocationInOffice, LocationHybrid, LocationRemote:
	default:
		errs = append(errs, FieldError{Field: "location_requirement", Message: fmt.Sprintf("invalid value %q", j.LocationRequirement)})
	}
	if j.LocationRequirement != LocationRemote && (j.StateAbbreviation == nil || *j.StateAbbreviation == "") {
		errs = append(errs, FieldError{Field: "state_abbreviation", Message: "is required unless the listing is remote"})
	}
	switch j.ExperienceLevel {
	case ExperienceJunior, ExperienceMid, ExperienceSenior:
	default:
		errs = append(errs, FieldError{Field: "experience_level", Message: fmt.Sprintf("invalid value %q", j.ExperienceLevel)})
	}
	switch j.Type {
	case JobTypeFullTime, JobTypePartTime, JobTypeInternship:
	default:
		errs = append(errs, FieldError{Field: "type", Message: fmt.Sprintf("invalid value %q", j.Type)})
	}
	return errs
}
