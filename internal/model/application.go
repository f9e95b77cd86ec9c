package model

import "time"

// ApplicationStage tracks where an application sits in the hiring funnel
type ApplicationStage string

const (
	StageApplied     ApplicationStage = "applied"
	StageInterested  ApplicationStage = "interested"
	StageInterviewed ApplicationStage = "interviewed"
	StageHired       ApplicationStage = "hired"
	StageDenied      ApplicationStage = "denied"
)

// JobListingApplication is one user's application to one listing.
// A user can apply to a listing at most once.
type JobListingApplication struct {
	ID           string           `json:"id"`
	JobListingID string           `json:"job_listing_id"`
	UserID       string           `json:"user_id"`
	CoverLetter  *string          `json:"cover_letter,omitempty"`
	Rating       *int             `json:"rating,omitempty"`
	Stage        ApplicationStage `json:"stage"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ValidStage reports whether s is one of the known stages
func ValidStage(s ApplicationStage) bool {
	switch s {
	case StageApplied, StageInterested, StageInterviewed, StageHired, StageDenied:
		return true
	}
	return false
}

// ValidRating reports whether r is in the 1-5 range
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}
