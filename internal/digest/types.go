package digest

import "fmt"

// Bus event names for the two digest flows
const (
	EventJobListings  = "digest/user-job-listings"
	EventApplications = "digest/organization-applications"
)

// Recipient is the contact information carried in a fan-out payload
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListingCandidate is one new listing carried in a job listings fan-out
type ListingCandidate struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	OrganizationName    string `json:"organization_name"`
	Wage                *int   `json:"wage,omitempty"`
	WageInterval        string `json:"wage_interval,omitempty"`
	City                string `json:"city,omitempty"`
	StateAbbreviation   string `json:"state_abbreviation,omitempty"`
	LocationRequirement string `json:"location_requirement"`
	ExperienceLevel     string `json:"experience_level"`
	Type                string `json:"type"`
}

// Location renders a short human-readable location
func (c ListingCandidate) Location() string {
	if c.LocationRequirement == "remote" {
		return "Remote"
	}
	switch {
	case c.City != "" && c.StateAbbreviation != "":
		return c.City + ", " + c.StateAbbreviation
	case c.City != "":
		return c.City
	default:
		return c.StateAbbreviation
	}
}

// WageText renders the wage, or "" when unset
func (c ListingCandidate) WageText() string {
	if c.Wage == nil {
		return ""
	}
	per := "year"
	if c.WageInterval == "hourly" {
		per = "hour"
	}
	return fmt.Sprintf("$%d / %s", *c.Wage, per)
}

// JobListingsFanOut is the payload of one digest/user-job-listings event
type JobListingsFanOut struct {
	User Recipient `json:"user"`
	// Date is the digest day in YYYY-MM-DD form, used for send dedupe
	Date     string `json:"date"`
	AIPrompt string `json:"ai_prompt,omitempty"`
	// Candidates is never empty; aggregation drops empty recipients
	Candidates []ListingCandidate `json:"candidates"`
}

// ApplicationCandidate is one new application carried in an applications fan-out
type ApplicationCandidate struct {
	ApplicantName    string `json:"applicant_name"`
	ListingTitle     string `json:"listing_title"`
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Rating           *int   `json:"rating,omitempty"`
}

// ApplicationsFanOut is the payload of one digest/organization-applications event
type ApplicationsFanOut struct {
	User       Recipient              `json:"user"`
	Date       string                 `json:"date"`
	Candidates []ApplicationCandidate `json:"candidates"`
}
