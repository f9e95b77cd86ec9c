package model

import "strings"

// UserNotificationSettings is a job seeker's digest opt-in.
// AIPrompt, when non-blank, filters the daily listings through the
// matching model before the email is sent.
type UserNotificationSettings struct {
	UserID                   string `json:"user_id"`
	NewJobEmailNotifications bool   `json:"new_job_email_notifications"`
	AIPrompt                 string `json:"ai_prompt,omitempty"`
}

// HasAIPrompt reports whether the prompt is non-blank
func (s *UserNotificationSettings) HasAIPrompt() bool {
	return strings.TrimSpace(s.AIPrompt) != ""
}

// OrganizationUserSettings is an employer member's per-organization
// application digest opt-in. A user holds one row per organization, so a
// member of several organizations can subscribe to each independently.
type OrganizationUserSettings struct {
	UserID                           string `json:"user_id"`
	OrganizationID                   string `json:"organization_id"`
	NewApplicationEmailNotifications bool   `json:"new_application_email_notifications"`
	MinimumRating                    *int   `json:"minimum_rating,omitempty"`
}

// Matches reports whether an application from orgID with the given rating
// qualifies under this subscription. A nil application rating counts as 0,
// and an unset MinimumRating matches everything.
func (s *OrganizationUserSettings) Matches(orgID string, rating *int) bool {
	if s.OrganizationID != orgID {
		return false
	}
	if s.MinimumRating == nil {
		return true
	}
	r := 0
	if rating != nil {
		r = *rating
	}
	return r >= *s.MinimumRating
}
