package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func validListing() JobListing {
	return JobListing{
		Title:               "Backend Engineer",
		Description:         "Build services",
		WageInterval:        WageIntervalYearly,
		StateAbbreviation:   ptr("CA"),
		LocationRequirement: LocationHybrid,
		ExperienceLevel:     ExperienceMid,
		Type:                JobTypeFullTime,
		Status:              JobListingStatusDraft,
	}
}

func TestJobListingValidate(t *testing.T) {
	t.Run("valid listing passes", func(t *testing.T) {
		l := validListing()
		assert.Empty(t, l.Validate())
	})

	t.Run("missing title and description", func(t *testing.T) {
		l := validListing()
		l.Title = ""
		l.Description = ""
		errs := l.Validate()
		assert.Len(t, errs, 2)
	})

	t.Run("remote listing needs no state", func(t *testing.T) {
		l := validListing()
		l.LocationRequirement = LocationRemote
		l.StateAbbreviation = nil
		assert.Empty(t, l.Validate())
	})

	t.Run("non-remote listing requires state", func(t *testing.T) {
		l := validListing()
		l.StateAbbreviation = nil
		errs := l.Validate()
		assert.Len(t, errs, 1)
		assert.Equal(t, "state_abbreviation", errs[0].Field)
	})

	t.Run("invalid enums rejected", func(t *testing.T) {
		l := validListing()
		l.WageInterval = "weekly"
		l.Type = "contract"
		assert.Len(t, l.Validate(), 2)
	})
}

func TestJobListingNextStatus(t *testing.T) {
	cases := []struct {
		from JobListingStatus
		want JobListingStatus
	}{
		{JobListingStatusDraft, JobListingStatusPublished},
		{JobListingStatusPublished, JobListingStatusDelisted},
		{JobListingStatusDelisted, JobListingStatusPublished},
	}
	for _, tc := range cases {
		l := JobListing{Status: tc.from}
		assert.Equal(t, tc.want, l.NextStatus(), "from %s", tc.from)
	}
}

func TestOrganizationUserSettingsMatches(t *testing.T) {
	t.Run("different organization never matches", func(t *testing.T) {
		s := OrganizationUserSettings{OrganizationID: "org_1"}
		assert.False(t, s.Matches("org_2", ptr(5)))
	})

	t.Run("unset threshold matches everything", func(t *testing.T) {
		s := OrganizationUserSettings{OrganizationID: "org_1"}
		assert.True(t, s.Matches("org_1", nil))
		assert.True(t, s.Matches("org_1", ptr(1)))
	})

	t.Run("threshold compares against rating", func(t *testing.T) {
		s := OrganizationUserSettings{OrganizationID: "org_1", MinimumRating: ptr(4)}
		assert.False(t, s.Matches("org_1", ptr(3)))
		assert.True(t, s.Matches("org_1", ptr(4)))
		assert.True(t, s.Matches("org_1", ptr(5)))
	})

	t.Run("nil rating counts as zero", func(t *testing.T) {
		s := OrganizationUserSettings{OrganizationID: "org_1", MinimumRating: ptr(1)}
		assert.False(t, s.Matches("org_1", nil))
	})
}

func TestUserNotificationSettingsHasAIPrompt(t *testing.T) {
	assert.False(t, (&UserNotificationSettings{}).HasAIPrompt())
	assert.False(t, (&UserNotificationSettings{AIPrompt: "   "}).HasAIPrompt())
	assert.True(t, (&UserNotificationSettings{AIPrompt: "remote go jobs"}).HasAIPrompt())
}
