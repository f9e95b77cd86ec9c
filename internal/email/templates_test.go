package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderJobListingsDigest(t *testing.T) {
	body, err := RenderJobListingsDigest(JobListingsDigestData{
		UserName: "Ada",
		Matched:  true,
		Listings: []JobListingItem{
			{
				Title:            "Backend Engineer",
				OrganizationName: "Acme",
				Location:         "Remote",
				Wage:             "$150,000 / year",
				ExperienceLevel:  "senior",
				Type:             "full-time",
			},
			{
				Title:            "Platform Engineer",
				OrganizationName: "Initech",
				Location:         "Austin, TX",
			},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Backend Engineer")
	assert.Contains(t, body, "Acme")
	assert.Contains(t, body, "$150,000 / year")
	assert.Contains(t, body, "Platform Engineer")
	assert.Contains(t, body, "matched your job preferences")
}

func TestRenderJobListingsDigestEscapesHTML(t *testing.T) {
	body, err := RenderJobListingsDigest(JobListingsDigestData{
		UserName: "Ada",
		Listings: []JobListingItem{{Title: "<script>alert(1)</script>"}},
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRenderApplicationsDigest(t *testing.T) {
	body, err := RenderApplicationsDigest(ApplicationsDigestData{
		UserName: "Grace",
		Applications: []ApplicationItem{
			{
				ApplicantName:    "Alan",
				ListingTitle:     "Backend Engineer",
				OrganizationName: "Acme",
				Rating:           "4",
			},
			{
				ApplicantName:    "Edsger",
				ListingTitle:     "Backend Engineer",
				OrganizationName: "Acme",
			},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Grace")
	assert.Contains(t, body, "Alan")
	assert.Contains(t, body, "Rating: 4 / 5")
	assert.Contains(t, body, "Edsger")
}
