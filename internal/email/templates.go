package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

// Digest email subjects
const (
	JobListingsSubject  = "Daily Job Listings"
	ApplicationsSubject = "Daily Job Listing Applications"
)

//go:embed templates/*.html
var templateFS embed.FS

var digestTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// JobListingItem is one listing rendered in the job listings digest
type JobListingItem struct {
	Title            string
	OrganizationName string
	Location         string
	Wage             string
	ExperienceLevel  string
	Type             string
}

// JobListingsDigestData fills the job listings digest template
type JobListingsDigestData struct {
	UserName string
	// Matched is true when the listings were filtered by the user's prompt
	Matched  bool
	Listings []JobListingItem
}

// ApplicationItem is one application rendered in the applications digest
type ApplicationItem struct {
	ApplicantName    string
	ListingTitle     string
	OrganizationName string
	// Rating is empty when the application is unrated
	Rating string
}

// ApplicationsDigestData fills the applications digest template
type ApplicationsDigestData struct {
	UserName     string
	Applications []ApplicationItem
}

// RenderJobListingsDigest renders the job listings digest body
func RenderJobListingsDigest(data JobListingsDigestData) (string, error) {
	return render("job_listings.html", data)
}

// RenderApplicationsDigest renders the applications digest body
func RenderApplicationsDigest(data ApplicationsDigestData) (string, error) {
	return render("applications.html", data)
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
