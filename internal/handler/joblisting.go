package handler

import (
	"net/http"

	"github.com/ashot-israelyan/ai-job-board/internal/middleware"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/repository"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

// JobListingHandler serves job listing endpoints
type JobListingHandler struct {
	listings *service.JobListingService
}

// NewJobListingHandler creates a new job listing handler
func NewJobListingHandler(listings *service.JobListingService) *JobListingHandler {
	return &JobListingHandler{listings: listings}
}

type jobListingRequest struct {
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Wage                *int    `json:"wage"`
	WageInterval        string  `json:"wage_interval"`
	StateAbbreviation   *string `json:"state_abbreviation"`
	City                *string `json:"city"`
	LocationRequirement string  `json:"location_requirement"`
	ExperienceLevel     string  `json:"experience_level"`
	Type                string  `json:"type"`
}

func (req *jobListingRequest) toModel() *model.JobListing {
	return &model.JobListing{
		Title:               req.Title,
		Description:         req.Description,
		Wage:                req.Wage,
		WageInterval:        model.WageInterval(req.WageInterval),
		StateAbbreviation:   req.StateAbbreviation,
		City:                req.City,
		LocationRequirement: model.LocationRequirement(req.LocationRequirement),
		ExperienceLevel:     model.ExperienceLevel(req.ExperienceLevel),
		Type:                model.JobListingType(req.Type),
	}
}

// Create handles POST /v1/organizations/me/job-listings
func (h *JobListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req jobListingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	listing := req.toModel()
	if err := h.listings.Create(r.Context(), ident.OrganizationID, listing); err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, listing)
}

// Get handles GET /v1/job-listings/{id}
func (h *JobListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerOrgID := ""
	if ident := middleware.GetIdentity(r.Context()); ident != nil {
		callerOrgID = ident.OrganizationID
	}

	listing, err := h.listings.Get(r.Context(), r.PathValue("id"), callerOrgID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, listing)
}

// Update handles PUT /v1/organizations/me/job-listings/{id}
func (h *JobListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req jobListingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	listing := req.toModel()
	listing.ID = r.PathValue("id")
	if err := h.listings.Update(r.Context(), ident.OrganizationID, listing); err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, listing)
}

// ToggleStatus handles POST /v1/organizations/me/job-listings/{id}/status
func (h *JobListingHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	listing, err := h.listings.ToggleStatus(r.Context(), ident.OrganizationID, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, listing)
}

// ToggleFeatured handles POST /v1/organizations/me/job-listings/{id}/featured
func (h *JobListingHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	listing, err := h.listings.ToggleFeatured(r.Context(), ident.OrganizationID, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusOK, listing)
}

// Delete handles DELETE /v1/organizations/me/job-listings/{id}
func (h *JobListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	if err := h.listings.Delete(r.Context(), ident.OrganizationID, r.PathValue("id")); err != nil {
		WriteError(w, err)
		return
	}
	WriteNoContent(w)
}

// ListMine handles GET /v1/organizations/me/job-listings
func (h *JobListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	listings, err := h.listings.ListForOrganization(r.Context(), ident.OrganizationID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if listings == nil {
		listings = []*model.JobListing{}
	}
	WriteData(w, http.StatusOK, listings)
}

type aiSearchRequest struct {
	Query string `json:"query"`
}

// AISearch handles POST /v1/job-listings/ai-search
func (h *JobListingHandler) AISearch(w http.ResponseWriter, r *http.Request) {
	var req aiSearchRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	listings, err := h.listings.AISearch(r.Context(), req.Query)
	if err != nil {
		WriteError(w, err)
		return
	}
	if listings == nil {
		listings = []*model.JobListing{}
	}
	WriteData(w, http.StatusOK, listings)
}

// Search handles GET /v1/job-listings
func (h *JobListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.JobListingFilter{
		Title:               q.Get("title"),
		City:                q.Get("city"),
		StateAbbreviation:   q.Get("state"),
		LocationRequirement: model.LocationRequirement(q.Get("location_requirement")),
		ExperienceLevel:     model.ExperienceLevel(q.Get("experience_level")),
		Type:                model.JobListingType(q.Get("type")),
	}

	listings, err := h.listings.Search(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	if listings == nil {
		listings = []*model.JobListing{}
	}
	WriteData(w, http.StatusOK, listings)
}
