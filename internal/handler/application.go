package handler

import (
	"net/http"

	"github.com/ashot-israelyan/ai-job-board/internal/middleware"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

// ApplicationHandler serves job application endpoints
type ApplicationHandler struct {
	applications *service.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

type applyRequest struct {
	CoverLetter *string `json:"cover_letter"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

type stageRequest struct {
	Stage string `json:"stage"`
}

// Apply handles POST /v1/job-listings/{id}/applications
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req applyRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, model.NewBadRequestError(err.Error()))
			return
		}
	}

	app, err := h.applications.Apply(r.Context(), r.PathValue("id"), ident.UserID, req.CoverLetter)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, app)
}

// ListForListing handles GET /v1/organizations/me/job-listings/{id}/applications
func (h *ApplicationHandler) ListForListing(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	apps, err := h.applications.ListForListing(r.Context(), ident.OrganizationID, r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []*model.JobListingApplication{}
	}
	WriteData(w, http.StatusOK, apps)
}

// ListMine handles GET /v1/users/me/applications
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	apps, err := h.applications.ListForUser(r.Context(), ident.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []*model.JobListingApplication{}
	}
	WriteData(w, http.StatusOK, apps)
}

// Rate handles PUT /v1/organizations/me/job-listings/{id}/applications/{userID}/rating
func (h *ApplicationHandler) Rate(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req rateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	err := h.applications.Rate(r.Context(), ident.OrganizationID, r.PathValue("id"), r.PathValue("userID"), req.Rating)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteNoContent(w)
}

// SetStage handles PUT /v1/organizations/me/job-listings/{id}/applications/{userID}/stage
func (h *ApplicationHandler) SetStage(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())

	var req stageRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	err := h.applications.SetStage(r.Context(), ident.OrganizationID, r.PathValue("id"), r.PathValue("userID"), model.ApplicationStage(req.Stage))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteNoContent(w)
}
