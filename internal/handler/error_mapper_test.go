package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashot-israelyan/ai-job-board/internal/identity"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"listing not found", service.ErrListingNotFound, http.StatusNotFound},
		{"application not found", service.ErrApplicationNotFound, http.StatusNotFound},
		{"not owner", service.ErrNotListingOwner, http.StatusForbidden},
		{"already applied", service.ErrAlreadyApplied, http.StatusConflict},
		{"listing closed", service.ErrListingNotOpen, http.StatusConflict},
		{"published limit", service.ErrPublishedLimitReached, http.StatusUnprocessableEntity},
		{"featured limit", service.ErrFeaturedLimitReached, http.StatusUnprocessableEntity},
		{"invalid rating", service.ErrInvalidRating, http.StatusBadRequest},
		{"invalid stage", service.ErrInvalidStage, http.StatusBadRequest},
		{"invalid minimum rating", service.ErrInvalidMinimumRating, http.StatusBadRequest},
		{"empty search query", service.ErrEmptySearchQuery, http.StatusBadRequest},
		{"search unavailable", service.ErrSearchUnavailable, http.StatusServiceUnavailable},
		{"invalid token", identity.ErrInvalidToken, http.StatusUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := MapServiceError(tt.err)
			assert.Equal(t, tt.status, problem.Status)
		})
	}
}

func TestMapServiceErrorPassesThroughProblems(t *testing.T) {
	original := model.NewValidationError([]model.FieldError{{Field: "title", Message: "is required"}})

	problem := MapServiceError(original)
	assert.Same(t, original, problem)
}

func TestMapServiceErrorUnwrapsWrappedSentinels(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), service.ErrListingNotFound)

	problem := MapServiceError(wrapped)
	assert.Equal(t, http.StatusNotFound, problem.Status)
}
