package handler

import (
	"errors"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/identity"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/service"
)

// MapServiceError converts service layer errors to problem details
func MapServiceError(err error) *model.ProblemDetails {
	var problem *model.ProblemDetails
	if errors.As(err, &problem) {
		return problem
	}

	switch {
	case errors.Is(err, service.ErrListingNotFound):
		return model.NewNotFoundError("Job listing")
	case errors.Is(err, service.ErrApplicationNotFound):
		return model.NewNotFoundError("Application")
	case errors.Is(err, service.ErrNotListingOwner):
		return model.NewForbiddenError("Listing belongs to another organization")
	case errors.Is(err, service.ErrAlreadyApplied):
		return model.NewConflictError("You have already applied to this listing")
	case errors.Is(err, service.ErrListingNotOpen):
		return model.NewConflictError("This listing is not accepting applications")
	case errors.Is(err, service.ErrPublishedLimitReached):
		return model.NewLimitExceededError("published listings", service.DefaultMaxPublishedListings, service.DefaultMaxPublishedListings)
	case errors.Is(err, service.ErrFeaturedLimitReached):
		return model.NewLimitExceededError("featured listings", service.DefaultMaxFeaturedListings, service.DefaultMaxFeaturedListings)
	case errors.Is(err, service.ErrInvalidRating):
		return model.NewBadRequestError("Rating must be between 1 and 5")
	case errors.Is(err, service.ErrInvalidStage):
		return model.NewBadRequestError("Unknown application stage")
	case errors.Is(err, service.ErrInvalidMinimumRating):
		return model.NewBadRequestError("Minimum rating must be between 1 and 5")
	case errors.Is(err, service.ErrEmptySearchQuery):
		return model.NewBadRequestError("Search query is required")
	case errors.Is(err, service.ErrSearchUnavailable):
		return model.NewServiceUnavailableError("AI search is not available")
	case errors.Is(err, identity.ErrInvalidToken):
		return model.NewUnauthorizedError("Invalid session token")
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("Resource")
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("Resource already exists")
	default:
		return model.NewInternalError("")
	}
}
