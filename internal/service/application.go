package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

// Application service errors
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyApplied      = errors.New("already applied to this listing")
	ErrListingNotOpen      = errors.New("listing is not accepting applications")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrInvalidStage        = errors.New("unknown application stage")
)

// EventApplicationCreated is emitted after each successful application.
// The digest pipeline reads applications from the window instead of
// consuming these, but the event stream is there for future consumers.
const EventApplicationCreated = "application/created"

// ApplicationCreatedPayload is the payload of an application/created event
type ApplicationCreatedPayload struct {
	JobListingID   string `json:"job_listing_id"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
}

// ApplicationRepository defines the interface for application storage
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.JobListingApplication) error
	Get(ctx context.Context, listingID, userID string) (*model.JobListingApplication, error)
	SetRating(ctx context.Context, listingID, userID string, rating int) error
	SetStage(ctx context.Context, listingID, userID string, stage model.ApplicationStage) error
	ListByJobListing(ctx context.Context, listingID string) ([]*model.JobListingApplication, error)
	ListByUser(ctx context.Context, userID string) ([]*model.JobListingApplication, error)
}

type listingGetter interface {
	GetByID(ctx context.Context, id string) (*model.JobListing, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, name string, payloads ...interface{}) error
}

// ApplicationService handles application business logic
type ApplicationService struct {
	repo     ApplicationRepository
	listings listingGetter
	bus      eventEmitter
	logger   *zap.Logger
}

// ApplicationServiceConfig holds configuration for the application service
type ApplicationServiceConfig struct {
	Repo     ApplicationRepository
	Listings listingGetter
	Bus      eventEmitter
	Logger   *zap.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(cfg ApplicationServiceConfig) *ApplicationService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ApplicationService{
		repo:     cfg.Repo,
		listings: cfg.Listings,
		bus:      cfg.Bus,
		logger:   cfg.Logger,
	}
}

// Apply creates an application to a published listing. A second application
// by the same user fails with ErrAlreadyApplied.
func (s *ApplicationService) Apply(ctx context.Context, listingID, userID string, coverLetter *string) (*model.JobListingApplication, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if listing.Status != model.JobListingStatusPublished {
		return nil, ErrListingNotOpen
	}

	app := &model.JobListingApplication{
		JobListingID: listingID,
		UserID:       userID,
		CoverLetter:  coverLetter,
		Stage:        model.StageApplied,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyApplied
		}
		return nil, err
	}

	// The application is committed; a failed emit only loses the event.
	if s.bus != nil {
		payload := ApplicationCreatedPayload{
			JobListingID:   listingID,
			UserID:         userID,
			OrganizationID: listing.OrganizationID,
		}
		if err := s.bus.Emit(ctx, EventApplicationCreated, payload); err != nil {
			s.logger.Warn("application created event not emitted",
				zap.String("job_listing_id", listingID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return app, nil
}

// Rate sets the employer's 1-5 rating on an application
func (s *ApplicationService) Rate(ctx context.Context, orgID, listingID, applicantID string, rating int) error {
	if !model.ValidRating(rating) {
		return ErrInvalidRating
	}
	if err := s.ownedApplication(ctx, orgID, listingID, applicantID); err != nil {
		return err
	}
	return s.repo.SetRating(ctx, listingID, applicantID, rating)
}

// SetStage moves an application through the hiring funnel
func (s *ApplicationService) SetStage(ctx context.Context, orgID, listingID, applicantID string, stage model.ApplicationStage) error {
	if !model.ValidStage(stage) {
		return ErrInvalidStage
	}
	if err := s.ownedApplication(ctx, orgID, listingID, applicantID); err != nil {
		return err
	}
	return s.repo.SetStage(ctx, listingID, applicantID, stage)
}

// ListForListing returns a listing's applications to its owning organization
func (s *ApplicationService) ListForListing(ctx context.Context, orgID, listingID string) ([]*model.JobListingApplication, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if listing.OrganizationID != orgID {
		return nil, ErrNotListingOwner
	}
	return s.repo.ListByJobListing(ctx, listingID)
}

// ListForUser returns a job seeker's own applications
func (s *ApplicationService) ListForUser(ctx context.Context, userID string) ([]*model.JobListingApplication, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ApplicationService) ownedApplication(ctx context.Context, orgID, listingID, applicantID string) error {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing == nil {
		return ErrListingNotFound
	}
	if listing.OrganizationID != orgID {
		return ErrNotListingOwner
	}

	app, err := s.repo.Get(ctx, listingID, applicantID)
	if err != nil {
		return err
	}
	if app == nil {
		return ErrApplicationNotFound
	}
	return nil
}
