package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashot-israelyan/ai-job-board/internal/ai"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/repository"
)

// Job listing service errors
var (
	ErrListingNotFound       = errors.New("job listing not found")
	ErrNotListingOwner       = errors.New("listing belongs to another organization")
	ErrPublishedLimitReached = errors.New("published listing limit reached")
	ErrFeaturedLimitReached  = errors.New("featured listing limit reached")
	ErrEmptySearchQuery      = errors.New("search query is required")
	ErrSearchUnavailable     = errors.New("ai search is not configured")
)

// Plan limit defaults
const (
	DefaultMaxPublishedListings = 15
	DefaultMaxFeaturedListings  = 1
)

// AISearchMaxResults caps how many listings an AI search returns
const AISearchMaxResults = 10

// JobListingRepository defines the interface for listing storage
type JobListingRepository interface {
	Create(ctx context.Context, listing *model.JobListing) error
	GetByID(ctx context.Context, id string) (*model.JobListing, error)
	Update(ctx context.Context, listing *model.JobListing) error
	SetStatus(ctx context.Context, id string, status model.JobListingStatus, postedAt *time.Time) error
	SetFeatured(ctx context.Context, id string, featured bool) error
	Delete(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, orgID string) ([]*model.JobListing, error)
	ListPublished(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error)
	CountActiveByOrganization(ctx context.Context, orgID string) (int, error)
	CountFeaturedByOrganization(ctx context.Context, orgID string) (int, error)
}

// PlanLimits bounds how many listings an organization can have live
type PlanLimits struct {
	MaxPublishedListings int
	MaxFeaturedListings  int
}

// JobListingService handles job listing business logic
type JobListingService struct {
	repo    JobListingRepository
	limits  PlanLimits
	matcher ai.Matcher
}

// JobListingServiceConfig holds configuration for the job listing service
type JobListingServiceConfig struct {
	Repo   JobListingRepository
	Limits PlanLimits
	// Matcher powers the natural-language search; nil disables it.
	Matcher ai.Matcher
}

// NewJobListingService creates a new job listing service
func NewJobListingService(cfg JobListingServiceConfig) *JobListingService {
	if cfg.Limits.MaxPublishedListings <= 0 {
		cfg.Limits.MaxPublishedListings = DefaultMaxPublishedListings
	}
	if cfg.Limits.MaxFeaturedListings <= 0 {
		cfg.Limits.MaxFeaturedListings = DefaultMaxFeaturedListings
	}
	return &JobListingService{repo: cfg.Repo, limits: cfg.Limits, matcher: cfg.Matcher}
}

// Create adds a new draft listing for an organization
func (s *JobListingService) Create(ctx context.Context, orgID string, listing *model.JobListing) error {
	listing.OrganizationID = orgID
	listing.Status = model.JobListingStatusDraft
	listing.IsFeatured = false
	listing.PostedAt = nil

	if errs := listing.Validate(); len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	return s.repo.Create(ctx, listing)
}

// Get returns a listing visible to the caller: published listings are
// public, drafts and delisted listings only show to their owner.
func (s *JobListingService) Get(ctx context.Context, id, callerOrgID string) (*model.JobListing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if listing.Status != model.JobListingStatusPublished && listing.OrganizationID != callerOrgID {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// Update replaces the editable fields of an owned listing
func (s *JobListingService) Update(ctx context.Context, orgID string, listing *model.JobListing) error {
	existing, err := s.owned(ctx, orgID, listing.ID)
	if err != nil {
		return err
	}
	listing.OrganizationID = existing.OrganizationID

	if errs := listing.Validate(); len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	return s.repo.Update(ctx, listing)
}

// ToggleStatus publishes a draft or delisted listing, or delists a
// published one. Publishing checks the plan limit and stamps PostedAt on
// first publish only.
func (s *JobListingService) ToggleStatus(ctx context.Context, orgID, id string) (*model.JobListing, error) {
	listing, err := s.owned(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	next := listing.NextStatus()
	var postedAt *time.Time
	if next == model.JobListingStatusPublished {
		count, err := s.repo.CountActiveByOrganization(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if count >= s.limits.MaxPublishedListings {
			return nil, ErrPublishedLimitReached
		}
		if listing.PostedAt == nil {
			now := time.Now().UTC()
			postedAt = &now
		}
	}

	if err := s.repo.SetStatus(ctx, id, next, postedAt); err != nil {
		return nil, err
	}
	listing.Status = next
	if postedAt != nil {
		listing.PostedAt = postedAt
	}
	return listing, nil
}

// ToggleFeatured flips the featured flag, checking the plan limit when
// turning it on.
func (s *JobListingService) ToggleFeatured(ctx context.Context, orgID, id string) (*model.JobListing, error) {
	listing, err := s.owned(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if !listing.IsFeatured {
		count, err := s.repo.CountFeaturedByOrganization(ctx, orgID)
		if err != nil {
			return nil, err
		}
		if count >= s.limits.MaxFeaturedListings {
			return nil, ErrFeaturedLimitReached
		}
	}

	if err := s.repo.SetFeatured(ctx, id, !listing.IsFeatured); err != nil {
		return nil, err
	}
	listing.IsFeatured = !listing.IsFeatured
	return listing, nil
}

// Delete removes an owned listing and its applications
func (s *JobListingService) Delete(ctx context.Context, orgID, id string) error {
	if _, err := s.owned(ctx, orgID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ListForOrganization returns all of an organization's own listings
func (s *JobListingService) ListForOrganization(ctx context.Context, orgID string) ([]*model.JobListing, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

// Search returns published listings matching the filter
func (s *JobListingService) Search(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error) {
	return s.repo.ListPublished(ctx, filter)
}

// AISearch matches published listings against a natural-language query.
// An empty match is not an error; the result is simply empty.
func (s *JobListingService) AISearch(ctx context.Context, query string) ([]*model.JobListing, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptySearchQuery
	}
	if s.matcher == nil {
		return nil, ErrSearchUnavailable
	}

	listings, err := s.repo.ListPublished(ctx, repository.JobListingFilter{})
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, nil
	}

	candidates := make([]ai.Candidate, 0, len(listings))
	byID := make(map[string]*model.JobListing, len(listings))
	for _, l := range listings {
		candidates = append(candidates, searchCandidate(l))
		byID[l.ID] = l
	}

	ids, err := s.matcher.Match(ctx, query, candidates, ai.MatchOptions{MaxResults: AISearchMaxResults})
	if err != nil {
		return nil, fmt.Errorf("match listings: %w", err)
	}

	matched := make([]*model.JobListing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

// searchCandidate flattens a listing into the matcher's candidate shape
func searchCandidate(l *model.JobListing) ai.Candidate {
	c := ai.Candidate{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Experience:  string(l.ExperienceLevel),
		Type:        string(l.Type),
	}

	if l.LocationRequirement == model.LocationRemote {
		c.Location = "Remote"
	} else {
		city, state := "", ""
		if l.City != nil {
			city = *l.City
		}
		if l.StateAbbreviation != nil {
			state = *l.StateAbbreviation
		}
		switch {
		case city != "" && state != "":
			c.Location = city + ", " + state
		case city != "":
			c.Location = city
		default:
			c.Location = state
		}
	}

	if l.Wage != nil {
		per := "year"
		if l.WageInterval == model.WageIntervalHourly {
			per = "hour"
		}
		c.Wage = fmt.Sprintf("$%d / %s", *l.Wage, per)
	}
	return c
}

func (s *JobListingService) owned(ctx context.Context, orgID, id string) (*model.JobListing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if listing.OrganizationID != orgID {
		return nil, ErrNotListingOwner
	}
	return listing, nil
}
