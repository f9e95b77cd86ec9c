package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashot-israelyan/ai-job-board/internal/ai"
	"github.com/ashot-israelyan/ai-job-board/internal/model"
	"github.com/ashot-israelyan/ai-job-board/internal/repository"
)

type mockMatcher struct {
	matchFn func(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error)
}

func (m *mockMatcher) Match(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error) {
	return m.matchFn(ctx, prompt, candidates, opts)
}

type mockListingRepo struct {
	createFn        func(ctx context.Context, listing *model.JobListing) error
	getByIDFn       func(ctx context.Context, id string) (*model.JobListing, error)
	updateFn        func(ctx context.Context, listing *model.JobListing) error
	setStatusFn     func(ctx context.Context, id string, status model.JobListingStatus, postedAt *time.Time) error
	setFeaturedFn   func(ctx context.Context, id string, featured bool) error
	deleteFn        func(ctx context.Context, id string) error
	listByOrgFn     func(ctx context.Context, orgID string) ([]*model.JobListing, error)
	listPublishedFn func(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error)
	countActiveFn   func(ctx context.Context, orgID string) (int, error)
	countFeaturedFn func(ctx context.Context, orgID string) (int, error)
}

func (m *mockListingRepo) Create(ctx context.Context, listing *model.JobListing) error {
	return m.createFn(ctx, listing)
}

func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*model.JobListing, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockListingRepo) Update(ctx context.Context, listing *model.JobListing) error {
	return m.updateFn(ctx, listing)
}

func (m *mockListingRepo) SetStatus(ctx context.Context, id string, status model.JobListingStatus, postedAt *time.Time) error {
	return m.setStatusFn(ctx, id, status, postedAt)
}

func (m *mockListingRepo) SetFeatured(ctx context.Context, id string, featured bool) error {
	return m.setFeaturedFn(ctx, id, featured)
}

func (m *mockListingRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockListingRepo) ListByOrganization(ctx context.Context, orgID string) ([]*model.JobListing, error) {
	return m.listByOrgFn(ctx, orgID)
}

func (m *mockListingRepo) ListPublished(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error) {
	return m.listPublishedFn(ctx, filter)
}

func (m *mockListingRepo) CountActiveByOrganization(ctx context.Context, orgID string) (int, error) {
	return m.countActiveFn(ctx, orgID)
}

func (m *mockListingRepo) CountFeaturedByOrganization(ctx context.Context, orgID string) (int, error) {
	return m.countFeaturedFn(ctx, orgID)
}

func validListing(id, orgID string) *model.JobListing {
	return &model.JobListing{
		ID:                  id,
		OrganizationID:      orgID,
		Title:               "Backend Engineer",
		Description:         "Build things",
		WageInterval:        model.WageIntervalYearly,
		LocationRequirement: model.LocationRemote,
		ExperienceLevel:     model.ExperienceSenior,
		Type:                model.JobTypeFullTime,
		Status:              model.JobListingStatusDraft,
	}
}

func TestCreateListingStartsAsDraft(t *testing.T) {
	var created *model.JobListing
	repo := &mockListingRepo{
		createFn: func(ctx context.Context, listing *model.JobListing) error {
			created = listing
			return nil
		},
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo})

	listing := validListing("", "")
	listing.Status = model.JobListingStatusPublished
	require.NoError(t, svc.Create(context.Background(), "o1", listing))

	assert.Equal(t, "o1", created.OrganizationID)
	assert.Equal(t, model.JobListingStatusDraft, created.Status)
	assert.Nil(t, created.PostedAt)
}

func TestCreateListingValidates(t *testing.T) {
	svc := NewJobListingService(JobListingServiceConfig{Repo: &mockListingRepo{}})

	err := svc.Create(context.Background(), "o1", &model.JobListing{})
	require.Error(t, err)

	var problem *model.ProblemDetails
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, model.ErrCodeValidation, problem.Code)
}

func TestToggleStatusFirstPublishStampsPostedAt(t *testing.T) {
	listing := validListing("j1", "o1")
	var gotPostedAt *time.Time
	repo := &mockListingRepo{
		getByIDFn:     func(ctx context.Context, id string) (*model.JobListing, error) { return listing, nil },
		countActiveFn: func(ctx context.Context, orgID string) (int, error) { return 0, nil },
		setStatusFn: func(ctx context.Context, id string, status model.JobListingStatus, postedAt *time.Time) error {
			assert.Equal(t, model.JobListingStatusPublished, status)
			gotPostedAt = postedAt
			return nil
		},
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo})

	updated, err := svc.ToggleStatus(context.Background(), "o1", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobListingStatusPublished, updated.Status)
	require.NotNil(t, gotPostedAt)
	assert.WithinDuration(t, time.Now(), *gotPostedAt, time.Minute)
}

func TestToggleStatusRepublishKeepsPostedAt(t *testing.T) {
	posted := time.Now().Add(-72 * time.Hour)
	listing := validListing("j1", "o1")
	listing.Status = model.JobListingStatusDelisted
	listing.PostedAt = &posted

	repo := &mockListingRepo{
		getByIDFn:     func(ctx context.Context, id string) (*model.JobListing, error) { return listing, nil },
		countActiveFn: func(ctx context.Context, orgID string) (int, error) { return 0, nil },
		setStatusFn: func(ctx context.Context, id string, status model.JobListingStatus, postedAt *time.Time) error {
			// nil means the stored timestamp is preserved
			assert.Nil(t, postedAt)
			return nil
		},
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo})

	updated, err := svc.ToggleStatus(context.Background(), "o1", "j1")
	require.NoError(t, err)
	assert.Equal(t, posted, *updated.PostedAt)
}

func TestToggleStatusPublishLimit(t *testing.T) {
	listing := validListing("j1", "o1")
	repo := &mockListingRepo{
		getByIDFn:     func(ctx context.Context, id string) (*model.JobListing, error) { return listing, nil },
		countActiveFn: func(ctx context.Context, orgID string) (int, error) { return 2, nil },
	}
	svc := NewJobListingService(JobListingServiceConfig{
		Repo:   repo,
		Limits: PlanLimits{MaxPublishedListings: 2},
	})

	_, err := svc.ToggleStatus(context.Background(), "o1", "j1")
	assert.ErrorIs(t, err, ErrPublishedLimitReached)
}

func TestToggleStatusDelistSkipsLimit(t *testing.T) {
	listing := validListing("j1", "o1")
	listing.Status = model.JobListingStatusPublished

	repo := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*model.JobListing, error) { return listing, nil },
		setStatusFn: func(ctx context.Context, id string, status model.JobListingStatus, postedAt *time.Time) error {
			assert.Equal(t, model.JobListingStatusDelisted, status)
			return nil
		},
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo})

	updated, err := svc.ToggleStatus(context.Background(), "o1", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobListingStatusDelisted, updated.Status)
}

func TestToggleFeaturedLimit(t *testing.T) {
	listing := validListing("j1", "o1")
	repo := &mockListingRepo{
		getByIDFn:       func(ctx context.Context, id string) (*model.JobListing, error) { return listing, nil },
		countFeaturedFn: func(ctx context.Context, orgID string) (int, error) { return 1, nil },
	}
	svc := NewJobListingService(JobListingServiceConfig{
		Repo:   repo,
		Limits: PlanLimits{MaxFeaturedListings: 1},
	})

	_, err := svc.ToggleFeatured(context.Background(), "o1", "j1")
	assert.ErrorIs(t, err, ErrFeaturedLimitReached)
}

func TestGetHidesForeignDrafts(t *testing.T) {
	listing := validListing("j1", "o1")
	repo := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*model.JobListing, error) { return listing, nil },
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo})

	_, err := svc.Get(context.Background(), "j1", "o2")
	assert.ErrorIs(t, err, ErrListingNotFound)

	got, err := svc.Get(context.Background(), "j1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "j1", got.ID)
}

func TestToggleStatusRejectsForeignListing(t *testing.T) {
	listing := validListing("j1", "o1")
	repo := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*model.JobListing, error) { return listing, nil },
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo})

	_, err := svc.ToggleStatus(context.Background(), "o2", "j1")
	assert.ErrorIs(t, err, ErrNotListingOwner)
}

func TestAISearchReturnsMatchesInMatcherOrder(t *testing.T) {
	published := []*model.JobListing{
		validListing("j1", "o1"),
		validListing("j2", "o1"),
		validListing("j3", "o2"),
	}
	repo := &mockListingRepo{
		listPublishedFn: func(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error) {
			assert.Equal(t, repository.JobListingFilter{}, filter)
			return published, nil
		},
	}
	matcher := &mockMatcher{
		matchFn: func(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error) {
			assert.Equal(t, "remote golang jobs", prompt)
			assert.Len(t, candidates, 3)
			assert.Equal(t, AISearchMaxResults, opts.MaxResults)
			// j9 was never a candidate and must be dropped
			return []string{"j3", "j1", "j9"}, nil
		},
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo, Matcher: matcher})

	got, err := svc.AISearch(context.Background(), "remote golang jobs")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "j3", got[0].ID)
	assert.Equal(t, "j1", got[1].ID)
}

func TestAISearchRejectsBlankQuery(t *testing.T) {
	repo := &mockListingRepo{
		listPublishedFn: func(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error) {
			t.Fatal("repo should not be queried for a blank query")
			return nil, nil
		},
	}
	matcher := &mockMatcher{}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo, Matcher: matcher})

	_, err := svc.AISearch(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptySearchQuery)
}

func TestAISearchWithoutMatcherIsUnavailable(t *testing.T) {
	svc := NewJobListingService(JobListingServiceConfig{Repo: &mockListingRepo{}})

	_, err := svc.AISearch(context.Background(), "golang")
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestAISearchEmptyMatchIsNotAnError(t *testing.T) {
	repo := &mockListingRepo{
		listPublishedFn: func(ctx context.Context, filter repository.JobListingFilter) ([]*model.JobListing, error) {
			return []*model.JobListing{validListing("j1", "o1")}, nil
		},
	}
	matcher := &mockMatcher{
		matchFn: func(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error) {
			return nil, nil
		},
	}
	svc := NewJobListingService(JobListingServiceConfig{Repo: repo, Matcher: matcher})

	got, err := svc.AISearch(context.Background(), "cobol")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchCandidateFlattensLocationAndWage(t *testing.T) {
	wage := 120000
	city := "Yerevan"
	state := "NY"
	listing := validListing("j1", "o1")
	listing.LocationRequirement = model.LocationInOffice
	listing.City = &city
	listing.StateAbbreviation = &state
	listing.Wage = &wage
	listing.WageInterval = model.WageIntervalYearly

	c := searchCandidate(listing)
	assert.Equal(t, "Yerevan, NY", c.Location)
	assert.Equal(t, "$120000 / year", c.Wage)

	remote := validListing("j2", "o1")
	assert.Equal(t, "Remote", searchCandidate(remote).Location)
}
