package digest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

type mockSettings struct {
	listJobFn func(ctx context.Context) ([]*model.UserNotificationSettings, error)
	listAppFn func(ctx context.Context) ([]*model.OrganizationUserSettings, error)
}

func (m *mockSettings) ListJobDigestSubscribers(ctx context.Context) ([]*model.UserNotificationSettings, error) {
	return m.listJobFn(ctx)
}

func (m *mockSettings) ListApplicationDigestSubscribers(ctx context.Context) ([]*model.OrganizationUserSettings, error) {
	return m.listAppFn(ctx)
}

type mockUsers struct {
	users map[string]*model.User
}

func (m *mockUsers) GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type mockListings struct {
	published []*model.JobListing
	byID      map[string]*model.JobListing
}

func (m *mockListings) ListPublishedSince(ctx context.Context, since time.Time) ([]*model.JobListing, error) {
	var out []*model.JobListing
	for _, l := range m.published {
		if l.PostedAt != nil && !l.PostedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockListings) GetByIDs(ctx context.Context, ids []string) (map[string]*model.JobListing, error) {
	out := make(map[string]*model.JobListing)
	for _, id := range ids {
		if l, ok := m.byID[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

type mockApplications struct {
	created []*model.JobListingApplication
}

func (m *mockApplications) ListCreatedSince(ctx context.Context, since time.Time) ([]*model.JobListingApplication, error) {
	return m.created, nil
}

type mockOrgs struct {
	orgs map[string]*model.Organization
}

func (m *mockOrgs) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Organization, error) {
	out := make(map[string]*model.Organization)
	for _, id := range ids {
		if o, ok := m.orgs[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

type emitted struct {
	name     string
	payloads []interface{}
}

type mockBus struct {
	emits []emitted
}

func (m *mockBus) Emit(ctx context.Context, name string, payloads ...interface{}) error {
	m.emits = append(m.emits, emitted{name: name, payloads: payloads})
	return nil
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func listing(id, orgID, title string, postedAt time.Time) *model.JobListing {
	return &model.JobListing{
		ID:                  id,
		OrganizationID:      orgID,
		Title:               title,
		Description:         "desc",
		WageInterval:        model.WageIntervalYearly,
		LocationRequirement: model.LocationRemote,
		ExperienceLevel:     model.ExperienceSenior,
		Type:                model.JobTypeFullTime,
		Status:              model.JobListingStatusPublished,
		PostedAt:            timePtr(postedAt),
	}
}

func newTestAggregator(t *testing.T, cfg AggregatorConfig) (*Aggregator, *mockBus) {
	t.Helper()
	bus := &mockBus{}
	cfg.Bus = bus
	if cfg.Users == nil {
		cfg.Users = &mockUsers{users: map[string]*model.User{}}
	}
	if cfg.Organizations == nil {
		cfg.Organizations = &mockOrgs{orgs: map[string]*model.Organization{}}
	}
	return NewAggregator(cfg), bus
}

func TestJobListingsDigestNoSubscribersEmitsNothing(t *testing.T) {
	now := time.Now()
	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listJobFn: func(ctx context.Context) ([]*model.UserNotificationSettings, error) { return nil, nil },
		},
		Listings: &mockListings{published: []*model.JobListing{listing("j1", "o1", "Backend", now.Add(-time.Hour))}},
	})

	require.NoError(t, agg.RunJobListingsDigest(context.Background(), now))
	assert.Empty(t, bus.emits)
}

func TestJobListingsDigestNoListingsEmitsNothing(t *testing.T) {
	now := time.Now()
	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listJobFn: func(ctx context.Context) ([]*model.UserNotificationSettings, error) {
				return []*model.UserNotificationSettings{{UserID: "u1", NewJobEmailNotifications: true}}, nil
			},
		},
		Listings: &mockListings{},
	})

	require.NoError(t, agg.RunJobListingsDigest(context.Background(), now))
	assert.Empty(t, bus.emits)
}

func TestJobListingsDigestSingleSubscriber(t *testing.T) {
	now := time.Now()
	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listJobFn: func(ctx context.Context) ([]*model.UserNotificationSettings, error) {
				return []*model.UserNotificationSettings{{UserID: "u1", NewJobEmailNotifications: true}}, nil
			},
		},
		Listings: &mockListings{published: []*model.JobListing{listing("j1", "o1", "Backend Engineer", now.Add(-2*time.Hour))}},
		Users: &mockUsers{users: map[string]*model.User{
			"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com"},
		}},
		Organizations: &mockOrgs{orgs: map[string]*model.Organization{
			"o1": {ID: "o1", Name: "Acme"},
		}},
	})

	require.NoError(t, agg.RunJobListingsDigest(context.Background(), now))

	require.Len(t, bus.emits, 1)
	assert.Equal(t, EventJobListings, bus.emits[0].name)
	require.Len(t, bus.emits[0].payloads, 1)

	payload, ok := bus.emits[0].payloads[0].(JobListingsFanOut)
	require.True(t, ok)
	assert.Equal(t, "u1", payload.User.ID)
	assert.Equal(t, "ada@example.com", payload.User.Email)
	assert.Empty(t, payload.AIPrompt)
	require.Len(t, payload.Candidates, 1)
	assert.Equal(t, "j1", payload.Candidates[0].ID)
	assert.Equal(t, "Acme", payload.Candidates[0].OrganizationName)
}

func TestJobListingsDigestExcludesStaleListings(t *testing.T) {
	now := time.Now()
	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listJobFn: func(ctx context.Context) ([]*model.UserNotificationSettings, error) {
				return []*model.UserNotificationSettings{{UserID: "u1", NewJobEmailNotifications: true}}, nil
			},
		},
		Listings: &mockListings{published: []*model.JobListing{
			listing("j_old", "o1", "Old", now.Add(-30*time.Hour)),
			listing("j_new", "o1", "New", now.Add(-time.Hour)),
		}},
		Users: &mockUsers{users: map[string]*model.User{"u1": {ID: "u1", Name: "Ada", Email: "a@example.com"}}},
	})

	require.NoError(t, agg.RunJobListingsDigest(context.Background(), now))

	require.Len(t, bus.emits, 1)
	payload := bus.emits[0].payloads[0].(JobListingsFanOut)
	require.Len(t, payload.Candidates, 1)
	assert.Equal(t, "j_new", payload.Candidates[0].ID)
}

func TestJobListingsDigestDeterministicOrdering(t *testing.T) {
	now := time.Now()
	settings := &mockSettings{
		listJobFn: func(ctx context.Context) ([]*model.UserNotificationSettings, error) {
			// Deliberately unsorted
			return []*model.UserNotificationSettings{
				{UserID: "u2", NewJobEmailNotifications: true},
				{UserID: "u1", NewJobEmailNotifications: true, AIPrompt: "remote only"},
			}, nil
		},
	}
	users := &mockUsers{users: map[string]*model.User{
		"u1": {ID: "u1", Name: "Ada", Email: "a@example.com"},
		"u2": {ID: "u2", Name: "Grace", Email: "g@example.com"},
	}}
	listings := &mockListings{published: []*model.JobListing{listing("j1", "o1", "Backend", now.Add(-time.Hour))}}

	run := func() []interface{} {
		agg, bus := newTestAggregator(t, AggregatorConfig{Settings: settings, Listings: listings, Users: users})
		require.NoError(t, agg.RunJobListingsDigest(context.Background(), now))
		require.Len(t, bus.emits, 1)
		return bus.emits[0].payloads
	}

	first := run()
	second := run()

	require.Len(t, first, 2)
	assert.Equal(t, "u1", first[0].(JobListingsFanOut).User.ID)
	assert.Equal(t, "u2", first[1].(JobListingsFanOut).User.ID)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func applicationFixtures(now time.Time) (*mockListings, *mockOrgs, *mockUsers) {
	listings := &mockListings{byID: map[string]*model.JobListing{
		"l1": listing("l1", "o1", "Backend Engineer", now.Add(-48*time.Hour)),
		"l2": listing("l2", "o2", "Designer", now.Add(-48*time.Hour)),
	}}
	orgs := &mockOrgs{orgs: map[string]*model.Organization{
		"o1": {ID: "o1", Name: "Acme"},
		"o2": {ID: "o2", Name: "Initech"},
	}}
	users := &mockUsers{users: map[string]*model.User{
		"u2":    {ID: "u2", Name: "Grace", Email: "g@example.com"},
		"app_1": {ID: "app_1", Name: "Alan", Email: "alan@example.com"},
		"app_2": {ID: "app_2", Name: "Edsger", Email: "e@example.com"},
		"app_3": {ID: "app_3", Name: "Barbara", Email: "b@example.com"},
	}}
	return listings, orgs, users
}

func TestApplicationsDigestMinimumRatingFilter(t *testing.T) {
	now := time.Now()
	listings, orgs, users := applicationFixtures(now)

	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listAppFn: func(ctx context.Context) ([]*model.OrganizationUserSettings, error) {
				return []*model.OrganizationUserSettings{
					{UserID: "u2", OrganizationID: "o1", NewApplicationEmailNotifications: true, MinimumRating: intPtr(4)},
				}, nil
			},
		},
		Applications: &mockApplications{created: []*model.JobListingApplication{
			{ID: "a1", JobListingID: "l1", UserID: "app_1", Rating: intPtr(3), Stage: model.StageApplied},
			{ID: "a2", JobListingID: "l1", UserID: "app_2", Rating: intPtr(5), Stage: model.StageApplied},
		}},
		Listings:      listings,
		Organizations: orgs,
		Users:         users,
	})

	require.NoError(t, agg.RunApplicationsDigest(context.Background(), now))

	require.Len(t, bus.emits, 1)
	assert.Equal(t, EventApplications, bus.emits[0].name)
	require.Len(t, bus.emits[0].payloads, 1)

	payload := bus.emits[0].payloads[0].(ApplicationsFanOut)
	assert.Equal(t, "u2", payload.User.ID)
	require.Len(t, payload.Candidates, 1)
	assert.Equal(t, "Edsger", payload.Candidates[0].ApplicantName)
	assert.Equal(t, 5, *payload.Candidates[0].Rating)
}

func TestApplicationsDigestORAcrossSubscriptions(t *testing.T) {
	now := time.Now()
	listings, orgs, users := applicationFixtures(now)

	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listAppFn: func(ctx context.Context) ([]*model.OrganizationUserSettings, error) {
				return []*model.OrganizationUserSettings{
					{UserID: "u2", OrganizationID: "o1", NewApplicationEmailNotifications: true},
					{UserID: "u2", OrganizationID: "o2", NewApplicationEmailNotifications: true, MinimumRating: intPtr(5)},
				}, nil
			},
		},
		Applications: &mockApplications{created: []*model.JobListingApplication{
			{ID: "a1", JobListingID: "l1", UserID: "app_1", Rating: intPtr(1), Stage: model.StageApplied},
			{ID: "a2", JobListingID: "l2", UserID: "app_2", Rating: intPtr(2), Stage: model.StageApplied},
			{ID: "a3", JobListingID: "l2", UserID: "app_3", Rating: intPtr(5), Stage: model.StageApplied},
		}},
		Listings:      listings,
		Organizations: orgs,
		Users:         users,
	})

	require.NoError(t, agg.RunApplicationsDigest(context.Background(), now))

	require.Len(t, bus.emits, 1)
	payload := bus.emits[0].payloads[0].(ApplicationsFanOut)
	require.Len(t, payload.Candidates, 2)
	// o1 has no threshold so a1 matches; only the rating-5 o2 application passes
	assert.Equal(t, "Alan", payload.Candidates[0].ApplicantName)
	assert.Equal(t, "Barbara", payload.Candidates[1].ApplicantName)
}

func TestApplicationsDigestUnratedCountsAsZero(t *testing.T) {
	now := time.Now()
	listings, orgs, users := applicationFixtures(now)

	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listAppFn: func(ctx context.Context) ([]*model.OrganizationUserSettings, error) {
				return []*model.OrganizationUserSettings{
					{UserID: "u2", OrganizationID: "o1", NewApplicationEmailNotifications: true, MinimumRating: intPtr(1)},
				}, nil
			},
		},
		Applications: &mockApplications{created: []*model.JobListingApplication{
			{ID: "a1", JobListingID: "l1", UserID: "app_1", Stage: model.StageApplied},
		}},
		Listings:      listings,
		Organizations: orgs,
		Users:         users,
	})

	require.NoError(t, agg.RunApplicationsDigest(context.Background(), now))
	// Unrated application scores 0, below the threshold; the empty recipient
	// is dropped so nothing is emitted.
	assert.Empty(t, bus.emits)
}

func TestApplicationsDigestDropsEmptyRecipients(t *testing.T) {
	now := time.Now()
	listings, orgs, users := applicationFixtures(now)

	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listAppFn: func(ctx context.Context) ([]*model.OrganizationUserSettings, error) {
				return []*model.OrganizationUserSettings{
					{UserID: "u2", OrganizationID: "o1", NewApplicationEmailNotifications: true},
					{UserID: "u9", OrganizationID: "o2", NewApplicationEmailNotifications: true, MinimumRating: intPtr(4)},
				}, nil
			},
		},
		Applications: &mockApplications{created: []*model.JobListingApplication{
			{ID: "a1", JobListingID: "l1", UserID: "app_1", Rating: intPtr(3), Stage: model.StageApplied},
		}},
		Listings:      listings,
		Organizations: orgs,
		Users:         users,
	})

	require.NoError(t, agg.RunApplicationsDigest(context.Background(), now))

	// u9's only subscription matches nothing, so only u2 gets an event and
	// every emitted event carries at least one candidate.
	require.Len(t, bus.emits, 1)
	require.Len(t, bus.emits[0].payloads, 1)
	payload := bus.emits[0].payloads[0].(ApplicationsFanOut)
	assert.Equal(t, "u2", payload.User.ID)
	assert.NotEmpty(t, payload.Candidates)
}

func TestApplicationsDigestEmptyWindowEmitsNothing(t *testing.T) {
	now := time.Now()
	agg, bus := newTestAggregator(t, AggregatorConfig{
		Settings: &mockSettings{
			listAppFn: func(ctx context.Context) ([]*model.OrganizationUserSettings, error) {
				return []*model.OrganizationUserSettings{
					{UserID: "u2", OrganizationID: "o1", NewApplicationEmailNotifications: true},
				}, nil
			},
		},
		Applications: &mockApplications{},
		Listings:     &mockListings{},
	})

	require.NoError(t, agg.RunApplicationsDigest(context.Background(), now))
	assert.Empty(t, bus.emits)
}
