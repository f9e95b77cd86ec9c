package digest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/model"
)

type settingsSource interface {
	ListJobDigestSubscribers(ctx context.Context) ([]*model.UserNotificationSettings, error)
	ListApplicationDigestSubscribers(ctx context.Context) ([]*model.OrganizationUserSettings, error)
}

type userSource interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

type listingSource interface {
	ListPublishedSince(ctx context.Context, since time.Time) ([]*model.JobListing, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.JobListing, error)
}

type applicationSource interface {
	ListCreatedSince(ctx context.Context, since time.Time) ([]*model.JobListingApplication, error)
}

type organizationSource interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.Organization, error)
}

type emitter interface {
	Emit(ctx context.Context, name string, payloads ...interface{}) error
}

// AggregatorConfig wires an Aggregator
type AggregatorConfig struct {
	Settings      settingsSource
	Users         userSource
	Listings      listingSource
	Applications  applicationSource
	Organizations organizationSource
	Bus           emitter
	Logger        *zap.Logger
	// Lookback is the digest window size; default 24h.
	Lookback time.Duration
}

// Aggregator builds and emits the per-recipient fan-out events for both
// digest flows. One aggregation run reads the window once; everything a
// delivery needs travels in the event payload.
type Aggregator struct {
	settings      settingsSource
	users         userSource
	listings      listingSource
	applications  applicationSource
	organizations organizationSource
	bus           emitter
	logger        *zap.Logger
	lookback      time.Duration
}

// NewAggregator creates an Aggregator
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Aggregator{
		settings:      cfg.Settings,
		users:         cfg.Users,
		listings:      cfg.Listings,
		applications:  cfg.Applications,
		organizations: cfg.Organizations,
		bus:           cfg.Bus,
		logger:        cfg.Logger,
		lookback:      cfg.Lookback,
	}
}

// RunJobListingsDigest fans out the job listings digest for the window
// ending at now. Emits one event per opted-in user, each carrying every
// listing published in the window. No subscribers or no listings means no
// events and no error.
func (a *Aggregator) RunJobListingsDigest(ctx context.Context, now time.Time) error {
	subscribers, err := a.settings.ListJobDigestSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("list job digest subscribers: %w", err)
	}

	listings, err := a.listings.ListPublishedSince(ctx, now.Add(-a.lookback))
	if err != nil {
		return fmt.Errorf("list published listings: %w", err)
	}

	if len(subscribers) == 0 || len(listings) == 0 {
		a.logger.Info("job listings digest: nothing to send",
			zap.Int("subscribers", len(subscribers)),
			zap.Int("listings", len(listings)),
		)
		return nil
	}

	orgIDs := make([]string, 0, len(listings))
	seen := make(map[string]bool)
	for _, l := range listings {
		if !seen[l.OrganizationID] {
			seen[l.OrganizationID] = true
			orgIDs = append(orgIDs, l.OrganizationID)
		}
	}
	orgs, err := a.organizations.GetByIDs(ctx, orgIDs)
	if err != nil {
		return fmt.Errorf("load listing organizations: %w", err)
	}

	candidates := make([]ListingCandidate, 0, len(listings))
	for _, l := range listings {
		candidates = append(candidates, listingCandidate(l, orgs[l.OrganizationID]))
	}

	userIDs := make([]string, 0, len(subscribers))
	for _, s := range subscribers {
		userIDs = append(userIDs, s.UserID)
	}
	users, err := a.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	sort.Slice(subscribers, func(i, j int) bool { return subscribers[i].UserID < subscribers[j].UserID })

	date := now.UTC().Format("2006-01-02")
	var payloads []interface{}
	for _, s := range subscribers {
		user, ok := users[s.UserID]
		if !ok {
			a.logger.Warn("job listings digest: subscriber has no user record", zap.String("user_id", s.UserID))
			continue
		}
		payloads = append(payloads, JobListingsFanOut{
			User:       Recipient{ID: user.ID, Name: user.Name, Email: user.Email},
			Date:       date,
			AIPrompt:   s.AIPrompt,
			Candidates: candidates,
		})
	}
	if len(payloads) == 0 {
		return nil
	}

	if err := a.bus.Emit(ctx, EventJobListings, payloads...); err != nil {
		return fmt.Errorf("emit job listings digest: %w", err)
	}
	a.logger.Info("job listings digest fanned out",
		zap.Int("recipients", len(payloads)),
		zap.Int("listings", len(candidates)),
	)
	return nil
}

// RunApplicationsDigest fans out the applications digest for the window
// ending at now. Subscriptions are grouped per user; a user's candidates are
// the window's applications matching ANY of their subscriptions. Users whose
// subscriptions match nothing are dropped.
func (a *Aggregator) RunApplicationsDigest(ctx context.Context, now time.Time) error {
	subscriptions, err := a.settings.ListApplicationDigestSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("list application digest subscribers: %w", err)
	}

	applications, err := a.applications.ListCreatedSince(ctx, now.Add(-a.lookback))
	if err != nil {
		return fmt.Errorf("list new applications: %w", err)
	}

	if len(subscriptions) == 0 || len(applications) == 0 {
		a.logger.Info("applications digest: nothing to send",
			zap.Int("subscriptions", len(subscriptions)),
			zap.Int("applications", len(applications)),
		)
		return nil
	}

	candidates, err := a.applicationCandidates(ctx, applications)
	if err != nil {
		return err
	}

	grouped := make(map[string][]*model.OrganizationUserSettings)
	var order []string
	for _, s := range subscriptions {
		if _, ok := grouped[s.UserID]; !ok {
			order = append(order, s.UserID)
		}
		grouped[s.UserID] = append(grouped[s.UserID], s)
	}
	sort.Strings(order)

	recipients, err := a.users.GetByIDs(ctx, order)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	date := now.UTC().Format("2006-01-02")
	var payloads []interface{}
	for _, userID := range order {
		user, ok := recipients[userID]
		if !ok {
			a.logger.Warn("applications digest: subscriber has no user record", zap.String("user_id", userID))
			continue
		}

		var matched []ApplicationCandidate
		for i, app := range applications {
			for _, sub := range grouped[userID] {
				if sub.Matches(candidates[i].OrganizationID, app.Rating) {
					matched = append(matched, candidates[i])
					break
				}
			}
		}
		if len(matched) == 0 {
			continue
		}

		payloads = append(payloads, ApplicationsFanOut{
			User:       Recipient{ID: user.ID, Name: user.Name, Email: user.Email},
			Date:       date,
			Candidates: matched,
		})
	}
	if len(payloads) == 0 {
		a.logger.Info("applications digest: no subscription matched any application")
		return nil
	}

	if err := a.bus.Emit(ctx, EventApplications, payloads...); err != nil {
		return fmt.Errorf("emit applications digest: %w", err)
	}
	a.logger.Info("applications digest fanned out",
		zap.Int("recipients", len(payloads)),
		zap.Int("applications", len(applications)),
	)
	return nil
}

// applicationCandidates joins applications with their listing, organization
// and applicant, preserving input order.
func (a *Aggregator) applicationCandidates(ctx context.Context, applications []*model.JobListingApplication) ([]ApplicationCandidate, error) {
	listingIDs := make([]string, 0, len(applications))
	applicantIDs := make([]string, 0, len(applications))
	seenListing := make(map[string]bool)
	seenUser := make(map[string]bool)
	for _, app := range applications {
		if !seenListing[app.JobListingID] {
			seenListing[app.JobListingID] = true
			listingIDs = append(listingIDs, app.JobListingID)
		}
		if !seenUser[app.UserID] {
			seenUser[app.UserID] = true
			applicantIDs = append(applicantIDs, app.UserID)
		}
	}

	listings, err := a.listings.GetByIDs(ctx, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("load application listings: %w", err)
	}

	orgIDs := make([]string, 0, len(listings))
	seenOrg := make(map[string]bool)
	for _, l := range listings {
		if !seenOrg[l.OrganizationID] {
			seenOrg[l.OrganizationID] = true
			orgIDs = append(orgIDs, l.OrganizationID)
		}
	}
	orgs, err := a.organizations.GetByIDs(ctx, orgIDs)
	if err != nil {
		return nil, fmt.Errorf("load application organizations: %w", err)
	}

	applicants, err := a.users.GetByIDs(ctx, applicantIDs)
	if err != nil {
		return nil, fmt.Errorf("load applicants: %w", err)
	}

	candidates := make([]ApplicationCandidate, len(applications))
	for i, app := range applications {
		c := ApplicationCandidate{Rating: app.Rating, ApplicantName: "Unknown applicant"}
		if applicant, ok := applicants[app.UserID]; ok {
			c.ApplicantName = applicant.Name
		}
		if listing, ok := listings[app.JobListingID]; ok {
			c.ListingTitle = listing.Title
			c.OrganizationID = listing.OrganizationID
			if org, ok := orgs[listing.OrganizationID]; ok {
				c.OrganizationName = org.Name
			}
		}
		candidates[i] = c
	}
	return candidates, nil
}

func listingCandidate(l *model.JobListing, org *model.Organization) ListingCandidate {
	c := ListingCandidate{
		ID:                  l.ID,
		Title:               l.Title,
		Description:         l.Description,
		Wage:                l.Wage,
		WageInterval:        string(l.WageInterval),
		LocationRequirement: string(l.LocationRequirement),
		ExperienceLevel:     string(l.ExperienceLevel),
		Type:                string(l.Type),
	}
	if l.City != nil {
		c.City = *l.City
	}
	if l.StateAbbreviation != nil {
		c.StateAbbreviation = *l.StateAbbreviation
	}
	if org != nil {
		c.OrganizationName = org.Name
	}
	return c
}
