package digest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ashot-israelyan/ai-job-board/internal/ai"
	"github.com/ashot-israelyan/ai-job-board/internal/email"
	"github.com/ashot-israelyan/ai-job-board/internal/events"
)

// DelivererConfig wires a Deliverer
type DelivererConfig struct {
	Matcher ai.Matcher
	Sender  email.Sender
	Dedupe  *Dedupe
	Logger  *zap.Logger
	// JobListingLimit caps job listing digest sends per minute; default 10.
	JobListingLimit int
	// ApplicationLimit caps application digest sends per minute; default 1000.
	ApplicationLimit int
	// MatchResults caps how many listings the AI match may keep; default 20.
	MatchResults int
}

// Deliverer consumes the fan-out events and sends the digest emails
type Deliverer struct {
	matcher          ai.Matcher
	sender           email.Sender
	dedupe           *Dedupe
	logger           *zap.Logger
	jobListingLimit  int
	applicationLimit int
	matchResults     int
}

// NewDeliverer creates a Deliverer
func NewDeliverer(cfg DelivererConfig) *Deliverer {
	if cfg.JobListingLimit <= 0 {
		cfg.JobListingLimit = 10
	}
	if cfg.ApplicationLimit <= 0 {
		cfg.ApplicationLimit = 1000
	}
	if cfg.MatchResults <= 0 {
		cfg.MatchResults = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Deliverer{
		matcher:          cfg.Matcher,
		sender:           cfg.Sender,
		dedupe:           cfg.Dedupe,
		logger:           cfg.Logger,
		jobListingLimit:  cfg.JobListingLimit,
		applicationLimit: cfg.ApplicationLimit,
		matchResults:     cfg.MatchResults,
	}
}

// Register attaches both digest handlers to the bus with their throttles
func (d *Deliverer) Register(bus *events.Bus) {
	bus.On(EventJobListings, events.HandlerConfig{
		Throttle: events.Throttle{Limit: d.jobListingLimit, Period: time.Minute},
	}, d.HandleJobListings)

	bus.On(EventApplications, events.HandlerConfig{
		Throttle: events.Throttle{Limit: d.applicationLimit, Period: time.Minute},
	}, d.HandleApplications)
}

// HandleJobListings delivers one job listings digest email. A blank AI
// prompt sends every candidate without calling the matcher; a non-blank
// prompt that matches nothing ends the delivery without a send.
func (d *Deliverer) HandleJobListings(ctx context.Context, delivery *events.Delivery) error {
	var payload JobListingsFanOut
	if err := delivery.UnmarshalPayload(&payload); err != nil {
		return events.Permanent(fmt.Errorf("decode job listings payload: %w", err))
	}
	if len(payload.Candidates) == 0 {
		return nil
	}

	matched := payload.Candidates
	usedPrompt := false
	if strings.TrimSpace(payload.AIPrompt) != "" && d.matcher != nil {
		usedPrompt = true
		var ids []string
		err := delivery.Step(ctx, "match-listings", func(ctx context.Context) (interface{}, error) {
			return d.matcher.Match(ctx, payload.AIPrompt, matchCandidates(payload.Candidates), ai.MatchOptions{MaxResults: d.matchResults})
		}, &ids)
		if err != nil {
			return err
		}
		matched = filterCandidates(payload.Candidates, ids)
		if len(matched) == 0 {
			d.logger.Info("job listings digest: prompt matched nothing",
				zap.String("user_id", payload.User.ID),
			)
			return nil
		}
	}

	items := make([]email.JobListingItem, 0, len(matched))
	for _, c := range matched {
		items = append(items, email.JobListingItem{
			Title:            c.Title,
			OrganizationName: c.OrganizationName,
			Location:         c.Location(),
			Wage:             c.WageText(),
			ExperienceLevel:  c.ExperienceLevel,
			Type:             c.Type,
		})
	}
	body, err := email.RenderJobListingsDigest(email.JobListingsDigestData{
		UserName: payload.User.Name,
		Matched:  usedPrompt,
		Listings: items,
	})
	if err != nil {
		return events.Permanent(err)
	}

	return d.send(ctx, delivery, "job-listings", payload.User, payload.Date, email.JobListingsSubject, body)
}

// HandleApplications delivers one applications digest email
func (d *Deliverer) HandleApplications(ctx context.Context, delivery *events.Delivery) error {
	var payload ApplicationsFanOut
	if err := delivery.UnmarshalPayload(&payload); err != nil {
		return events.Permanent(fmt.Errorf("decode applications payload: %w", err))
	}
	if len(payload.Candidates) == 0 {
		return nil
	}

	items := make([]email.ApplicationItem, 0, len(payload.Candidates))
	for _, c := range payload.Candidates {
		item := email.ApplicationItem{
			ApplicantName:    c.ApplicantName,
			ListingTitle:     c.ListingTitle,
			OrganizationName: c.OrganizationName,
		}
		if c.Rating != nil {
			item.Rating = strconv.Itoa(*c.Rating)
		}
		items = append(items, item)
	}
	body, err := email.RenderApplicationsDigest(email.ApplicationsDigestData{
		UserName:     payload.User.Name,
		Applications: items,
	})
	if err != nil {
		return events.Permanent(err)
	}

	return d.send(ctx, delivery, "applications", payload.User, payload.Date, email.ApplicationsSubject, body)
}

// send performs the email send as a memoized step guarded by the dedupe key,
// so neither a step replay nor a bus redelivery sends twice.
func (d *Deliverer) send(ctx context.Context, delivery *events.Delivery, flow string, user Recipient, date, subject, body string) error {
	return delivery.Step(ctx, "send-email", func(ctx context.Context) (interface{}, error) {
		key := dedupeKey(flow, user.ID, date)
		if d.dedupe != nil {
			acquired, err := d.dedupe.Acquire(ctx, key)
			if err != nil {
				return nil, err
			}
			if !acquired {
				d.logger.Info("digest already sent, skipping",
					zap.String("flow", flow),
					zap.String("user_id", user.ID),
					zap.String("date", date),
				)
				return "skipped", nil
			}
		}

		if err := d.sender.Send(ctx, email.Message{To: user.Email, Subject: subject, HTML: body}); err != nil {
			if d.dedupe != nil {
				if relErr := d.dedupe.Release(ctx, key); relErr != nil {
					d.logger.Error("dedupe release failed", zap.String("key", key), zap.Error(relErr))
				}
			}
			return nil, err
		}
		return "sent", nil
	}, nil)
}

func matchCandidates(candidates []ListingCandidate) []ai.Candidate {
	out := make([]ai.Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, ai.Candidate{
			ID:          c.ID,
			Title:       c.Title,
			Location:    c.Location(),
			Wage:        c.WageText(),
			Experience:  c.ExperienceLevel,
			Type:        c.Type,
			Description: c.Description,
		})
	}
	return out
}

func filterCandidates(candidates []ListingCandidate, ids []string) []ListingCandidate {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []ListingCandidate
	for _, c := range candidates {
		if wanted[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
