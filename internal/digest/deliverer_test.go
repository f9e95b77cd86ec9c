package digest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashot-israelyan/ai-job-board/internal/ai"
	"github.com/ashot-israelyan/ai-job-board/internal/email"
	"github.com/ashot-israelyan/ai-job-board/internal/events"
)

type mockMatcher struct {
	matchFn func(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error)
	calls   int
}

func (m *mockMatcher) Match(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error) {
	m.calls++
	return m.matchFn(ctx, prompt, candidates, opts)
}

type mockSender struct {
	sendFn func(ctx context.Context, msg email.Message) error
	sent   []email.Message
}

func (m *mockSender) Send(ctx context.Context, msg email.Message) error {
	if m.sendFn != nil {
		if err := m.sendFn(ctx, msg); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newDelivery(t *testing.T, name, id string, payload interface{}, store events.Store) *events.Delivery {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return events.NewDelivery(&events.Event{ID: id, Name: name, Payload: data}, store)
}

func jobListingsPayload(prompt string) JobListingsFanOut {
	return JobListingsFanOut{
		User:     Recipient{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		Date:     "2025-06-01",
		AIPrompt: prompt,
		Candidates: []ListingCandidate{
			{ID: "j1", Title: "Backend Engineer", OrganizationName: "Acme", LocationRequirement: "remote"},
			{ID: "j2", Title: "Designer", OrganizationName: "Initech", City: "Austin", StateAbbreviation: "TX", LocationRequirement: "in-office"},
		},
	}
}

func TestHandleJobListingsBlankPromptSkipsMatcher(t *testing.T) {
	matcher := &mockMatcher{}
	sender := &mockSender{}
	d := NewDeliverer(DelivererConfig{Matcher: matcher, Sender: sender})

	delivery := newDelivery(t, EventJobListings, "evt_1", jobListingsPayload("   "), events.NewMemoryStore())
	require.NoError(t, d.HandleJobListings(context.Background(), delivery))

	assert.Zero(t, matcher.calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ada@example.com", sender.sent[0].To)
	assert.Equal(t, email.JobListingsSubject, sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTML, "Backend Engineer")
	assert.Contains(t, sender.sent[0].HTML, "Designer")
}

func TestHandleJobListingsPromptFiltersCandidates(t *testing.T) {
	matcher := &mockMatcher{
		matchFn: func(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error) {
			assert.Equal(t, "design roles", prompt)
			assert.Len(t, candidates, 2)
			return []string{"j2"}, nil
		},
	}
	sender := &mockSender{}
	d := NewDeliverer(DelivererConfig{Matcher: matcher, Sender: sender})

	delivery := newDelivery(t, EventJobListings, "evt_1", jobListingsPayload("design roles"), events.NewMemoryStore())
	require.NoError(t, d.HandleJobListings(context.Background(), delivery))

	assert.Equal(t, 1, matcher.calls)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, "Designer")
	assert.NotContains(t, sender.sent[0].HTML, "Backend Engineer")
}

func TestHandleJobListingsEmptyMatchSendsNothing(t *testing.T) {
	matcher := &mockMatcher{
		matchFn: func(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error) {
			return nil, nil
		},
	}
	sender := &mockSender{}
	d := NewDeliverer(DelivererConfig{Matcher: matcher, Sender: sender})

	delivery := newDelivery(t, EventJobListings, "evt_1", jobListingsPayload("quant trading"), events.NewMemoryStore())
	require.NoError(t, d.HandleJobListings(context.Background(), delivery))

	assert.Empty(t, sender.sent)
}

func TestHandleJobListingsMalformedPayloadIsPermanent(t *testing.T) {
	d := NewDeliverer(DelivererConfig{Sender: &mockSender{}})

	delivery := events.NewDelivery(&events.Event{ID: "evt_1", Name: EventJobListings, Payload: []byte("{not json")}, events.NewMemoryStore())
	err := d.HandleJobListings(context.Background(), delivery)
	require.Error(t, err)
	assert.True(t, events.IsPermanent(err))
}

func TestHandleJobListingsMatchStepMemoized(t *testing.T) {
	matcher := &mockMatcher{
		matchFn: func(ctx context.Context, prompt string, candidates []ai.Candidate, opts ai.MatchOptions) ([]string, error) {
			return []string{"j1"}, nil
		},
	}
	sender := &mockSender{}
	d := NewDeliverer(DelivererConfig{Matcher: matcher, Sender: sender})

	store := events.NewMemoryStore()
	payload := jobListingsPayload("backend")

	// Same event handled twice, as after a redelivery
	require.NoError(t, d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_1", payload, store)))
	require.NoError(t, d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_1", payload, store)))

	assert.Equal(t, 1, matcher.calls)
	assert.Len(t, sender.sent, 1)
}

func TestHandleApplications(t *testing.T) {
	sender := &mockSender{}
	d := NewDeliverer(DelivererConfig{Sender: sender})

	payload := ApplicationsFanOut{
		User: Recipient{ID: "u2", Name: "Grace", Email: "grace@example.com"},
		Date: "2025-06-01",
		Candidates: []ApplicationCandidate{
			{ApplicantName: "Alan", ListingTitle: "Backend Engineer", OrganizationName: "Acme", Rating: intPtr(4)},
			{ApplicantName: "Edsger", ListingTitle: "Backend Engineer", OrganizationName: "Acme"},
		},
	}
	delivery := newDelivery(t, EventApplications, "evt_1", payload, events.NewMemoryStore())
	require.NoError(t, d.HandleApplications(context.Background(), delivery))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, email.ApplicationsSubject, sender.sent[0].Subject)
	assert.Equal(t, "grace@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "Alan")
	assert.Contains(t, sender.sent[0].HTML, "Edsger")
}

func newTestDedupe(t *testing.T) *Dedupe {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDedupe(client, 0)
}

func TestDedupeBlocksSecondSendAcrossEvents(t *testing.T) {
	sender := &mockSender{}
	d := NewDeliverer(DelivererConfig{Sender: sender, Dedupe: newTestDedupe(t)})

	store := events.NewMemoryStore()
	payload := jobListingsPayload("")

	// Two distinct events for the same user and day, as after a duplicate
	// fan-out: only the first sends.
	require.NoError(t, d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_1", payload, store)))
	require.NoError(t, d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_2", payload, store)))

	assert.Len(t, sender.sent, 1)
}

func TestDedupeAllowsDifferentDays(t *testing.T) {
	sender := &mockSender{}
	d := NewDeliverer(DelivererConfig{Sender: sender, Dedupe: newTestDedupe(t)})

	store := events.NewMemoryStore()
	day1 := jobListingsPayload("")
	day2 := jobListingsPayload("")
	day2.Date = "2025-06-02"

	require.NoError(t, d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_1", day1, store)))
	require.NoError(t, d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_2", day2, store)))

	assert.Len(t, sender.sent, 2)
}

func TestDedupeReleasedOnSendFailure(t *testing.T) {
	attempts := 0
	sender := &mockSender{
		sendFn: func(ctx context.Context, msg email.Message) error {
			attempts++
			if attempts == 1 {
				return errors.New("smtp unavailable")
			}
			return nil
		},
	}
	d := NewDeliverer(DelivererConfig{Sender: sender, Dedupe: newTestDedupe(t)})

	store := events.NewMemoryStore()
	payload := jobListingsPayload("")

	err := d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_1", payload, store))
	require.Error(t, err)
	assert.False(t, events.IsPermanent(err))

	// The failed send released the dedupe slot, so the retry goes through
	require.NoError(t, d.HandleJobListings(context.Background(), newDelivery(t, EventJobListings, "evt_1", payload, store)))
	assert.Len(t, sender.sent, 1)
	assert.Equal(t, 2, attempts)
}
