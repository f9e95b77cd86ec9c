package events

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and the one-shot digest
// CLI. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]*Event
	steps  map[string]json.RawMessage // eventID + "\x00" + step
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]*Event),
		steps:  make(map[string]json.RawMessage),
	}
}

func (m *MemoryStore) InsertBatch(ctx context.Context, events []*Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		cp := *e
		m.events[e.ID] = &cp
	}
	return nil
}

func (m *MemoryStore) ClaimDue(ctx context.Context, name string, limit int, now time.Time, lease time.Duration) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*Event
	for _, e := range m.events {
		if e.Name != name {
			continue
		}
		claimable := e.Status == StatusPending || e.Status == StatusRunning
		if claimable && !e.NextRunAt.After(now) {
			due = append(due, e)
		}
	}
	// Oldest first for deterministic claiming
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*Event, 0, len(due))
	for _, e := range due {
		e.Status = StatusRunning
		e.NextRunAt = now.Add(lease)
		e.UpdatedAt = now
		cp := *e
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (m *MemoryStore) MarkDone(ctx context.Context, id string) error {
	return m.update(id, func(e *Event) {
		e.Status = StatusDone
	})
}

func (m *MemoryStore) MarkRetry(ctx context.Context, id string, attempts int, lastError string, nextRunAt time.Time) error {
	return m.update(id, func(e *Event) {
		e.Status = StatusPending
		e.Attempts = attempts
		e.LastError = lastError
		e.NextRunAt = nextRunAt
	})
}

func (m *MemoryStore) MarkDead(ctx context.Context, id string, attempts int, lastError string) error {
	return m.update(id, func(e *Event) {
		e.Status = StatusDead
		e.Attempts = attempts
		e.LastError = lastError
	})
}

func (m *MemoryStore) StepOutput(ctx context.Context, eventID, step string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.steps[eventID+"\x00"+step]
	return out, ok, nil
}

func (m *MemoryStore) SaveStepOutput(ctx context.Context, eventID, step string, output json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[eventID+"\x00"+step] = output
	return nil
}

// PurgeCompleted removes done and dead events last touched before the
// cutoff, along with their memoized step outputs. Pending events past the
// cutoff go too: an event nothing has claimed in that long has no consumer.
// Running events are never purged, their lease protects them. Returns how
// many events were removed.
func (m *MemoryStore) PurgeCompleted(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for id, e := range m.events {
		if e.Status == StatusRunning || !e.UpdatedAt.Before(before) {
			continue
		}
		delete(m.events, id)
		prefix := id + "\x00"
		for key := range m.steps {
			if strings.HasPrefix(key, prefix) {
				delete(m.steps, key)
			}
		}
		purged++
	}
	return purged, nil
}

func (m *MemoryStore) update(id string, fn func(*Event)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil
	}
	fn(e)
	e.UpdatedAt = time.Now()
	return nil
}

// Snapshot returns copies of all events, sorted by creation time.
// Test helper.
func (m *MemoryStore) Snapshot() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
