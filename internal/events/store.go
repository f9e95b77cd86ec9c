package events

import (
	"context"
	"encoding/json"
	"time"
)

// Store persists events and memoized step outputs.
// Implementations must make InsertBatch atomic: either every event in the
// batch is persisted or none is, so a failed fan-out can be retried whole.
type Store interface {
	// InsertBatch persists a batch of pending events atomically.
	InsertBatch(ctx context.Context, events []*Event) error

	// ClaimDue transitions up to limit due events with the given name to
	// running and extends their lease, returning the claimed events.
	ClaimDue(ctx context.Context, name string, limit int, now time.Time, lease time.Duration) ([]*Event, error)

	// MarkDone finalizes a successfully handled event.
	MarkDone(ctx context.Context, id string) error

	// MarkRetry reschedules a failed event for nextRunAt.
	MarkRetry(ctx context.Context, id string, attempts int, lastError string, nextRunAt time.Time) error

	// MarkDead parks an event that exhausted retries or failed permanently.
	MarkDead(ctx context.Context, id string, attempts int, lastError string) error

	// StepOutput returns the memoized output of a completed step, if any.
	StepOutput(ctx context.Context, eventID, step string) (json.RawMessage, bool, error)

	// SaveStepOutput memoizes a step's output for replay on retry.
	SaveStepOutput(ctx context.Context, eventID, step string, output json.RawMessage) error
}
