package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ashot-israelyan/ai-job-board/internal/database"
	"github.com/ashot-israelyan/ai-job-board/internal/events"
)

// EventRepository persists bus events and memoized step outputs in
// SurrealDB, implementing events.Store. Timestamps are stored as unix
// milliseconds so due-time comparisons stay plain integer comparisons, and
// payloads are stored as JSON strings.
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

// InsertBatch persists a batch of events in one transaction
func (r *EventRepository) InsertBatch(ctx context.Context, batch []*events.Event) error {
	if len(batch) == 0 {
		return nil
	}

	atomic := database.NewAtomicBatch()
	for _, e := range batch {
		atomic.Add(`
			CREATE type::thing('event', $event_id) CONTENT {
				event_id: $event_id,
				name: $name,
				payload: $payload,
				status: $status,
				attempts: $attempts,
				last_error: $last_error,
				next_run_at: $next_run_at,
				created_at: $created_at,
				updated_at: $updated_at
			}
		`, map[string]interface{}{
			"event_id":    e.ID,
			"name":        e.Name,
			"payload":     string(e.Payload),
			"status":      string(e.Status),
			"attempts":    e.Attempts,
			"last_error":  e.LastError,
			"next_run_at": e.NextRunAt.UnixMilli(),
			"created_at":  e.CreatedAt.UnixMilli(),
			"updated_at":  e.UpdatedAt.UnixMilli(),
		})
	}
	return atomic.Execute(ctx, r.db)
}

// ClaimDue leases up to limit due events with the given name. The update is
// conditioned on the event still being due, so an event already claimed by a
// concurrent worker between the select and the update drops out of the
// result instead of being double-claimed past its lease.
func (r *EventRepository) ClaimDue(ctx context.Context, name string, limit int, now time.Time, lease time.Duration) ([]*events.Event, error) {
	selectQuery := `
		SELECT VALUE event_id FROM event
		WHERE name = $name
			AND status IN ['pending', 'running']
			AND next_run_at <= $now
		ORDER BY created_at ASC
		LIMIT $limit
	`
	result, err := r.db.Query(ctx, selectQuery, map[string]interface{}{
		"name":  name,
		"now":   now.UnixMilli(),
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	ids := stringValues(result)
	if len(ids) == 0 {
		return nil, nil
	}

	claimQuery := `
		UPDATE event SET
			status = 'running',
			next_run_at = $lease_until,
			updated_at = $now
		WHERE event_id IN $ids
			AND status IN ['pending', 'running']
			AND next_run_at <= $now
		RETURN AFTER
	`
	result, err = r.db.Query(ctx, claimQuery, map[string]interface{}{
		"ids":         ids,
		"now":         now.UnixMilli(),
		"lease_until": now.Add(lease).UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	var claimed []*events.Event
	for _, row := range rowsOf(result) {
		claimed = append(claimed, eventFromRow(row))
	}
	return claimed, nil
}

// MarkDone finalizes a handled event
func (r *EventRepository) MarkDone(ctx context.Context, id string) error {
	query := `UPDATE type::thing('event', $event_id) SET status = 'done', updated_at = $now`
	vars := map[string]interface{}{"event_id": id, "now": time.Now().UnixMilli()}
	return r.db.Execute(ctx, query, vars)
}

// MarkRetry reschedules a failed event
func (r *EventRepository) MarkRetry(ctx context.Context, id string, attempts int, lastError string, nextRunAt time.Time) error {
	query := `
		UPDATE type::thing('event', $event_id) SET
			status = 'pending',
			attempts = $attempts,
			last_error = $last_error,
			next_run_at = $next_run_at,
			updated_at = $now
	`
	vars := map[string]interface{}{
		"event_id":    id,
		"attempts":    attempts,
		"last_error":  lastError,
		"next_run_at": nextRunAt.UnixMilli(),
		"now":         time.Now().UnixMilli(),
	}
	return r.db.Execute(ctx, query, vars)
}

// MarkDead parks an event that will not be retried
func (r *EventRepository) MarkDead(ctx context.Context, id string, attempts int, lastError string) error {
	query := `
		UPDATE type::thing('event', $event_id) SET
			status = 'dead',
			attempts = $attempts,
			last_error = $last_error,
			updated_at = $now
	`
	vars := map[string]interface{}{
		"event_id":   id,
		"attempts":   attempts,
		"last_error": lastError,
		"now":        time.Now().UnixMilli(),
	}
	return r.db.Execute(ctx, query, vars)
}

// StepOutput returns a memoized step output, if present
func (r *EventRepository) StepOutput(ctx context.Context, eventID, step string) (json.RawMessage, bool, error) {
	query := `SELECT * FROM type::thing('event_step', [$event_id, $step])`
	vars := map[string]interface{}{"event_id": eventID, "step": step}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	row, ok := result.(map[string]interface{})
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(getString(row, "output")), true, nil
}

// SaveStepOutput memoizes a step output for replay on retry
func (r *EventRepository) SaveStepOutput(ctx context.Context, eventID, step string, output json.RawMessage) error {
	query := `
		UPSERT type::thing('event_step', [$event_id, $step]) CONTENT {
			event_id: $event_id,
			step: $step,
			output: $output,
			created_at: $now
		}
	`
	vars := map[string]interface{}{
		"event_id": eventID,
		"step":     step,
		"output":   string(output),
		"now":      time.Now().UnixMilli(),
	}
	return r.db.Execute(ctx, query, vars)
}

// PurgeCompleted deletes done and dead events last updated before the
// cutoff, along with their memoized step outputs. Pending events past the
// cutoff go too: an event nothing has claimed in that long has no consumer.
// Running events are never purged, their lease protects them. Returns how
// many events the sweep selected.
func (r *EventRepository) PurgeCompleted(ctx context.Context, before time.Time) (int, error) {
	selectQuery := `
		SELECT VALUE event_id FROM event
		WHERE status IN ['done', 'dead', 'pending']
			AND updated_at < $before
	`
	result, err := r.db.Query(ctx, selectQuery, map[string]interface{}{
		"before": before.UnixMilli(),
	})
	if err != nil {
		return 0, err
	}

	ids := stringValues(result)
	if len(ids) == 0 {
		return 0, nil
	}

	batch := database.NewAtomicBatch()
	batch.Add(`DELETE event WHERE event_id IN $ids`, map[string]interface{}{"ids": ids})
	batch.Add(`DELETE event_step WHERE event_id IN $ids`, map[string]interface{}{"ids": ids})
	if err := batch.Execute(ctx, r.db); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// stringValues flattens a SELECT VALUE result into its string values
func stringValues(result []interface{}) []string {
	var out []string
	for _, stmt := range result {
		wrapper, ok := stmt.(map[string]interface{})
		if !ok {
			continue
		}
		values, ok := wrapper["result"].([]interface{})
		if !ok {
			continue
		}
		for _, v := range values {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func eventFromRow(row map[string]interface{}) *events.Event {
	return &events.Event{
		ID:        getString(row, "event_id"),
		Name:      getString(row, "name"),
		Payload:   json.RawMessage(getString(row, "payload")),
		Status:    events.Status(getString(row, "status")),
		Attempts:  getInt(row, "attempts"),
		LastError: getString(row, "last_error"),
		NextRunAt: msToTime(getInt64(row, "next_run_at")),
		CreatedAt: msToTime(getInt64(row, "created_at")),
		UpdatedAt: msToTime(getInt64(row, "updated_at")),
	}
}
