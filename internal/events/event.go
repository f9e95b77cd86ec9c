package events

import (
	"encoding/json"
	"errors"
	"time"
)

// Status is the lifecycle state of a persisted event
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusDead    Status = "dead"
)

// Event is one unit of work on the bus
type Event struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	Status    Status          `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
	// NextRunAt is when the event becomes claimable: the scheduled retry
	// time for pending events, the lease deadline for running ones.
	NextRunAt time.Time `json:"next_run_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Throttle caps handler invocations at Limit per Period. Invocations over
// the quota wait; nothing is dropped. Sends are smoothed evenly across the
// period rather than released in bursts.
type Throttle struct {
	Limit  int
	Period time.Duration
}

// HandlerConfig tunes one registered handler
type HandlerConfig struct {
	// Throttle bounds invocation rate; zero value means unthrottled.
	Throttle Throttle
	// MaxAttempts bounds retries; default 5.
	MaxAttempts int
	// Concurrency bounds in-flight invocations; default 4.
	Concurrency int
	// BackoffBase is the first retry delay, doubled per attempt and capped
	// at 16x; default 30s.
	BackoffBase time.Duration
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 30 * time.Second
	}
	return c
}

// backoff returns the delay before retry number attempt (1-based)
func (c HandlerConfig) backoff(attempt int) time.Duration {
	d := c.BackoffBase
	for i := 1; i < attempt && d < 16*c.BackoffBase; i++ {
		d *= 2
	}
	if d > 16*c.BackoffBase {
		d = 16 * c.BackoffBase
	}
	return d
}

// permanentError marks an error as not retryable
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so the bus skips retries and marks the event dead
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries the no-retry marker
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
