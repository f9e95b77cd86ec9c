package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler processes one claimed event
type Handler func(ctx context.Context, d *Delivery) error

// Bus emits events and dispatches them to registered handlers.
// Register handlers with On before calling Start.
type Bus struct {
	store        Store
	logger       *zap.Logger
	pollInterval time.Duration
	lease        time.Duration

	mu       sync.Mutex
	handlers map[string]*registration

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

type registration struct {
	name    string
	config  HandlerConfig
	fn      Handler
	limiter *rate.Limiter
}

// BusConfig tunes the dispatcher
type BusConfig struct {
	Store  Store
	Logger *zap.Logger
	// PollInterval is how often each handler loop checks for due events;
	// default 1s.
	PollInterval time.Duration
	// Lease is how long a claimed event stays invisible to other workers;
	// default 5m.
	Lease time.Duration
}

// NewBus creates a Bus
func NewBus(cfg BusConfig) *Bus {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		store:        cfg.Store,
		logger:       logger,
		pollInterval: cfg.PollInterval,
		lease:        cfg.Lease,
		handlers:     make(map[string]*registration),
		stopCh:       make(chan struct{}),
	}
}

// Emit persists one pending event per payload, atomically for the whole
// batch. Payloads are marshaled to JSON. Emitting zero payloads is a no-op.
func (b *Bus) Emit(ctx context.Context, name string, payloads ...interface{}) error {
	if len(payloads) == 0 {
		return nil
	}

	now := time.Now()
	batch := make([]*Event, 0, len(payloads))
	for _, p := range payloads {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal payload for %s: %w", name, err)
		}
		batch = append(batch, &Event{
			ID:        uuid.New().String(),
			Name:      name,
			Payload:   data,
			Status:    StatusPending,
			NextRunAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := b.store.InsertBatch(ctx, batch); err != nil {
		return fmt.Errorf("emit %s: %w", name, err)
	}
	b.logger.Info("events emitted", zap.String("event", name), zap.Int("count", len(batch)))
	return nil
}

// On registers a handler for an event name. One handler per name.
func (b *Bus) On(name string, cfg HandlerConfig, fn Handler) {
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.Throttle.Limit > 0 && cfg.Throttle.Period > 0 {
		// Burst of 1 spreads the quota evenly across the period, so at most
		// Limit invocations complete per period regardless of backlog size.
		limiter = rate.NewLimiter(rate.Every(cfg.Throttle.Period/time.Duration(cfg.Throttle.Limit)), 1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = &registration{name: name, config: cfg, fn: fn, limiter: limiter}
}

// Start launches one polling loop per registered handler.
// Returns immediately; use Stop for graceful shutdown.
func (b *Bus) Start() {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	regs := make([]*registration, 0, len(b.handlers))
	for _, r := range b.handlers {
		regs = append(regs, r)
	}
	b.mu.Unlock()

	for _, r := range regs {
		b.wg.Add(1)
		go b.runLoop(r)
	}
	b.logger.Info("event bus started", zap.Int("handlers", len(regs)))
}

// Stop halts all polling loops and waits for in-flight handlers
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.mu.Unlock()

	close(b.stopCh)
	b.wg.Wait()
	b.logger.Info("event bus stopped")
}

func (b *Bus) runLoop(r *registration) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.processDue(r)
		}
	}
}

// processDue claims a batch of due events and dispatches them with bounded
// concurrency. The throttle wait happens before each dispatch so over-quota
// events queue instead of failing.
func (b *Bus) processDue(r *registration) {
	ctx := context.Background()

	claimed, err := b.store.ClaimDue(ctx, r.name, r.config.Concurrency, time.Now(), b.lease)
	if err != nil {
		b.logger.Error("claim failed", zap.String("event", r.name), zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, e := range claimed {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return
			}
		}
		wg.Add(1)
		go func(e *Event) {
			defer wg.Done()
			b.dispatch(ctx, r, e)
		}(e)
	}
	wg.Wait()
}

func (b *Bus) dispatch(ctx context.Context, r *registration, e *Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.fail(ctx, r, e, fmt.Errorf("panic: %v", rec))
		}
	}()

	err := r.fn(ctx, &Delivery{Event: e, store: b.store})
	if err != nil {
		b.fail(ctx, r, e, err)
		return
	}

	if err := b.store.MarkDone(ctx, e.ID); err != nil {
		b.logger.Error("mark done failed", zap.String("event_id", e.ID), zap.Error(err))
	}
}

// fail records a handler failure: permanent errors and exhausted retries
// park the event as dead, anything else reschedules it with backoff.
// Failures stay isolated to this one event.
func (b *Bus) fail(ctx context.Context, r *registration, e *Event, cause error) {
	attempts := e.Attempts + 1

	if IsPermanent(cause) {
		b.logger.Warn("event failed permanently",
			zap.String("event", e.Name),
			zap.String("event_id", e.ID),
			zap.Error(cause),
		)
		if err := b.store.MarkDead(ctx, e.ID, attempts, cause.Error()); err != nil {
			b.logger.Error("mark dead failed", zap.String("event_id", e.ID), zap.Error(err))
		}
		return
	}

	if attempts >= r.config.MaxAttempts {
		b.logger.Error("event exhausted retries",
			zap.String("event", e.Name),
			zap.String("event_id", e.ID),
			zap.Int("attempts", attempts),
			zap.Error(cause),
		)
		if err := b.store.MarkDead(ctx, e.ID, attempts, cause.Error()); err != nil {
			b.logger.Error("mark dead failed", zap.String("event_id", e.ID), zap.Error(err))
		}
		return
	}

	delay := r.config.backoff(attempts)
	b.logger.Warn("event failed, will retry",
		zap.String("event", e.Name),
		zap.String("event_id", e.ID),
		zap.Int("attempt", attempts),
		zap.Duration("backoff", delay),
		zap.Error(cause),
	)
	if err := b.store.MarkRetry(ctx, e.ID, attempts, cause.Error(), time.Now().Add(delay)); err != nil {
		b.logger.Error("mark retry failed", zap.String("event_id", e.ID), zap.Error(err))
	}
}

// Delivery is one claimed event handed to a handler
type Delivery struct {
	Event *Event
	store Store
}

// NewDelivery wraps an event for direct handler invocation, bypassing the
// dispatcher. Used by one-shot runners and tests.
func NewDelivery(e *Event, store Store) *Delivery {
	return &Delivery{Event: e, store: store}
}

// UnmarshalPayload decodes the event payload into v. Handlers should wrap
// a decode failure with Permanent: a malformed payload will never succeed.
func (d *Delivery) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(d.Event.Payload, v)
}

// Step runs fn once per event: the first execution persists fn's output,
// and replays on retry decode the stored output into out instead of
// re-executing. Pass a nil out to discard the output.
func (d *Delivery) Step(ctx context.Context, name string, fn func(ctx context.Context) (interface{}, error), out interface{}) error {
	saved, ok, err := d.store.StepOutput(ctx, d.Event.ID, name)
	if err != nil {
		return fmt.Errorf("step %s: load output: %w", name, err)
	}
	if ok {
		if out == nil {
			return nil
		}
		return json.Unmarshal(saved, out)
	}

	result, err := fn(ctx)
	if err != nil {
		return fmt.Errorf("step %s: %w", name, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("step %s: marshal output: %w", name, err)
	}
	if err := d.store.SaveStepOutput(ctx, d.Event.ID, name, data); err != nil {
		return fmt.Errorf("step %s: save output: %w", name, err)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
