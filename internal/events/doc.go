// Package events implements the durable event bus behind the notification
// pipeline.
//
// Events are persisted rows, not in-flight messages: Emit writes a batch of
// pending events atomically, and each registered handler runs its own polling
// loop that claims due events, invokes the handler, and records the outcome.
// A claimed event holds a lease; if the worker dies the lease expires and the
// event becomes claimable again, giving at-least-once delivery.
//
// # Handlers
//
//	bus.On("digest/user-job-listings", events.HandlerConfig{
//	    Throttle:    events.Throttle{Limit: 10, Period: time.Minute},
//	    MaxAttempts: 5,
//	}, func(ctx context.Context, d *events.Delivery) error { ... })
//
// Throttles queue work rather than dropping it: when the quota is exhausted
// the dispatcher waits for capacity, so over-quota events simply complete in
// later periods.
//
// # Retries and the error taxonomy
//
// A handler error schedules a retry with exponential backoff until
// MaxAttempts, after which the event is marked dead. Errors wrapped with
// Permanent skip retries entirely (malformed payloads, inputs rejected as
// invalid). Returning nil — including for empty-result conditions — marks
// the event done.
//
// # Steps
//
// Side-effecting sub-steps inside a handler are memoized per event:
//
//	var ids []string
//	err := d.Step(ctx, "match", func(ctx context.Context) (any, error) {
//	    return matcher.Match(ctx, prompt, candidates)
//	}, &ids)
//
// On a retry, completed steps replay their stored output instead of
// re-executing, so a failure in the email send never repeats the AI call.
package events
