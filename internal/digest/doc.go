// Package digest implements the daily notification pipeline.
//
// Two flows run on each trigger:
//
//   - Job listings digest: every opted-in job seeker receives the listings
//     published in the lookback window, optionally filtered through the AI
//     matcher when the user configured a prompt.
//   - Applications digest: every opted-in employer member receives the
//     applications created in the window, filtered by their per-organization
//     subscriptions (minimum rating ORed across subscriptions).
//
// Aggregator reads the window once and fans out one bus event per recipient
// carrying everything delivery needs, so delivery never touches the primary
// tables. Deliverer consumes those events: it runs the AI match and the email
// send as memoized steps, throttles per flow, and guards against double-sends
// across bus redeliveries with a Redis SETNX key per recipient and day.
//
// An empty window or an empty subscriber list ends a flow quietly; no event
// is ever emitted with zero candidates.
package digest
