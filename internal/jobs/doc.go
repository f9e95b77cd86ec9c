// Package jobs runs the scheduled digest aggregation.
//
// A cron scheduler fires the two daily flows in the configured timezone.
// Aggregation only fans events out to the bus, so a tick is cheap; the
// slow work (matching, sending) happens in the bus handlers afterwards.
package jobs
