// Package repository implements data access on top of the database package.
//
// Each repository owns one table and exposes typed methods over SurrealDB
// queries. Identity-synced tables (user, organization, settings) use the
// provider's ID as the record ID so webhook upserts are idempotent; listing
// and application records get database-generated IDs.
//
// Repositories return (nil, nil) for lookups that find nothing; callers that
// need a hard failure wrap that into their own not-found error. Mutations
// surface database.ErrDuplicate on unique constraint violations.
//
// EventRepository implements events.Store, persisting bus events and their
// memoized step outputs.
package repository
