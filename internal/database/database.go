// Package database provides the database abstraction layer for the job board.
//
// The Database interface abstracts SurrealDB operations so repositories stay
// independent of the driver. Three query methods cover the access patterns:
//   - Query: multiple results (SELECT returning lists)
//   - QueryOne: single result (SELECT by ID)
//   - Execute: no return value (CREATE/UPDATE/DELETE mutations)
//
// Atomic multi-statement writes use AtomicBatch (see transaction.go): statements
// accumulate in memory and execute together wrapped in BEGIN TRANSACTION /
// COMMIT TRANSACTION. There is no isolation between Add calls.
//
// # Error Handling
//
// Standard errors are defined for common failure cases and checked with
// errors.Is:
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // handle missing record
//	}
package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
