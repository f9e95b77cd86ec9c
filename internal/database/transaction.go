package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AtomicBatch accumulates statements and executes them atomically.
// All statements succeed or fail together; variables are namespaced per
// statement so the same name can appear in multiple Add calls.
//
//	batch := database.NewAtomicBatch()
//	batch.Add("CREATE user CONTENT { email: $email }", vars1)
//	batch.Add("CREATE organization CONTENT { name: $name }", vars2)
//	err := batch.Execute(ctx, db)
type AtomicBatch struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewAtomicBatch creates an empty batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{vars: make(map[string]interface{})}
}

// Add appends a statement, namespacing its variables to avoid collisions
func (b *AtomicBatch) Add(query string, vars map[string]interface{}) {
	b.counter++

	// Longest names first, so a name that prefixes another ($now vs
	// $now_ms) cannot capture the longer variable's occurrences.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		namespaced := fmt.Sprintf("v%d_%s", b.counter, name)
		query = strings.ReplaceAll(query, "$"+name, "$"+namespaced)
		b.vars[namespaced] = vars[name]
	}
	b.statements = append(b.statements, query)
}

// Len reports how many statements are queued
func (b *AtomicBatch) Len() int {
	return len(b.statements)
}

// Execute runs all statements wrapped in a single transaction.
// An empty batch is a no-op.
func (b *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if len(b.statements) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	if err := db.Execute(ctx, sb.String(), b.vars); err != nil {
		return fmt.Errorf("atomic batch: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is a missing-record error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
