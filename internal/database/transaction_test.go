package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicBatchNamespacesVariables(t *testing.T) {
	batch := NewAtomicBatch()
	batch.Add("CREATE user CONTENT { email: $email }", map[string]interface{}{"email": "a@example.com"})
	batch.Add("CREATE user CONTENT { email: $email }", map[string]interface{}{"email": "b@example.com"})

	require.Equal(t, 2, batch.Len())
	assert.Contains(t, batch.statements[0], "$v1_email")
	assert.Contains(t, batch.statements[1], "$v2_email")
	assert.Equal(t, "a@example.com", batch.vars["v1_email"])
	assert.Equal(t, "b@example.com", batch.vars["v2_email"])
}

func TestAtomicBatchPrefixedVariableNames(t *testing.T) {
	// $now prefixes $now_ms; replacement order must not corrupt the longer name
	for i := 0; i < 50; i++ {
		batch := NewAtomicBatch()
		batch.Add("UPDATE event SET updated_at = $now, next_run_at = $now_ms", map[string]interface{}{
			"now":    1,
			"now_ms": 2,
		})

		require.Equal(t,
			"UPDATE event SET updated_at = $v1_now, next_run_at = $v1_now_ms",
			batch.statements[0],
		)
		assert.Equal(t, 1, batch.vars["v1_now"])
		assert.Equal(t, 2, batch.vars["v1_now_ms"])
	}
}

func TestAtomicBatchEmptyIsNoop(t *testing.T) {
	batch := NewAtomicBatch()
	assert.Zero(t, batch.Len())
	assert.NoError(t, batch.Execute(context.Background(), nil))
}
