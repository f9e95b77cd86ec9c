package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// isUniqueConstraintError checks if an error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}

// convertRecordID converts a SurrealDB record ID to its "table:id" string form
func convertRecordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		tb, _ := v["tb"].(string)
		if inner, ok := v["id"].(string); ok && tb != "" {
			return tb + ":" + inner
		}
	}
	return fmt.Sprintf("%v", id)
}

// bareID strips the table prefix from a "table:id" record ID string
func bareID(id, table string) string {
	id = strings.TrimPrefix(id, table+":")
	// SurrealDB bracket-escapes IDs with special characters
	id = strings.TrimPrefix(id, "⟨")
	return strings.TrimSuffix(id, "⟩")
}

// decodeRecord converts a single SurrealDB record into v via a JSON round
// trip, normalizing the record ID to a string first. Returns false when the
// result holds no record.
func decodeRecord(result interface{}, v interface{}) (bool, error) {
	if result == nil {
		return false, nil
	}

	// Unwrap the {status, result} statement wrapper and array layers
	if resp, ok := result.(map[string]interface{}); ok {
		if inner, ok := resp["result"]; ok {
			if _, hasStatus := resp["status"]; hasStatus {
				result = inner
			}
		}
	}
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return false, nil
		}
		result = arr[0]
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return false, errors.New("unexpected record format")
	}
	if id, ok := data["id"]; ok {
		data["id"] = convertRecordID(id)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// rowsOf extracts the record maps from a Query response
func rowsOf(result []interface{}) []map[string]interface{} {
	var rows []map[string]interface{}
	for _, stmt := range result {
		wrapper, ok := stmt.(map[string]interface{})
		if !ok {
			continue
		}
		records, ok := wrapper["result"].([]interface{})
		if !ok {
			continue
		}
		for _, rec := range records {
			if m, ok := rec.(map[string]interface{}); ok {
				rows = append(rows, m)
			}
		}
	}
	return rows
}

// decodeRows converts every record of a Query response, appending into out
// via fn. fn receives each row already ID-normalized.
func decodeRows(result []interface{}, fn func(row map[string]interface{}) error) error {
	for _, row := range rowsOf(result) {
		if id, ok := row["id"]; ok {
			row["id"] = convertRecordID(id)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// decodeRowInto is the per-row counterpart of decodeRecord
func decodeRowInto(row map[string]interface{}, v interface{}) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	}
	return 0
}

// msToTime converts unix milliseconds to a UTC time
func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
