package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	// Registry fields.
	FieldKey       = "key"
	FieldScope     = "scope"
	FieldType      = "type"
	FieldKind      = "kind"
	FieldOverride  = "override_id"
	FieldDepth     = "depth"
	FieldCount     = "count"
	FieldRegistry  = "registry"
	FieldCallSite  = "call_site"
	FieldEventKind = "event"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Debug("created", logger.Fields("key", "App.db", "depth", 0))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}
