package graph

import (
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// ============================================================================
// Record helpers
// ============================================================================

// Value returns the raw value stored under key, nil when absent
func Value(record *neo4j.Record, key string) any {
	if record == nil {
		return nil
	}
	val, ok := record.Get(key)
	if !ok {
		return nil
	}
	return val
}

func StringFromRecord(record *neo4j.Record, key string) string {
	return asString(Value(record, key))
}

func Int64FromRecord(record *neo4j.Record, key string) int64 {
	return asInt64(Value(record, key))
}

func BoolFromRecord(record *neo4j.Record, key string) bool {
	b, _ := Value(record, key).(bool)
	return b
}

// StringPtrFromRecord returns nil for a missing or null value
func StringPtrFromRecord(record *neo4j.Record, key string) *string {
	val := Value(record, key)
	if val == nil {
		return nil
	}
	s := asString(val)
	if s == "" {
		return nil
	}
	return &s
}

// PropsFromRecord returns the property map under key. Map projections
// (n {.*}) and whole nodes are both accepted.
func PropsFromRecord(record *neo4j.Record, key string) map[string]any {
	return asProps(Value(record, key))
}

// ListFromRecord returns the list under key, dropping nil entries
func ListFromRecord(record *neo4j.Record, key string) []any {
	list, _ := Value(record, key).([]any)
	out := make([]any, 0, len(list))
	for _, v := range list {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func StringSliceFromRecord(record *neo4j.Record, key string) []string {
	return asStringSlice(Value(record, key))
}

// ============================================================================
// Property map helpers
// ============================================================================

func PropString(m map[string]any, key string) string {
	return asString(m[key])
}

func PropStringPtr(m map[string]any, key string) *string {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}
	s := asString(val)
	return &s
}

func PropInt64(m map[string]any, key string) int64 {
	return asInt64(m[key])
}

func PropFloat64(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func PropBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func PropStringSlice(m map[string]any, key string) []string {
	return asStringSlice(m[key])
}

// PropTime accepts driver temporal values and RFC3339 strings
func PropTime(m map[string]any, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case dbtype.LocalDateTime:
		return v.Time()
	case dbtype.Date:
		return v.Time()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// PropTimePtr returns nil for an absent or unparsable timestamp
func PropTimePtr(m map[string]any, key string) *time.Time {
	t := PropTime(m, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// PropJSON decodes a JSON-encoded string property into a map
func PropJSON(m map[string]any, key string) map[string]any {
	raw := PropString(m, key)
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// EncodeJSON encodes a map for storage as a string property; nil stays nil
func EncodeJSON(v map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func asString(val any) string {
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func asInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func asStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func asProps(val any) map[string]any {
	switch v := val.(type) {
	case map[string]any:
		return v
	case dbtype.Node:
		return v.Props
	case dbtype.Relationship:
		return v.Props
	}
	return map[string]any{}
}
