package models

import (
	"bytes"
	"encoding/json"
)

// Nullable carries the three states of a patch field: absent (Set false),
// explicit null (Set true, Valid false) and a value (Set and Valid).
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Value returns a present, non-null field
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// Null returns a present field holding null
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// IsNull reports whether the field was explicitly set to null
func (n Nullable[T]) IsNull() bool {
	return n.Set && !n.Valid
}

// Ptr returns the value as a pointer, nil when absent or null
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// UnmarshalJSON marks the field as present; absent JSON keys never reach it.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON writes the value or null
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
