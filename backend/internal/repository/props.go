package repository

import (
	"time"

	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"
)

// propertySet is the property map applied with SET n += $props. A nil value
// removes the property.
type propertySet map[string]any

// compact drops nil entries, for property maps used on CREATE
func (ps propertySet) compact() map[string]any {
	out := make(map[string]any, len(ps))
	for k, v := range ps {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// setField copies a patch field into ps: absent fields are skipped, explicit
// nulls become nil.
func setField[T any](ps propertySet, key string, field models.Nullable[T]) {
	if !field.Set {
		return
	}
	if !field.Valid {
		ps[key] = nil
		return
	}
	ps[key] = field.Value
}

// setString is setField for typed string enums, stored as plain strings
func setString[S ~string](ps propertySet, key string, field models.Nullable[S]) {
	if !field.Set {
		return
	}
	if !field.Valid {
		ps[key] = nil
		return
	}
	ps[key] = string(field.Value)
}

// setTime is setField for timestamps
func setTime(ps propertySet, key string, field models.Nullable[time.Time]) {
	if !field.Set {
		return
	}
	if !field.Valid {
		ps[key] = nil
		return
	}
	ps[key] = field.Value.UTC()
}

// setJSON stores a map as an encoded string property
func setJSON(ps propertySet, key string, field models.Nullable[map[string]any]) error {
	if !field.Set {
		return nil
	}
	if !field.Valid {
		ps[key] = nil
		return nil
	}
	encoded, err := graph.EncodeJSON(field.Value)
	if err != nil {
		return err
	}
	ps[key] = encoded
	return nil
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
