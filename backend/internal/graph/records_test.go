package graph

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers(t *testing.T) {
	record := &neo4j.Record{
		Keys:   []string{"name", "count", "flag", "parent", "node", "tags"},
		Values: []any{"Ten Towns", int64(4), true, nil, dbtype.Node{Props: map[string]any{"location_id": "l-1"}}, []any{"north", 3, "cold"}},
	}

	assert.Equal(t, "Ten Towns", StringFromRecord(record, "name"))
	assert.Equal(t, int64(4), Int64FromRecord(record, "count"))
	assert.True(t, BoolFromRecord(record, "flag"))
	assert.Nil(t, StringPtrFromRecord(record, "parent"))
	assert.Equal(t, "l-1", PropsFromRecord(record, "node")["location_id"])
	assert.Equal(t, []string{"north", "cold"}, StringSliceFromRecord(record, "tags"))
	assert.Equal(t, "", StringFromRecord(record, "missing"))
}

func TestPropHelpers(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	props := map[string]any{
		"created_at": created,
		"updated_at": "2024-03-02T08:00:00Z",
		"weight":     int64(3),
		"value":      12.5,
		"metadata":   `{"engine":"whisper"}`,
	}

	assert.Equal(t, created, PropTime(props, "created_at"))
	assert.Equal(t, 2, PropTimePtr(props, "updated_at").Day())
	assert.Nil(t, PropTimePtr(props, "deleted_at"))
	assert.Equal(t, 3.0, PropFloat64(props, "weight"))
	assert.Equal(t, 12.5, PropFloat64(props, "value"))
	assert.Equal(t, "whisper", PropJSON(props, "metadata")["engine"])
	assert.Nil(t, PropStringPtr(props, "campaign_id"))
}

func TestEncodeJSON(t *testing.T) {
	encoded, err := EncodeJSON(map[string]any{"a": 1})
	assert.NoError(t, err)
	assert.Equal(t, `{"a":1}`, encoded)

	encoded, err = EncodeJSON(nil)
	assert.NoError(t, err)
	assert.Nil(t, encoded)
}
