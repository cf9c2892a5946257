package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullable_DistinguishesAbsentNullAndValue(t *testing.T) {
	var params UpdateLocationParams
	err := json.Unmarshal([]byte(`{"name":"Bryn Shander","parent_location_id":null}`), &params)
	require.NoError(t, err)

	assert.True(t, params.Name.Set)
	assert.True(t, params.Name.Valid)
	assert.Equal(t, "Bryn Shander", params.Name.Value)

	assert.True(t, params.ParentLocationID.IsNull())
	assert.Nil(t, params.ParentLocationID.Ptr())

	assert.False(t, params.CampaignID.Set)
	assert.False(t, params.Description.Set)
}

func TestNullable_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Nullable[int64]  `json:"a"`
		B Nullable[string] `json:"b"`
	}{A: Value[int64](3), B: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(out))
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, TranscriptionInProgress.Valid())
	assert.False(t, TranscriptionStatus("queued").Valid())
	assert.True(t, AnalysisCompleted.Valid())
	assert.False(t, AnalysisStatus("").Valid())
	assert.True(t, ProposalApplied.Valid())
	assert.False(t, ProposalType("merge").Valid())
}
