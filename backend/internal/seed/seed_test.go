package seed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loremaster/backend/internal/graph/graphtest"
	"loremaster/backend/internal/repository"

	apperrors "loremaster/backend/pkg/errors"
)

const icewindDale = `
worlds:
  - name: Forgotten Realms
    system_version: "5e"
    campaigns:
      - name: Icewind Dale
        is_active: true
        sessions:
          - name: Session 1
            session_number: 1
            session_date: 2024-03-01
        locations:
          - name: Ten Towns
            location_type: region
          - name: Bryn Shander
            parent: Ten Towns
            location_type: town
        characters:
          - name: Drizzt
            race: Drow
            character_class: Ranger
            level: 10
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(icewindDale))
	require.NoError(t, err)

	require.Len(t, f.Worlds, 1)
	w := f.Worlds[0]
	assert.Equal(t, "Forgotten Realms", w.Name)
	assert.Equal(t, "5e", w.SystemVersion)
	require.Len(t, w.Campaigns, 1)

	c := w.Campaigns[0]
	assert.True(t, c.IsActive)
	require.Len(t, c.Sessions, 1)
	require.NotNil(t, c.Sessions[0].SessionDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), c.Sessions[0].SessionDate.UTC())
	require.Len(t, c.Locations, 2)
	assert.Equal(t, "Ten Towns", c.Locations[1].Parent)
	assert.Equal(t, int64(10), c.Characters[0].Level)
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Worlds)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("worlds:\n  - name: Eberron\n    colour: grey\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "world without name",
			doc:   "worlds:\n  - description: nameless\n",
			field: "worlds[0].name",
		},
		{
			name:  "campaign without name",
			doc:   "worlds:\n  - name: Faerun\n    campaigns:\n      - is_active: true\n",
			field: "worlds[0].campaigns[0].name",
		},
		{
			name: "parent declared later",
			doc: `worlds:
  - name: Faerun
    campaigns:
      - name: Icewind Dale
        locations:
          - name: Bryn Shander
            parent: Ten Towns
          - name: Ten Towns
`,
			field: "worlds[0].campaigns[0].locations[0].parent",
		},
		{
			name: "duplicate location",
			doc: `worlds:
  - name: Faerun
    campaigns:
      - name: Icewind Dale
        locations:
          - name: Ten Towns
          - name: Ten Towns
`,
			field: "worlds[0].campaigns[0].locations[1].name",
		},
		{
			name: "self parent",
			doc: `worlds:
  - name: Faerun
    campaigns:
      - name: Icewind Dale
        locations:
          - name: Ten Towns
            parent: Ten Towns
`,
			field: "worlds[0].campaigns[0].locations[0].parent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			var verr *apperrors.ErrValidation
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func seededExecutor() *graphtest.Executor {
	campaign := map[string]any{"campaign_id": "icewind-dale", "name": "Icewind Dale"}
	return graphtest.New().
		On("CREATE (n)-[:BELONGS_TO]->(p)", graphtest.Record("id", "created")).
		On("CREATE (a)-[:LOCATED_IN]->(b)", graphtest.Record("target", "ten-towns")).
		On("MATCH (n:World {world_id: $id})",
			graphtest.Record("world", map[string]any{"world_id": "fr", "name": "Forgotten Realms"})).
		On("MATCH (n:Campaign {campaign_id: $id})",
			graphtest.Record("campaign", campaign, "world_id", "fr")).
		On("MATCH (n:Session {session_id: $id})",
			graphtest.Record("session", map[string]any{"session_id": "s1", "name": "Session 1"}, "campaign_id", "icewind-dale")).
		Once("MATCH (n:Location {location_id: $id})",
			graphtest.Record("location", map[string]any{"location_id": "ten-towns", "name": "Ten Towns"},
				"campaign_id", "icewind-dale", "parent_location_id", nil)).
		Once("MATCH (n:Location {location_id: $id})",
			graphtest.Record("location", map[string]any{"location_id": "bryn-shander", "name": "Bryn Shander"},
				"campaign_id", "icewind-dale", "parent_location_id", "ten-towns")).
		On("MATCH (n:Character {character_id: $id})",
			graphtest.Record("character", map[string]any{"character_id": "drizzt", "name": "Drizzt"}, "campaign_id", "icewind-dale"))
}

func TestApply(t *testing.T) {
	f, err := Parse(strings.NewReader(icewindDale))
	require.NoError(t, err)
	exec := seededExecutor()

	sum, err := Apply(context.Background(), repository.NewRepositories(exec), f, "seeder")
	require.NoError(t, err)
	assert.Equal(t, Summary{Worlds: 1, Campaigns: 1, Sessions: 1, Locations: 2, Characters: 1}, sum)

	campaigns := exec.Matching("MATCH (p:World {world_id: $parent_id})")
	require.Len(t, campaigns, 1)
	assert.Equal(t, "fr", campaigns[0].Params["parent_id"])

	children := exec.Matching("MATCH (p:Campaign {campaign_id: $parent_id})")
	require.Len(t, children, 4)
	for _, c := range children {
		assert.Equal(t, "icewind-dale", c.Params["parent_id"])
		assert.True(t, c.Committed)
	}

	links := exec.Matching("CREATE (a)-[:LOCATED_IN]->(b)")
	require.Len(t, links, 1)
	assert.Equal(t, "ten-towns", links[0].Params["to_id"])
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	f, err := Parse(strings.NewReader(icewindDale))
	require.NoError(t, err)
	exec := graphtest.New()

	sum, err := Apply(context.Background(), repository.NewRepositories(exec), f, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Forgotten Realms")
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, exec.Matching("CREATE (n:Campaign"))
}
