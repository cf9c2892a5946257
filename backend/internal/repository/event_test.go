package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loremaster/backend/internal/graph/graphtest"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

const eventFind = "MATCH (n:Event {event_id: $id})\nRETURN"

func TestEventRepository_CreateLinksSessionAndLocation(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (p:Campaign", graphtest.Record("id", "ev-1")).
		On("RETURN b.session_id AS target", graphtest.Record("target", "s1")).
		On("RETURN b.location_id AS target", graphtest.Record("target", "bryn-shander")).
		On(eventFind, graphtest.Record(
			"event", map[string]any{"event_id": "ev-1", "name": "Siege", "timeline_position": int64(3)},
			"campaign_id", "icewind-dale",
			"session_id", "s1",
			"location_id", "bryn-shander",
		))
	repo := NewEventRepository(exec)
	stub(&repo.base, "ev-1")

	session, location := "s1", "bryn-shander"
	event, err := repo.Create(context.Background(), models.CreateEventParams{
		CampaignID: "icewind-dale",
		SessionID:  &session,
		LocationID: &location,
		Name:       "Siege",
	}, "dm-1")
	require.NoError(t, err)
	require.NotNil(t, event.SessionID)
	assert.Equal(t, "s1", *event.SessionID)
	require.NotNil(t, event.LocationID)
	assert.Equal(t, "bryn-shander", *event.LocationID)

	writes := exec.CommittedWrites()
	require.Len(t, writes, 3)
	assert.Contains(t, writes[1].Query, "CREATE (a)-[:OCCURRED_IN]->(b)")
	assert.Contains(t, writes[2].Query, "CREATE (a)-[:TOOK_PLACE_AT]->(b)")
}

func TestEventRepository_UpdateNullSessionLeavesLocation(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.event_id AS id", graphtest.Record("id", "ev-1")).
		On(eventFind, graphtest.Record(
			"event", map[string]any{"event_id": "ev-1"},
			"location_id", "bryn-shander",
		))
	repo := NewEventRepository(exec)

	event, err := repo.Update(context.Background(), "ev-1", models.UpdateEventParams{
		SessionID: models.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, event.SessionID)
	assert.True(t, exec.Executed("-[r:OCCURRED_IN]->(:Session)"))
	assert.False(t, exec.Executed("-[r:TOOK_PLACE_AT]->"))
}

func TestEventRepository_DeleteCascadesParticipants(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.event_id AS id", graphtest.Record("id", "ev-1"))
	repo := NewEventRepository(exec)

	deleted, err := repo.Delete(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.True(t, exec.Executed("-[:INVOLVES]->(j)\n"))
}

func TestEventRepository_AddCharacter(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (n:Event {event_id: $id}) RETURN", graphtest.Record("id", "ev-1")).
		On("MATCH (n:Character {character_id: $id}) RETURN", graphtest.Record("id", "drizzt")).
		On("(j:EventCharacter {event_character_id: $id})", graphtest.Record(
			"participant", map[string]any{"event_character_id": "ec-1", "role": "defender"},
			"event_id", "ev-1",
			"character_id", "drizzt",
			"character_name", "Drizzt",
		))
	repo := NewEventRepository(exec)
	stub(&repo.base, "ec-1")

	participant, err := repo.AddCharacter(context.Background(), "ev-1", "drizzt", models.EventParticipantParams{Role: "defender"}, "")
	require.NoError(t, err)
	assert.Equal(t, "ec-1", participant.ID)
	assert.Equal(t, "defender", participant.Role)
	assert.Equal(t, "Drizzt", participant.CharacterName)
	assert.True(t, exec.Executed("CREATE (o)-[:INVOLVES]->(j:EventCharacter $props)-[:REFERENCES]->(t)"))
}

func TestEventRepository_AddItemMissingEvent(t *testing.T) {
	exec := graphtest.New()
	repo := NewEventRepository(exec)

	_, err := repo.AddItem(context.Background(), "ev-x", "crystal-shard", models.EventParticipantParams{}, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, exec.CommittedWrites())
}

func TestEventRepository_FindAllDefaultsToTimeline(t *testing.T) {
	exec := graphtest.New()
	repo := NewEventRepository(exec)

	_, err := repo.FindAll(context.Background(), models.EventFilter{SessionID: "s1"})
	require.NoError(t, err)

	page := exec.Matching("SKIP $skip LIMIT $limit")[0]
	assert.Contains(t, page.Query, "ORDER BY n.timeline_position ASC, n.event_id ASC")
	assert.Contains(t, page.Query, "EXISTS { MATCH (n)-[:OCCURRED_IN]->(:Session {session_id: $session_id}) }")
}
