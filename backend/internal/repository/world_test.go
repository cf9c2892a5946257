package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loremaster/backend/internal/graph/graphtest"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

func worldRecord(id, name string) map[string]any {
	return map[string]any{
		"world_id":   id,
		"name":       name,
		"created_at": testTime,
		"created_by": "dm-1",
	}
}

func TestWorldRepository_Create(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (n:World {world_id: $id})\nRETURN", graphtest.Record("world", worldRecord("world-1", "Forgotten Realms")))
	repo := NewWorldRepository(exec)
	stub(&repo.base, "world-1")

	world, err := repo.Create(context.Background(), models.CreateWorldParams{
		Name:          "Forgotten Realms",
		SystemVersion: "5e",
	}, "dm-1")
	require.NoError(t, err)

	assert.Equal(t, "world-1", world.ID)
	assert.Equal(t, "Forgotten Realms", world.Name)
	assert.Equal(t, "dm-1", world.CreatedBy)
	assert.Equal(t, testTime, world.CreatedAt)
	assert.Nil(t, world.UpdatedAt)

	creates := exec.Matching("CREATE (n:World $props)")
	require.Len(t, creates, 1)
	assert.True(t, creates[0].Committed)
	props := creates[0].Params["props"].(map[string]any)
	assert.Equal(t, "world-1", props["world_id"])
	assert.Equal(t, "5e", props["system_version"])
	assert.Equal(t, testTime, props["created_at"])
}

func TestWorldRepository_CreateDefaultsActor(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (n:World {world_id: $id})\nRETURN", graphtest.Record("world", worldRecord("world-1", "Greyhawk")))
	repo := NewWorldRepository(exec)
	stub(&repo.base, "world-1")

	_, err := repo.Create(context.Background(), models.CreateWorldParams{Name: "Greyhawk"}, "")
	require.NoError(t, err)

	props := exec.Matching("CREATE (n:World")[0].Params["props"].(map[string]any)
	assert.Equal(t, "system", props["created_by"])
}

func TestWorldRepository_FindByIDMissing(t *testing.T) {
	repo := NewWorldRepository(graphtest.New())

	world, err := repo.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, world)
}

func TestWorldRepository_FindByIDIsRepeatable(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (n:World {world_id: $id})\nRETURN", graphtest.Record("world", worldRecord("world-1", "Forgotten Realms")))
	repo := NewWorldRepository(exec)

	first, err := repo.FindByID(context.Background(), "world-1")
	require.NoError(t, err)
	second, err := repo.FindByID(context.Background(), "world-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWorldRepository_UpdateMissing(t *testing.T) {
	exec := graphtest.New()
	repo := NewWorldRepository(exec)

	_, err := repo.Update(context.Background(), "nope", models.UpdateWorldParams{Name: models.Value("x")})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, exec.CommittedWrites())
}

func TestWorldRepository_UpdateOnlyTouchesPresentFields(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.world_id AS id", graphtest.Record("id", "world-1")).
		On("MATCH (n:World {world_id: $id})\nRETURN", graphtest.Record("world", worldRecord("world-1", "Faerûn")))
	repo := NewWorldRepository(exec)
	stub(&repo.base)

	_, err := repo.Update(context.Background(), "world-1", models.UpdateWorldParams{
		Name:        models.Value("Faerûn"),
		Description: models.Null[string](),
	})
	require.NoError(t, err)

	set := exec.Matching("SET n += $props")
	require.Len(t, set, 1)
	props := set[0].Params["props"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "Faerûn", "description": nil}, props)
	assert.Equal(t, testTime, set[0].Params["now"])
}

func TestWorldRepository_DeleteBlockedByCampaigns(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.world_id AS id", graphtest.Record("id", "world-1")).
		On("MATCH (:Campaign)-[:BELONGS_TO]->", graphtest.Record("total", int64(2)))
	repo := NewWorldRepository(exec)

	deleted, err := repo.Delete(context.Background(), "world-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.False(t, deleted)
	assert.False(t, exec.Executed("DETACH DELETE"))
}

func TestWorldRepository_DeleteMissing(t *testing.T) {
	exec := graphtest.New()
	repo := NewWorldRepository(exec)

	deleted, err := repo.Delete(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.False(t, exec.Executed("DETACH DELETE"))
}

func TestWorldRepository_Delete(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.world_id AS id", graphtest.Record("id", "world-1"))
	repo := NewWorldRepository(exec)

	deleted, err := repo.Delete(context.Background(), "world-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	detach := exec.Matching("DETACH DELETE n")
	require.Len(t, detach, 1)
	assert.True(t, detach[0].Committed)
}

func TestWorldRepository_StoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	exec := graphtest.New().Fail("MATCH (n:World", boom)
	repo := NewWorldRepository(exec)

	_, err := repo.FindByID(context.Background(), "world-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeGraph))
}
