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

func TestItemRepository_AddToCharacterDefaultsQuantity(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (n:Character {character_id: $id}) RETURN", graphtest.Record("id", "wulfgar")).
		On("MATCH (n:Item {item_id: $id}) RETURN", graphtest.Record("id", "aegis-fang")).
		On("(j:CharacterItem {character_item_id: $id})", graphtest.Record(
			"held", map[string]any{"character_item_id": "ci-1", "quantity": int64(1), "equipped": true},
			"character_id", "wulfgar",
			"item_id", "aegis-fang",
			"item_name", "Aegis-fang",
		))
	repo := NewItemRepository(exec)
	stub(&repo.base, "ci-1")

	held, err := repo.AddToCharacter(context.Background(), models.AddCharacterItemParams{
		CharacterID: "wulfgar",
		ItemID:      "aegis-fang",
		Equipped:    true,
	}, "dm-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), held.Quantity)
	assert.Equal(t, "Aegis-fang", held.ItemName)

	create := exec.Matching("CREATE (o)-[:HAS_ITEM]->(j:CharacterItem $props)-[:REFERENCES]->(t)")
	require.Len(t, create, 1)
	props := create[0].Params["props"].(map[string]any)
	assert.Equal(t, int64(1), props["quantity"])
	assert.Equal(t, true, props["equipped"])
}

func TestItemRepository_AddToCharacterRejectsNegativeQuantity(t *testing.T) {
	exec := graphtest.New()
	repo := NewItemRepository(exec)

	_, err := repo.AddToCharacter(context.Background(), models.AddCharacterItemParams{
		CharacterID: "wulfgar",
		ItemID:      "aegis-fang",
		Quantity:    -2,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, exec.Calls())
}

func TestItemRepository_AddToLocationMissingItem(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (n:Location {location_id: $id}) RETURN", graphtest.Record("id", "bryn-shander"))
	repo := NewItemRepository(exec)

	_, err := repo.AddToLocation(context.Background(), models.AddLocationItemParams{
		LocationID: "bryn-shander",
		ItemID:     "crystal-shard",
		Quantity:   1,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, exec.Executed("CONTAINS_ITEM"))
}

func TestItemRepository_UpdateCharacterItemMissing(t *testing.T) {
	repo := NewItemRepository(graphtest.New())

	_, err := repo.UpdateCharacterItem(context.Background(), "ci-x", models.UpdateCharacterItemParams{
		Quantity: models.Value(int64(3)),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestItemRepository_DeleteCascadesJoins(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.item_id AS id", graphtest.Record("id", "crystal-shard"))
	repo := NewItemRepository(exec)

	deleted, err := repo.Delete(context.Background(), "crystal-shard")
	require.NoError(t, err)
	assert.True(t, deleted)

	cascade := exec.Matching("WHERE j:CharacterItem OR j:LocationItem OR j:EventItem")
	require.Len(t, cascade, 1)
	assert.True(t, cascade[0].Committed)
	assert.Equal(t, "crystal-shard", cascade[0].Params["id"])
}

func TestItemRepository_ListLocationItemsEmpty(t *testing.T) {
	repo := NewItemRepository(graphtest.New())

	items, err := repo.ListLocationItems(context.Background(), "bryn-shander")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
