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

const locationFind = "MATCH (n:Location {location_id: $id})\nRETURN"

func locationRecord(id, name string, parent any) *graphtest.Executor {
	return graphtest.New().On(locationFind, graphtest.Record(
		"location", map[string]any{"location_id": id, "name": name, "created_at": testTime},
		"campaign_id", "icewind-dale",
		"parent_location_id", parent,
	))
}

func TestLocationRepository_CheckCircularReferenceSelf(t *testing.T) {
	exec := graphtest.New()
	repo := NewLocationRepository(exec)

	cyclic, err := repo.CheckCircularReference(context.Background(), "ten-towns", "ten-towns")
	require.NoError(t, err)
	assert.True(t, cyclic)
	assert.Empty(t, exec.Calls())
}

func TestLocationRepository_CheckCircularReferenceDescendant(t *testing.T) {
	exec := graphtest.New().On("AS cyclic", graphtest.Record("cyclic", true))
	repo := NewLocationRepository(exec)

	cyclic, err := repo.CheckCircularReference(context.Background(), "ten-towns", "bryn-shander")
	require.NoError(t, err)
	assert.True(t, cyclic)

	call := exec.Matching("AS cyclic")[0]
	assert.Contains(t, call.Query, "(:Location {location_id: $parent_id})-[:LOCATED_IN*1..]->(:Location {location_id: $id})")
	assert.Equal(t, "ten-towns", call.Params["id"])
	assert.Equal(t, "bryn-shander", call.Params["parent_id"])
	assert.False(t, call.Write)
}

func TestLocationRepository_UpdateRejectsCycleWithoutWriting(t *testing.T) {
	exec := graphtest.New().On("AS cyclic", graphtest.Record("cyclic", true))
	repo := NewLocationRepository(exec)

	_, err := repo.Update(context.Background(), "ten-towns", models.UpdateLocationParams{
		ParentLocationID: models.Value("bryn-shander"),
		Name:             models.Value("Ten Towns"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, exec.WriteCount())
}

func TestLocationRepository_UpdateRejectsSelfParent(t *testing.T) {
	exec := graphtest.New()
	repo := NewLocationRepository(exec)

	_, err := repo.Update(context.Background(), "ten-towns", models.UpdateLocationParams{
		ParentLocationID: models.Value("ten-towns"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, exec.Calls())
}

func TestLocationRepository_UpdateReplacesParent(t *testing.T) {
	exec := locationRecord("bryn-shander", "Bryn Shander", "ten-towns").
		On("AS cyclic", graphtest.Record("cyclic", false)).
		On("RETURN n.location_id AS id", graphtest.Record("id", "bryn-shander")).
		On("RETURN b.location_id AS target", graphtest.Record("target", "ten-towns"))
	repo := NewLocationRepository(exec)

	location, err := repo.Update(context.Background(), "bryn-shander", models.UpdateLocationParams{
		ParentLocationID: models.Value("ten-towns"),
	})
	require.NoError(t, err)
	require.NotNil(t, location.ParentLocationID)
	assert.Equal(t, "ten-towns", *location.ParentLocationID)

	writes := exec.CommittedWrites()
	require.Len(t, writes, 3)
	assert.Contains(t, writes[0].Query, "SET n += $props")
	assert.Contains(t, writes[1].Query, "-[r:LOCATED_IN]->(:Location)")
	assert.Contains(t, writes[1].Query, "DELETE r")
	assert.Contains(t, writes[2].Query, "CREATE (a)-[:LOCATED_IN]->(b)")
	assert.Equal(t, "ten-towns", writes[2].Params["to_id"])
	assert.False(t, exec.Executed("-[r:BELONGS_TO]->"))
}

func TestLocationRepository_UpdateNullParentDetaches(t *testing.T) {
	exec := locationRecord("bryn-shander", "Bryn Shander", nil).
		On("RETURN n.location_id AS id", graphtest.Record("id", "bryn-shander"))
	repo := NewLocationRepository(exec)

	location, err := repo.Update(context.Background(), "bryn-shander", models.UpdateLocationParams{
		ParentLocationID: models.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, location.ParentLocationID)
	assert.False(t, exec.Executed("AS cyclic"))
	assert.True(t, exec.Executed("-[r:LOCATED_IN]->(:Location)"))
	assert.False(t, exec.Executed("CREATE (a)-[:LOCATED_IN]->(b)"))
}

func TestLocationRepository_CreateWithMissingParentCreatesNothing(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (p:Campaign", graphtest.Record("id", "loc-1"))
	repo := NewLocationRepository(exec)
	stub(&repo.base, "loc-1")

	parent := "atlantis"
	_, err := repo.Create(context.Background(), models.CreateLocationParams{
		CampaignID:       "icewind-dale",
		ParentLocationID: &parent,
		Name:             "Bryn Shander",
	}, "dm-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, exec.CommittedWrites())
}

func TestLocationRepository_CreateWithParentInOneTransaction(t *testing.T) {
	exec := locationRecord("loc-1", "Bryn Shander", "ten-towns").
		On("MATCH (p:Campaign", graphtest.Record("id", "loc-1")).
		On("RETURN b.location_id AS target", graphtest.Record("target", "ten-towns"))
	repo := NewLocationRepository(exec)
	stub(&repo.base, "loc-1")

	parent := "ten-towns"
	location, err := repo.Create(context.Background(), models.CreateLocationParams{
		CampaignID:       "icewind-dale",
		ParentLocationID: &parent,
		Name:             "Bryn Shander",
	}, "dm-1")
	require.NoError(t, err)
	assert.Equal(t, "loc-1", location.ID)

	writes := exec.CommittedWrites()
	require.Len(t, writes, 2)
	assert.Equal(t, writes[0].TxID, writes[1].TxID)
	assert.Contains(t, writes[0].Query, "CREATE (n)-[:BELONGS_TO]->(p)")
}

func TestLocationRepository_CreateRequiresCampaign(t *testing.T) {
	exec := graphtest.New()
	repo := NewLocationRepository(exec)

	_, err := repo.Create(context.Background(), models.CreateLocationParams{Name: "Nowhere"}, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, exec.Calls())
}

func TestLocationRepository_DeleteBlockedByChildren(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.location_id AS id", graphtest.Record("id", "ten-towns")).
		On("MATCH (child:Location)", graphtest.Record("total", int64(1)))
	repo := NewLocationRepository(exec)

	deleted, err := repo.Delete(context.Background(), "ten-towns")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.False(t, deleted)
	assert.False(t, exec.Executed("DETACH DELETE"))
}

func TestLocationRepository_DeleteLeafRemovesPlacements(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.location_id AS id", graphtest.Record("id", "bryn-shander"))
	repo := NewLocationRepository(exec)

	deleted, err := repo.Delete(context.Background(), "bryn-shander")
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.True(t, exec.Executed("-[:CONTAINS_ITEM]->(j:LocationItem)"))
	assert.True(t, exec.Executed("DETACH DELETE n"))
}

func TestLocationRepository_HasChildren(t *testing.T) {
	exec := graphtest.New().On("AS has_children", graphtest.Record("has_children", true))
	repo := NewLocationRepository(exec)

	has, err := repo.HasChildren(context.Background(), "ten-towns")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestLocationRepository_FindAllRootOnly(t *testing.T) {
	exec := graphtest.New()
	repo := NewLocationRepository(exec)

	_, err := repo.FindAll(context.Background(), models.LocationFilter{CampaignID: "icewind-dale", RootOnly: true})
	require.NoError(t, err)

	count := exec.Matching("count(n) AS total")[0]
	assert.Contains(t, count.Query, "NOT EXISTS { MATCH (n)-[:LOCATED_IN]->(:Location) }")
	assert.Equal(t, "icewind-dale", count.Params["campaign_id"])
}
