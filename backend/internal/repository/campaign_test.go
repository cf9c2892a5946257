package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loremaster/backend/internal/graph/graphtest"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

func TestCampaignRepository_CreateInMissingWorld(t *testing.T) {
	exec := graphtest.New()
	repo := NewCampaignRepository(exec)

	_, err := repo.Create(context.Background(), models.CreateCampaignParams{WorldID: "atlantis", Name: "Lost"}, "")
	require.Error(t, err)
	var nf *apperrors.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "World", nf.Entity)
	assert.Equal(t, "atlantis", nf.ID)
	assert.Empty(t, exec.CommittedWrites())
}

func TestCampaignRepository_FindAllFilters(t *testing.T) {
	exec := graphtest.New().
		On("count(n) AS total", graphtest.Record("total", int64(1))).
		On("SKIP $skip LIMIT $limit", graphtest.Record(
			"campaign", map[string]any{"campaign_id": "icewind-dale", "name": "Icewind Dale", "is_active": true},
			"world_id", "fr",
		))
	repo := NewCampaignRepository(exec)

	active := true
	page, err := repo.FindAll(context.Background(), models.CampaignFilter{WorldID: "fr", IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "fr", page.Items[0].WorldID)
	assert.True(t, page.Items[0].IsActive)

	count := exec.Matching("count(n) AS total")[0]
	assert.Equal(t, "fr", count.Params["world_id"])
	assert.Equal(t, true, count.Params["is_active"])
}

func TestCampaignRepository_UpdateNullWorldDetaches(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.campaign_id AS id", graphtest.Record("id", "icewind-dale")).
		On("MATCH (n:Campaign {campaign_id: $id})\nRETURN", graphtest.Record(
			"campaign", map[string]any{"campaign_id": "icewind-dale"},
		))
	repo := NewCampaignRepository(exec)

	campaign, err := repo.Update(context.Background(), "icewind-dale", models.UpdateCampaignParams{
		WorldID: models.Null[string](),
	})
	require.NoError(t, err)
	assert.Empty(t, campaign.WorldID)
	assert.True(t, exec.Executed("-[r:BELONGS_TO]->(:World)"))
}

func TestCampaignRepository_DeleteBlockedByContent(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.campaign_id AS id", graphtest.Record("id", "icewind-dale")).
		On("MATCH (child)-[:BELONGS_TO]->", graphtest.Record("total", int64(5)))
	repo := NewCampaignRepository(exec)

	deleted, err := repo.Delete(context.Background(), "icewind-dale")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.False(t, deleted)
}

func TestSessionRepository_CreateStoresDateInUTC(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (p:Campaign", graphtest.Record("id", "s1")).
		On("MATCH (n:Session {session_id: $id})\nRETURN", graphtest.Record(
			"session", map[string]any{"session_id": "s1", "session_number": int64(1)},
			"campaign_id", "icewind-dale",
		))
	repo := NewSessionRepository(exec)
	stub(&repo.base, "s1")

	local := time.Date(2024, 3, 1, 19, 30, 0, 0, time.FixedZone("EST", -5*3600))
	_, err := repo.Create(context.Background(), models.CreateSessionParams{
		CampaignID:    "icewind-dale",
		Name:          "Session 1",
		SessionNumber: 1,
		SessionDate:   &local,
	}, "")
	require.NoError(t, err)

	props := exec.Matching("CREATE (n:Session $props)")[0].Params["props"].(map[string]any)
	assert.Equal(t, local.UTC(), props["session_date"])
	assert.Equal(t, int64(1), props["session_number"])
}

func TestSessionRepository_CreateWithoutDateOmitsIt(t *testing.T) {
	exec := graphtest.New().
		On("MATCH (p:Campaign", graphtest.Record("id", "s1")).
		On("MATCH (n:Session {session_id: $id})\nRETURN", graphtest.Record("session", map[string]any{"session_id": "s1"}))
	repo := NewSessionRepository(exec)
	stub(&repo.base, "s1")

	_, err := repo.Create(context.Background(), models.CreateSessionParams{CampaignID: "icewind-dale", Name: "Session 0"}, "")
	require.NoError(t, err)

	props := exec.Matching("CREATE (n:Session $props)")[0].Params["props"].(map[string]any)
	assert.NotContains(t, props, "session_date")
}

func TestSessionRepository_DeleteBlockedByReferences(t *testing.T) {
	exec := graphtest.New().
		On("RETURN n.session_id AS id", graphtest.Record("id", "s1")).
		On("MATCH (ref)-[:RECORDED_IN|OCCURRED_IN|ANALYZES]->", graphtest.Record("total", int64(1)))
	repo := NewSessionRepository(exec)

	_, err := repo.Delete(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.False(t, exec.Executed("DETACH DELETE"))
}

func TestNewRepositories(t *testing.T) {
	exec := graphtest.New()
	repos := NewRepositories(exec, WithGraphLimits(3, 50))

	assert.NotNil(t, repos.Worlds)
	assert.NotNil(t, repos.Campaigns)
	assert.NotNil(t, repos.Sessions)
	assert.NotNil(t, repos.Characters)
	assert.NotNil(t, repos.Locations)
	assert.NotNil(t, repos.Items)
	assert.NotNil(t, repos.Powers)
	assert.NotNil(t, repos.Events)
	assert.NotNil(t, repos.Recordings)
	assert.NotNil(t, repos.Transcriptions)
	assert.NotNil(t, repos.Analyses)
	assert.NotNil(t, repos.Proposals)
	require.NotNil(t, repos.Visualization)
	assert.Equal(t, GraphLimits{MaxDepth: 3, SampleLimit: 50}, repos.Visualization.limits)

	defaults := NewRepositories(exec)
	assert.Equal(t, GraphLimits{MaxDepth: 5, SampleLimit: 100}, defaults.Visualization.limits)
}
