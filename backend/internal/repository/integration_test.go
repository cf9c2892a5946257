//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"
	"loremaster/backend/pkg/config"

	apperrors "loremaster/backend/pkg/errors"
)

// testExecutor connects to the database named by the NEO4J_* environment
// and wipes it
func testExecutor(t *testing.T) *graph.Neo4jExecutor {
	t.Helper()
	ctx := context.Background()

	cfg, err := config.Load()
	require.NoError(t, err)

	exec, err := graph.Connect(ctx, graph.Options{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	})
	require.NoError(t, err, "connecting to test neo4j")
	t.Cleanup(func() { _ = exec.Close(ctx) })

	require.NoError(t, exec.WriteTransaction(ctx, func(tx graph.Tx) error {
		_, err := tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
		return err
	}))
	return exec
}

func countRows(t *testing.T, exec graph.Executor, query string, params map[string]any) int64 {
	t.Helper()
	var total int64
	require.NoError(t, exec.ReadTransaction(context.Background(), func(tx graph.Tx) error {
		records, err := tx.Run(context.Background(), query, params)
		if err != nil || len(records) == 0 {
			return err
		}
		total = graph.Int64FromRecord(records[0], "total")
		return nil
	}))
	return total
}

func TestIntegration_IcewindDale(t *testing.T) {
	ctx := context.Background()
	exec := testExecutor(t)
	require.NoError(t, graph.EnsureSchema(ctx, exec, zap.NewNop()))
	repos := NewRepositories(exec)

	world, err := repos.Worlds.Create(ctx, models.CreateWorldParams{Name: "Forgotten Realms", SystemVersion: "5e"}, "")
	require.NoError(t, err)
	assert.Equal(t, "system", world.CreatedBy)

	campaign, err := repos.Campaigns.Create(ctx, models.CreateCampaignParams{WorldID: world.ID, Name: "Icewind Dale", IsActive: true}, "dm")
	require.NoError(t, err)
	assert.Equal(t, world.ID, campaign.WorldID)

	thaw, err := repos.Sessions.Create(ctx, models.CreateSessionParams{CampaignID: campaign.ID, Name: "The Thaw", SessionNumber: 1}, "dm")
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, thaw.CampaignID)

	tenTowns, err := repos.Locations.Create(ctx, models.CreateLocationParams{CampaignID: campaign.ID, Name: "Ten Towns"}, "dm")
	require.NoError(t, err)
	brynShander, err := repos.Locations.Create(ctx, models.CreateLocationParams{
		CampaignID:       campaign.ID,
		ParentLocationID: &tenTowns.ID,
		Name:             "Bryn Shander",
	}, "dm")
	require.NoError(t, err)
	require.NotNil(t, brynShander.ParentLocationID)
	assert.Equal(t, tenTowns.ID, *brynShander.ParentLocationID)

	t.Run("parent with children cannot be deleted", func(t *testing.T) {
		deleted, err := repos.Locations.Delete(ctx, tenTowns.ID)
		assert.False(t, deleted)
		assert.True(t, apperrors.IsConflict(err))

		still, err := repos.Locations.FindByID(ctx, tenTowns.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)
	})

	t.Run("cycle is rejected", func(t *testing.T) {
		_, err := repos.Locations.Update(ctx, tenTowns.ID, models.UpdateLocationParams{
			ParentLocationID: models.Value(brynShander.ID),
		})
		assert.True(t, apperrors.IsValidation(err))

		after, err := repos.Locations.FindByID(ctx, tenTowns.ID)
		require.NoError(t, err)
		assert.Nil(t, after.ParentLocationID)
	})

	t.Run("character items cascade", func(t *testing.T) {
		drizzt, err := repos.Characters.Create(ctx, models.CreateCharacterParams{CampaignID: campaign.ID, Name: "Drizzt"}, "dm")
		require.NoError(t, err)
		scimitar, err := repos.Items.Create(ctx, models.CreateItemParams{CampaignID: campaign.ID, Name: "Icingdeath"}, "dm")
		require.NoError(t, err)

		held, err := repos.Items.AddToCharacter(ctx, models.AddCharacterItemParams{CharacterID: drizzt.ID, ItemID: scimitar.ID, Equipped: true}, "dm")
		require.NoError(t, err)
		assert.Equal(t, int64(1), held.Quantity)

		deleted, err := repos.Characters.Delete(ctx, drizzt.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		items, err := repos.Items.ListCharacterItems(ctx, drizzt.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
		item, err := repos.Items.FindByID(ctx, scimitar.ID)
		require.NoError(t, err)
		assert.NotNil(t, item)
	})

	t.Run("hierarchy", func(t *testing.T) {
		data, err := repos.Visualization.GetHierarchy(ctx, world.ID)
		require.NoError(t, err)
		assert.Len(t, data.Nodes, 3)
		assert.Len(t, data.Edges, 2)
	})

	t.Run("pages are disjoint and stable", func(t *testing.T) {
		for _, name := range []string{"Frost Ray", "Hunter's Mark", "Shillelagh", "Thunderwave", "Cure Wounds"} {
			_, err := repos.Powers.Create(ctx, models.CreatePowerParams{CampaignID: campaign.ID, Name: name}, "dm")
			require.NoError(t, err)
		}
		list := func(page, limit int) *models.Page[models.Power] {
			p, err := repos.Powers.FindAll(ctx, models.PowerFilter{
				ListOptions: models.ListOptions{Page: page, Limit: limit},
				CampaignID:  campaign.ID,
			})
			require.NoError(t, err)
			return p
		}
		ids := func(p *models.Page[models.Power]) []string {
			out := make([]string, 0, len(p.Items))
			for _, item := range p.Items {
				out = append(out, item.ID)
			}
			return out
		}

		first, second, both := list(1, 2), list(2, 2), list(1, 4)
		require.Len(t, first.Items, 2)
		require.Len(t, second.Items, 2)
		for _, id := range ids(first) {
			assert.NotContains(t, ids(second), id)
		}
		assert.Equal(t, ids(both), append(ids(first), ids(second)...))
		assert.Equal(t, int64(5), first.Total)
		assert.Equal(t, first.Total, second.Total)
		assert.Equal(t, first.Total, both.Total)
	})

	t.Run("recording delete cascades to transcription and segments", func(t *testing.T) {
		recording, err := repos.Recordings.Create(ctx, models.CreateAudioRecordingParams{
			SessionID: thaw.ID,
			Name:      "The Thaw, part one",
			FileName:  "thaw-1.ogg",
		}, "dm")
		require.NoError(t, err)
		transcription, err := repos.Transcriptions.Create(ctx, models.CreateTranscriptionParams{
			RecordingID: recording.ID,
			FullText:    "The ice cracks. Roll for initiative.",
			Segments: []models.CreateSegmentParams{
				{StartTime: 0, EndTime: 2.5, Text: "The ice cracks."},
				{StartTime: 2.5, EndTime: 4, Text: "Roll for initiative."},
			},
		}, "dm")
		require.NoError(t, err)
		assert.Equal(t, int64(2), transcription.SegmentCount)

		deleted, err := repos.Recordings.Delete(ctx, recording.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		gone, err := repos.Transcriptions.FindByID(ctx, transcription.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
		assert.Zero(t, countRows(t, exec, "MATCH (s:TranscriptionSegment) RETURN count(s) AS total", nil))
	})

	t.Run("held power cannot be deleted", func(t *testing.T) {
		wulfgar, err := repos.Characters.Create(ctx, models.CreateCharacterParams{CampaignID: campaign.ID, Name: "Wulfgar"}, "dm")
		require.NoError(t, err)
		rage, err := repos.Powers.Create(ctx, models.CreatePowerParams{CampaignID: campaign.ID, Name: "Rage"}, "dm")
		require.NoError(t, err)
		held, err := repos.Powers.AssignToCharacter(ctx, models.AssignPowerParams{CharacterID: wulfgar.ID, PowerID: rage.ID, ProficiencyLevel: 2}, "dm")
		require.NoError(t, err)

		deleted, err := repos.Powers.Delete(ctx, rage.ID)
		assert.False(t, deleted)
		assert.True(t, apperrors.IsConflict(err))

		still, err := repos.Powers.FindByID(ctx, rage.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)
		powers, err := repos.Powers.ListCharacterPowers(ctx, wulfgar.ID)
		require.NoError(t, err)
		require.Len(t, powers, 1)
		assert.Equal(t, held.ID, powers[0].ID)
		assert.Equal(t, int64(2), powers[0].ProficiencyLevel)
	})

	t.Run("campaign reassignment keeps one BELONGS_TO edge", func(t *testing.T) {
		other, err := repos.Campaigns.Create(ctx, models.CreateCampaignParams{WorldID: world.ID, Name: "Rime of the Frostmaiden"}, "dm")
		require.NoError(t, err)
		regis, err := repos.Characters.Create(ctx, models.CreateCharacterParams{CampaignID: campaign.ID, Name: "Regis"}, "dm")
		require.NoError(t, err)
		belongs := func() int64 {
			return countRows(t, exec, `
				MATCH (:Character {character_id: $id})-[r:BELONGS_TO]->()
				RETURN count(r) AS total
			`, map[string]any{"id": regis.ID})
		}

		moved, err := repos.Characters.Update(ctx, regis.ID, models.UpdateCharacterParams{CampaignID: models.Value(other.ID)})
		require.NoError(t, err)
		assert.Equal(t, other.ID, moved.CampaignID)
		assert.Equal(t, int64(1), belongs())

		detached, err := repos.Characters.Update(ctx, regis.ID, models.UpdateCharacterParams{CampaignID: models.Null[string]()})
		require.NoError(t, err)
		assert.Empty(t, detached.CampaignID)
		assert.Zero(t, belongs())
	})

	t.Run("analysis key points are replaced wholesale", func(t *testing.T) {
		analysis, err := repos.Analyses.Create(ctx, models.CreateSessionAnalysisParams{
			SessionID: thaw.ID,
			Summary:   "The party survives the thaw.",
			KeyPoints: []models.KeyPoint{
				{Text: "The ice cracks", Importance: 0.9},
				{Text: "Initiative is rolled", Importance: 0.5},
				{Text: "A yeti appears", Importance: 0.7},
			},
		}, "dm")
		require.NoError(t, err)
		require.Len(t, analysis.KeyPoints, 3)

		updated, err := repos.Analyses.Update(ctx, analysis.ID, models.UpdateSessionAnalysisParams{
			KeyPoints: models.Value([]models.KeyPoint{
				{Text: "The yeti flees", Importance: 0.8},
				{Text: "Bryn Shander is warned", Importance: 0.6},
				{Text: "The thaw continues", Importance: 0.4},
			}),
		})
		require.NoError(t, err)
		texts := make([]string, 0, len(updated.KeyPoints))
		for _, kp := range updated.KeyPoints {
			texts = append(texts, kp.Text)
		}
		assert.Equal(t, []string{"The yeti flees", "Bryn Shander is warned", "The thaw continues"}, texts)
		assert.Equal(t, "The party survives the thaw.", updated.Summary)
		assert.Equal(t, int64(3), countRows(t, exec, `
			MATCH (k:KeyPoint)-[:PART_OF]->(:SessionAnalysis {analysis_id: $id})
			RETURN count(k) AS total
		`, map[string]any{"id": analysis.ID}))
	})

	t.Run("leaf then parent delete", func(t *testing.T) {
		deleted, err := repos.Locations.Delete(ctx, brynShander.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repos.Locations.Delete(ctx, tenTowns.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
	})
}
