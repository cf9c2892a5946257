package repository

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"loremaster/backend/internal/constants"
	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// CampaignRepository owns Campaign nodes and their BELONGS_TO edge to a World
type CampaignRepository struct {
	base
	world edge
}

func NewCampaignRepository(exec graph.Executor) *CampaignRepository {
	return &CampaignRepository{
		base:  newBase(exec, constants.LabelCampaign, "campaign"),
		world: edge{constants.LabelCampaign, "campaign_id", constants.RelBelongsTo, constants.LabelWorld, "world_id"},
	}
}

var campaignSorts = newSortFields("campaign_id", "name", map[string]string{
	"name":       "n.name",
	"is_active":  "n.is_active",
	"created_at": "n.created_at",
	"updated_at": "n.updated_at",
})

const campaignProjection = `RETURN n {.*} AS campaign,
	head([(n)-[:BELONGS_TO]->(w:World) | w.world_id]) AS world_id`

func decodeCampaign(record *neo4j.Record) models.Campaign {
	props := graph.PropsFromRecord(record, "campaign")
	c := models.Campaign{
		ID:          graph.PropString(props, "campaign_id"),
		WorldID:     graph.StringFromRecord(record, "world_id"),
		Name:        graph.PropString(props, "name"),
		Description: graph.PropString(props, "description"),
		IsActive:    graph.PropBool(props, "is_active"),
	}
	c.CreatedAt, c.CreatedBy, c.UpdatedAt = auditFrom(props)
	return c
}

// Create creates a campaign inside an existing world
func (r *CampaignRepository) Create(ctx context.Context, params models.CreateCampaignParams, actorID string) (*models.Campaign, error) {
	if params.WorldID == "" {
		return nil, apperrors.NewValidation("world_id", "is required")
	}

	id := r.newID()
	props := r.newProps("campaign_id", id, actorID)
	props["name"] = params.Name
	props["description"] = params.Description
	props["is_active"] = params.IsActive

	err := r.write(ctx, "campaign.create", func(tx graph.Tx) error {
		return r.createChild(ctx, tx, constants.LabelCampaign, props, constants.RelBelongsTo, constants.LabelWorld, params.WorldID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Campaign created",
		zap.String("campaign_id", id),
		zap.String("world_id", params.WorldID),
	)
	return reload(ctx, r.FindByID, constants.LabelCampaign, id)
}

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign *models.Campaign
	err := r.read(ctx, "campaign.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:Campaign {campaign_id: $id})\n"+campaignProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		c := decodeCampaign(record)
		campaign = &c
		return nil
	})
	return campaign, err
}

func (r *CampaignRepository) FindAll(ctx context.Context, filter models.CampaignFilter) (*models.Page[models.Campaign], error) {
	spec, err := resolvePage(filter.ListOptions, campaignSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelCampaign).
		related(constants.RelBelongsTo, constants.LabelWorld, "world_id", filter.WorldID).
		flag("is_active", filter.IsActive).
		search(filter.Search, "name", "description")
	return listPage(ctx, &r.base, "campaign.list", q, spec, campaignProjection, decodeCampaign)
}

// Update patches a campaign; a new world_id moves it to that world
func (r *CampaignRepository) Update(ctx context.Context, id string, params models.UpdateCampaignParams) (*models.Campaign, error) {
	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "description", params.Description)
	setField(ps, "is_active", params.IsActive)

	err := r.write(ctx, "campaign.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelCampaign, "campaign_id", id, ps); err != nil {
			return err
		}
		return r.world.replace(ctx, tx, id, params.WorldID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelCampaign, id)
}

// Delete refuses to remove a campaign while anything still belongs to it
func (r *CampaignRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "campaign.delete", constants.LabelCampaign, "campaign_id", id, func(tx graph.Tx) error {
		children, err := count(ctx, tx, `
			MATCH (child)-[:BELONGS_TO]->(:Campaign {campaign_id: $id})
			RETURN count(child) AS total
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if children > 0 {
			return apperrors.NewConflict(constants.LabelCampaign, id, "campaign still has sessions or content")
		}
		return nil
	})
}
