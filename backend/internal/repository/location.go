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

// LocationRepository owns Location nodes. Locations form a forest through
// LOCATED_IN edges pointing from child to parent.
type LocationRepository struct {
	base
	campaign edge
	parent   edge
}

func NewLocationRepository(exec graph.Executor) *LocationRepository {
	return &LocationRepository{
		base:     newBase(exec, constants.LabelLocation, "location"),
		campaign: edge{constants.LabelLocation, "location_id", constants.RelBelongsTo, constants.LabelCampaign, "campaign_id"},
		parent:   edge{constants.LabelLocation, "location_id", constants.RelLocatedIn, constants.LabelLocation, "location_id"},
	}
}

var locationSorts = newSortFields("location_id", "name", map[string]string{
	"name":          "n.name",
	"location_type": "n.location_type",
	"created_at":    "n.created_at",
	"updated_at":    "n.updated_at",
})

const locationProjection = `RETURN n {.*} AS location,
	head([(n)-[:BELONGS_TO]->(c:Campaign) | c.campaign_id]) AS campaign_id,
	head([(n)-[:LOCATED_IN]->(p:Location) | p.location_id]) AS parent_location_id`

func decodeLocation(record *neo4j.Record) models.Location {
	props := graph.PropsFromRecord(record, "location")
	l := models.Location{
		ID:               graph.PropString(props, "location_id"),
		CampaignID:       graph.StringFromRecord(record, "campaign_id"),
		ParentLocationID: graph.StringPtrFromRecord(record, "parent_location_id"),
		Name:             graph.PropString(props, "name"),
		Description:      graph.PropString(props, "description"),
		LocationType:     graph.PropString(props, "location_type"),
		ImageURL:         graph.PropString(props, "image_url"),
	}
	l.CreatedAt, l.CreatedBy, l.UpdatedAt = auditFrom(props)
	return l
}

// Create creates a location in a campaign, optionally inside a parent location
func (r *LocationRepository) Create(ctx context.Context, params models.CreateLocationParams, actorID string) (*models.Location, error) {
	if params.CampaignID == "" {
		return nil, apperrors.NewValidation("campaign_id", "is required")
	}

	id := r.newID()
	props := r.newProps("location_id", id, actorID)
	props["name"] = params.Name
	props["description"] = params.Description
	props["location_type"] = params.LocationType
	props["image_url"] = params.ImageURL

	err := r.write(ctx, "location.create", func(tx graph.Tx) error {
		if err := r.createChild(ctx, tx, constants.LabelLocation, props, constants.RelBelongsTo, constants.LabelCampaign, params.CampaignID); err != nil {
			return err
		}
		return r.parent.linkOptional(ctx, tx, id, params.ParentLocationID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Location created",
		zap.String("location_id", id),
		zap.String("campaign_id", params.CampaignID),
	)
	return reload(ctx, r.FindByID, constants.LabelLocation, id)
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.Location, error) {
	var location *models.Location
	err := r.read(ctx, "location.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:Location {location_id: $id})\n"+locationProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		l := decodeLocation(record)
		location = &l
		return nil
	})
	return location, err
}

func (r *LocationRepository) FindAll(ctx context.Context, filter models.LocationFilter) (*models.Page[models.Location], error) {
	spec, err := resolvePage(filter.ListOptions, locationSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelLocation).
		related(constants.RelBelongsTo, constants.LabelCampaign, "campaign_id", filter.CampaignID).
		related(constants.RelLocatedIn, constants.LabelLocation, "location_id", filter.ParentLocationID).
		eq("location_type", filter.LocationType).
		search(filter.Search, "name", "description")
	if filter.RootOnly {
		q.raw("NOT EXISTS { MATCH (n)-[:LOCATED_IN]->(:Location) }")
	}
	return listPage(ctx, &r.base, "location.list", q, spec, locationProjection, decodeLocation)
}

// FindChildren returns the direct children of a location ordered by name
func (r *LocationRepository) FindChildren(ctx context.Context, id string) ([]models.Location, error) {
	children := []models.Location{}
	err := r.read(ctx, "location.children", func(tx graph.Tx) error {
		children = children[:0]
		records, err := tx.Run(ctx, `
			MATCH (n:Location)-[:LOCATED_IN]->(:Location {location_id: $id})
			`+locationProjection+`
			ORDER BY n.name ASC, n.location_id ASC
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		for _, record := range records {
			children = append(children, decodeLocation(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// HasChildren reports whether any location sits directly inside id
func (r *LocationRepository) HasChildren(ctx context.Context, id string) (bool, error) {
	var has bool
	err := r.read(ctx, "location.has_children", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			RETURN EXISTS {
				MATCH (:Location)-[:LOCATED_IN]->(:Location {location_id: $id})
			} AS has_children
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		has = graph.BoolFromRecord(record, "has_children")
		return nil
	})
	return has, err
}

// CheckCircularReference reports whether making proposedParentID the parent
// of locationID would close a cycle: the two are the same location, or the
// proposed parent already sits somewhere below locationID.
func (r *LocationRepository) CheckCircularReference(ctx context.Context, locationID, proposedParentID string) (bool, error) {
	if locationID == proposedParentID {
		return true, nil
	}
	var cyclic bool
	err := r.read(ctx, "location.cycle_check", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			RETURN EXISTS {
				MATCH (:Location {location_id: $parent_id})-[:LOCATED_IN*1..]->(:Location {location_id: $id})
			} AS cyclic
		`, map[string]any{"id": locationID, "parent_id": proposedParentID})
		if err != nil {
			return err
		}
		cyclic = graph.BoolFromRecord(record, "cyclic")
		return nil
	})
	return cyclic, err
}

// Update patches a location. A new parent is checked for cycles before any
// write is issued.
func (r *LocationRepository) Update(ctx context.Context, id string, params models.UpdateLocationParams) (*models.Location, error) {
	if params.ParentLocationID.Valid && params.ParentLocationID.Value != "" {
		cyclic, err := r.CheckCircularReference(ctx, id, params.ParentLocationID.Value)
		if err != nil {
			return nil, err
		}
		if cyclic {
			r.logger.Warn("Rejected circular location parent",
				zap.String("location_id", id),
				zap.String("parent_location_id", params.ParentLocationID.Value),
			)
			return nil, apperrors.NewValidation("parent_location_id", "would create a circular reference")
		}
	}

	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "description", params.Description)
	setField(ps, "location_type", params.LocationType)
	setField(ps, "image_url", params.ImageURL)

	err := r.write(ctx, "location.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelLocation, "location_id", id, ps); err != nil {
			return err
		}
		if err := r.campaign.replace(ctx, tx, id, params.CampaignID); err != nil {
			return err
		}
		return r.parent.replace(ctx, tx, id, params.ParentLocationID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelLocation, id)
}

// Delete refuses to remove a location that still has child locations.
// Item placements in it are removed with it.
func (r *LocationRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "location.delete", constants.LabelLocation, "location_id", id, func(tx graph.Tx) error {
		children, err := count(ctx, tx, `
			MATCH (child:Location)-[:LOCATED_IN]->(:Location {location_id: $id})
			RETURN count(child) AS total
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if children > 0 {
			return apperrors.NewConflict(constants.LabelLocation, id, "location still has child locations")
		}
		_, err = tx.Run(ctx, `
			MATCH (:Location {location_id: $id})-[:CONTAINS_ITEM]->(j:LocationItem)
			DETACH DELETE j
		`, map[string]any{"id": id})
		return err
	})
}
