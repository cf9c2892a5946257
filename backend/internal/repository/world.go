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

// WorldRepository owns World nodes, the roots of containment
type WorldRepository struct {
	base
}

func NewWorldRepository(exec graph.Executor) *WorldRepository {
	return &WorldRepository{base: newBase(exec, constants.LabelWorld, "world")}
}

var worldSorts = newSortFields("world_id", "name", map[string]string{
	"name":           "n.name",
	"system_version": "n.system_version",
	"created_at":     "n.created_at",
	"updated_at":     "n.updated_at",
})

const worldProjection = `RETURN n {.*} AS world`

func decodeWorld(record *neo4j.Record) models.World {
	props := graph.PropsFromRecord(record, "world")
	w := models.World{
		ID:            graph.PropString(props, "world_id"),
		Name:          graph.PropString(props, "name"),
		Description:   graph.PropString(props, "description"),
		SystemVersion: graph.PropString(props, "system_version"),
	}
	w.CreatedAt, w.CreatedBy, w.UpdatedAt = auditFrom(props)
	return w
}

// Create creates a new world
func (r *WorldRepository) Create(ctx context.Context, params models.CreateWorldParams, actorID string) (*models.World, error) {
	id := r.newID()
	props := r.newProps("world_id", id, actorID)
	props["name"] = params.Name
	props["description"] = params.Description
	props["system_version"] = params.SystemVersion

	err := r.write(ctx, "world.create", func(tx graph.Tx) error {
		return r.createNode(ctx, tx, constants.LabelWorld, props)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("World created", zap.String("world_id", id), zap.String("name", params.Name))
	return reload(ctx, r.FindByID, constants.LabelWorld, id)
}

// FindByID returns nil when the world does not exist
func (r *WorldRepository) FindByID(ctx context.Context, id string) (*models.World, error) {
	var world *models.World
	err := r.read(ctx, "world.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:World {world_id: $id})\n"+worldProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		w := decodeWorld(record)
		world = &w
		return nil
	})
	return world, err
}

func (r *WorldRepository) FindAll(ctx context.Context, filter models.WorldFilter) (*models.Page[models.World], error) {
	spec, err := resolvePage(filter.ListOptions, worldSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelWorld).search(filter.Search, "name", "description")
	return listPage(ctx, &r.base, "world.list", q, spec, worldProjection, decodeWorld)
}

func (r *WorldRepository) Update(ctx context.Context, id string, params models.UpdateWorldParams) (*models.World, error) {
	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "description", params.Description)
	setField(ps, "system_version", params.SystemVersion)

	err := r.write(ctx, "world.update", func(tx graph.Tx) error {
		return r.updateProps(ctx, tx, constants.LabelWorld, "world_id", id, ps)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelWorld, id)
}

// Delete refuses to remove a world that still has campaigns
func (r *WorldRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "world.delete", constants.LabelWorld, "world_id", id, func(tx graph.Tx) error {
		campaigns, err := count(ctx, tx, `
			MATCH (:Campaign)-[:BELONGS_TO]->(:World {world_id: $id})
			RETURN count(*) AS total
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if campaigns > 0 {
			return apperrors.NewConflict(constants.LabelWorld, id, "world still has campaigns")
		}
		return nil
	})
}
