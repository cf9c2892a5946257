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

// ItemRepository owns Item nodes and the join nodes placing items with
// characters (CharacterItem) and in locations (LocationItem)
type ItemRepository struct {
	base
	campaign edge
}

func NewItemRepository(exec graph.Executor) *ItemRepository {
	return &ItemRepository{
		base:     newBase(exec, constants.LabelItem, "item"),
		campaign: edge{constants.LabelItem, "item_id", constants.RelBelongsTo, constants.LabelCampaign, "campaign_id"},
	}
}

var itemSorts = newSortFields("item_id", "name", map[string]string{
	"name":       "n.name",
	"item_type":  "n.item_type",
	"rarity":     "n.rarity",
	"value":      "n.value",
	"weight":     "n.weight",
	"created_at": "n.created_at",
	"updated_at": "n.updated_at",
})

const itemProjection = `RETURN n {.*} AS item,
	head([(n)-[:BELONGS_TO]->(c:Campaign) | c.campaign_id]) AS campaign_id`

func decodeItem(record *neo4j.Record) models.Item {
	props := graph.PropsFromRecord(record, "item")
	i := models.Item{
		ID:          graph.PropString(props, "item_id"),
		CampaignID:  graph.StringFromRecord(record, "campaign_id"),
		Name:        graph.PropString(props, "name"),
		ItemType:    graph.PropString(props, "item_type"),
		Rarity:      graph.PropString(props, "rarity"),
		Value:       graph.PropFloat64(props, "value"),
		Weight:      graph.PropFloat64(props, "weight"),
		Description: graph.PropString(props, "description"),
		ImageURL:    graph.PropString(props, "image_url"),
	}
	i.CreatedAt, i.CreatedBy, i.UpdatedAt = auditFrom(props)
	return i
}

func (r *ItemRepository) Create(ctx context.Context, params models.CreateItemParams, actorID string) (*models.Item, error) {
	if params.CampaignID == "" {
		return nil, apperrors.NewValidation("campaign_id", "is required")
	}

	id := r.newID()
	props := r.newProps("item_id", id, actorID)
	props["name"] = params.Name
	props["item_type"] = params.ItemType
	props["rarity"] = params.Rarity
	props["value"] = params.Value
	props["weight"] = params.Weight
	props["description"] = params.Description
	props["image_url"] = params.ImageURL

	err := r.write(ctx, "item.create", func(tx graph.Tx) error {
		return r.createChild(ctx, tx, constants.LabelItem, props, constants.RelBelongsTo, constants.LabelCampaign, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Item created", zap.String("item_id", id), zap.String("campaign_id", params.CampaignID))
	return reload(ctx, r.FindByID, constants.LabelItem, id)
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*models.Item, error) {
	var item *models.Item
	err := r.read(ctx, "item.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:Item {item_id: $id})\n"+itemProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		i := decodeItem(record)
		item = &i
		return nil
	})
	return item, err
}

func (r *ItemRepository) FindAll(ctx context.Context, filter models.ItemFilter) (*models.Page[models.Item], error) {
	spec, err := resolvePage(filter.ListOptions, itemSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelItem).
		related(constants.RelBelongsTo, constants.LabelCampaign, "campaign_id", filter.CampaignID).
		eq("item_type", filter.ItemType).
		eq("rarity", filter.Rarity).
		search(filter.Search, "name", "description")
	return listPage(ctx, &r.base, "item.list", q, spec, itemProjection, decodeItem)
}

func (r *ItemRepository) Update(ctx context.Context, id string, params models.UpdateItemParams) (*models.Item, error) {
	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "item_type", params.ItemType)
	setField(ps, "rarity", params.Rarity)
	setField(ps, "value", params.Value)
	setField(ps, "weight", params.Weight)
	setField(ps, "description", params.Description)
	setField(ps, "image_url", params.ImageURL)

	err := r.write(ctx, "item.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelItem, "item_id", id, ps); err != nil {
			return err
		}
		return r.campaign.replace(ctx, tx, id, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelItem, id)
}

// Delete removes the item together with every join node referencing it
func (r *ItemRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "item.delete", constants.LabelItem, "item_id", id, func(tx graph.Tx) error {
		_, err := tx.Run(ctx, `
			MATCH (j)-[:REFERENCES]->(:Item {item_id: $id})
			WHERE j:CharacterItem OR j:LocationItem OR j:EventItem
			DETACH DELETE j
		`, map[string]any{"id": id})
		return err
	})
}

// Character inventory

const characterItemProjection = `RETURN j {.*} AS held,
	c.character_id AS character_id,
	i.item_id AS item_id,
	i.name AS item_name`

func decodeCharacterItem(record *neo4j.Record) models.CharacterItem {
	props := graph.PropsFromRecord(record, "held")
	ci := models.CharacterItem{
		ID:          graph.PropString(props, "character_item_id"),
		CharacterID: graph.StringFromRecord(record, "character_id"),
		ItemID:      graph.StringFromRecord(record, "item_id"),
		ItemName:    graph.StringFromRecord(record, "item_name"),
		Quantity:    graph.PropInt64(props, "quantity"),
		Equipped:    graph.PropBool(props, "equipped"),
		Notes:       graph.PropString(props, "notes"),
	}
	ci.CreatedAt, ci.CreatedBy, ci.UpdatedAt = auditFrom(props)
	return ci
}

// AddToCharacter gives a character an item. Quantity defaults to 1.
func (r *ItemRepository) AddToCharacter(ctx context.Context, params models.AddCharacterItemParams, actorID string) (*models.CharacterItem, error) {
	if params.Quantity < 0 {
		return nil, apperrors.NewValidation("quantity", "must not be negative")
	}
	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}

	id := r.newID()
	props := r.newProps("character_item_id", id, actorID)
	props["quantity"] = quantity
	props["equipped"] = params.Equipped
	props["notes"] = params.Notes

	err := r.write(ctx, "item.character.add", func(tx graph.Tx) error {
		return r.createJoin(ctx, tx,
			constants.LabelCharacter, params.CharacterID, constants.RelHasItem,
			constants.LabelCharacterItem, props,
			constants.LabelItem, params.ItemID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Item added to character",
		zap.String("character_item_id", id),
		zap.String("character_id", params.CharacterID),
		zap.String("item_id", params.ItemID),
	)
	return reload(ctx, r.findCharacterItem, constants.LabelCharacterItem, id)
}

func (r *ItemRepository) findCharacterItem(ctx context.Context, id string) (*models.CharacterItem, error) {
	var held *models.CharacterItem
	err := r.read(ctx, "item.character.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (c:Character)-[:HAS_ITEM]->(j:CharacterItem {character_item_id: $id})-[:REFERENCES]->(i:Item)
			`+characterItemProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		ci := decodeCharacterItem(record)
		held = &ci
		return nil
	})
	return held, err
}

func (r *ItemRepository) UpdateCharacterItem(ctx context.Context, characterItemID string, params models.UpdateCharacterItemParams) (*models.CharacterItem, error) {
	if params.Quantity.Valid && params.Quantity.Value < 0 {
		return nil, apperrors.NewValidation("quantity", "must not be negative")
	}

	ps := propertySet{}
	setField(ps, "quantity", params.Quantity)
	setField(ps, "equipped", params.Equipped)
	setField(ps, "notes", params.Notes)

	err := r.write(ctx, "item.character.update", func(tx graph.Tx) error {
		return r.updateProps(ctx, tx, constants.LabelCharacterItem, "character_item_id", characterItemID, ps)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.findCharacterItem, constants.LabelCharacterItem, characterItemID)
}

func (r *ItemRepository) RemoveFromCharacter(ctx context.Context, characterItemID string) (bool, error) {
	return r.deleteByID(ctx, "item.character.remove", constants.LabelCharacterItem, characterItemID)
}

// ListCharacterItems returns a character's inventory ordered by item name
func (r *ItemRepository) ListCharacterItems(ctx context.Context, characterID string) ([]models.CharacterItem, error) {
	items := []models.CharacterItem{}
	err := r.read(ctx, "item.character.list", func(tx graph.Tx) error {
		items = items[:0]
		records, err := tx.Run(ctx, `
			MATCH (c:Character {character_id: $id})-[:HAS_ITEM]->(j:CharacterItem)-[:REFERENCES]->(i:Item)
			`+characterItemProjection+`
			ORDER BY i.name ASC, j.character_item_id ASC
		`, map[string]any{"id": characterID})
		if err != nil {
			return err
		}
		for _, record := range records {
			items = append(items, decodeCharacterItem(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Location placements

const locationItemProjection = `RETURN j {.*} AS placed,
	l.location_id AS location_id,
	i.item_id AS item_id,
	i.name AS item_name`

func decodeLocationItem(record *neo4j.Record) models.LocationItem {
	props := graph.PropsFromRecord(record, "placed")
	li := models.LocationItem{
		ID:         graph.PropString(props, "location_item_id"),
		LocationID: graph.StringFromRecord(record, "location_id"),
		ItemID:     graph.StringFromRecord(record, "item_id"),
		ItemName:   graph.StringFromRecord(record, "item_name"),
		Quantity:   graph.PropInt64(props, "quantity"),
		Notes:      graph.PropString(props, "notes"),
	}
	li.CreatedAt, li.CreatedBy, li.UpdatedAt = auditFrom(props)
	return li
}

// AddToLocation places an item in a location. Quantity defaults to 1.
func (r *ItemRepository) AddToLocation(ctx context.Context, params models.AddLocationItemParams, actorID string) (*models.LocationItem, error) {
	if params.Quantity < 0 {
		return nil, apperrors.NewValidation("quantity", "must not be negative")
	}
	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}

	id := r.newID()
	props := r.newProps("location_item_id", id, actorID)
	props["quantity"] = quantity
	props["notes"] = params.Notes

	err := r.write(ctx, "item.location.add", func(tx graph.Tx) error {
		return r.createJoin(ctx, tx,
			constants.LabelLocation, params.LocationID, constants.RelContainsItem,
			constants.LabelLocationItem, props,
			constants.LabelItem, params.ItemID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Item placed in location",
		zap.String("location_item_id", id),
		zap.String("location_id", params.LocationID),
		zap.String("item_id", params.ItemID),
	)
	return reload(ctx, r.findLocationItem, constants.LabelLocationItem, id)
}

func (r *ItemRepository) findLocationItem(ctx context.Context, id string) (*models.LocationItem, error) {
	var placed *models.LocationItem
	err := r.read(ctx, "item.location.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (l:Location)-[:CONTAINS_ITEM]->(j:LocationItem {location_item_id: $id})-[:REFERENCES]->(i:Item)
			`+locationItemProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		li := decodeLocationItem(record)
		placed = &li
		return nil
	})
	return placed, err
}

func (r *ItemRepository) UpdateLocationItem(ctx context.Context, locationItemID string, params models.UpdateLocationItemParams) (*models.LocationItem, error) {
	if params.Quantity.Valid && params.Quantity.Value < 0 {
		return nil, apperrors.NewValidation("quantity", "must not be negative")
	}

	ps := propertySet{}
	setField(ps, "quantity", params.Quantity)
	setField(ps, "notes", params.Notes)

	err := r.write(ctx, "item.location.update", func(tx graph.Tx) error {
		return r.updateProps(ctx, tx, constants.LabelLocationItem, "location_item_id", locationItemID, ps)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.findLocationItem, constants.LabelLocationItem, locationItemID)
}

func (r *ItemRepository) RemoveFromLocation(ctx context.Context, locationItemID string) (bool, error) {
	return r.deleteByID(ctx, "item.location.remove", constants.LabelLocationItem, locationItemID)
}

// ListLocationItems returns the items placed in a location ordered by item name
func (r *ItemRepository) ListLocationItems(ctx context.Context, locationID string) ([]models.LocationItem, error) {
	items := []models.LocationItem{}
	err := r.read(ctx, "item.location.list", func(tx graph.Tx) error {
		items = items[:0]
		records, err := tx.Run(ctx, `
			MATCH (l:Location {location_id: $id})-[:CONTAINS_ITEM]->(j:LocationItem)-[:REFERENCES]->(i:Item)
			`+locationItemProjection+`
			ORDER BY i.name ASC, j.location_item_id ASC
		`, map[string]any{"id": locationID})
		if err != nil {
			return err
		}
		for _, record := range records {
			items = append(items, decodeLocationItem(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
