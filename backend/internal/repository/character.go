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

// CharacterRepository owns Character nodes and the RELATES_TO edges between them
type CharacterRepository struct {
	base
	campaign edge
}

func NewCharacterRepository(exec graph.Executor) *CharacterRepository {
	return &CharacterRepository{
		base:     newBase(exec, constants.LabelCharacter, "character"),
		campaign: edge{constants.LabelCharacter, "character_id", constants.RelBelongsTo, constants.LabelCampaign, "campaign_id"},
	}
}

var characterSorts = newSortFields("character_id", "name", map[string]string{
	"name":           "n.name",
	"character_type": "n.character_type",
	"level":          "n.level",
	"race":           "n.race",
	"created_at":     "n.created_at",
	"updated_at":     "n.updated_at",
})

const characterProjection = `RETURN n {.*} AS character,
	head([(n)-[:BELONGS_TO]->(c:Campaign) | c.campaign_id]) AS campaign_id`

func decodeCharacter(record *neo4j.Record) models.Character {
	props := graph.PropsFromRecord(record, "character")
	c := models.Character{
		ID:                graph.PropString(props, "character_id"),
		CampaignID:        graph.StringFromRecord(record, "campaign_id"),
		Name:              graph.PropString(props, "name"),
		CharacterType:     graph.PropString(props, "character_type"),
		IsPlayerCharacter: graph.PropBool(props, "is_player_character"),
		Description:       graph.PropString(props, "description"),
		Race:              graph.PropString(props, "race"),
		CharacterClass:    graph.PropString(props, "character_class"),
		Level:             graph.PropInt64(props, "level"),
		ImageURL:          graph.PropString(props, "image_url"),
	}
	c.CreatedAt, c.CreatedBy, c.UpdatedAt = auditFrom(props)
	return c
}

func (r *CharacterRepository) Create(ctx context.Context, params models.CreateCharacterParams, actorID string) (*models.Character, error) {
	if params.CampaignID == "" {
		return nil, apperrors.NewValidation("campaign_id", "is required")
	}

	id := r.newID()
	props := r.newProps("character_id", id, actorID)
	props["name"] = params.Name
	props["character_type"] = params.CharacterType
	props["is_player_character"] = params.IsPlayerCharacter
	props["description"] = params.Description
	props["race"] = params.Race
	props["character_class"] = params.CharacterClass
	props["level"] = params.Level
	props["image_url"] = params.ImageURL

	err := r.write(ctx, "character.create", func(tx graph.Tx) error {
		return r.createChild(ctx, tx, constants.LabelCharacter, props, constants.RelBelongsTo, constants.LabelCampaign, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Character created",
		zap.String("character_id", id),
		zap.String("campaign_id", params.CampaignID),
		zap.String("name", params.Name),
	)
	return reload(ctx, r.FindByID, constants.LabelCharacter, id)
}

func (r *CharacterRepository) FindByID(ctx context.Context, id string) (*models.Character, error) {
	var character *models.Character
	err := r.read(ctx, "character.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:Character {character_id: $id})\n"+characterProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		c := decodeCharacter(record)
		character = &c
		return nil
	})
	return character, err
}

func (r *CharacterRepository) FindAll(ctx context.Context, filter models.CharacterFilter) (*models.Page[models.Character], error) {
	spec, err := resolvePage(filter.ListOptions, characterSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelCharacter).
		related(constants.RelBelongsTo, constants.LabelCampaign, "campaign_id", filter.CampaignID).
		eq("character_type", filter.CharacterType).
		flag("is_player_character", filter.IsPlayerCharacter).
		search(filter.Search, "name", "description")
	return listPage(ctx, &r.base, "character.list", q, spec, characterProjection, decodeCharacter)
}

func (r *CharacterRepository) Update(ctx context.Context, id string, params models.UpdateCharacterParams) (*models.Character, error) {
	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "character_type", params.CharacterType)
	setField(ps, "is_player_character", params.IsPlayerCharacter)
	setField(ps, "description", params.Description)
	setField(ps, "race", params.Race)
	setField(ps, "character_class", params.CharacterClass)
	setField(ps, "level", params.Level)
	setField(ps, "image_url", params.ImageURL)

	err := r.write(ctx, "character.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelCharacter, "character_id", id, ps); err != nil {
			return err
		}
		return r.campaign.replace(ctx, tx, id, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelCharacter, id)
}

// Delete removes the character with its relationships and the join nodes it
// owns: held items, powers and event participations.
func (r *CharacterRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "character.delete", constants.LabelCharacter, "character_id", id, func(tx graph.Tx) error {
		_, err := tx.Run(ctx, `
			MATCH (c:Character {character_id: $id})
			OPTIONAL MATCH (c)-[:HAS_ITEM|HAS_POWER]->(owned)
			OPTIONAL MATCH (ec:EventCharacter)-[:REFERENCES]->(c)
			WITH collect(DISTINCT owned) + collect(DISTINCT ec) AS joins
			UNWIND joins AS j
			DETACH DELETE j
		`, map[string]any{"id": id})
		return err
	})
}

// Relationships

const relationshipProjection = `RETURN r {.*} AS relationship,
	a.character_id AS source_id,
	b.character_id AS target_id,
	b.name AS target_name`

func decodeRelationship(record *neo4j.Record) models.CharacterRelationship {
	props := graph.PropsFromRecord(record, "relationship")
	rel := models.CharacterRelationship{
		ID:                graph.PropString(props, "relationship_id"),
		SourceCharacterID: graph.StringFromRecord(record, "source_id"),
		TargetCharacterID: graph.StringFromRecord(record, "target_id"),
		TargetName:        graph.StringFromRecord(record, "target_name"),
		RelationshipType:  graph.PropString(props, "relationship_type"),
		Description:       graph.PropString(props, "description"),
	}
	rel.CreatedAt, rel.CreatedBy, rel.UpdatedAt = auditFrom(props)
	return rel
}

// CreateRelationship adds a directed RELATES_TO edge. Both characters must exist.
func (r *CharacterRepository) CreateRelationship(ctx context.Context, params models.CreateCharacterRelationshipParams, actorID string) (*models.CharacterRelationship, error) {
	if params.RelationshipType == "" {
		return nil, apperrors.NewValidation("relationship_type", "is required")
	}

	id := r.newID()
	props := r.newProps("relationship_id", id, actorID)
	props["relationship_type"] = params.RelationshipType
	props["description"] = params.Description

	err := r.write(ctx, "character.relationship.create", func(tx graph.Tx) error {
		for _, characterID := range []string{params.SourceCharacterID, params.TargetCharacterID} {
			found, err := single(ctx, tx, "MATCH (c:Character {character_id: $id}) RETURN c.character_id AS id", map[string]any{"id": characterID})
			if err != nil {
				return err
			}
			if found == nil {
				return apperrors.NewNotFound(constants.LabelCharacter, characterID)
			}
		}
		_, err := tx.Run(ctx, `
			MATCH (a:Character {character_id: $source_id})
			MATCH (b:Character {character_id: $target_id})
			CREATE (a)-[r:RELATES_TO]->(b)
			SET r = $props
		`, map[string]any{
			"source_id": params.SourceCharacterID,
			"target_id": params.TargetCharacterID,
			"props":     props.compact(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Character relationship created",
		zap.String("relationship_id", id),
		zap.String("source_character_id", params.SourceCharacterID),
		zap.String("target_character_id", params.TargetCharacterID),
	)
	return reload(ctx, r.GetRelationship, "CharacterRelationship", id)
}

// GetRelationship returns nil when no RELATES_TO edge has the id
func (r *CharacterRepository) GetRelationship(ctx context.Context, relationshipID string) (*models.CharacterRelationship, error) {
	var rel *models.CharacterRelationship
	err := r.read(ctx, "character.relationship.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (a:Character)-[r:RELATES_TO {relationship_id: $id}]->(b:Character)
			`+relationshipProjection, map[string]any{"id": relationshipID})
		if err != nil || record == nil {
			return err
		}
		decoded := decodeRelationship(record)
		rel = &decoded
		return nil
	})
	return rel, err
}

// ListRelationships returns the outgoing relationships of a character
func (r *CharacterRepository) ListRelationships(ctx context.Context, characterID string) ([]models.CharacterRelationship, error) {
	rels := []models.CharacterRelationship{}
	err := r.read(ctx, "character.relationship.list", func(tx graph.Tx) error {
		rels = rels[:0]
		records, err := tx.Run(ctx, `
			MATCH (a:Character {character_id: $id})-[r:RELATES_TO]->(b:Character)
			`+relationshipProjection+`
			ORDER BY r.relationship_type ASC, b.name ASC, r.relationship_id ASC
		`, map[string]any{"id": characterID})
		if err != nil {
			return err
		}
		for _, record := range records {
			rels = append(rels, decodeRelationship(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rels, nil
}

// UpdateRelationship changes type and description only; endpoints are fixed
func (r *CharacterRepository) UpdateRelationship(ctx context.Context, relationshipID string, params models.UpdateCharacterRelationshipParams) (*models.CharacterRelationship, error) {
	if params.RelationshipType.Set && (!params.RelationshipType.Valid || params.RelationshipType.Value == "") {
		return nil, apperrors.NewValidation("relationship_type", "cannot be cleared")
	}

	ps := propertySet{}
	setField(ps, "relationship_type", params.RelationshipType)
	setField(ps, "description", params.Description)

	err := r.write(ctx, "character.relationship.update", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (:Character)-[r:RELATES_TO {relationship_id: $id}]-(:Character)
			SET r += $props, r.updated_at = $now
			RETURN r.relationship_id AS id
		`, map[string]any{"id": relationshipID, "props": map[string]any(ps), "now": r.now()})
		if err != nil {
			return err
		}
		if record == nil {
			return apperrors.NewNotFound("CharacterRelationship", relationshipID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.GetRelationship, "CharacterRelationship", relationshipID)
}

// DeleteRelationship reports false when no edge has the id
func (r *CharacterRepository) DeleteRelationship(ctx context.Context, relationshipID string) (bool, error) {
	var deleted int64
	err := r.write(ctx, "character.relationship.delete", func(tx graph.Tx) error {
		var err error
		deleted, err = count(ctx, tx, `
			MATCH (:Character)-[r:RELATES_TO {relationship_id: $id}]-(:Character)
			WITH DISTINCT r
			DELETE r
			RETURN count(r) AS total
		`, map[string]any{"id": relationshipID})
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}
