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

// PowerRepository owns Power nodes and CharacterPower assignments
type PowerRepository struct {
	base
	campaign edge
}

func NewPowerRepository(exec graph.Executor) *PowerRepository {
	return &PowerRepository{
		base:     newBase(exec, constants.LabelPower, "power"),
		campaign: edge{constants.LabelPower, "power_id", constants.RelBelongsTo, constants.LabelCampaign, "campaign_id"},
	}
}

var powerSorts = newSortFields("power_id", "name", map[string]string{
	"name":       "n.name",
	"power_type": "n.power_type",
	"created_at": "n.created_at",
	"updated_at": "n.updated_at",
})

const powerProjection = `RETURN n {.*} AS power,
	head([(n)-[:BELONGS_TO]->(c:Campaign) | c.campaign_id]) AS campaign_id`

func decodePower(record *neo4j.Record) models.Power {
	props := graph.PropsFromRecord(record, "power")
	p := models.Power{
		ID:           graph.PropString(props, "power_id"),
		CampaignID:   graph.StringFromRecord(record, "campaign_id"),
		Name:         graph.PropString(props, "name"),
		PowerType:    graph.PropString(props, "power_type"),
		Effect:       graph.PropString(props, "effect"),
		Requirements: graph.PropString(props, "requirements"),
		Description:  graph.PropString(props, "description"),
	}
	p.CreatedAt, p.CreatedBy, p.UpdatedAt = auditFrom(props)
	return p
}

func (r *PowerRepository) Create(ctx context.Context, params models.CreatePowerParams, actorID string) (*models.Power, error) {
	if params.CampaignID == "" {
		return nil, apperrors.NewValidation("campaign_id", "is required")
	}

	id := r.newID()
	props := r.newProps("power_id", id, actorID)
	props["name"] = params.Name
	props["power_type"] = params.PowerType
	props["effect"] = params.Effect
	props["requirements"] = params.Requirements
	props["description"] = params.Description

	err := r.write(ctx, "power.create", func(tx graph.Tx) error {
		return r.createChild(ctx, tx, constants.LabelPower, props, constants.RelBelongsTo, constants.LabelCampaign, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Power created", zap.String("power_id", id), zap.String("campaign_id", params.CampaignID))
	return reload(ctx, r.FindByID, constants.LabelPower, id)
}

func (r *PowerRepository) FindByID(ctx context.Context, id string) (*models.Power, error) {
	var power *models.Power
	err := r.read(ctx, "power.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:Power {power_id: $id})\n"+powerProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		p := decodePower(record)
		power = &p
		return nil
	})
	return power, err
}

func (r *PowerRepository) FindAll(ctx context.Context, filter models.PowerFilter) (*models.Page[models.Power], error) {
	spec, err := resolvePage(filter.ListOptions, powerSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelPower).
		related(constants.RelBelongsTo, constants.LabelCampaign, "campaign_id", filter.CampaignID).
		eq("power_type", filter.PowerType).
		search(filter.Search, "name", "description", "effect")
	return listPage(ctx, &r.base, "power.list", q, spec, powerProjection, decodePower)
}

func (r *PowerRepository) Update(ctx context.Context, id string, params models.UpdatePowerParams) (*models.Power, error) {
	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "power_type", params.PowerType)
	setField(ps, "effect", params.Effect)
	setField(ps, "requirements", params.Requirements)
	setField(ps, "description", params.Description)

	err := r.write(ctx, "power.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelPower, "power_id", id, ps); err != nil {
			return err
		}
		return r.campaign.replace(ctx, tx, id, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelPower, id)
}

// Delete refuses to remove a power any character still holds
func (r *PowerRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "power.delete", constants.LabelPower, "power_id", id, func(tx graph.Tx) error {
		holders, err := count(ctx, tx, `
			MATCH (j:CharacterPower)-[:REFERENCES]->(:Power {power_id: $id})
			RETURN count(j) AS total
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if holders > 0 {
			return apperrors.NewConflict(constants.LabelPower, id, "power is still assigned to characters")
		}
		return nil
	})
}

// Character assignments

const characterPowerProjection = `RETURN j {.*} AS held,
	c.character_id AS character_id,
	p.power_id AS power_id,
	p.name AS power_name`

func decodeCharacterPower(record *neo4j.Record) models.CharacterPower {
	props := graph.PropsFromRecord(record, "held")
	cp := models.CharacterPower{
		ID:               graph.PropString(props, "character_power_id"),
		CharacterID:      graph.StringFromRecord(record, "character_id"),
		PowerID:          graph.StringFromRecord(record, "power_id"),
		PowerName:        graph.StringFromRecord(record, "power_name"),
		ProficiencyLevel: graph.PropInt64(props, "proficiency_level"),
		Notes:            graph.PropString(props, "notes"),
	}
	cp.CreatedAt, cp.CreatedBy, cp.UpdatedAt = auditFrom(props)
	return cp
}

// AssignToCharacter grants a power to a character
func (r *PowerRepository) AssignToCharacter(ctx context.Context, params models.AssignPowerParams, actorID string) (*models.CharacterPower, error) {
	if params.ProficiencyLevel < 0 {
		return nil, apperrors.NewValidation("proficiency_level", "must not be negative")
	}

	id := r.newID()
	props := r.newProps("character_power_id", id, actorID)
	props["proficiency_level"] = params.ProficiencyLevel
	props["notes"] = params.Notes

	err := r.write(ctx, "power.character.assign", func(tx graph.Tx) error {
		return r.createJoin(ctx, tx,
			constants.LabelCharacter, params.CharacterID, constants.RelHasPower,
			constants.LabelCharacterPower, props,
			constants.LabelPower, params.PowerID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Power assigned",
		zap.String("character_power_id", id),
		zap.String("character_id", params.CharacterID),
		zap.String("power_id", params.PowerID),
	)
	return reload(ctx, r.findCharacterPower, constants.LabelCharacterPower, id)
}

func (r *PowerRepository) findCharacterPower(ctx context.Context, id string) (*models.CharacterPower, error) {
	var held *models.CharacterPower
	err := r.read(ctx, "power.character.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (c:Character)-[:HAS_POWER]->(j:CharacterPower {character_power_id: $id})-[:REFERENCES]->(p:Power)
			`+characterPowerProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		cp := decodeCharacterPower(record)
		held = &cp
		return nil
	})
	return held, err
}

func (r *PowerRepository) UpdateCharacterPower(ctx context.Context, characterPowerID string, params models.UpdateCharacterPowerParams) (*models.CharacterPower, error) {
	if params.ProficiencyLevel.Valid && params.ProficiencyLevel.Value < 0 {
		return nil, apperrors.NewValidation("proficiency_level", "must not be negative")
	}

	ps := propertySet{}
	setField(ps, "proficiency_level", params.ProficiencyLevel)
	setField(ps, "notes", params.Notes)

	err := r.write(ctx, "power.character.update", func(tx graph.Tx) error {
		return r.updateProps(ctx, tx, constants.LabelCharacterPower, "character_power_id", characterPowerID, ps)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.findCharacterPower, constants.LabelCharacterPower, characterPowerID)
}

func (r *PowerRepository) RemoveFromCharacter(ctx context.Context, characterPowerID string) (bool, error) {
	return r.deleteByID(ctx, "power.character.remove", constants.LabelCharacterPower, characterPowerID)
}

// ListCharacterPowers returns a character's powers ordered by power name
func (r *PowerRepository) ListCharacterPowers(ctx context.Context, characterID string) ([]models.CharacterPower, error) {
	powers := []models.CharacterPower{}
	err := r.read(ctx, "power.character.list", func(tx graph.Tx) error {
		powers = powers[:0]
		records, err := tx.Run(ctx, `
			MATCH (c:Character {character_id: $id})-[:HAS_POWER]->(j:CharacterPower)-[:REFERENCES]->(p:Power)
			`+characterPowerProjection+`
			ORDER BY p.name ASC, j.character_power_id ASC
		`, map[string]any{"id": characterID})
		if err != nil {
			return err
		}
		for _, record := range records {
			powers = append(powers, decodeCharacterPower(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return powers, nil
}
