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

// EventRepository owns Event nodes, their optional session and location
// edges, and the EventCharacter/EventItem participant joins
type EventRepository struct {
	base
	campaign edge
	session  edge
	location edge
}

func NewEventRepository(exec graph.Executor) *EventRepository {
	return &EventRepository{
		base:     newBase(exec, constants.LabelEvent, "event"),
		campaign: edge{constants.LabelEvent, "event_id", constants.RelBelongsTo, constants.LabelCampaign, "campaign_id"},
		session:  edge{constants.LabelEvent, "event_id", constants.RelOccurredIn, constants.LabelSession, "session_id"},
		location: edge{constants.LabelEvent, "event_id", constants.RelTookPlaceAt, constants.LabelLocation, "location_id"},
	}
}

var eventSorts = newSortFields("event_id", "timeline_position", map[string]string{
	"name":              "n.name",
	"event_type":        "n.event_type",
	"timeline_position": "n.timeline_position",
	"created_at":        "n.created_at",
	"updated_at":        "n.updated_at",
})

const eventProjection = `RETURN n {.*} AS event,
	head([(n)-[:BELONGS_TO]->(c:Campaign) | c.campaign_id]) AS campaign_id,
	head([(n)-[:OCCURRED_IN]->(s:Session) | s.session_id]) AS session_id,
	head([(n)-[:TOOK_PLACE_AT]->(l:Location) | l.location_id]) AS location_id`

func decodeEvent(record *neo4j.Record) models.Event {
	props := graph.PropsFromRecord(record, "event")
	e := models.Event{
		ID:               graph.PropString(props, "event_id"),
		CampaignID:       graph.StringFromRecord(record, "campaign_id"),
		SessionID:        graph.StringPtrFromRecord(record, "session_id"),
		LocationID:       graph.StringPtrFromRecord(record, "location_id"),
		Name:             graph.PropString(props, "name"),
		Description:      graph.PropString(props, "description"),
		EventType:        graph.PropString(props, "event_type"),
		TimelinePosition: graph.PropInt64(props, "timeline_position"),
	}
	e.CreatedAt, e.CreatedBy, e.UpdatedAt = auditFrom(props)
	return e
}

// Create creates an event in a campaign, optionally tied to a session and a location
func (r *EventRepository) Create(ctx context.Context, params models.CreateEventParams, actorID string) (*models.Event, error) {
	if params.CampaignID == "" {
		return nil, apperrors.NewValidation("campaign_id", "is required")
	}

	id := r.newID()
	props := r.newProps("event_id", id, actorID)
	props["name"] = params.Name
	props["description"] = params.Description
	props["event_type"] = params.EventType
	props["timeline_position"] = params.TimelinePosition

	err := r.write(ctx, "event.create", func(tx graph.Tx) error {
		if err := r.createChild(ctx, tx, constants.LabelEvent, props, constants.RelBelongsTo, constants.LabelCampaign, params.CampaignID); err != nil {
			return err
		}
		if err := r.session.linkOptional(ctx, tx, id, params.SessionID); err != nil {
			return err
		}
		return r.location.linkOptional(ctx, tx, id, params.LocationID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Event created", zap.String("event_id", id), zap.String("campaign_id", params.CampaignID))
	return reload(ctx, r.FindByID, constants.LabelEvent, id)
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event *models.Event
	err := r.read(ctx, "event.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:Event {event_id: $id})\n"+eventProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		e := decodeEvent(record)
		event = &e
		return nil
	})
	return event, err
}

func (r *EventRepository) FindAll(ctx context.Context, filter models.EventFilter) (*models.Page[models.Event], error) {
	spec, err := resolvePage(filter.ListOptions, eventSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelEvent).
		related(constants.RelBelongsTo, constants.LabelCampaign, "campaign_id", filter.CampaignID).
		related(constants.RelOccurredIn, constants.LabelSession, "session_id", filter.SessionID).
		related(constants.RelTookPlaceAt, constants.LabelLocation, "location_id", filter.LocationID).
		eq("event_type", filter.EventType).
		search(filter.Search, "name", "description")
	return listPage(ctx, &r.base, "event.list", q, spec, eventProjection, decodeEvent)
}

func (r *EventRepository) Update(ctx context.Context, id string, params models.UpdateEventParams) (*models.Event, error) {
	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "description", params.Description)
	setField(ps, "event_type", params.EventType)
	setField(ps, "timeline_position", params.TimelinePosition)

	err := r.write(ctx, "event.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelEvent, "event_id", id, ps); err != nil {
			return err
		}
		if err := r.campaign.replace(ctx, tx, id, params.CampaignID); err != nil {
			return err
		}
		if err := r.session.replace(ctx, tx, id, params.SessionID); err != nil {
			return err
		}
		return r.location.replace(ctx, tx, id, params.LocationID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelEvent, id)
}

// Delete removes the event and its participant joins
func (r *EventRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "event.delete", constants.LabelEvent, "event_id", id, func(tx graph.Tx) error {
		_, err := tx.Run(ctx, `
			MATCH (:Event {event_id: $id})-[:INVOLVES]->(j)
			DETACH DELETE j
		`, map[string]any{"id": id})
		return err
	})
}

// Participants

const eventCharacterProjection = `RETURN j {.*} AS participant,
	e.event_id AS event_id,
	c.character_id AS character_id,
	c.name AS character_name`

func decodeEventCharacter(record *neo4j.Record) models.EventCharacter {
	props := graph.PropsFromRecord(record, "participant")
	ec := models.EventCharacter{
		ID:            graph.PropString(props, "event_character_id"),
		EventID:       graph.StringFromRecord(record, "event_id"),
		CharacterID:   graph.StringFromRecord(record, "character_id"),
		CharacterName: graph.StringFromRecord(record, "character_name"),
		Role:          graph.PropString(props, "role"),
		Notes:         graph.PropString(props, "notes"),
	}
	ec.CreatedAt, ec.CreatedBy, ec.UpdatedAt = auditFrom(props)
	return ec
}

// AddCharacter records a character taking part in an event
func (r *EventRepository) AddCharacter(ctx context.Context, eventID, characterID string, params models.EventParticipantParams, actorID string) (*models.EventCharacter, error) {
	id := r.newID()
	props := r.newProps("event_character_id", id, actorID)
	props["role"] = params.Role
	props["notes"] = params.Notes

	err := r.write(ctx, "event.character.add", func(tx graph.Tx) error {
		return r.createJoin(ctx, tx,
			constants.LabelEvent, eventID, constants.RelInvolves,
			constants.LabelEventCharacter, props,
			constants.LabelCharacter, characterID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Character added to event",
		zap.String("event_id", eventID),
		zap.String("character_id", characterID),
	)
	return reload(ctx, r.findEventCharacter, constants.LabelEventCharacter, id)
}

func (r *EventRepository) findEventCharacter(ctx context.Context, id string) (*models.EventCharacter, error) {
	var participant *models.EventCharacter
	err := r.read(ctx, "event.character.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (e:Event)-[:INVOLVES]->(j:EventCharacter {event_character_id: $id})-[:REFERENCES]->(c:Character)
			`+eventCharacterProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		ec := decodeEventCharacter(record)
		participant = &ec
		return nil
	})
	return participant, err
}

func (r *EventRepository) RemoveCharacter(ctx context.Context, eventCharacterID string) (bool, error) {
	return r.deleteByID(ctx, "event.character.remove", constants.LabelEventCharacter, eventCharacterID)
}

// ListCharacters returns the characters taking part in an event ordered by name
func (r *EventRepository) ListCharacters(ctx context.Context, eventID string) ([]models.EventCharacter, error) {
	participants := []models.EventCharacter{}
	err := r.read(ctx, "event.character.list", func(tx graph.Tx) error {
		participants = participants[:0]
		records, err := tx.Run(ctx, `
			MATCH (e:Event {event_id: $id})-[:INVOLVES]->(j:EventCharacter)-[:REFERENCES]->(c:Character)
			`+eventCharacterProjection+`
			ORDER BY c.name ASC, j.event_character_id ASC
		`, map[string]any{"id": eventID})
		if err != nil {
			return err
		}
		for _, record := range records {
			participants = append(participants, decodeEventCharacter(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

const eventItemProjection = `RETURN j {.*} AS featured,
	e.event_id AS event_id,
	i.item_id AS item_id,
	i.name AS item_name`

func decodeEventItem(record *neo4j.Record) models.EventItem {
	props := graph.PropsFromRecord(record, "featured")
	ei := models.EventItem{
		ID:       graph.PropString(props, "event_item_id"),
		EventID:  graph.StringFromRecord(record, "event_id"),
		ItemID:   graph.StringFromRecord(record, "item_id"),
		ItemName: graph.StringFromRecord(record, "item_name"),
		Role:     graph.PropString(props, "role"),
		Notes:    graph.PropString(props, "notes"),
	}
	ei.CreatedAt, ei.CreatedBy, ei.UpdatedAt = auditFrom(props)
	return ei
}

// AddItem records an item featured in an event
func (r *EventRepository) AddItem(ctx context.Context, eventID, itemID string, params models.EventParticipantParams, actorID string) (*models.EventItem, error) {
	id := r.newID()
	props := r.newProps("event_item_id", id, actorID)
	props["role"] = params.Role
	props["notes"] = params.Notes

	err := r.write(ctx, "event.item.add", func(tx graph.Tx) error {
		return r.createJoin(ctx, tx,
			constants.LabelEvent, eventID, constants.RelInvolves,
			constants.LabelEventItem, props,
			constants.LabelItem, itemID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Item added to event", zap.String("event_id", eventID), zap.String("item_id", itemID))
	return reload(ctx, r.findEventItem, constants.LabelEventItem, id)
}

func (r *EventRepository) findEventItem(ctx context.Context, id string) (*models.EventItem, error) {
	var featured *models.EventItem
	err := r.read(ctx, "event.item.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (e:Event)-[:INVOLVES]->(j:EventItem {event_item_id: $id})-[:REFERENCES]->(i:Item)
			`+eventItemProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		ei := decodeEventItem(record)
		featured = &ei
		return nil
	})
	return featured, err
}

func (r *EventRepository) RemoveItem(ctx context.Context, eventItemID string) (bool, error) {
	return r.deleteByID(ctx, "event.item.remove", constants.LabelEventItem, eventItemID)
}

// ListItems returns the items featured in an event ordered by name
func (r *EventRepository) ListItems(ctx context.Context, eventID string) ([]models.EventItem, error) {
	featured := []models.EventItem{}
	err := r.read(ctx, "event.item.list", func(tx graph.Tx) error {
		featured = featured[:0]
		records, err := tx.Run(ctx, `
			MATCH (e:Event {event_id: $id})-[:INVOLVES]->(j:EventItem)-[:REFERENCES]->(i:Item)
			`+eventItemProjection+`
			ORDER BY i.name ASC, j.event_item_id ASC
		`, map[string]any{"id": eventID})
		if err != nil {
			return err
		}
		for _, record := range records {
			featured = append(featured, decodeEventItem(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return featured, nil
}
