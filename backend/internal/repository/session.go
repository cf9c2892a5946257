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

// SessionRepository owns Session nodes and their BELONGS_TO edge to a Campaign
type SessionRepository struct {
	base
	campaign edge
}

func NewSessionRepository(exec graph.Executor) *SessionRepository {
	return &SessionRepository{
		base:     newBase(exec, constants.LabelSession, "session"),
		campaign: edge{constants.LabelSession, "session_id", constants.RelBelongsTo, constants.LabelCampaign, "campaign_id"},
	}
}

var sessionSorts = newSortFields("session_id", "session_number", map[string]string{
	"name":           "n.name",
	"session_number": "n.session_number",
	"session_date":   "n.session_date",
	"created_at":     "n.created_at",
	"updated_at":     "n.updated_at",
})

const sessionProjection = `RETURN n {.*} AS session,
	head([(n)-[:BELONGS_TO]->(c:Campaign) | c.campaign_id]) AS campaign_id`

func decodeSession(record *neo4j.Record) models.Session {
	props := graph.PropsFromRecord(record, "session")
	s := models.Session{
		ID:            graph.PropString(props, "session_id"),
		CampaignID:    graph.StringFromRecord(record, "campaign_id"),
		Name:          graph.PropString(props, "name"),
		SessionNumber: graph.PropInt64(props, "session_number"),
		SessionDate:   graph.PropTimePtr(props, "session_date"),
		Summary:       graph.PropString(props, "summary"),
	}
	s.CreatedAt, s.CreatedBy, s.UpdatedAt = auditFrom(props)
	return s
}

func (r *SessionRepository) Create(ctx context.Context, params models.CreateSessionParams, actorID string) (*models.Session, error) {
	if params.CampaignID == "" {
		return nil, apperrors.NewValidation("campaign_id", "is required")
	}

	id := r.newID()
	props := r.newProps("session_id", id, actorID)
	props["name"] = params.Name
	props["session_number"] = params.SessionNumber
	props["session_date"] = optionalTime(params.SessionDate)
	props["summary"] = params.Summary

	err := r.write(ctx, "session.create", func(tx graph.Tx) error {
		return r.createChild(ctx, tx, constants.LabelSession, props, constants.RelBelongsTo, constants.LabelCampaign, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Session created",
		zap.String("session_id", id),
		zap.String("campaign_id", params.CampaignID),
	)
	return reload(ctx, r.FindByID, constants.LabelSession, id)
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var session *models.Session
	err := r.read(ctx, "session.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:Session {session_id: $id})\n"+sessionProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		s := decodeSession(record)
		session = &s
		return nil
	})
	return session, err
}

func (r *SessionRepository) FindAll(ctx context.Context, filter models.SessionFilter) (*models.Page[models.Session], error) {
	spec, err := resolvePage(filter.ListOptions, sessionSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelSession).
		related(constants.RelBelongsTo, constants.LabelCampaign, "campaign_id", filter.CampaignID).
		search(filter.Search, "name", "summary")
	return listPage(ctx, &r.base, "session.list", q, spec, sessionProjection, decodeSession)
}

func (r *SessionRepository) Update(ctx context.Context, id string, params models.UpdateSessionParams) (*models.Session, error) {
	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "session_number", params.SessionNumber)
	setTime(ps, "session_date", params.SessionDate)
	setField(ps, "summary", params.Summary)

	err := r.write(ctx, "session.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelSession, "session_id", id, ps); err != nil {
			return err
		}
		return r.campaign.replace(ctx, tx, id, params.CampaignID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelSession, id)
}

// Delete refuses to remove a session still referenced by recordings,
// events or analyses
func (r *SessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "session.delete", constants.LabelSession, "session_id", id, func(tx graph.Tx) error {
		refs, err := count(ctx, tx, `
			MATCH (ref)-[:RECORDED_IN|OCCURRED_IN|ANALYZES]->(:Session {session_id: $id})
			RETURN count(ref) AS total
		`, map[string]any{"id": id})
		if err != nil {
			return err
		}
		if refs > 0 {
			return apperrors.NewConflict(constants.LabelSession, id, "session is still referenced by recordings, events or analyses")
		}
		return nil
	})
}
