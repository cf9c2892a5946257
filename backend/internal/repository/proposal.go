package repository

import (
	"context"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"loremaster/backend/internal/constants"
	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// proposalTargets maps the entity types a proposal may target to their labels
var proposalTargets = map[string]string{
	"world":     constants.LabelWorld,
	"campaign":  constants.LabelCampaign,
	"session":   constants.LabelSession,
	"character": constants.LabelCharacter,
	"location":  constants.LabelLocation,
	"item":      constants.LabelItem,
	"power":     constants.LabelPower,
	"event":     constants.LabelEvent,
}

// ChangeProposalRepository owns ChangeProposal nodes, their comments and the
// batches that group them for review
type ChangeProposalRepository struct {
	base
	contextCampaign edge
	contextSession  edge
	batch           edge
}

func NewChangeProposalRepository(exec graph.Executor) *ChangeProposalRepository {
	return &ChangeProposalRepository{
		base:            newBase(exec, constants.LabelChangeProposal, "proposal"),
		contextCampaign: edge{constants.LabelChangeProposal, "proposal_id", constants.RelHasContext, constants.LabelCampaign, "campaign_id"},
		contextSession:  edge{constants.LabelChangeProposal, "proposal_id", constants.RelHasContext, constants.LabelSession, "session_id"},
		batch:           edge{constants.LabelChangeProposal, "proposal_id", constants.RelInBatch, constants.LabelProposalBatch, "batch_id"},
	}
}

var proposalSorts = newSortFields("proposal_id", "created_at", map[string]string{
	"title":       "n.title",
	"status":      "n.status",
	"type":        "n.type",
	"entity_type": "n.entity_type",
	"created_at":  "n.created_at",
	"updated_at":  "n.updated_at",
	"reviewed_at": "n.reviewed_at",
})

const proposalProjection = `RETURN n {.*} AS proposal,
	head([(n)-[:HAS_CONTEXT]->(c:Campaign) | c.campaign_id]) AS context_campaign_id,
	head([(n)-[:HAS_CONTEXT]->(s:Session) | s.session_id]) AS context_session_id,
	head([(n)-[:IN_BATCH]->(b:ProposalBatch) | b.batch_id]) AS batch_id,
	size([(c:ProposalComment)-[:COMMENTS_ON]->(n) | c]) AS comment_count`

func decodeProposal(record *neo4j.Record) models.ChangeProposal {
	props := graph.PropsFromRecord(record, "proposal")
	p := models.ChangeProposal{
		ID:                graph.PropString(props, "proposal_id"),
		Status:            models.ProposalStatus(graph.PropString(props, "status")),
		ProposalType:      models.ProposalType(graph.PropString(props, "type")),
		EntityType:        graph.PropString(props, "entity_type"),
		EntityID:          graph.PropStringPtr(props, "entity_id"),
		Title:             graph.PropString(props, "title"),
		Description:       graph.PropString(props, "description"),
		Reason:            graph.PropString(props, "reason"),
		ProposedChanges:   graph.PropJSON(props, "proposed_changes"),
		ContextCampaignID: graph.StringPtrFromRecord(record, "context_campaign_id"),
		ContextSessionID:  graph.StringPtrFromRecord(record, "context_session_id"),
		BatchID:           graph.StringPtrFromRecord(record, "batch_id"),
		ReviewedBy:        graph.PropString(props, "reviewed_by"),
		ReviewedAt:        graph.PropTimePtr(props, "reviewed_at"),
		CommentCount:      graph.Int64FromRecord(record, "comment_count"),
	}
	p.CreatedAt, p.CreatedBy, p.UpdatedAt = auditFrom(props)
	return p
}

// Create files a pending proposal. Update and delete proposals must name an
// existing target entity, which gets a PROPOSES_CHANGE_TO edge.
func (r *ChangeProposalRepository) Create(ctx context.Context, params models.CreateChangeProposalParams, actorID string) (*models.ChangeProposal, error) {
	if !params.ProposalType.Valid() {
		return nil, apperrors.NewValidation("type", "unknown proposal type "+string(params.ProposalType))
	}
	entityType := strings.ToLower(params.EntityType)
	targetLabel, ok := proposalTargets[entityType]
	if !ok {
		return nil, apperrors.NewValidation("entity_type", "unsupported entity type "+params.EntityType)
	}
	if params.Title == "" {
		return nil, apperrors.NewValidation("title", "is required")
	}
	hasTarget := params.EntityID != nil && *params.EntityID != ""
	if params.ProposalType != models.ProposalCreate && !hasTarget {
		return nil, apperrors.NewValidation("entity_id", "is required for "+string(params.ProposalType)+" proposals")
	}
	changes, err := graph.EncodeJSON(params.ProposedChanges)
	if err != nil {
		return nil, apperrors.NewValidation("proposed_changes", err.Error())
	}

	id := r.newID()
	props := r.newProps("proposal_id", id, actorID)
	props["status"] = string(models.ProposalPending)
	props["type"] = string(params.ProposalType)
	props["entity_type"] = entityType
	props["title"] = params.Title
	props["description"] = params.Description
	props["reason"] = params.Reason
	props["proposed_changes"] = changes
	if hasTarget {
		props["entity_id"] = *params.EntityID
	}

	err = r.write(ctx, "proposal.create", func(tx graph.Tx) error {
		if err := r.createNode(ctx, tx, constants.LabelChangeProposal, props); err != nil {
			return err
		}
		if hasTarget {
			target := edge{constants.LabelChangeProposal, "proposal_id", constants.RelProposesChangeTo, targetLabel, constants.IDProperties[targetLabel]}
			if err := target.link(ctx, tx, id, *params.EntityID); err != nil {
				return err
			}
		}
		if err := r.contextCampaign.linkOptional(ctx, tx, id, params.ContextCampaignID); err != nil {
			return err
		}
		return r.contextSession.linkOptional(ctx, tx, id, params.ContextSessionID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Change proposal created",
		zap.String("proposal_id", id),
		zap.String("type", string(params.ProposalType)),
		zap.String("entity_type", entityType),
	)
	return reload(ctx, r.FindByID, constants.LabelChangeProposal, id)
}

func (r *ChangeProposalRepository) FindByID(ctx context.Context, id string) (*models.ChangeProposal, error) {
	var proposal *models.ChangeProposal
	err := r.read(ctx, "proposal.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:ChangeProposal {proposal_id: $id})\n"+proposalProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		p := decodeProposal(record)
		proposal = &p
		return nil
	})
	return proposal, err
}

func (r *ChangeProposalRepository) FindAll(ctx context.Context, filter models.ChangeProposalFilter) (*models.Page[models.ChangeProposal], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidation("status", "unknown status "+string(filter.Status))
	}
	spec, err := resolvePage(filter.ListOptions, proposalSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelChangeProposal).
		eq("status", string(filter.Status)).
		eq("entity_type", strings.ToLower(filter.EntityType)).
		related(constants.RelHasContext, constants.LabelCampaign, "campaign_id", filter.CampaignID).
		related(constants.RelInBatch, constants.LabelProposalBatch, "batch_id", filter.BatchID).
		search(filter.Search, "title", "description", "reason")
	return listPage(ctx, &r.base, "proposal.list", q, spec, proposalProjection, decodeProposal)
}

// Update edits a proposal still awaiting review
func (r *ChangeProposalRepository) Update(ctx context.Context, id string, params models.UpdateChangeProposalParams) (*models.ChangeProposal, error) {
	if params.Title.Set && (!params.Title.Valid || params.Title.Value == "") {
		return nil, apperrors.NewValidation("title", "cannot be cleared")
	}

	ps := propertySet{}
	setField(ps, "title", params.Title)
	setField(ps, "description", params.Description)
	setField(ps, "reason", params.Reason)
	if err := setJSON(ps, "proposed_changes", params.ProposedChanges); err != nil {
		return nil, apperrors.NewValidation("proposed_changes", err.Error())
	}

	err := r.write(ctx, "proposal.update", func(tx graph.Tx) error {
		record, err := single(ctx, tx,
			"MATCH (n:ChangeProposal {proposal_id: $id}) RETURN n.status AS status",
			map[string]any{"id": id})
		if err != nil {
			return err
		}
		if record == nil {
			return apperrors.NewNotFound(constants.LabelChangeProposal, id)
		}
		if status := graph.StringFromRecord(record, "status"); status != string(models.ProposalPending) {
			return apperrors.NewConflict(constants.LabelChangeProposal, id, "proposal is already "+status)
		}
		if err := r.updateProps(ctx, tx, constants.LabelChangeProposal, "proposal_id", id, ps); err != nil {
			return err
		}
		if err := r.contextCampaign.replace(ctx, tx, id, params.ContextCampaignID); err != nil {
			return err
		}
		return r.contextSession.replace(ctx, tx, id, params.ContextSessionID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelChangeProposal, id)
}

// UpdateStatus records a review decision
func (r *ChangeProposalRepository) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus, reviewerID string) (*models.ChangeProposal, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("status", "unknown status "+string(status))
	}

	err := r.write(ctx, "proposal.status", func(tx graph.Tx) error {
		return r.updateProps(ctx, tx, constants.LabelChangeProposal, "proposal_id", id, propertySet{
			"status":      string(status),
			"reviewed_by": actorOrSystem(reviewerID),
			"reviewed_at": r.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Proposal reviewed", zap.String("proposal_id", id), zap.String("status", string(status)))
	return reload(ctx, r.FindByID, constants.LabelChangeProposal, id)
}

// Delete removes the proposal and its comments
func (r *ChangeProposalRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "proposal.delete", constants.LabelChangeProposal, "proposal_id", id, func(tx graph.Tx) error {
		_, err := tx.Run(ctx, `
			MATCH (c:ProposalComment)-[:COMMENTS_ON]->(:ChangeProposal {proposal_id: $id})
			DETACH DELETE c
		`, map[string]any{"id": id})
		return err
	})
}

// Comments

func decodeComment(record *neo4j.Record) models.ProposalComment {
	props := graph.PropsFromRecord(record, "comment")
	return models.ProposalComment{
		ID:         graph.PropString(props, "comment_id"),
		ProposalID: graph.StringFromRecord(record, "proposal_id"),
		Content:    graph.PropString(props, "content"),
		CreatedAt:  graph.PropTime(props, "created_at"),
		CreatedBy:  graph.PropString(props, "created_by"),
	}
}

func (r *ChangeProposalRepository) AddComment(ctx context.Context, proposalID, content, actorID string) (*models.ProposalComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidation("content", "is required")
	}

	id := r.newID()
	props := r.newProps("comment_id", id, actorID)
	props["content"] = content

	var comment *models.ProposalComment
	err := r.write(ctx, "proposal.comment.add", func(tx graph.Tx) error {
		if err := r.createChild(ctx, tx, constants.LabelProposalComment, props, constants.RelCommentsOn, constants.LabelChangeProposal, proposalID); err != nil {
			return err
		}
		comment = &models.ProposalComment{
			ID:         id,
			ProposalID: proposalID,
			Content:    content,
			CreatedAt:  props["created_at"].(time.Time),
			CreatedBy:  props["created_by"].(string),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a proposal's comments, oldest first
func (r *ChangeProposalRepository) ListComments(ctx context.Context, proposalID string) ([]models.ProposalComment, error) {
	comments := []models.ProposalComment{}
	err := r.read(ctx, "proposal.comment.list", func(tx graph.Tx) error {
		comments = comments[:0]
		records, err := tx.Run(ctx, `
			MATCH (c:ProposalComment)-[:COMMENTS_ON]->(p:ChangeProposal {proposal_id: $id})
			RETURN c {.*} AS comment, p.proposal_id AS proposal_id
			ORDER BY c.created_at ASC, c.comment_id ASC
		`, map[string]any{"id": proposalID})
		if err != nil {
			return err
		}
		for _, record := range records {
			comments = append(comments, decodeComment(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Batches

func decodeBatch(record *neo4j.Record) models.ProposalBatch {
	props := graph.PropsFromRecord(record, "batch")
	b := models.ProposalBatch{
		ID:          graph.PropString(props, "batch_id"),
		Name:        graph.PropString(props, "name"),
		Description: graph.PropString(props, "description"),
		Status:      models.ProposalStatus(graph.PropString(props, "status")),
		ProposalIDs: graph.StringSliceFromRecord(record, "proposal_ids"),
	}
	b.CreatedAt, b.CreatedBy, b.UpdatedAt = auditFrom(props)
	return b
}

// CreateBatch groups existing proposals for review
func (r *ChangeProposalRepository) CreateBatch(ctx context.Context, params models.CreateProposalBatchParams, actorID string) (*models.ProposalBatch, error) {
	if params.Name == "" {
		return nil, apperrors.NewValidation("name", "is required")
	}

	id := r.newID()
	props := r.newProps("batch_id", id, actorID)
	props["name"] = params.Name
	props["description"] = params.Description
	props["status"] = string(models.ProposalPending)

	err := r.write(ctx, "proposal.batch.create", func(tx graph.Tx) error {
		if err := r.createNode(ctx, tx, constants.LabelProposalBatch, props); err != nil {
			return err
		}
		return r.joinBatch(ctx, tx, id, params.ProposalIDs)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Proposal batch created", zap.String("batch_id", id), zap.Int("proposals", len(params.ProposalIDs)))
	return reload(ctx, r.GetBatch, constants.LabelProposalBatch, id)
}

// joinBatch moves proposals into a batch; a proposal belongs to one batch at most
func (r *ChangeProposalRepository) joinBatch(ctx context.Context, tx graph.Tx, batchID string, proposalIDs []string) error {
	for _, proposalID := range proposalIDs {
		if err := mustExist(ctx, tx, constants.LabelChangeProposal, proposalID); err != nil {
			return err
		}
		if err := r.batch.replace(ctx, tx, proposalID, models.Value(batchID)); err != nil {
			return err
		}
	}
	return nil
}

// AddToBatch moves proposals into an existing batch
func (r *ChangeProposalRepository) AddToBatch(ctx context.Context, batchID string, proposalIDs []string) (*models.ProposalBatch, error) {
	err := r.write(ctx, "proposal.batch.add", func(tx graph.Tx) error {
		if err := mustExist(ctx, tx, constants.LabelProposalBatch, batchID); err != nil {
			return err
		}
		return r.joinBatch(ctx, tx, batchID, proposalIDs)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.GetBatch, constants.LabelProposalBatch, batchID)
}

// GetBatch returns nil when the batch does not exist
func (r *ChangeProposalRepository) GetBatch(ctx context.Context, batchID string) (*models.ProposalBatch, error) {
	var batch *models.ProposalBatch
	err := r.read(ctx, "proposal.batch.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (b:ProposalBatch {batch_id: $id})
			RETURN b {.*} AS batch,
				[(p:ChangeProposal)-[:IN_BATCH]->(b) | p.proposal_id] AS proposal_ids
		`, map[string]any{"id": batchID})
		if err != nil || record == nil {
			return err
		}
		b := decodeBatch(record)
		batch = &b
		return nil
	})
	return batch, err
}

// UpdateBatchStatus reviews a batch and applies the same decision to every
// proposal in it
func (r *ChangeProposalRepository) UpdateBatchStatus(ctx context.Context, batchID string, status models.ProposalStatus, reviewerID string) (*models.ProposalBatch, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("status", "unknown status "+string(status))
	}

	now := r.now()
	reviewer := actorOrSystem(reviewerID)
	err := r.write(ctx, "proposal.batch.status", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelProposalBatch, "batch_id", batchID, propertySet{"status": string(status)}); err != nil {
			return err
		}
		_, err := tx.Run(ctx, `
			MATCH (p:ChangeProposal)-[:IN_BATCH]->(:ProposalBatch {batch_id: $id})
			SET p.status = $status, p.reviewed_by = $reviewer, p.reviewed_at = $now, p.updated_at = $now
		`, map[string]any{"id": batchID, "status": string(status), "reviewer": reviewer, "now": now})
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Proposal batch reviewed", zap.String("batch_id", batchID), zap.String("status", string(status)))
	return reload(ctx, r.GetBatch, constants.LabelProposalBatch, batchID)
}

// DeleteBatch removes the batch; its proposals stay, ungrouped
func (r *ChangeProposalRepository) DeleteBatch(ctx context.Context, batchID string) (bool, error) {
	return r.deleteNode(ctx, "proposal.batch.delete", constants.LabelProposalBatch, "batch_id", batchID, nil)
}
