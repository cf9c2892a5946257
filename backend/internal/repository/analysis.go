package repository

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loremaster/backend/internal/constants"
	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// SessionAnalysisRepository owns SessionAnalysis aggregates: the analysis node
// and its key points, character insights, plot developments and topics, all
// attached with PART_OF edges.
type SessionAnalysisRepository struct {
	base
	transcription edge
}

func NewSessionAnalysisRepository(exec graph.Executor) *SessionAnalysisRepository {
	return &SessionAnalysisRepository{
		base:          newBase(exec, constants.LabelSessionAnalysis, "analysis"),
		transcription: edge{constants.LabelSessionAnalysis, "analysis_id", constants.RelBasedOn, constants.LabelTranscription, "transcription_id"},
	}
}

var analysisSorts = newSortFields("analysis_id", "created_at", map[string]string{
	"status":     "n.status",
	"created_at": "n.created_at",
	"updated_at": "n.updated_at",
})

const analysisProjection = `RETURN n {.*} AS analysis,
	head([(n)-[:ANALYZES]->(s:Session) | s.session_id]) AS session_id,
	head([(n)-[:BASED_ON]->(t:Transcription) | t.transcription_id]) AS transcription_id`

func decodeAnalysis(record *neo4j.Record) models.SessionAnalysis {
	props := graph.PropsFromRecord(record, "analysis")
	a := models.SessionAnalysis{
		ID:                graph.PropString(props, "analysis_id"),
		SessionID:         graph.StringFromRecord(record, "session_id"),
		TranscriptionID:   graph.StringPtrFromRecord(record, "transcription_id"),
		Status:            models.AnalysisStatus(graph.PropString(props, "status")),
		Summary:           graph.PropString(props, "summary"),
		KeyPoints:         []models.KeyPoint{},
		CharacterInsights: []models.CharacterInsight{},
		PlotDevelopments:  []models.PlotDevelopment{},
		Topics:            []models.Topic{},
	}
	a.CreatedAt, a.CreatedBy, a.UpdatedAt = auditFrom(props)
	return a
}

// Create stores an analysis of a session together with its collections in
// one write transaction
func (r *SessionAnalysisRepository) Create(ctx context.Context, params models.CreateSessionAnalysisParams, actorID string) (*models.SessionAnalysis, error) {
	if params.SessionID == "" {
		return nil, apperrors.NewValidation("session_id", "is required")
	}
	status := params.Status
	if status == "" {
		status = models.AnalysisPending
	}
	if !status.Valid() {
		return nil, apperrors.NewValidation("status", "unknown status "+string(status))
	}

	id := r.newID()
	props := r.newProps("analysis_id", id, actorID)
	props["status"] = string(status)
	props["summary"] = params.Summary

	err := r.write(ctx, "analysis.create", func(tx graph.Tx) error {
		if err := r.createChild(ctx, tx, constants.LabelSessionAnalysis, props, constants.RelAnalyzes, constants.LabelSession, params.SessionID); err != nil {
			return err
		}
		if err := r.transcription.linkOptional(ctx, tx, id, params.TranscriptionID); err != nil {
			return err
		}
		if err := r.insertKeyPoints(ctx, tx, id, params.KeyPoints); err != nil {
			return err
		}
		if err := r.insertInsights(ctx, tx, id, params.CharacterInsights); err != nil {
			return err
		}
		if err := r.insertPlotDevelopments(ctx, tx, id, params.PlotDevelopments); err != nil {
			return err
		}
		return r.insertTopics(ctx, tx, id, params.Topics)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Session analysis created",
		zap.String("analysis_id", id),
		zap.String("session_id", params.SessionID),
		zap.Int("key_points", len(params.KeyPoints)),
		zap.Int("character_insights", len(params.CharacterInsights)),
	)
	return reload(ctx, r.FindByID, constants.LabelSessionAnalysis, id)
}

// FindByID loads the whole aggregate. The four collections are read
// concurrently, each in its own read transaction, and come back ordered by
// score, highest first.
func (r *SessionAnalysisRepository) FindByID(ctx context.Context, id string) (*models.SessionAnalysis, error) {
	var analysis *models.SessionAnalysis
	err := r.read(ctx, "analysis.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:SessionAnalysis {analysis_id: $id})\n"+analysisProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		a := decodeAnalysis(record)
		analysis = &a
		return nil
	})
	if err != nil || analysis == nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.read(gctx, "analysis.key_points", func(tx graph.Tx) error {
			records, err := tx.Run(gctx, `
				MATCH (k:KeyPoint)-[:PART_OF]->(:SessionAnalysis {analysis_id: $id})
				RETURN k {.*} AS key_point
				ORDER BY k.importance DESC, k.segment_start ASC, k.key_point_id ASC
			`, map[string]any{"id": id})
			if err != nil {
				return err
			}
			keyPoints := make([]models.KeyPoint, 0, len(records))
			for _, record := range records {
				keyPoints = append(keyPoints, decodeKeyPoint(graph.PropsFromRecord(record, "key_point")))
			}
			analysis.KeyPoints = keyPoints
			return nil
		})
	})
	g.Go(func() error {
		return r.read(gctx, "analysis.character_insights", func(tx graph.Tx) error {
			records, err := tx.Run(gctx, `
				MATCH (i:CharacterInsight)-[:PART_OF]->(:SessionAnalysis {analysis_id: $id})
				RETURN i {.*} AS insight,
					[(x:CharacterInteraction)-[:PART_OF]->(i) | x {.*}] AS interactions
				ORDER BY i.relevance DESC, i.character_name ASC, i.insight_id ASC
			`, map[string]any{"id": id})
			if err != nil {
				return err
			}
			insights := make([]models.CharacterInsight, 0, len(records))
			for _, record := range records {
				insights = append(insights, decodeInsight(record))
			}
			analysis.CharacterInsights = insights
			return nil
		})
	})
	g.Go(func() error {
		return r.read(gctx, "analysis.plot_developments", func(tx graph.Tx) error {
			records, err := tx.Run(gctx, `
				MATCH (p:PlotDevelopment)-[:PART_OF]->(:SessionAnalysis {analysis_id: $id})
				RETURN p {.*} AS plot,
					[(e:RelatedEntity)-[:PART_OF]->(p) | e {.*}] AS related
				ORDER BY p.significance DESC, p.title ASC, p.plot_development_id ASC
			`, map[string]any{"id": id})
			if err != nil {
				return err
			}
			plots := make([]models.PlotDevelopment, 0, len(records))
			for _, record := range records {
				plots = append(plots, decodePlotDevelopment(record))
			}
			analysis.PlotDevelopments = plots
			return nil
		})
	})
	g.Go(func() error {
		return r.read(gctx, "analysis.topics", func(tx graph.Tx) error {
			records, err := tx.Run(gctx, `
				MATCH (t:Topic)-[:PART_OF]->(:SessionAnalysis {analysis_id: $id})
				RETURN t {.*} AS topic
				ORDER BY t.relevance DESC, t.name ASC, t.topic_id ASC
			`, map[string]any{"id": id})
			if err != nil {
				return err
			}
			topics := make([]models.Topic, 0, len(records))
			for _, record := range records {
				topics = append(topics, decodeTopic(graph.PropsFromRecord(record, "topic")))
			}
			analysis.Topics = topics
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return analysis, nil
}

// FindBySession returns every analysis of a session, newest first, fully loaded
func (r *SessionAnalysisRepository) FindBySession(ctx context.Context, sessionID string) ([]models.SessionAnalysis, error) {
	var ids []string
	err := r.read(ctx, "analysis.find_by_session", func(tx graph.Tx) error {
		records, err := tx.Run(ctx, `
			MATCH (n:SessionAnalysis)-[:ANALYZES]->(:Session {session_id: $id})
			RETURN n.analysis_id AS id
			ORDER BY n.created_at DESC, n.analysis_id ASC
		`, map[string]any{"id": sessionID})
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(records))
		for _, record := range records {
			ids = append(ids, graph.StringFromRecord(record, "id"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	analyses := make([]models.SessionAnalysis, 0, len(ids))
	for _, id := range ids {
		a, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if a != nil {
			analyses = append(analyses, *a)
		}
	}
	return analyses, nil
}

// FindAll lists analyses with their root fields only; load one with
// FindByID to get its collections.
func (r *SessionAnalysisRepository) FindAll(ctx context.Context, filter models.SessionAnalysisFilter) (*models.Page[models.SessionAnalysis], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidation("status", "unknown status "+string(filter.Status))
	}
	spec, err := resolvePage(filter.ListOptions, analysisSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelSessionAnalysis).
		related(constants.RelAnalyzes, constants.LabelSession, "session_id", filter.SessionID).
		eq("status", string(filter.Status)).
		search(filter.Search, "summary")
	return listPage(ctx, &r.base, "analysis.list", q, spec, analysisProjection, decodeAnalysis)
}

// Update patches the root fields and fully replaces every collection present
// in params, all in one write transaction
func (r *SessionAnalysisRepository) Update(ctx context.Context, id string, params models.UpdateSessionAnalysisParams) (*models.SessionAnalysis, error) {
	if params.Status.Set && !params.Status.Value.Valid() {
		return nil, apperrors.NewValidation("status", "unknown status "+string(params.Status.Value))
	}

	ps := propertySet{}
	setString(ps, "status", params.Status)
	setField(ps, "summary", params.Summary)

	err := r.write(ctx, "analysis.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelSessionAnalysis, "analysis_id", id, ps); err != nil {
			return err
		}
		if params.KeyPoints.Set {
			if err := r.clearCollection(ctx, tx, id, constants.LabelKeyPoint); err != nil {
				return err
			}
			if err := r.insertKeyPoints(ctx, tx, id, params.KeyPoints.Value); err != nil {
				return err
			}
		}
		if params.CharacterInsights.Set {
			if err := r.clearCollection(ctx, tx, id, constants.LabelCharacterInsight); err != nil {
				return err
			}
			if err := r.insertInsights(ctx, tx, id, params.CharacterInsights.Value); err != nil {
				return err
			}
		}
		if params.PlotDevelopments.Set {
			if err := r.clearCollection(ctx, tx, id, constants.LabelPlotDevelopment); err != nil {
				return err
			}
			if err := r.insertPlotDevelopments(ctx, tx, id, params.PlotDevelopments.Value); err != nil {
				return err
			}
		}
		if params.Topics.Set {
			if err := r.clearCollection(ctx, tx, id, constants.LabelTopic); err != nil {
				return err
			}
			if err := r.insertTopics(ctx, tx, id, params.Topics.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelSessionAnalysis, id)
}

// Delete removes the analysis and every node it owns
func (r *SessionAnalysisRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "analysis.delete", constants.LabelSessionAnalysis, "analysis_id", id, func(tx graph.Tx) error {
		_, err := tx.Run(ctx, `
			MATCH (x)-[:PART_OF*1..2]->(:SessionAnalysis {analysis_id: $id})
			DETACH DELETE x
		`, map[string]any{"id": id})
		return err
	})
}

// clearCollection removes one collection with anything nested under it
func (r *SessionAnalysisRepository) clearCollection(ctx context.Context, tx graph.Tx, analysisID, label string) error {
	_, err := tx.Run(ctx, `
		MATCH (x:`+label+`)-[:PART_OF]->(:SessionAnalysis {analysis_id: $id})
		OPTIONAL MATCH (nested)-[:PART_OF]->(x)
		DETACH DELETE nested, x
	`, map[string]any{"id": analysisID})
	return err
}

func (r *SessionAnalysisRepository) insertKeyPoints(ctx context.Context, tx graph.Tx, analysisID string, points []models.KeyPoint) error {
	if len(points) == 0 {
		return nil
	}
	items := make([]map[string]any, 0, len(points))
	for _, p := range points {
		items = append(items, map[string]any{
			"key_point_id":  r.newID(),
			"text":          p.Text,
			"importance":    p.Importance,
			"segment_start": p.SegmentStart,
		})
	}
	_, err := tx.Run(ctx, `
		MATCH (a:SessionAnalysis {analysis_id: $id})
		UNWIND $items AS item
		CREATE (k:KeyPoint)-[:PART_OF]->(a)
		SET k = item
	`, map[string]any{"id": analysisID, "items": items})
	return err
}

func (r *SessionAnalysisRepository) insertInsights(ctx context.Context, tx graph.Tx, analysisID string, insights []models.CharacterInsight) error {
	if len(insights) == 0 {
		return nil
	}
	items := make([]map[string]any, 0, len(insights))
	for _, in := range insights {
		interactions := make([]map[string]any, 0, len(in.Interactions))
		for _, x := range in.Interactions {
			interactions = append(interactions, map[string]any{
				"interaction_id":      r.newID(),
				"with_character_name": x.WithCharacterName,
				"interaction_type":    x.InteractionType,
				"description":         x.Description,
			})
		}
		props := propertySet{
			"insight_id":     r.newID(),
			"character_name": in.CharacterName,
			"insight":        in.Insight,
			"sentiment":      in.Sentiment,
			"relevance":      in.Relevance,
		}
		if in.CharacterID != nil {
			props["character_id"] = *in.CharacterID
		}
		items = append(items, map[string]any{"props": props.compact(), "interactions": interactions})
	}
	_, err := tx.Run(ctx, `
		MATCH (a:SessionAnalysis {analysis_id: $id})
		UNWIND $items AS item
		CREATE (i:CharacterInsight)-[:PART_OF]->(a)
		SET i = item.props
		WITH i, item
		UNWIND item.interactions AS interaction
		CREATE (x:CharacterInteraction)-[:PART_OF]->(i)
		SET x = interaction
	`, map[string]any{"id": analysisID, "items": items})
	return err
}

func (r *SessionAnalysisRepository) insertPlotDevelopments(ctx context.Context, tx graph.Tx, analysisID string, plots []models.PlotDevelopment) error {
	if len(plots) == 0 {
		return nil
	}
	items := make([]map[string]any, 0, len(plots))
	for _, p := range plots {
		related := make([]map[string]any, 0, len(p.RelatedEntities))
		for _, e := range p.RelatedEntities {
			related = append(related, map[string]any{
				"related_entity_id": r.newID(),
				"entity_type":       e.EntityType,
				"entity_id":         e.EntityID,
				"name":              e.Name,
			})
		}
		items = append(items, map[string]any{
			"props": map[string]any{
				"plot_development_id": r.newID(),
				"title":               p.Title,
				"description":         p.Description,
				"significance":        p.Significance,
			},
			"related": related,
		})
	}
	_, err := tx.Run(ctx, `
		MATCH (a:SessionAnalysis {analysis_id: $id})
		UNWIND $items AS item
		CREATE (p:PlotDevelopment)-[:PART_OF]->(a)
		SET p = item.props
		WITH p, item
		UNWIND item.related AS related
		CREATE (e:RelatedEntity)-[:PART_OF]->(p)
		SET e = related
	`, map[string]any{"id": analysisID, "items": items})
	return err
}

func (r *SessionAnalysisRepository) insertTopics(ctx context.Context, tx graph.Tx, analysisID string, topics []models.Topic) error {
	if len(topics) == 0 {
		return nil
	}
	items := make([]map[string]any, 0, len(topics))
	for _, t := range topics {
		keywords := t.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		items = append(items, map[string]any{
			"topic_id":  r.newID(),
			"name":      t.Name,
			"relevance": t.Relevance,
			"keywords":  keywords,
		})
	}
	_, err := tx.Run(ctx, `
		MATCH (a:SessionAnalysis {analysis_id: $id})
		UNWIND $items AS item
		CREATE (t:Topic)-[:PART_OF]->(a)
		SET t = item
	`, map[string]any{"id": analysisID, "items": items})
	return err
}

func decodeKeyPoint(props map[string]any) models.KeyPoint {
	return models.KeyPoint{
		ID:           graph.PropString(props, "key_point_id"),
		Text:         graph.PropString(props, "text"),
		Importance:   graph.PropFloat64(props, "importance"),
		SegmentStart: graph.PropFloat64(props, "segment_start"),
	}
}

func decodeInsight(record *neo4j.Record) models.CharacterInsight {
	props := graph.PropsFromRecord(record, "insight")
	in := models.CharacterInsight{
		ID:            graph.PropString(props, "insight_id"),
		CharacterID:   graph.PropStringPtr(props, "character_id"),
		CharacterName: graph.PropString(props, "character_name"),
		Insight:       graph.PropString(props, "insight"),
		Sentiment:     graph.PropString(props, "sentiment"),
		Relevance:     graph.PropFloat64(props, "relevance"),
	}
	for _, raw := range graph.ListFromRecord(record, "interactions") {
		x, _ := raw.(map[string]any)
		in.Interactions = append(in.Interactions, models.CharacterInteraction{
			ID:                graph.PropString(x, "interaction_id"),
			WithCharacterName: graph.PropString(x, "with_character_name"),
			InteractionType:   graph.PropString(x, "interaction_type"),
			Description:       graph.PropString(x, "description"),
		})
	}
	return in
}

func decodePlotDevelopment(record *neo4j.Record) models.PlotDevelopment {
	props := graph.PropsFromRecord(record, "plot")
	p := models.PlotDevelopment{
		ID:           graph.PropString(props, "plot_development_id"),
		Title:        graph.PropString(props, "title"),
		Description:  graph.PropString(props, "description"),
		Significance: graph.PropFloat64(props, "significance"),
	}
	for _, raw := range graph.ListFromRecord(record, "related") {
		e, _ := raw.(map[string]any)
		p.RelatedEntities = append(p.RelatedEntities, models.RelatedEntity{
			ID:         graph.PropString(e, "related_entity_id"),
			EntityType: graph.PropString(e, "entity_type"),
			EntityID:   graph.PropString(e, "entity_id"),
			Name:       graph.PropString(e, "name"),
		})
	}
	return p
}

func decodeTopic(props map[string]any) models.Topic {
	return models.Topic{
		ID:        graph.PropString(props, "topic_id"),
		Name:      graph.PropString(props, "name"),
		Relevance: graph.PropFloat64(props, "relevance"),
		Keywords:  graph.PropStringSlice(props, "keywords"),
	}
}
