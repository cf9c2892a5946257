package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"loremaster/backend/internal/constants"
	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// joinLabels are association nodes. Graph views draw each one as a single
// edge from its owner to the entity it references.
var joinLabels = []string{
	constants.LabelCharacterItem,
	constants.LabelLocationItem,
	constants.LabelCharacterPower,
	constants.LabelEventCharacter,
	constants.LabelEventItem,
}

// GraphLimits bounds the graph views
type GraphLimits struct {
	MaxDepth    int
	SampleLimit int
}

// VisualizationRepository serves read-only graph views across entity kinds
type VisualizationRepository struct {
	base
	limits GraphLimits
}

func NewVisualizationRepository(exec graph.Executor, limits GraphLimits) *VisualizationRepository {
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = constants.MaxGraphDepth
	}
	if limits.SampleLimit <= 0 {
		limits.SampleLimit = constants.DefaultSampleLimit
	}
	return &VisualizationRepository{
		base:   newBase(exec, "Graph", "visualization"),
		limits: limits,
	}
}

// graphRequest is a validated GraphQuery
type graphRequest struct {
	startLabel string
	startID    string
	depth      int
	labels     []string
	relTypes   []string
}

func (r *VisualizationRepository) resolve(q models.GraphQuery) (graphRequest, error) {
	req := graphRequest{depth: q.Depth}

	starts := []struct{ label, id string }{
		{constants.LabelWorld, q.WorldID},
		{constants.LabelCampaign, q.CampaignID},
		{constants.LabelSession, q.SessionID},
		{constants.LabelCharacter, q.CharacterID},
		{constants.LabelLocation, q.LocationID},
		{constants.LabelItem, q.ItemID},
		{constants.LabelEvent, q.EventID},
		{constants.LabelPower, q.PowerID},
	}
	for _, s := range starts {
		if s.id == "" {
			continue
		}
		if req.startID != "" {
			return graphRequest{}, apperrors.NewValidation("start", "at most one starting entity may be given")
		}
		req.startLabel, req.startID = s.label, s.id
	}

	if req.depth == 0 {
		req.depth = min(constants.DefaultGraphDepth, r.limits.MaxDepth)
	}
	if req.depth < 1 || req.depth > r.limits.MaxDepth {
		return graphRequest{}, apperrors.NewValidation("depth", fmt.Sprintf("must be between 1 and %d", r.limits.MaxDepth))
	}

	req.labels = constants.VisualLabels
	if len(q.NodeTypes) > 0 {
		req.labels = nil
		for _, t := range q.NodeTypes {
			label, ok := visualLabel(t)
			if !ok {
				return graphRequest{}, apperrors.NewValidation("node_types", "unknown node type "+t)
			}
			if !slices.Contains(req.labels, label) {
				req.labels = append(req.labels, label)
			}
		}
	}

	req.relTypes = constants.VisualRelationships
	if len(q.RelationshipTypes) > 0 {
		req.relTypes = nil
		for _, t := range q.RelationshipTypes {
			rel := strings.ToUpper(t)
			if !slices.Contains(constants.VisualRelationships, rel) {
				return graphRequest{}, apperrors.NewValidation("relationship_types", "unknown relationship type "+t)
			}
			if !slices.Contains(req.relTypes, rel) {
				req.relTypes = append(req.relTypes, rel)
			}
		}
	}
	return req, nil
}

// visualLabel matches a node type case-insensitively against the drawable labels
func visualLabel(t string) (string, bool) {
	for _, label := range constants.VisualLabels {
		if strings.EqualFold(label, t) {
			return label, true
		}
	}
	return "", false
}

// traversalTypes adds the join-node hops needed to reach entities behind
// an association when the association's owning edge is allowed
func traversalTypes(relTypes []string) []string {
	out := slices.Clone(relTypes)
	for _, rel := range []string{constants.RelHasItem, constants.RelContainsItem, constants.RelHasPower, constants.RelInvolves} {
		if slices.Contains(relTypes, rel) && !slices.Contains(out, constants.RelReferences) {
			out = append(out, constants.RelReferences)
		}
	}
	return out
}

// GetGraph expands from one starting entity up to the requested depth, or
// returns a bounded sample when no start is given. Nodes and edges reached
// over several paths appear once.
func (r *VisualizationRepository) GetGraph(ctx context.Context, q models.GraphQuery) (*models.GraphData, error) {
	req, err := r.resolve(q)
	if err != nil {
		return nil, err
	}

	data := &models.GraphData{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}
	err = r.read(ctx, "graph.view", func(tx graph.Tx) error {
		data.Nodes, data.Edges = data.Nodes[:0], data.Edges[:0]
		var nodeRecords []*neo4j.Record
		var err error
		if req.startID != "" {
			nodeRecords, err = tx.Run(ctx, expansionQuery(req), map[string]any{
				"start_id": req.startID,
				"labels":   req.labels,
			})
		} else {
			nodeRecords, err = tx.Run(ctx, `
				MATCH (n)
				WHERE any(l IN labels(n) WHERE l IN $labels)
				RETURN elementId(n) AS element_id, labels(n) AS labels, n {.*} AS props
				ORDER BY n.created_at ASC, elementId(n) ASC
				LIMIT $limit
			`, map[string]any{"labels": req.labels, "limit": int64(r.limits.SampleLimit)})
		}
		if err != nil {
			return err
		}

		idByElement := make(map[string]string, len(nodeRecords))
		elementIDs := make([]string, 0, len(nodeRecords))
		for _, record := range nodeRecords {
			elementID := graph.StringFromRecord(record, "element_id")
			if _, seen := idByElement[elementID]; seen {
				continue
			}
			node := projectNode(record)
			idByElement[elementID] = node.ID
			elementIDs = append(elementIDs, elementID)
			data.Nodes = append(data.Nodes, node)
		}
		if len(elementIDs) == 0 {
			return nil
		}

		edgeRecords, err := tx.Run(ctx, `
			MATCH (a)-[r]->(b)
			WHERE elementId(a) IN $ids AND elementId(b) IN $ids AND type(r) IN $types
			RETURN elementId(r) AS id, type(r) AS type, elementId(a) AS source, elementId(b) AS target, r {.*} AS props
			UNION
			MATCH (a)-[r]->(j)-[:REFERENCES]->(b)
			WHERE elementId(a) IN $ids AND elementId(b) IN $ids AND type(r) IN $types
			  AND any(l IN labels(j) WHERE l IN $join_labels)
			RETURN elementId(j) AS id, type(r) AS type, elementId(a) AS source, elementId(b) AS target, j {.*} AS props
		`, map[string]any{
			"ids":         elementIDs,
			"types":       req.relTypes,
			"join_labels": joinLabels,
		})
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(edgeRecords))
		for _, record := range edgeRecords {
			e := projectEdge(record, idByElement)
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			data.Edges = append(data.Edges, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Graph view built",
		zap.String("start_label", req.startLabel),
		zap.Int("depth", req.depth),
		zap.Int("nodes", len(data.Nodes)),
		zap.Int("edges", len(data.Edges)),
	)
	return data, nil
}

// expansionQuery builds the bounded expansion from the start node. Label,
// depth and relationship types are validated before they reach the query.
// Reaching an entity through an association node takes two hops.
func expansionQuery(req graphRequest) string {
	key := constants.IDProperties[req.startLabel]
	return fmt.Sprintf(`
		MATCH (start:%s {%s: $start_id})
		OPTIONAL MATCH (start)-[:%s*1..%d]-(m)
		WITH start, collect(DISTINCT m) AS reached
		UNWIND [start] + reached AS n
		WITH DISTINCT n
		WHERE any(l IN labels(n) WHERE l IN $labels)
		RETURN elementId(n) AS element_id, labels(n) AS labels, n {.*} AS props
	`, req.startLabel, key, strings.Join(traversalTypes(req.relTypes), "|"), req.depth)
}

func projectNode(record *neo4j.Record) models.GraphNode {
	props := graph.PropsFromRecord(record, "props")
	label := primaryLabel(graph.StringSliceFromRecord(record, "labels"))

	id := graph.PropString(props, constants.IDProperties[label])
	if id == "" {
		id = graph.StringFromRecord(record, "element_id")
	}
	name := graph.PropString(props, "name")
	if name == "" {
		name = graph.PropString(props, "title")
	}
	if name == "" {
		name = label
	}
	return models.GraphNode{
		ID:         id,
		Label:      name,
		Type:       label,
		ImageURL:   graph.PropString(props, "image_url"),
		Properties: props,
	}
}

func projectEdge(record *neo4j.Record, idByElement map[string]string) models.GraphEdge {
	props := graph.PropsFromRecord(record, "props")
	relType := graph.StringFromRecord(record, "type")

	id := graph.PropString(props, "relationship_id")
	if id == "" {
		id = graph.StringFromRecord(record, "id")
	}
	label := graph.PropString(props, "relationship_type")
	if label == "" {
		label = strings.ToLower(strings.ReplaceAll(relType, "_", " "))
	}
	return models.GraphEdge{
		ID:         id,
		Source:     idByElement[graph.StringFromRecord(record, "source")],
		Target:     idByElement[graph.StringFromRecord(record, "target")],
		Type:       relType,
		Label:      label,
		Properties: props,
	}
}

// primaryLabel picks the entity label of a node
func primaryLabel(labels []string) string {
	for _, l := range labels {
		if _, ok := constants.IDProperties[l]; ok {
			return l
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return ""
}

// GetHierarchy returns the World→Campaign→Session→Character tree of a world
// as graph data. A character hangs under every session whose events involve
// it, and directly under its campaign when it appears in no session. Every
// edge points from parent to child.
func (r *VisualizationRepository) GetHierarchy(ctx context.Context, worldID string) (*models.GraphData, error) {
	data := &models.GraphData{Nodes: []models.GraphNode{}, Edges: []models.GraphEdge{}}
	found := false

	err := r.read(ctx, "graph.hierarchy", func(tx graph.Tx) error {
		data.Nodes, data.Edges, found = data.Nodes[:0], data.Edges[:0], false
		records, err := tx.Run(ctx, `
			MATCH (w:World {world_id: $id})
			OPTIONAL MATCH (c:Campaign)-[:BELONGS_TO]->(w)
			OPTIONAL MATCH (s:Session)-[:BELONGS_TO]->(c)
			OPTIONAL MATCH (ch:Character)<-[:REFERENCES]-(:EventCharacter)<-[:INVOLVES]-(:Event)-[:OCCURRED_IN]->(s)
			RETURN w {.*} AS world, c {.*} AS campaign, s {.*} AS session, ch {.*} AS character
			UNION
			MATCH (w:World {world_id: $id})<-[:BELONGS_TO]-(c:Campaign)<-[:BELONGS_TO]-(ch:Character)
			WHERE NOT EXISTS {
				MATCH (ch)<-[:REFERENCES]-(:EventCharacter)<-[:INVOLVES]-(:Event)-[:OCCURRED_IN]->(:Session)-[:BELONGS_TO]->(c)
			}
			RETURN w {.*} AS world, c {.*} AS campaign, null AS session, ch {.*} AS character
		`, map[string]any{"id": worldID})
		if err != nil {
			return err
		}

		tree := newHierarchyBuilder(data)
		for _, record := range records {
			world := tree.node("", constants.LabelWorld, graph.PropsFromRecord(record, "world"))
			if world == "" {
				continue
			}
			found = true
			campaign := tree.node(world, constants.LabelCampaign, graph.PropsFromRecord(record, "campaign"))
			session := tree.node(campaign, constants.LabelSession, graph.PropsFromRecord(record, "session"))
			parent := session
			if parent == "" {
				parent = campaign
			}
			character := tree.node(parent, constants.LabelCharacter, graph.PropsFromRecord(record, "character"))

			tree.edge(world, campaign, "contains campaign")
			tree.edge(campaign, session, "has session")
			tree.edge(parent, character, "features")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewNotFound(constants.LabelWorld, worldID)
	}
	return data, nil
}

// hierarchyBuilder accumulates tree nodes and edges without duplicates
type hierarchyBuilder struct {
	data  *models.GraphData
	nodes map[string]bool
	edges map[string]bool
}

func newHierarchyBuilder(data *models.GraphData) *hierarchyBuilder {
	return &hierarchyBuilder{data: data, nodes: map[string]bool{}, edges: map[string]bool{}}
}

// node adds the entity under parent once and returns its tree id, "" for an
// empty row cell. Tree ids are paths, so an entity reached under two parents
// appears once under each and the result stays a tree.
func (h *hierarchyBuilder) node(parent, label string, props map[string]any) string {
	id := graph.PropString(props, constants.IDProperties[label])
	if id == "" {
		return ""
	}
	if parent == "" && label != constants.LabelWorld {
		return ""
	}
	treeID := strings.ToLower(label) + ":" + id
	if parent != "" {
		treeID = parent + "/" + treeID
	}
	if !h.nodes[treeID] {
		h.nodes[treeID] = true
		h.data.Nodes = append(h.data.Nodes, models.GraphNode{
			ID:         treeID,
			Label:      graph.PropString(props, "name"),
			Type:       label,
			ImageURL:   graph.PropString(props, "image_url"),
			Properties: props,
		})
	}
	return treeID
}

func (h *hierarchyBuilder) edge(parent, child, label string) {
	if parent == "" || child == "" {
		return
	}
	id := parent + "->" + child
	if h.edges[id] {
		return
	}
	h.edges[id] = true
	h.data.Edges = append(h.data.Edges, models.GraphEdge{
		ID:     id,
		Source: parent,
		Target: child,
		Type:   "HIERARCHY",
		Label:  label,
	})
}
