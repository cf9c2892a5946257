package models

// GraphNode is a rendering-friendly projection of any entity node
type GraphNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Type       string         `json:"type"`
	ImageURL   string         `json:"imageUrl,omitempty"`
	Properties map[string]any `json:"properties"`
}

// GraphEdge is a rendering-friendly projection of a relationship
type GraphEdge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
}

type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphQuery selects the neighbourhood to render. At most one start id may be set;
// with none, a bounded sample of the graph is returned.
type GraphQuery struct {
	WorldID           string   `json:"world_id,omitempty" form:"world_id"`
	CampaignID        string   `json:"campaign_id,omitempty" form:"campaign_id"`
	SessionID         string   `json:"session_id,omitempty" form:"session_id"`
	CharacterID       string   `json:"character_id,omitempty" form:"character_id"`
	LocationID        string   `json:"location_id,omitempty" form:"location_id"`
	ItemID            string   `json:"item_id,omitempty" form:"item_id"`
	EventID           string   `json:"event_id,omitempty" form:"event_id"`
	PowerID           string   `json:"power_id,omitempty" form:"power_id"`
	Depth             int      `json:"depth,omitempty" form:"depth"`
	NodeTypes         []string `json:"node_types,omitempty" form:"node_types"`
	RelationshipTypes []string `json:"relationship_types,omitempty" form:"relationship_types"`
}
