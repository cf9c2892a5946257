package models

// Event belongs to one Campaign and may be tied to a Session and a Location
type Event struct {
	ID               string  `json:"event_id"`
	CampaignID       string  `json:"campaign_id,omitempty"`
	SessionID        *string `json:"session_id,omitempty"`
	LocationID       *string `json:"location_id,omitempty"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	EventType        string  `json:"event_type,omitempty"`
	TimelinePosition int64   `json:"timeline_position"`
	Audit
}

type CreateEventParams struct {
	CampaignID       string  `json:"campaign_id"`
	SessionID        *string `json:"session_id,omitempty"`
	LocationID       *string `json:"location_id,omitempty"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	EventType        string  `json:"event_type,omitempty"`
	TimelinePosition int64   `json:"timeline_position"`
}

type UpdateEventParams struct {
	CampaignID       Nullable[string] `json:"campaign_id"`
	SessionID        Nullable[string] `json:"session_id"`
	LocationID       Nullable[string] `json:"location_id"`
	Name             Nullable[string] `json:"name"`
	Description      Nullable[string] `json:"description"`
	EventType        Nullable[string] `json:"event_type"`
	TimelinePosition Nullable[int64]  `json:"timeline_position"`
}

// EventCharacter is the join entity for a character taking part in an event
type EventCharacter struct {
	ID            string `json:"event_character_id"`
	EventID       string `json:"event_id"`
	CharacterID   string `json:"character_id"`
	CharacterName string `json:"character_name,omitempty"`
	Role          string `json:"role,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Audit
}

// EventItem is the join entity for an item featured in an event
type EventItem struct {
	ID       string `json:"event_item_id"`
	EventID  string `json:"event_id"`
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name,omitempty"`
	Role     string `json:"role,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Audit
}

type EventParticipantParams struct {
	Role  string `json:"role,omitempty"`
	Notes string `json:"notes,omitempty"`
}
