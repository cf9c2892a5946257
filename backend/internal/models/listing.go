package models

// SortOrder is the direction of a listing sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListOptions holds the paging, search and sort settings shared by all listings.
// Page is 1-based. SortBy must name one of the entity's sortable fields.
type ListOptions struct {
	Page      int       `json:"page" form:"page"`
	Limit     int       `json:"limit" form:"limit"`
	Search    string    `json:"search,omitempty" form:"search"`
	SortBy    string    `json:"sort_by,omitempty" form:"sort_by"`
	SortOrder SortOrder `json:"sort_order,omitempty" form:"sort_order"`
}

// Page is one page of a listing plus the total number of matches
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type WorldFilter struct {
	ListOptions
}

type CampaignFilter struct {
	ListOptions
	WorldID  string `json:"world_id,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type SessionFilter struct {
	ListOptions
	CampaignID string `json:"campaign_id,omitempty"`
}

type CharacterFilter struct {
	ListOptions
	CampaignID        string `json:"campaign_id,omitempty"`
	CharacterType     string `json:"character_type,omitempty"`
	IsPlayerCharacter *bool  `json:"is_player_character,omitempty"`
}

type LocationFilter struct {
	ListOptions
	CampaignID       string `json:"campaign_id,omitempty"`
	ParentLocationID string `json:"parent_location_id,omitempty"`
	LocationType     string `json:"location_type,omitempty"`
	RootOnly         bool   `json:"root_only,omitempty"` // only locations without a parent
}

type ItemFilter struct {
	ListOptions
	CampaignID string `json:"campaign_id,omitempty"`
	ItemType   string `json:"item_type,omitempty"`
	Rarity     string `json:"rarity,omitempty"`
}

type PowerFilter struct {
	ListOptions
	CampaignID string `json:"campaign_id,omitempty"`
	PowerType  string `json:"power_type,omitempty"`
}

type EventFilter struct {
	ListOptions
	CampaignID string `json:"campaign_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	EventType  string `json:"event_type,omitempty"`
}

type AudioRecordingFilter struct {
	ListOptions
	SessionID           string              `json:"session_id,omitempty"`
	TranscriptionStatus TranscriptionStatus `json:"transcription_status,omitempty"`
}

type TranscriptionFilter struct {
	ListOptions
	RecordingID  string `json:"recording_id,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type SessionAnalysisFilter struct {
	ListOptions
	SessionID string         `json:"session_id,omitempty"`
	Status    AnalysisStatus `json:"status,omitempty"`
}

type ChangeProposalFilter struct {
	ListOptions
	Status     ProposalStatus `json:"status,omitempty"`
	EntityType string         `json:"entity_type,omitempty"`
	CampaignID string         `json:"campaign_id,omitempty"`
	BatchID    string         `json:"batch_id,omitempty"`
}
