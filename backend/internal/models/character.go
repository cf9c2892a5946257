package models

import "time"

// Character belongs to one Campaign
type Character struct {
	ID                string `json:"character_id"`
	CampaignID        string `json:"campaign_id,omitempty"`
	Name              string `json:"name"`
	CharacterType     string `json:"character_type,omitempty"`
	IsPlayerCharacter bool   `json:"is_player_character"`
	Description       string `json:"description,omitempty"`
	Race              string `json:"race,omitempty"`
	CharacterClass    string `json:"character_class,omitempty"`
	Level             int64  `json:"level,omitempty"`
	ImageURL          string `json:"image_url,omitempty"`
	Audit
}

type CreateCharacterParams struct {
	CampaignID        string `json:"campaign_id"`
	Name              string `json:"name"`
	CharacterType     string `json:"character_type,omitempty"`
	IsPlayerCharacter bool   `json:"is_player_character"`
	Description       string `json:"description,omitempty"`
	Race              string `json:"race,omitempty"`
	CharacterClass    string `json:"character_class,omitempty"`
	Level             int64  `json:"level,omitempty"`
	ImageURL          string `json:"image_url,omitempty"`
}

type UpdateCharacterParams struct {
	CampaignID        Nullable[string] `json:"campaign_id"`
	Name              Nullable[string] `json:"name"`
	CharacterType     Nullable[string] `json:"character_type"`
	IsPlayerCharacter Nullable[bool]   `json:"is_player_character"`
	Description       Nullable[string] `json:"description"`
	Race              Nullable[string] `json:"race"`
	CharacterClass    Nullable[string] `json:"character_class"`
	Level             Nullable[int64]  `json:"level"`
	ImageURL          Nullable[string] `json:"image_url"`
}

// CharacterRelationship is a directed, typed edge between two characters.
// Its endpoints are fixed once created.
type CharacterRelationship struct {
	ID                string     `json:"relationship_id"`
	SourceCharacterID string     `json:"source_character_id"`
	TargetCharacterID string     `json:"target_character_id"`
	TargetName        string     `json:"target_name,omitempty"`
	RelationshipType  string     `json:"relationship_type"`
	Description       string     `json:"description,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CreatedBy         string     `json:"created_by,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

type CreateCharacterRelationshipParams struct {
	SourceCharacterID string `json:"source_character_id"`
	TargetCharacterID string `json:"target_character_id"`
	RelationshipType  string `json:"relationship_type"`
	Description       string `json:"description,omitempty"`
}

type UpdateCharacterRelationshipParams struct {
	RelationshipType Nullable[string] `json:"relationship_type"`
	Description      Nullable[string] `json:"description"`
}
