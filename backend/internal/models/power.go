package models

// Power belongs to one Campaign
type Power struct {
	ID           string `json:"power_id"`
	CampaignID   string `json:"campaign_id,omitempty"`
	Name         string `json:"name"`
	PowerType    string `json:"power_type,omitempty"`
	Effect       string `json:"effect,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Description  string `json:"description,omitempty"`
	Audit
}

type CreatePowerParams struct {
	CampaignID   string `json:"campaign_id"`
	Name         string `json:"name"`
	PowerType    string `json:"power_type,omitempty"`
	Effect       string `json:"effect,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Description  string `json:"description,omitempty"`
}

type UpdatePowerParams struct {
	CampaignID   Nullable[string] `json:"campaign_id"`
	Name         Nullable[string] `json:"name"`
	PowerType    Nullable[string] `json:"power_type"`
	Effect       Nullable[string] `json:"effect"`
	Requirements Nullable[string] `json:"requirements"`
	Description  Nullable[string] `json:"description"`
}

// CharacterPower is the join entity for a power held by a character
type CharacterPower struct {
	ID               string `json:"character_power_id"`
	CharacterID      string `json:"character_id"`
	PowerID          string `json:"power_id"`
	PowerName        string `json:"power_name,omitempty"`
	ProficiencyLevel int64  `json:"proficiency_level"`
	Notes            string `json:"notes,omitempty"`
	Audit
}

type AssignPowerParams struct {
	CharacterID      string `json:"character_id"`
	PowerID          string `json:"power_id"`
	ProficiencyLevel int64  `json:"proficiency_level"`
	Notes            string `json:"notes,omitempty"`
}

type UpdateCharacterPowerParams struct {
	ProficiencyLevel Nullable[int64]  `json:"proficiency_level"`
	Notes            Nullable[string] `json:"notes"`
}
