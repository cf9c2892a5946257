package models

import "time"

// Audit holds the creation metadata every entity carries
type Audit struct {
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// World is the root of containment
type World struct {
	ID            string `json:"world_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	SystemVersion string `json:"system_version,omitempty"`
	Audit
}

type CreateWorldParams struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	SystemVersion string `json:"system_version,omitempty"`
}

type UpdateWorldParams struct {
	Name          Nullable[string] `json:"name"`
	Description   Nullable[string] `json:"description"`
	SystemVersion Nullable[string] `json:"system_version"`
}

// Campaign belongs to one World
type Campaign struct {
	ID          string `json:"campaign_id"`
	WorldID     string `json:"world_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	Audit
}

type CreateCampaignParams struct {
	WorldID     string `json:"world_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type UpdateCampaignParams struct {
	WorldID     Nullable[string] `json:"world_id"`
	Name        Nullable[string] `json:"name"`
	Description Nullable[string] `json:"description"`
	IsActive    Nullable[bool]   `json:"is_active"`
}

// Session is one play session of a Campaign
type Session struct {
	ID            string     `json:"session_id"`
	CampaignID    string     `json:"campaign_id,omitempty"`
	Name          string     `json:"name"`
	SessionNumber int64      `json:"session_number,omitempty"`
	SessionDate   *time.Time `json:"session_date,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	Audit
}

type CreateSessionParams struct {
	CampaignID    string     `json:"campaign_id"`
	Name          string     `json:"name"`
	SessionNumber int64      `json:"session_number,omitempty"`
	SessionDate   *time.Time `json:"session_date,omitempty"`
	Summary       string     `json:"summary,omitempty"`
}

type UpdateSessionParams struct {
	CampaignID    Nullable[string]    `json:"campaign_id"`
	Name          Nullable[string]    `json:"name"`
	SessionNumber Nullable[int64]     `json:"session_number"`
	SessionDate   Nullable[time.Time] `json:"session_date"`
	Summary       Nullable[string]    `json:"summary"`
}
