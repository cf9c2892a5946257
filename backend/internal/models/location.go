package models

// Location belongs to one Campaign and may sit inside one parent Location
type Location struct {
	ID               string  `json:"location_id"`
	CampaignID       string  `json:"campaign_id,omitempty"`
	ParentLocationID *string `json:"parent_location_id,omitempty"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	LocationType     string  `json:"location_type,omitempty"`
	ImageURL         string  `json:"image_url,omitempty"`
	Audit
}

type CreateLocationParams struct {
	CampaignID       string  `json:"campaign_id"`
	ParentLocationID *string `json:"parent_location_id,omitempty"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	LocationType     string  `json:"location_type,omitempty"`
	ImageURL         string  `json:"image_url,omitempty"`
}

type UpdateLocationParams struct {
	CampaignID       Nullable[string] `json:"campaign_id"`
	ParentLocationID Nullable[string] `json:"parent_location_id"`
	Name             Nullable[string] `json:"name"`
	Description      Nullable[string] `json:"description"`
	LocationType     Nullable[string] `json:"location_type"`
	ImageURL         Nullable[string] `json:"image_url"`
}
