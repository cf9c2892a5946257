package models

// Item belongs to one Campaign
type Item struct {
	ID          string  `json:"item_id"`
	CampaignID  string  `json:"campaign_id,omitempty"`
	Name        string  `json:"name"`
	ItemType    string  `json:"item_type,omitempty"`
	Rarity      string  `json:"rarity,omitempty"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Audit
}

type CreateItemParams struct {
	CampaignID  string  `json:"campaign_id"`
	Name        string  `json:"name"`
	ItemType    string  `json:"item_type,omitempty"`
	Rarity      string  `json:"rarity,omitempty"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

type UpdateItemParams struct {
	CampaignID  Nullable[string]  `json:"campaign_id"`
	Name        Nullable[string]  `json:"name"`
	ItemType    Nullable[string]  `json:"item_type"`
	Rarity      Nullable[string]  `json:"rarity"`
	Value       Nullable[float64] `json:"value"`
	Weight      Nullable[float64] `json:"weight"`
	Description Nullable[string]  `json:"description"`
	ImageURL    Nullable[string]  `json:"image_url"`
}

// CharacterItem is the join entity for an item held by a character
type CharacterItem struct {
	ID          string `json:"character_item_id"`
	CharacterID string `json:"character_id"`
	ItemID      string `json:"item_id"`
	ItemName    string `json:"item_name,omitempty"`
	Quantity    int64  `json:"quantity"`
	Equipped    bool   `json:"equipped"`
	Notes       string `json:"notes,omitempty"`
	Audit
}

type AddCharacterItemParams struct {
	CharacterID string `json:"character_id"`
	ItemID      string `json:"item_id"`
	Quantity    int64  `json:"quantity"`
	Equipped    bool   `json:"equipped"`
	Notes       string `json:"notes,omitempty"`
}

type UpdateCharacterItemParams struct {
	Quantity Nullable[int64]  `json:"quantity"`
	Equipped Nullable[bool]   `json:"equipped"`
	Notes    Nullable[string] `json:"notes"`
}

// LocationItem is the join entity for an item placed in a location
type LocationItem struct {
	ID         string `json:"location_item_id"`
	LocationID string `json:"location_id"`
	ItemID     string `json:"item_id"`
	ItemName   string `json:"item_name,omitempty"`
	Quantity   int64  `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
	Audit
}

type AddLocationItemParams struct {
	LocationID string `json:"location_id"`
	ItemID     string `json:"item_id"`
	Quantity   int64  `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

type UpdateLocationItemParams struct {
	Quantity Nullable[int64]  `json:"quantity"`
	Notes    Nullable[string] `json:"notes"`
}
