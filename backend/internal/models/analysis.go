package models

// AnalysisStatus tracks a session analysis
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Valid reports whether s is a known status
func (s AnalysisStatus) Valid() bool {
	switch s {
	case AnalysisPending, AnalysisProcessing, AnalysisCompleted, AnalysisFailed:
		return true
	}
	return false
}

// SessionAnalysis is an aggregate: the analysis node plus four child
// collections it owns exclusively.
type SessionAnalysis struct {
	ID                string             `json:"analysis_id"`
	SessionID         string             `json:"session_id,omitempty"`
	TranscriptionID   *string            `json:"transcription_id,omitempty"`
	Status            AnalysisStatus     `json:"status"`
	Summary           string             `json:"summary,omitempty"`
	KeyPoints         []KeyPoint         `json:"key_points"`
	CharacterInsights []CharacterInsight `json:"character_insights"`
	PlotDevelopments  []PlotDevelopment  `json:"plot_developments"`
	Topics            []Topic            `json:"topics"`
	Audit
}

type KeyPoint struct {
	ID           string  `json:"key_point_id,omitempty"`
	Text         string  `json:"text"`
	Importance   float64 `json:"importance"`
	SegmentStart float64 `json:"segment_start,omitempty"`
}

type CharacterInsight struct {
	ID            string                 `json:"insight_id,omitempty"`
	CharacterID   *string                `json:"character_id,omitempty"`
	CharacterName string                 `json:"character_name"`
	Insight       string                 `json:"insight"`
	Sentiment     string                 `json:"sentiment,omitempty"`
	Relevance     float64                `json:"relevance"`
	Interactions  []CharacterInteraction `json:"interactions,omitempty"`
}

type CharacterInteraction struct {
	ID                string `json:"interaction_id,omitempty"`
	WithCharacterName string `json:"with_character_name"`
	InteractionType   string `json:"interaction_type,omitempty"`
	Description       string `json:"description,omitempty"`
}

type PlotDevelopment struct {
	ID              string          `json:"plot_development_id,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Significance    float64         `json:"significance"`
	RelatedEntities []RelatedEntity `json:"related_entities,omitempty"`
}

type RelatedEntity struct {
	ID         string `json:"related_entity_id,omitempty"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`
	Name       string `json:"name"`
}

type Topic struct {
	ID        string   `json:"topic_id,omitempty"`
	Name      string   `json:"name"`
	Relevance float64  `json:"relevance"`
	Keywords  []string `json:"keywords,omitempty"`
}

type CreateSessionAnalysisParams struct {
	SessionID         string             `json:"session_id"`
	TranscriptionID   *string            `json:"transcription_id,omitempty"`
	Status            AnalysisStatus     `json:"status,omitempty"`
	Summary           string             `json:"summary,omitempty"`
	KeyPoints         []KeyPoint         `json:"key_points,omitempty"`
	CharacterInsights []CharacterInsight `json:"character_insights,omitempty"`
	PlotDevelopments  []PlotDevelopment  `json:"plot_developments,omitempty"`
	Topics            []Topic            `json:"topics,omitempty"`
}

// UpdateSessionAnalysisParams replaces each collection that is present;
// absent collections are left untouched.
type UpdateSessionAnalysisParams struct {
	Status            Nullable[AnalysisStatus]     `json:"status"`
	Summary           Nullable[string]             `json:"summary"`
	KeyPoints         Nullable[[]KeyPoint]         `json:"key_points"`
	CharacterInsights Nullable[[]CharacterInsight] `json:"character_insights"`
	PlotDevelopments  Nullable[[]PlotDevelopment]  `json:"plot_developments"`
	Topics            Nullable[[]Topic]            `json:"topics"`
}
