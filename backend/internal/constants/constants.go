package constants

// Node labels
const (
	LabelWorld                = "World"
	LabelCampaign             = "Campaign"
	LabelSession              = "Session"
	LabelCharacter            = "Character"
	LabelLocation             = "Location"
	LabelItem                 = "Item"
	LabelPower                = "Power"
	LabelEvent                = "Event"
	LabelAudioRecording       = "AudioRecording"
	LabelTranscription        = "Transcription"
	LabelTranscriptionSegment = "TranscriptionSegment"
	LabelSpeaker              = "Speaker"
	LabelUser                 = "User"
	LabelSessionAnalysis      = "SessionAnalysis"
	LabelKeyPoint             = "KeyPoint"
	LabelCharacterInsight     = "CharacterInsight"
	LabelCharacterInteraction = "CharacterInteraction"
	LabelPlotDevelopment      = "PlotDevelopment"
	LabelRelatedEntity        = "RelatedEntity"
	LabelTopic                = "Topic"
	LabelChangeProposal       = "ChangeProposal"
	LabelProposalComment      = "ProposalComment"
	LabelProposalBatch        = "ProposalBatch"
	LabelCharacterItem        = "CharacterItem"
	LabelLocationItem         = "LocationItem"
	LabelCharacterPower       = "CharacterPower"
	LabelEventCharacter       = "EventCharacter"
	LabelEventItem            = "EventItem"
)

// Relationship types
const (
	RelBelongsTo        = "BELONGS_TO"     // containment: child -> owning World/Campaign
	RelLocatedIn        = "LOCATED_IN"     // Location -> parent Location
	RelRelatesTo        = "RELATES_TO"     // Character -> Character
	RelHasItem          = "HAS_ITEM"       // Character -> CharacterItem
	RelContainsItem     = "CONTAINS_ITEM"  // Location -> LocationItem
	RelHasPower         = "HAS_POWER"      // Character -> CharacterPower
	RelInvolves         = "INVOLVES"       // Event -> EventCharacter / EventItem
	RelReferences       = "REFERENCES"     // join node -> Item / Power / Character
	RelOccurredIn       = "OCCURRED_IN"    // Event -> Session
	RelTookPlaceAt      = "TOOK_PLACE_AT"  // Event -> Location
	RelRecordedIn       = "RECORDED_IN"    // AudioRecording -> Session
	RelTranscribes      = "TRANSCRIBES"    // Transcription -> AudioRecording
	RelPartOf           = "PART_OF"        // owned child -> parent aggregate
	RelSpokenBy         = "SPOKEN_BY"      // TranscriptionSegment -> Speaker
	RelIdentifiedIn     = "IDENTIFIED_IN"  // Speaker -> Transcription
	RelRepresents       = "REPRESENTS"     // Speaker -> Character
	RelIsUser           = "IS_USER"        // Speaker -> User
	RelAnalyzes         = "ANALYZES"       // SessionAnalysis -> Session
	RelBasedOn          = "BASED_ON"       // SessionAnalysis -> Transcription
	RelProposesChangeTo = "PROPOSES_CHANGE_TO"
	RelHasContext       = "HAS_CONTEXT"    // ChangeProposal -> Campaign / Session
	RelCommentsOn       = "COMMENTS_ON"    // ProposalComment -> ChangeProposal
	RelInBatch          = "IN_BATCH"       // ChangeProposal -> ProposalBatch
)

// IDProperties maps each label to its primary identifier property
var IDProperties = map[string]string{
	LabelWorld:                "world_id",
	LabelCampaign:             "campaign_id",
	LabelSession:              "session_id",
	LabelCharacter:            "character_id",
	LabelLocation:             "location_id",
	LabelItem:                 "item_id",
	LabelPower:                "power_id",
	LabelEvent:                "event_id",
	LabelAudioRecording:       "recording_id",
	LabelTranscription:        "transcription_id",
	LabelTranscriptionSegment: "segment_id",
	LabelSpeaker:              "speaker_id",
	LabelUser:                 "user_id",
	LabelSessionAnalysis:      "analysis_id",
	LabelKeyPoint:             "key_point_id",
	LabelCharacterInsight:     "insight_id",
	LabelCharacterInteraction: "interaction_id",
	LabelPlotDevelopment:      "plot_development_id",
	LabelRelatedEntity:        "related_entity_id",
	LabelTopic:                "topic_id",
	LabelChangeProposal:       "proposal_id",
	LabelProposalComment:      "comment_id",
	LabelProposalBatch:        "batch_id",
	LabelCharacterItem:        "character_item_id",
	LabelLocationItem:         "location_item_id",
	LabelCharacterPower:       "character_power_id",
	LabelEventCharacter:       "event_character_id",
	LabelEventItem:            "event_item_id",
}

// VisualLabels are the entity kinds drawn by the graph views
var VisualLabels = []string{
	LabelWorld,
	LabelCampaign,
	LabelSession,
	LabelCharacter,
	LabelLocation,
	LabelItem,
	LabelEvent,
	LabelPower,
}

// VisualRelationships are the edge types the graph views may follow
var VisualRelationships = []string{
	RelBelongsTo,
	RelLocatedIn,
	RelRelatesTo,
	RelHasItem,
	RelContainsItem,
	RelHasPower,
	RelInvolves,
	RelReferences,
	RelOccurredIn,
	RelTookPlaceAt,
}

// Listing defaults
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Graph view defaults
const (
	DefaultGraphDepth  = 2
	MaxGraphDepth      = 5
	DefaultSampleLimit = 100
)

// SystemActor is recorded as created_by when no actor is supplied
const SystemActor = "system"
