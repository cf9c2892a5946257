package models

// Transcription transcribes exactly one AudioRecording
type Transcription struct {
	ID              string         `json:"transcription_id"`
	RecordingID     string         `json:"recording_id,omitempty"`
	FullText        string         `json:"full_text"`
	LanguageCode    string         `json:"language_code,omitempty"`
	ConfidenceScore float64        `json:"confidence_score"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	SegmentCount    int64          `json:"segment_count"`
	Audit
}

type CreateTranscriptionParams struct {
	RecordingID     string                `json:"recording_id"`
	FullText        string                `json:"full_text"`
	LanguageCode    string                `json:"language_code,omitempty"`
	ConfidenceScore float64               `json:"confidence_score"`
	Metadata        map[string]any        `json:"metadata,omitempty"`
	Segments        []CreateSegmentParams `json:"segments,omitempty"`
}

type UpdateTranscriptionParams struct {
	FullText        Nullable[string]         `json:"full_text"`
	LanguageCode    Nullable[string]         `json:"language_code"`
	ConfidenceScore Nullable[float64]        `json:"confidence_score"`
	Metadata        Nullable[map[string]any] `json:"metadata"`
}

// TranscriptionSegment is one timed slice of a transcription
type TranscriptionSegment struct {
	ID              string  `json:"segment_id"`
	TranscriptionID string  `json:"transcription_id,omitempty"`
	SegmentIndex    int64   `json:"segment_index"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	Text            string  `json:"text"`
	Confidence      float64 `json:"confidence"`
	SpeakerID       *string `json:"speaker_id,omitempty"`
}

type CreateSegmentParams struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	SpeakerID  *string `json:"speaker_id,omitempty"`
}

type UpdateSegmentParams struct {
	Text       Nullable[string]  `json:"text"`
	StartTime  Nullable[float64] `json:"start_time"`
	EndTime    Nullable[float64] `json:"end_time"`
	Confidence Nullable[float64] `json:"confidence"`
	SpeakerID  Nullable[string]  `json:"speaker_id"`
}

// Speaker is a voice identified in a transcription. It may represent a
// Character and may be a known User.
type Speaker struct {
	ID              string  `json:"speaker_id"`
	TranscriptionID string  `json:"transcription_id,omitempty"`
	Label           string  `json:"label"`
	CharacterID     *string `json:"character_id,omitempty"`
	UserID          *string `json:"user_id,omitempty"`
}

type CreateSpeakerParams struct {
	TranscriptionID string  `json:"transcription_id"`
	Label           string  `json:"label"`
	CharacterID     *string `json:"character_id,omitempty"`
	UserID          *string `json:"user_id,omitempty"`
}
