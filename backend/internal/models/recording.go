package models

// TranscriptionStatus tracks an audio recording through transcription
type TranscriptionStatus string

const (
	TranscriptionNotStarted TranscriptionStatus = "not_started"
	TranscriptionInProgress TranscriptionStatus = "in_progress"
	TranscriptionCompleted  TranscriptionStatus = "completed"
	TranscriptionFailed     TranscriptionStatus = "failed"
)

// Valid reports whether s is a known status
func (s TranscriptionStatus) Valid() bool {
	switch s {
	case TranscriptionNotStarted, TranscriptionInProgress, TranscriptionCompleted, TranscriptionFailed:
		return true
	}
	return false
}

// AudioRecording belongs to one Session; file storage itself lives elsewhere
type AudioRecording struct {
	ID                  string              `json:"recording_id"`
	SessionID           string              `json:"session_id,omitempty"`
	TranscriptionID     *string             `json:"transcription_id,omitempty"`
	Name                string              `json:"name"`
	FileName            string              `json:"file_name"`
	FilePath            string              `json:"file_path,omitempty"`
	MimeType            string              `json:"mime_type,omitempty"`
	FileSize            int64               `json:"file_size"`
	DurationSeconds     float64             `json:"duration_seconds"`
	TranscriptionStatus TranscriptionStatus `json:"transcription_status"`
	Audit
}

type CreateAudioRecordingParams struct {
	SessionID       string  `json:"session_id"`
	Name            string  `json:"name"`
	FileName        string  `json:"file_name"`
	FilePath        string  `json:"file_path,omitempty"`
	MimeType        string  `json:"mime_type,omitempty"`
	FileSize        int64   `json:"file_size"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type UpdateAudioRecordingParams struct {
	SessionID           Nullable[string]              `json:"session_id"`
	Name                Nullable[string]              `json:"name"`
	FileName            Nullable[string]              `json:"file_name"`
	FilePath            Nullable[string]              `json:"file_path"`
	MimeType            Nullable[string]              `json:"mime_type"`
	DurationSeconds     Nullable[float64]             `json:"duration_seconds"`
	TranscriptionStatus Nullable[TranscriptionStatus] `json:"transcription_status"`
}
