package repository

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"loremaster/backend/internal/constants"
	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// AudioRecordingRepository owns AudioRecording metadata nodes. Audio files
// themselves are stored elsewhere; only their path is kept here.
type AudioRecordingRepository struct {
	base
	session edge
}

func NewAudioRecordingRepository(exec graph.Executor) *AudioRecordingRepository {
	return &AudioRecordingRepository{
		base:    newBase(exec, constants.LabelAudioRecording, "recording"),
		session: edge{constants.LabelAudioRecording, "recording_id", constants.RelRecordedIn, constants.LabelSession, "session_id"},
	}
}

var recordingSorts = newSortFields("recording_id", "created_at", map[string]string{
	"name":                 "n.name",
	"file_name":            "n.file_name",
	"file_size":            "n.file_size",
	"duration_seconds":     "n.duration_seconds",
	"transcription_status": "n.transcription_status",
	"created_at":           "n.created_at",
	"updated_at":           "n.updated_at",
})

const recordingProjection = `RETURN n {.*} AS recording,
	head([(n)-[:RECORDED_IN]->(s:Session) | s.session_id]) AS session_id,
	head([(t:Transcription)-[:TRANSCRIBES]->(n) | t.transcription_id]) AS transcription_id`

func decodeRecording(record *neo4j.Record) models.AudioRecording {
	props := graph.PropsFromRecord(record, "recording")
	a := models.AudioRecording{
		ID:                  graph.PropString(props, "recording_id"),
		SessionID:           graph.StringFromRecord(record, "session_id"),
		TranscriptionID:     graph.StringPtrFromRecord(record, "transcription_id"),
		Name:                graph.PropString(props, "name"),
		FileName:            graph.PropString(props, "file_name"),
		FilePath:            graph.PropString(props, "file_path"),
		MimeType:            graph.PropString(props, "mime_type"),
		FileSize:            graph.PropInt64(props, "file_size"),
		DurationSeconds:     graph.PropFloat64(props, "duration_seconds"),
		TranscriptionStatus: models.TranscriptionStatus(graph.PropString(props, "transcription_status")),
	}
	a.CreatedAt, a.CreatedBy, a.UpdatedAt = auditFrom(props)
	return a
}

// Create registers a recording for a session; transcription has not started
func (r *AudioRecordingRepository) Create(ctx context.Context, params models.CreateAudioRecordingParams, actorID string) (*models.AudioRecording, error) {
	if params.SessionID == "" {
		return nil, apperrors.NewValidation("session_id", "is required")
	}
	if params.FileName == "" {
		return nil, apperrors.NewValidation("file_name", "is required")
	}

	id := r.newID()
	props := r.newProps("recording_id", id, actorID)
	props["name"] = params.Name
	props["file_name"] = params.FileName
	props["file_path"] = params.FilePath
	props["mime_type"] = params.MimeType
	props["file_size"] = params.FileSize
	props["duration_seconds"] = params.DurationSeconds
	props["transcription_status"] = string(models.TranscriptionNotStarted)

	err := r.write(ctx, "recording.create", func(tx graph.Tx) error {
		return r.createChild(ctx, tx, constants.LabelAudioRecording, props, constants.RelRecordedIn, constants.LabelSession, params.SessionID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Audio recording registered",
		zap.String("recording_id", id),
		zap.String("session_id", params.SessionID),
		zap.String("file_name", params.FileName),
	)
	return reload(ctx, r.FindByID, constants.LabelAudioRecording, id)
}

func (r *AudioRecordingRepository) FindByID(ctx context.Context, id string) (*models.AudioRecording, error) {
	var recording *models.AudioRecording
	err := r.read(ctx, "recording.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, "MATCH (n:AudioRecording {recording_id: $id})\n"+recordingProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		a := decodeRecording(record)
		recording = &a
		return nil
	})
	return recording, err
}

func (r *AudioRecordingRepository) FindAll(ctx context.Context, filter models.AudioRecordingFilter) (*models.Page[models.AudioRecording], error) {
	if filter.TranscriptionStatus != "" && !filter.TranscriptionStatus.Valid() {
		return nil, apperrors.NewValidation("transcription_status", "unknown status "+string(filter.TranscriptionStatus))
	}
	spec, err := resolvePage(filter.ListOptions, recordingSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelAudioRecording).
		related(constants.RelRecordedIn, constants.LabelSession, "session_id", filter.SessionID).
		eq("transcription_status", string(filter.TranscriptionStatus)).
		search(filter.Search, "name", "file_name")
	return listPage(ctx, &r.base, "recording.list", q, spec, recordingProjection, decodeRecording)
}

func (r *AudioRecordingRepository) Update(ctx context.Context, id string, params models.UpdateAudioRecordingParams) (*models.AudioRecording, error) {
	if params.TranscriptionStatus.Set && !params.TranscriptionStatus.Value.Valid() {
		return nil, apperrors.NewValidation("transcription_status", "unknown status "+string(params.TranscriptionStatus.Value))
	}

	ps := propertySet{}
	setField(ps, "name", params.Name)
	setField(ps, "file_name", params.FileName)
	setField(ps, "file_path", params.FilePath)
	setField(ps, "mime_type", params.MimeType)
	setField(ps, "duration_seconds", params.DurationSeconds)
	setString(ps, "transcription_status", params.TranscriptionStatus)

	err := r.write(ctx, "recording.update", func(tx graph.Tx) error {
		if err := r.updateProps(ctx, tx, constants.LabelAudioRecording, "recording_id", id, ps); err != nil {
			return err
		}
		return r.session.replace(ctx, tx, id, params.SessionID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelAudioRecording, id)
}

// UpdateTranscriptionStatus moves a recording to another transcription state
func (r *AudioRecordingRepository) UpdateTranscriptionStatus(ctx context.Context, id string, status models.TranscriptionStatus) (*models.AudioRecording, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidation("transcription_status", "unknown status "+string(status))
	}

	err := r.write(ctx, "recording.status", func(tx graph.Tx) error {
		return r.updateProps(ctx, tx, constants.LabelAudioRecording, "recording_id", id, propertySet{
			"transcription_status": string(status),
		})
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Transcription status changed",
		zap.String("recording_id", id),
		zap.String("status", string(status)),
	)
	return reload(ctx, r.FindByID, constants.LabelAudioRecording, id)
}

// Delete removes the recording together with its transcription
func (r *AudioRecordingRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "recording.delete", constants.LabelAudioRecording, "recording_id", id, func(tx graph.Tx) error {
		return deleteTranscriptionTree(ctx, tx,
			"MATCH (t:Transcription)-[:TRANSCRIBES]->(:AudioRecording {recording_id: $id})",
			map[string]any{"id": id})
	})
}
