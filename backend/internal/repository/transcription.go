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

// TranscriptionRepository owns Transcription nodes with their segments and
// speakers. A recording has at most one transcription.
type TranscriptionRepository struct {
	base
	spokenBy   edge
	represents edge
}

func NewTranscriptionRepository(exec graph.Executor) *TranscriptionRepository {
	return &TranscriptionRepository{
		base:       newBase(exec, constants.LabelTranscription, "transcription"),
		spokenBy:   edge{constants.LabelTranscriptionSegment, "segment_id", constants.RelSpokenBy, constants.LabelSpeaker, "speaker_id"},
		represents: edge{constants.LabelSpeaker, "speaker_id", constants.RelRepresents, constants.LabelCharacter, "character_id"},
	}
}

// transcriptionOwned deletes the segments and speakers of the transcription bound to t
const transcriptionOwned = `
	OPTIONAL MATCH (seg:TranscriptionSegment)-[:PART_OF]->(t)
	OPTIONAL MATCH (sp:Speaker)-[:IDENTIFIED_IN]->(t)
	WITH t, collect(DISTINCT seg) + collect(DISTINCT sp) AS owned
	FOREACH (o IN owned | DETACH DELETE o)`

// deleteTranscriptionTree deletes the transcription matched as t along with
// everything it owns. Analyses based on it lose their BASED_ON edge.
func deleteTranscriptionTree(ctx context.Context, tx graph.Tx, match string, params map[string]any) error {
	_, err := tx.Run(ctx, match+transcriptionOwned+"\n\tDETACH DELETE t", params)
	return err
}

var transcriptionSorts = newSortFields("transcription_id", "created_at", map[string]string{
	"language_code":    "n.language_code",
	"confidence_score": "n.confidence_score",
	"created_at":       "n.created_at",
	"updated_at":       "n.updated_at",
})

const transcriptionProjection = `RETURN n {.*} AS transcription,
	head([(n)-[:TRANSCRIBES]->(a:AudioRecording) | a.recording_id]) AS recording_id,
	size([(s:TranscriptionSegment)-[:PART_OF]->(n) | s]) AS segment_count`

func decodeTranscription(record *neo4j.Record) models.Transcription {
	props := graph.PropsFromRecord(record, "transcription")
	t := models.Transcription{
		ID:              graph.PropString(props, "transcription_id"),
		RecordingID:     graph.StringFromRecord(record, "recording_id"),
		FullText:        graph.PropString(props, "full_text"),
		LanguageCode:    graph.PropString(props, "language_code"),
		ConfidenceScore: graph.PropFloat64(props, "confidence_score"),
		Metadata:        graph.PropJSON(props, "metadata"),
		SegmentCount:    graph.Int64FromRecord(record, "segment_count"),
	}
	t.CreatedAt, t.CreatedBy, t.UpdatedAt = auditFrom(props)
	return t
}

// Create transcribes a recording, storing any initial segments in the same
// transaction. A second transcription for the same recording is a Conflict.
func (r *TranscriptionRepository) Create(ctx context.Context, params models.CreateTranscriptionParams, actorID string) (*models.Transcription, error) {
	if params.RecordingID == "" {
		return nil, apperrors.NewValidation("recording_id", "is required")
	}
	if err := validateSegments(params.Segments); err != nil {
		return nil, err
	}
	metadata, err := graph.EncodeJSON(params.Metadata)
	if err != nil {
		return nil, apperrors.NewValidation("metadata", err.Error())
	}

	id := r.newID()
	props := r.newProps("transcription_id", id, actorID)
	props["full_text"] = params.FullText
	props["language_code"] = params.LanguageCode
	props["confidence_score"] = params.ConfidenceScore
	props["metadata"] = metadata

	err = r.write(ctx, "transcription.create", func(tx graph.Tx) error {
		existing, err := count(ctx, tx, `
			MATCH (:Transcription)-[:TRANSCRIBES]->(:AudioRecording {recording_id: $id})
			RETURN count(*) AS total
		`, map[string]any{"id": params.RecordingID})
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.NewConflict(constants.LabelAudioRecording, params.RecordingID, "recording already has a transcription")
		}
		if err := r.createChild(ctx, tx, constants.LabelTranscription, props, constants.RelTranscribes, constants.LabelAudioRecording, params.RecordingID); err != nil {
			return err
		}
		_, err = r.insertSegments(ctx, tx, id, 0, params.Segments)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Transcription created",
		zap.String("transcription_id", id),
		zap.String("recording_id", params.RecordingID),
		zap.Int("segments", len(params.Segments)),
	)
	return reload(ctx, r.FindByID, constants.LabelTranscription, id)
}

func (r *TranscriptionRepository) FindByID(ctx context.Context, id string) (*models.Transcription, error) {
	return r.findOne(ctx, "transcription.find", "MATCH (n:Transcription {transcription_id: $id})", id)
}

// FindByRecording returns the transcription of a recording, nil when it has none
func (r *TranscriptionRepository) FindByRecording(ctx context.Context, recordingID string) (*models.Transcription, error) {
	return r.findOne(ctx, "transcription.find_by_recording",
		"MATCH (n:Transcription)-[:TRANSCRIBES]->(:AudioRecording {recording_id: $id})", recordingID)
}

func (r *TranscriptionRepository) findOne(ctx context.Context, op, match, id string) (*models.Transcription, error) {
	var transcription *models.Transcription
	err := r.read(ctx, op, func(tx graph.Tx) error {
		record, err := single(ctx, tx, match+"\n"+transcriptionProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		t := decodeTranscription(record)
		transcription = &t
		return nil
	})
	return transcription, err
}

func (r *TranscriptionRepository) FindAll(ctx context.Context, filter models.TranscriptionFilter) (*models.Page[models.Transcription], error) {
	spec, err := resolvePage(filter.ListOptions, transcriptionSorts, r.paging)
	if err != nil {
		return nil, err
	}
	q := newListQuery(constants.LabelTranscription).
		related(constants.RelTranscribes, constants.LabelAudioRecording, "recording_id", filter.RecordingID).
		eq("language_code", filter.LanguageCode).
		search(filter.Search, "full_text")
	return listPage(ctx, &r.base, "transcription.list", q, spec, transcriptionProjection, decodeTranscription)
}

func (r *TranscriptionRepository) Update(ctx context.Context, id string, params models.UpdateTranscriptionParams) (*models.Transcription, error) {
	ps := propertySet{}
	setField(ps, "full_text", params.FullText)
	setField(ps, "language_code", params.LanguageCode)
	setField(ps, "confidence_score", params.ConfidenceScore)
	if err := setJSON(ps, "metadata", params.Metadata); err != nil {
		return nil, apperrors.NewValidation("metadata", err.Error())
	}

	err := r.write(ctx, "transcription.update", func(tx graph.Tx) error {
		return r.updateProps(ctx, tx, constants.LabelTranscription, "transcription_id", id, ps)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.FindByID, constants.LabelTranscription, id)
}

// Delete removes the transcription with its segments and speakers
func (r *TranscriptionRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.deleteNode(ctx, "transcription.delete", constants.LabelTranscription, "transcription_id", id, func(tx graph.Tx) error {
		_, err := tx.Run(ctx, "MATCH (t:Transcription {transcription_id: $id})"+transcriptionOwned, map[string]any{"id": id})
		return err
	})
}

// Segments

const segmentProjection = `RETURN s {.*} AS segment,
	t.transcription_id AS transcription_id,
	head([(s)-[:SPOKEN_BY]->(sp:Speaker) | sp.speaker_id]) AS speaker_id`

func decodeSegment(record *neo4j.Record) models.TranscriptionSegment {
	props := graph.PropsFromRecord(record, "segment")
	return models.TranscriptionSegment{
		ID:              graph.PropString(props, "segment_id"),
		TranscriptionID: graph.StringFromRecord(record, "transcription_id"),
		SegmentIndex:    graph.PropInt64(props, "segment_index"),
		StartTime:       graph.PropFloat64(props, "start_time"),
		EndTime:         graph.PropFloat64(props, "end_time"),
		Text:            graph.PropString(props, "text"),
		Confidence:      graph.PropFloat64(props, "confidence"),
		SpeakerID:       graph.StringPtrFromRecord(record, "speaker_id"),
	}
}

func validateSegments(segments []models.CreateSegmentParams) error {
	for _, s := range segments {
		if s.StartTime < 0 || s.EndTime < s.StartTime {
			return apperrors.NewValidation("segments", "end_time must not precede start_time")
		}
	}
	return nil
}

// insertSegments appends segments to a transcription, numbering them from
// firstIndex, and returns their ids
func (r *TranscriptionRepository) insertSegments(ctx context.Context, tx graph.Tx, transcriptionID string, firstIndex int64, segments []models.CreateSegmentParams) ([]string, error) {
	ids := make([]string, 0, len(segments))
	for i, s := range segments {
		id := r.newID()
		_, err := tx.Run(ctx, `
			MATCH (t:Transcription {transcription_id: $transcription_id})
			CREATE (s:TranscriptionSegment $props)-[:PART_OF]->(t)
		`, map[string]any{
			"transcription_id": transcriptionID,
			"props": map[string]any{
				"segment_id":    id,
				"segment_index": firstIndex + int64(i),
				"start_time":    s.StartTime,
				"end_time":      s.EndTime,
				"text":          s.Text,
				"confidence":    s.Confidence,
			},
		})
		if err != nil {
			return nil, err
		}
		if err := r.spokenBy.linkOptional(ctx, tx, id, s.SpeakerID); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AddSegments appends segments after the existing ones
func (r *TranscriptionRepository) AddSegments(ctx context.Context, transcriptionID string, segments []models.CreateSegmentParams) ([]models.TranscriptionSegment, error) {
	if err := validateSegments(segments); err != nil {
		return nil, err
	}

	err := r.write(ctx, "transcription.segments.add", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (t:Transcription {transcription_id: $id})
			OPTIONAL MATCH (s:TranscriptionSegment)-[:PART_OF]->(t)
			RETURN t.transcription_id AS id, coalesce(max(s.segment_index) + 1, 0) AS next_index
		`, map[string]any{"id": transcriptionID})
		if err != nil {
			return err
		}
		if record == nil {
			return apperrors.NewNotFound(constants.LabelTranscription, transcriptionID)
		}
		_, err = r.insertSegments(ctx, tx, transcriptionID, graph.Int64FromRecord(record, "next_index"), segments)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Segments added",
		zap.String("transcription_id", transcriptionID),
		zap.Int("count", len(segments)),
	)
	return r.ListSegments(ctx, transcriptionID)
}

// ListSegments returns the segments of a transcription ordered by start time
func (r *TranscriptionRepository) ListSegments(ctx context.Context, transcriptionID string) ([]models.TranscriptionSegment, error) {
	segments := []models.TranscriptionSegment{}
	err := r.read(ctx, "transcription.segments.list", func(tx graph.Tx) error {
		segments = segments[:0]
		records, err := tx.Run(ctx, `
			MATCH (s:TranscriptionSegment)-[:PART_OF]->(t:Transcription {transcription_id: $id})
			`+segmentProjection+`
			ORDER BY s.start_time ASC, s.segment_index ASC
		`, map[string]any{"id": transcriptionID})
		if err != nil {
			return err
		}
		for _, record := range records {
			segments = append(segments, decodeSegment(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (r *TranscriptionRepository) findSegment(ctx context.Context, id string) (*models.TranscriptionSegment, error) {
	var segment *models.TranscriptionSegment
	err := r.read(ctx, "transcription.segments.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (s:TranscriptionSegment {segment_id: $id})-[:PART_OF]->(t:Transcription)
			`+segmentProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		s := decodeSegment(record)
		segment = &s
		return nil
	})
	return segment, err
}

// UpdateSegment patches a segment; speaker_id reassigns or clears its speaker
func (r *TranscriptionRepository) UpdateSegment(ctx context.Context, segmentID string, params models.UpdateSegmentParams) (*models.TranscriptionSegment, error) {
	ps := propertySet{}
	setField(ps, "text", params.Text)
	setField(ps, "start_time", params.StartTime)
	setField(ps, "end_time", params.EndTime)
	setField(ps, "confidence", params.Confidence)

	if params.StartTime.IsNull() || params.EndTime.IsNull() {
		return nil, apperrors.NewValidation("segment", "start_time and end_time are required")
	}

	err := r.write(ctx, "transcription.segments.update", func(tx graph.Tx) error {
		if params.StartTime.Set || params.EndTime.Set {
			if err := checkSegmentTimes(ctx, tx, segmentID, params); err != nil {
				return err
			}
		}
		if err := r.updateProps(ctx, tx, constants.LabelTranscriptionSegment, "segment_id", segmentID, ps); err != nil {
			return err
		}
		return r.spokenBy.replace(ctx, tx, segmentID, params.SpeakerID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.findSegment, constants.LabelTranscriptionSegment, segmentID)
}

// checkSegmentTimes merges a time patch over the stored segment times and
// rejects the result when it runs backwards
func checkSegmentTimes(ctx context.Context, tx graph.Tx, segmentID string, params models.UpdateSegmentParams) error {
	record, err := single(ctx, tx, `
		MATCH (s:TranscriptionSegment {segment_id: $id})
		RETURN s {.start_time, .end_time} AS times
	`, map[string]any{"id": segmentID})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewNotFound(constants.LabelTranscriptionSegment, segmentID)
	}
	times := graph.PropsFromRecord(record, "times")
	start, end := graph.PropFloat64(times, "start_time"), graph.PropFloat64(times, "end_time")
	if params.StartTime.Set {
		start = params.StartTime.Value
	}
	if params.EndTime.Set {
		end = params.EndTime.Value
	}
	if start < 0 || end < start {
		return apperrors.NewValidation("segment", "end_time must not precede start_time")
	}
	return nil
}

func (r *TranscriptionRepository) DeleteSegment(ctx context.Context, segmentID string) (bool, error) {
	return r.deleteByID(ctx, "transcription.segments.delete", constants.LabelTranscriptionSegment, segmentID)
}

// Speakers

const speakerProjection = `RETURN sp {.*} AS speaker,
	t.transcription_id AS transcription_id,
	head([(sp)-[:REPRESENTS]->(c:Character) | c.character_id]) AS character_id,
	head([(sp)-[:IS_USER]->(u:User) | u.user_id]) AS user_id`

func decodeSpeaker(record *neo4j.Record) models.Speaker {
	props := graph.PropsFromRecord(record, "speaker")
	return models.Speaker{
		ID:              graph.PropString(props, "speaker_id"),
		TranscriptionID: graph.StringFromRecord(record, "transcription_id"),
		Label:           graph.PropString(props, "label"),
		CharacterID:     graph.StringPtrFromRecord(record, "character_id"),
		UserID:          graph.StringPtrFromRecord(record, "user_id"),
	}
}

// CreateSpeaker identifies a speaker in a transcription
func (r *TranscriptionRepository) CreateSpeaker(ctx context.Context, params models.CreateSpeakerParams, actorID string) (*models.Speaker, error) {
	if params.Label == "" {
		return nil, apperrors.NewValidation("label", "is required")
	}

	id := r.newID()
	props := r.newProps("speaker_id", id, actorID)
	props["label"] = params.Label

	err := r.write(ctx, "transcription.speakers.create", func(tx graph.Tx) error {
		if err := r.createChild(ctx, tx, constants.LabelSpeaker, props, constants.RelIdentifiedIn, constants.LabelTranscription, params.TranscriptionID); err != nil {
			return err
		}
		if err := r.represents.linkOptional(ctx, tx, id, params.CharacterID); err != nil {
			return err
		}
		if params.UserID != nil && *params.UserID != "" {
			return linkUser(ctx, tx, id, *params.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Speaker identified",
		zap.String("speaker_id", id),
		zap.String("transcription_id", params.TranscriptionID),
	)
	return reload(ctx, r.findSpeaker, constants.LabelSpeaker, id)
}

func (r *TranscriptionRepository) findSpeaker(ctx context.Context, id string) (*models.Speaker, error) {
	var speaker *models.Speaker
	err := r.read(ctx, "transcription.speakers.find", func(tx graph.Tx) error {
		record, err := single(ctx, tx, `
			MATCH (sp:Speaker {speaker_id: $id})-[:IDENTIFIED_IN]->(t:Transcription)
			`+speakerProjection, map[string]any{"id": id})
		if err != nil || record == nil {
			return err
		}
		s := decodeSpeaker(record)
		speaker = &s
		return nil
	})
	return speaker, err
}

// ListSpeakers returns the speakers identified in a transcription ordered by label
func (r *TranscriptionRepository) ListSpeakers(ctx context.Context, transcriptionID string) ([]models.Speaker, error) {
	speakers := []models.Speaker{}
	err := r.read(ctx, "transcription.speakers.list", func(tx graph.Tx) error {
		speakers = speakers[:0]
		records, err := tx.Run(ctx, `
			MATCH (sp:Speaker)-[:IDENTIFIED_IN]->(t:Transcription {transcription_id: $id})
			`+speakerProjection+`
			ORDER BY sp.label ASC, sp.speaker_id ASC
		`, map[string]any{"id": transcriptionID})
		if err != nil {
			return err
		}
		for _, record := range records {
			speakers = append(speakers, decodeSpeaker(record))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return speakers, nil
}

// LinkSpeakerToCharacter records which character a speaker voices,
// replacing any earlier link
func (r *TranscriptionRepository) LinkSpeakerToCharacter(ctx context.Context, speakerID, characterID string) (*models.Speaker, error) {
	err := r.write(ctx, "transcription.speakers.link_character", func(tx graph.Tx) error {
		if err := mustExist(ctx, tx, constants.LabelSpeaker, speakerID); err != nil {
			return err
		}
		return r.represents.replace(ctx, tx, speakerID, models.Value(characterID))
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.findSpeaker, constants.LabelSpeaker, speakerID)
}

// LinkSpeakerToUser records which user a speaker is. Users are identities
// owned elsewhere, so the User node is merged on first reference.
func (r *TranscriptionRepository) LinkSpeakerToUser(ctx context.Context, speakerID, userID string) (*models.Speaker, error) {
	if userID == "" {
		return nil, apperrors.NewValidation("user_id", "is required")
	}
	err := r.write(ctx, "transcription.speakers.link_user", func(tx graph.Tx) error {
		if err := mustExist(ctx, tx, constants.LabelSpeaker, speakerID); err != nil {
			return err
		}
		if _, err := tx.Run(ctx, `
			MATCH (sp:Speaker {speaker_id: $speaker_id})-[r:IS_USER]->(:User)
			DELETE r
		`, map[string]any{"speaker_id": speakerID}); err != nil {
			return err
		}
		return linkUser(ctx, tx, speakerID, userID)
	})
	if err != nil {
		return nil, err
	}
	return reload(ctx, r.findSpeaker, constants.LabelSpeaker, speakerID)
}

func linkUser(ctx context.Context, tx graph.Tx, speakerID, userID string) error {
	_, err := tx.Run(ctx, `
		MATCH (sp:Speaker {speaker_id: $speaker_id})
		MERGE (u:User {user_id: $user_id})
		CREATE (sp)-[:IS_USER]->(u)
	`, map[string]any{"speaker_id": speakerID, "user_id": userID})
	return err
}
