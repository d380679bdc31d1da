package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// ImageMetadataRecord is the typed side-metadata payload for image chunks.
// Passed whole to InsertImageMetadata -- never positional ...interface{} --
// so a field-shape mismatch fails at compile time rather than silently
// dropping a field at a call site.
type ImageMetadataRecord struct {
	ChunkID  string
	Width    int
	Height   int
	EXIFJSON string
	GPSLat   sql.NullFloat64
	GPSLon   sql.NullFloat64
	TakenAt  sql.NullTime
}

// InsertImageMetadata persists one image side-metadata record.
func (s *Store) InsertImageMetadata(r ImageMetadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO image_metadata (chunk_id, width, height, exif_json, gps_lat, gps_lon, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ChunkID, r.Width, r.Height, r.EXIFJSON, r.GPSLat, r.GPSLon, r.TakenAt)
	if err != nil {
		return fmt.Errorf("insert image metadata: %w", err)
	}
	return nil
}

// AudioMetadataRecord is the typed side-metadata payload for audio chunks.
type AudioMetadataRecord struct {
	ChunkID            string
	DurationSeconds    float64
	SampleRate         int
	TranscriptChunkID  sql.NullString
}

// InsertAudioMetadata persists one audio side-metadata record.
func (s *Store) InsertAudioMetadata(r AudioMetadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO audio_metadata (chunk_id, duration_seconds, sample_rate, transcript_chunk_id)
		VALUES (?, ?, ?, ?)`,
		r.ChunkID, r.DurationSeconds, r.SampleRate, r.TranscriptChunkID)
	if err != nil {
		return fmt.Errorf("insert audio metadata: %w", err)
	}
	return nil
}

// FAEMetadataRecord is the typed side-metadata payload for a conversational
// AI export file.
type FAEMetadataRecord struct {
	FileID               string
	Provider             string
	ConversationID       string
	ExportFormatVersion  string
	ImportedAt           time.Time
}

// InsertFAEMetadata persists one FAE import side-metadata record.
func (s *Store) InsertFAEMetadata(r FAEMetadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO fae_metadata (file_id, provider, conversation_id, export_format_version)
		VALUES (?, ?, ?, ?)`,
		r.FileID, r.Provider, r.ConversationID, r.ExportFormatVersion)
	if err != nil {
		return fmt.Errorf("insert fae metadata: %w", err)
	}
	return nil
}
