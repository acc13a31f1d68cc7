package db

import (
	"database/sql"
	"errors"
	"time"

	"podlearn/internal/models"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// GetOrCreateEpisodeByOriginalID resolves an external episode id to a local
// row, inserting a stub row on first access. The insert is idempotent; when a
// concurrent request wins the race the row is re-fetched instead of failing.
func GetOrCreateEpisodeByOriginalID(originalID string) (models.Episode, error) {
	episode := models.Episode{}
	err := DB.Get(&episode, `
		INSERT INTO episodes (original_id, transcription_status)
		VALUES ($1, $2)
		ON CONFLICT (original_id) DO NOTHING
		RETURNING *`,
		originalID, StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		err = DB.Get(&episode, "SELECT * FROM episodes WHERE original_id = $1", originalID)
	}
	return episode, err
}

func GetEpisodeByID(id int64) (models.Episode, error) {
	episode := models.Episode{}
	err := DB.Get(&episode, "SELECT * FROM episodes WHERE id = $1", id)
	return episode, err
}

func GetEpisodeByOriginalID(originalID string) (models.Episode, error) {
	episode := models.Episode{}
	err := DB.Get(&episode, "SELECT * FROM episodes WHERE original_id = $1", originalID)
	return episode, err
}

func GetEpisodeByTranscriptID(transcriptID string) (models.Episode, error) {
	episode := models.Episode{}
	err := DB.Get(&episode, "SELECT * FROM episodes WHERE assemblyai_transcript_id = $1", transcriptID)
	return episode, err
}

// MarkEpisodeProcessing records a successful job submission: provider job id,
// episode metadata and the processing window bounds, in one statement.
func MarkEpisodeProcessing(id int64, transcriptID, title string, podcastID *int64, audioURL, languageCode string, startedAt, timeoutAt time.Time) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET transcription_status = $1, assemblyai_transcript_id = $2, title = $3,
		    podcast_id = $4, audio_url = $5, language_code = $6,
		    transcription_started_at = $7, transcription_timeout_at = $8,
		    transcription_error = NULL
		WHERE id = $9`,
		StatusProcessing, transcriptID, title, podcastID, audioURL, languageCode, startedAt, timeoutAt, id)
	return err
}

func MarkEpisodeCompleted(id int64) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET transcription_status = $1, transcription_error = NULL
		WHERE id = $2`,
		StatusCompleted, id)
	return err
}

func MarkEpisodeFailed(id int64, message string) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET transcription_status = $1, transcription_error = $2
		WHERE id = $3`,
		StatusFailed, message, id)
	return err
}

// ResetEpisodeTranscription clears the previous attempt so a restart begins
// from a clean pending row. Segments are removed separately.
func ResetEpisodeTranscription(id int64) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET transcription_status = $1, transcription_error = NULL,
		    assemblyai_transcript_id = NULL,
		    transcription_started_at = NULL, transcription_timeout_at = NULL
		WHERE id = $2`,
		StatusPending, id)
	return err
}

// ListProcessingEpisodes returns every episode still inside (or past) its
// processing window, for the periodic reconciliation sweep.
func ListProcessingEpisodes() ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, "SELECT * FROM episodes WHERE transcription_status = $1", StatusProcessing)
	return episodes, err
}

// ListCompletedEpisodesForUser returns the completed episodes a user has a
// usage record for, newest first. Used by the per-user feed.
func ListCompletedEpisodesForUser(userID int64) ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, `
		SELECT e.* FROM episodes e
		JOIN episode_usage u ON u.episode_id = e.id
		WHERE u.user_id = $1 AND e.transcription_status = $2
		ORDER BY u.created_at DESC`,
		userID, StatusCompleted)
	return episodes, err
}
