package models

import "time"

type Episode struct {
	ID                     int64      `db:"id"`
	OriginalID             string     `db:"original_id"`
	PodcastID              *int64     `db:"podcast_id"`
	Title                  *string    `db:"title"`
	AudioURL               *string    `db:"audio_url"`
	LanguageCode           *string    `db:"language_code"`
	TranscriptionStatus    string     `db:"transcription_status"`
	TranscriptionError     *string    `db:"transcription_error"`
	AssemblyAITranscriptID *string    `db:"assemblyai_transcript_id"`
	TranscriptionStartedAt *time.Time `db:"transcription_started_at"`
	TranscriptionTimeoutAt *time.Time `db:"transcription_timeout_at"`
	CreatedAt              time.Time  `db:"created_at"`
}
