package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podlearn/internal/assemblyai"
	"podlearn/internal/db"
	"podlearn/internal/language"
)

// Start submits a transcription job for the episode. Access must already have
// been granted by the caller. An already-completed episode is a no-op; a
// failed or stale attempt is cleared first so the restart begins clean.
func (s *Service) Start(ctx context.Context, episodeID int64) error {
	episode, err := db.GetEpisodeByID(episodeID)
	if err != nil {
		return fmt.Errorf("failed to load episode %d: %w", episodeID, err)
	}

	if episode.TranscriptionStatus == db.StatusCompleted {
		return nil
	}

	if episode.AssemblyAITranscriptID != nil || episode.TranscriptionStatus == db.StatusFailed {
		if err := db.DeleteSegmentsByEpisode(episode.ID); err != nil {
			return fmt.Errorf("failed to clear segments before restart: %w", err)
		}
		if err := db.ResetEpisodeTranscription(episode.ID); err != nil {
			return fmt.Errorf("failed to reset episode before restart: %w", err)
		}
	}

	meta, err := s.Index.EpisodeByID(ctx, episode.OriginalID)
	if err != nil {
		return fmt.Errorf("could not resolve episode %s metadata: %w", episode.OriginalID, err)
	}

	profile := language.Detect(meta.Title)

	transcript, err := s.Provider.Submit(ctx, assemblyai.SubmitRequest{
		AudioURL:          meta.AudioURL,
		LanguageCode:      profile.Code,
		SpeakerLabels:     profile.SpeakerLabels,
		SentimentAnalysis: profile.SentimentAnalysis,
		EntityDetection:   profile.EntityDetection,
		WebhookURL:        s.WebhookURL,
	})
	if err != nil {
		// The provider's rejection text is preserved verbatim; restart is a
		// user-initiated action, never an automatic retry.
		message := err.Error()
		var apiErr *assemblyai.APIError
		if errors.As(err, &apiErr) {
			message = apiErr.Body
		}
		s.failEpisode(episode.ID, message)
		return fmt.Errorf("transcription job rejected: %w", err)
	}

	now := time.Now()
	podcastID := meta.PodcastID
	err = db.MarkEpisodeProcessing(episode.ID, transcript.ID, meta.Title, &podcastID,
		meta.AudioURL, profile.Code, now, now.Add(Timeout))
	if err != nil {
		return fmt.Errorf("failed to record transcription start: %w", err)
	}
	return nil
}
