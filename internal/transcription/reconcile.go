package transcription

import (
	"context"
	"fmt"
	"time"

	"podlearn/internal/assemblyai"
	"podlearn/internal/db"
	"podlearn/internal/models"
)

// Reconcile performs one reconciliation step for an episode and returns its
// resulting transcription status. The timeout budget is enforced before the
// provider is consulted, so a stuck or unreachable provider job still
// resolves to a terminal state.
func (s *Service) Reconcile(ctx context.Context, episode models.Episode) (string, error) {
	if episode.TranscriptionStatus != db.StatusProcessing {
		return episode.TranscriptionStatus, nil
	}

	if timedOut(episode, time.Now()) {
		if err := db.MarkEpisodeFailed(episode.ID, timeoutMessage); err != nil {
			return db.StatusProcessing, fmt.Errorf("failed to record timeout: %w", err)
		}
		return db.StatusFailed, nil
	}

	if episode.AssemblyAITranscriptID == nil {
		return db.StatusProcessing, nil
	}

	transcript, err := s.Provider.GetTranscript(ctx, *episode.AssemblyAITranscriptID)
	if err != nil {
		// Transient: the next tick or sweep retries.
		return db.StatusProcessing, err
	}

	switch transcript.Status {
	case assemblyai.StatusCompleted:
		if err := s.ProcessCompletion(ctx, episode, transcript.Text, transcript.AudioDuration); err != nil {
			return db.StatusFailed, err
		}
		return db.StatusCompleted, nil
	case assemblyai.StatusError:
		if err := db.MarkEpisodeFailed(episode.ID, transcript.Error); err != nil {
			return db.StatusProcessing, fmt.Errorf("failed to record provider error: %w", err)
		}
		return db.StatusFailed, nil
	default:
		return db.StatusProcessing, nil
	}
}

// ReconcileByID loads the episode first; used by the watch loop.
func (s *Service) ReconcileByID(ctx context.Context, episodeID int64) (string, error) {
	episode, err := db.GetEpisodeByID(episodeID)
	if err != nil {
		return "", fmt.Errorf("failed to load episode %d: %w", episodeID, err)
	}
	return s.Reconcile(ctx, episode)
}

func timedOut(episode models.Episode, now time.Time) bool {
	if episode.TranscriptionTimeoutAt != nil {
		return now.After(*episode.TranscriptionTimeoutAt)
	}
	if episode.TranscriptionStartedAt != nil {
		return now.Sub(*episode.TranscriptionStartedAt) > Timeout
	}
	return false
}
