// Package transcription owns the episode transcription lifecycle: job
// submission, webhook-driven completion, and reconciliation of local status
// against provider state.
package transcription

import (
	"errors"
	"log"
	"time"

	"podlearn/internal/assemblyai"
	"podlearn/internal/db"
	"podlearn/internal/podcastindex"
)

// Timeout is the wall-clock budget per transcription attempt.
const Timeout = 20 * time.Minute

const timeoutMessage = "transcription timed out after 20 minutes"

// ErrUnknownTranscript means a provider notification could not be attributed
// to any episode.
var ErrUnknownTranscript = errors.New("no episode matches the transcript id")

type Service struct {
	Provider   *assemblyai.Client
	Index      *podcastindex.Client
	WebhookURL string
}

func NewService(provider *assemblyai.Client, index *podcastindex.Client, webhookURL string) *Service {
	return &Service{
		Provider:   provider,
		Index:      index,
		WebhookURL: webhookURL,
	}
}

func (s *Service) failEpisode(episodeID int64, message string) {
	if err := db.MarkEpisodeFailed(episodeID, message); err != nil {
		log.Printf("Failed to mark episode %d as failed: %v", episodeID, err)
	}
}
