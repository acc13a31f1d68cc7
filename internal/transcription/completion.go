package transcription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"podlearn/internal/assemblyai"
	"podlearn/internal/db"
	"podlearn/internal/models"
)

// ProcessWebhook handles a provider completion notification. The returned
// bool reports whether the notification was acted on; non-completed statuses
// are a deliberate no-op because failures and timeouts are resolved by the
// watch/sweep paths.
func (s *Service) ProcessWebhook(ctx context.Context, transcriptID, status, payloadText string, audioDuration float64) (bool, error) {
	if status != assemblyai.StatusCompleted {
		return false, nil
	}

	episode, err := db.GetEpisodeByTranscriptID(transcriptID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %s", ErrUnknownTranscript, transcriptID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve episode for transcript %s: %w", transcriptID, err)
	}

	if err := s.ProcessCompletion(ctx, episode, payloadText, audioDuration); err != nil {
		return true, err
	}
	return true, nil
}

// ProcessCompletion fetches the finished transcript and stores its segments.
// It is idempotent: if segments already exist (a redelivered webhook, or the
// watch loop got here first) the episode is just marked completed again.
// Any unrecoverable error resolves the episode to failed so it never sticks
// in processing.
func (s *Service) ProcessCompletion(ctx context.Context, episode models.Episode, payloadText string, audioDuration float64) error {
	count, err := db.CountSegmentsByEpisode(episode.ID)
	if err != nil {
		return fmt.Errorf("failed to count existing segments: %w", err)
	}
	if count > 0 {
		return db.MarkEpisodeCompleted(episode.ID)
	}

	if episode.AssemblyAITranscriptID == nil {
		s.failEpisode(episode.ID, "completion received for an episode without a transcript id")
		return fmt.Errorf("episode %d has no transcript id", episode.ID)
	}
	transcriptID := *episode.AssemblyAITranscriptID

	diarized := episode.LanguageCode == nil || *episode.LanguageCode != "he"

	segments := s.fetchSegments(ctx, transcriptID, diarized)

	// Fallback chain: segmented endpoints, then the raw transcript resource,
	// then the text carried in the webhook payload itself. A transcript is
	// stored even when the richer segmentation is unavailable.
	var transcript *assemblyai.Transcript
	if diarized && len(segments) > 0 {
		transcript, err = s.Provider.GetTranscript(ctx, transcriptID)
		if err != nil {
			log.Printf("Could not fetch sentiment/entity results for transcript %s: %v", transcriptID, err)
			transcript = nil
		}
	}
	if len(segments) == 0 {
		transcript, err = s.Provider.GetTranscript(ctx, transcriptID)
		if err != nil {
			log.Printf("Could not fetch raw transcript %s: %v", transcriptID, err)
		} else if transcript.Text != "" {
			duration := transcript.AudioDuration
			if duration == 0 {
				duration = audioDuration
			}
			segments = []models.TranscriptionSegment{{Text: transcript.Text, EndTime: duration}}
		}
	}
	if len(segments) == 0 && payloadText != "" {
		segments = []models.TranscriptionSegment{{Text: payloadText, EndTime: audioDuration}}
	}

	if len(segments) == 0 {
		// A completed job with no text at all is an inconsistency, surfaced
		// as failure instead of an empty success.
		message := "transcription completed but no transcript text was returned"
		s.failEpisode(episode.ID, message)
		return errors.New(message)
	}

	if transcript != nil {
		attachAnalysis(segments, transcript)
	}

	if err := db.InsertSegments(episode.ID, segments); err != nil {
		s.failEpisode(episode.ID, fmt.Sprintf("failed to store transcript segments: %v", err))
		return err
	}

	if err := db.MarkEpisodeCompleted(episode.ID); err != nil {
		return fmt.Errorf("failed to mark episode %d completed: %w", episode.ID, err)
	}
	return nil
}

func (s *Service) fetchSegments(ctx context.Context, transcriptID string, diarized bool) []models.TranscriptionSegment {
	if diarized {
		utterances, err := s.Provider.GetUtterances(ctx, transcriptID)
		if err != nil {
			log.Printf("Could not fetch utterances for transcript %s: %v", transcriptID, err)
			return nil
		}
		segments := make([]models.TranscriptionSegment, 0, len(utterances))
		for _, u := range utterances {
			segments = append(segments, models.TranscriptionSegment{
				Text:      u.Text,
				Speaker:   u.Speaker,
				StartTime: float64(u.Start) / 1000,
				EndTime:   float64(u.End) / 1000,
			})
		}
		return segments
	}

	paragraphs, err := s.Provider.GetParagraphs(ctx, transcriptID)
	if err != nil {
		log.Printf("Could not fetch paragraphs for transcript %s: %v", transcriptID, err)
		return nil
	}
	segments := make([]models.TranscriptionSegment, 0, len(paragraphs))
	for _, p := range paragraphs {
		segments = append(segments, models.TranscriptionSegment{
			Text:      p.Text,
			StartTime: float64(p.Start) / 1000,
			EndTime:   float64(p.End) / 1000,
		})
	}
	return segments
}

// attachAnalysis maps sentiment and entity results onto segments by time
// overlap. Offsets from the provider are in milliseconds.
func attachAnalysis(segments []models.TranscriptionSegment, transcript *assemblyai.Transcript) {
	for i := range segments {
		seg := &segments[i]
		for _, sr := range transcript.SentimentAnalysisResults {
			if seg.Sentiment == nil && within(sr.Start, seg) {
				sentiment := sr.Sentiment
				confidence := sr.Confidence
				seg.Sentiment = &sentiment
				seg.SentimentConfidence = &confidence
			}
		}
		for _, e := range transcript.Entities {
			if within(e.Start, seg) {
				seg.Entities = append(seg.Entities, models.Entity{
					Type:  e.EntityType,
					Text:  e.Text,
					Start: e.Start,
					End:   e.End,
				})
			}
		}
	}
}

func within(startMs int, seg *models.TranscriptionSegment) bool {
	at := float64(startMs) / 1000
	return at >= seg.StartTime && at < seg.EndTime
}
