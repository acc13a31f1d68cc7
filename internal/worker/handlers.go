package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"podlearn/internal/db"
	"podlearn/internal/lesson"
	"podlearn/internal/transcription"
	"podlearn/pkg/tasks"
)

type TaskHandler struct {
	transcriptions *transcription.Service
	lessons        *lesson.Generator
}

func NewTaskHandler(transcriptions *transcription.Service, lessons *lesson.Generator) *TaskHandler {
	return &TaskHandler{
		transcriptions: transcriptions,
		lessons:        lessons,
	}
}

func (h *TaskHandler) HandleGenerateLessonTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.GenerateLessonTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Generating lesson for episode: %d", p.EpisodeID)

	if err := h.lessons.Generate(ctx, p.EpisodeID); err != nil {
		if errors.Is(err, lesson.ErrNoTranscript) {
			// Retrying cannot help until a transcription finishes; the user
			// has to trigger generation again afterwards.
			return fmt.Errorf("episode %d: %w: %v", p.EpisodeID, asynq.SkipRetry, err)
		}
		return err
	}

	log.Printf("Lesson generated for episode: %d", p.EpisodeID)
	return nil
}

// HandleSweepTranscriptionsTask reconciles every processing episode: enforces
// the timeout budget and recovers completions whose webhook never arrived
// (or that a crashed server left behind).
func (h *TaskHandler) HandleSweepTranscriptionsTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Sweeping in-flight transcriptions...")

	episodes, err := db.ListProcessingEpisodes()
	if err != nil {
		return fmt.Errorf("failed to list processing episodes: %w", err)
	}

	for _, episode := range episodes {
		status, err := h.transcriptions.Reconcile(ctx, episode)
		if err != nil {
			log.Printf("Sweep could not reconcile episode %d: %v", episode.ID, err)
			continue
		}
		if status != db.StatusProcessing {
			log.Printf("Sweep resolved episode %d to %s", episode.ID, status)
		}
	}

	log.Println("Finished transcription sweep.")
	return nil
}
