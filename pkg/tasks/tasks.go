package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerateLesson      = "lesson:generate"
	TypeSweepTranscriptions = "transcription:sweep"
)

type GenerateLessonTaskPayload struct {
	EpisodeID int64
}

func NewGenerateLessonTask(episodeID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerateLessonTaskPayload{EpisodeID: episodeID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateLesson, payload), nil
}

func NewSweepTranscriptionsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSweepTranscriptions, nil), nil
}
