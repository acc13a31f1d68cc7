package main

import (
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"podlearn/internal/assemblyai"
	"podlearn/internal/db"
	"podlearn/internal/lesson"
	"podlearn/internal/openai"
	"podlearn/internal/podcastindex"
	"podlearn/internal/transcription"
	"podlearn/internal/worker"
	"podlearn/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	db.InitDB()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	provider := assemblyai.NewClient(os.Getenv("ASSEMBLYAI_API_KEY"))
	index := podcastindex.NewClient(os.Getenv("PODCASTINDEX_API_KEY"), os.Getenv("PODCASTINDEX_API_SECRET"))
	transcriptions := transcription.NewService(provider, index, baseURL+"/webhooks/assemblyai")
	lessons := lesson.NewGenerator(openai.NewClient(os.Getenv("OPENAI_API_KEY")))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 30s, 1min, 2min, 4min, capped at 30min.
				delay := 30 * time.Second
				maxDelay := 30 * time.Minute
				for i := 0; i < n; i++ {
					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
						break
					}
				}
				log.Printf("Task %s failed %d times, retrying in %v", task.Type(), n+1, delay)
				return delay
			},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(transcriptions, lessons)

	mux.HandleFunc(tasks.TypeGenerateLesson, taskHandler.HandleGenerateLessonTask)
	mux.HandleFunc(tasks.TypeSweepTranscriptions, taskHandler.HandleSweepTranscriptionsTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
