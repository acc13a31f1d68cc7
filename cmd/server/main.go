package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"podlearn/internal/assemblyai"
	"podlearn/internal/db"
	"podlearn/internal/handlers"
	"podlearn/internal/middleware"
	"podlearn/internal/podcastindex"
	"podlearn/internal/poller"
	"podlearn/internal/transcription"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	db.InitDB()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	provider := assemblyai.NewClient(os.Getenv("ASSEMBLYAI_API_KEY"))
	index := podcastindex.NewClient(os.Getenv("PODCASTINDEX_API_KEY"), os.Getenv("PODCASTINDEX_API_SECRET"))
	transcriptions := transcription.NewService(provider, index, baseURL+"/webhooks/assemblyai")

	watchers := poller.NewRegistry(transcriptions.ReconcileByID)
	defer watchers.StopAll()

	h := handlers.New(asynqClient, transcriptions, watchers)

	r := mux.NewRouter()

	// Webhooks and the RSS feed authenticate themselves (signature, token).
	r.HandleFunc("/webhooks/assemblyai", h.AssemblyAIWebhook).Methods(http.MethodPost)
	r.HandleFunc("/webhooks/lemonsqueezy", h.LemonSqueezyWebhook).Methods(http.MethodPost)
	r.HandleFunc("/rss/{token}", h.GetFeed).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware)
	rateLimiter := middleware.NewRateLimiterMiddleware(rate.Limit(1), 5)
	api.Use(rateLimiter.Middleware)

	api.HandleFunc("/episodes/{id}/transcribe", h.PostTranscribe).Methods(http.MethodPost)
	api.HandleFunc("/episodes/{id}/status", h.GetEpisodeStatus).Methods(http.MethodGet)
	api.HandleFunc("/episodes/{id}/segments", h.GetSegments).Methods(http.MethodGet)
	api.HandleFunc("/episodes/{id}/lesson", h.PostLesson).Methods(http.MethodPost)
	api.HandleFunc("/episodes/{id}/lesson", h.GetLesson).Methods(http.MethodGet)

	log.Printf("Starting server on :%s (commit: %s)", port, CommitSHA)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}
