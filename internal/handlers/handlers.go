package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"podlearn/internal/poller"
	"podlearn/internal/transcription"
	"podlearn/pkg/tasks"
)

type Handlers struct {
	asynqClient    tasks.TaskEnqueuer
	transcriptions *transcription.Service
	watchers       *poller.Registry
}

func New(asynqClient tasks.TaskEnqueuer, transcriptions *transcription.Service, watchers *poller.Registry) *Handlers {
	return &Handlers{
		asynqClient:    asynqClient,
		transcriptions: transcriptions,
		watchers:       watchers,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
