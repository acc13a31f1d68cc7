package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"podlearn/internal/db"
	"podlearn/pkg/tasks"
)

// PostLesson queues lesson generation for a completed episode.
func (h *Handlers) PostLesson(w http.ResponseWriter, r *http.Request) {
	originalID := mux.Vars(r)["id"]

	episode, err := db.GetEpisodeByOriginalID(originalID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Episode not found")
		return
	}
	if err != nil {
		log.Printf("Error loading episode %s: %v", originalID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if episode.TranscriptionStatus != db.StatusCompleted {
		writeError(w, http.StatusConflict, "Wait for the transcription to finish first")
		return
	}

	task, err := tasks.NewGenerateLessonTask(episode.ID)
	if err != nil {
		log.Printf("Error creating lesson task: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if _, err := h.asynqClient.Enqueue(task); err != nil {
		log.Printf("Error enqueuing lesson task: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not queue lesson generation")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handlers) GetLesson(w http.ResponseWriter, r *http.Request) {
	originalID := mux.Vars(r)["id"]

	episode, err := db.GetEpisodeByOriginalID(originalID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Episode not found")
		return
	}
	if err != nil {
		log.Printf("Error loading episode %s: %v", originalID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	lesson, err := db.GetLessonByEpisodeID(episode.ID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "No lesson generated yet")
		return
	}
	if err != nil {
		log.Printf("Error loading lesson for episode %d: %v", episode.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content":    lesson.Content,
		"model":      lesson.Model,
		"created_at": lesson.CreatedAt,
	})
}
