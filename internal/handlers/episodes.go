package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"podlearn/internal/access"
	"podlearn/internal/db"
	"podlearn/internal/middleware"
	"podlearn/internal/models"
)

type segmentResponse struct {
	Position            int               `json:"position"`
	Text                string            `json:"text"`
	Speaker             string            `json:"speaker,omitempty"`
	StartTime           float64           `json:"start_time"`
	EndTime             float64           `json:"end_time"`
	Sentiment           *string           `json:"sentiment,omitempty"`
	SentimentConfidence *float64          `json:"sentiment_confidence,omitempty"`
	Entities            models.EntityList `json:"entities,omitempty"`
}

// PostTranscribe gates access and starts a transcription for the episode.
func (h *Handlers) PostTranscribe(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(middleware.UserContextKey).(*models.User)
	originalID := mux.Vars(r)["id"]

	granted, err := access.CheckAccess(user.ID, originalID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not verify access")
		return
	}
	if !granted {
		writeError(w, http.StatusPaymentRequired, "No trial episodes or credits remaining")
		return
	}

	episode, err := db.GetEpisodeByOriginalID(originalID)
	if err != nil {
		log.Printf("Error loading episode %s after access grant: %v", originalID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.transcriptions.Start(r.Context(), episode.ID); err != nil {
		log.Printf("Error starting transcription for episode %d: %v", episode.ID, err)
		writeError(w, http.StatusBadGateway, "Could not start transcription")
		return
	}

	h.watchers.Watch(episode.ID)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": db.StatusProcessing})
}

// GetEpisodeStatus reports the transcription lifecycle state, including the
// watcher's progress estimate while a job is in flight.
func (h *Handlers) GetEpisodeStatus(w http.ResponseWriter, r *http.Request) {
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

	resp := map[string]interface{}{
		"status": episode.TranscriptionStatus,
	}
	if episode.TranscriptionError != nil {
		resp["error"] = *episode.TranscriptionError
	}
	switch episode.TranscriptionStatus {
	case db.StatusCompleted:
		resp["progress"] = 100
	case db.StatusProcessing:
		if progress, ok := h.watchers.Progress(episode.ID); ok {
			resp["progress"] = progress
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetSegments(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusConflict, "Transcript is not ready")
		return
	}

	segments, err := db.ListSegmentsByEpisode(episode.ID)
	if err != nil {
		log.Printf("Error loading segments for episode %d: %v", episode.ID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := make([]segmentResponse, 0, len(segments))
	for _, seg := range segments {
		resp = append(resp, segmentResponse{
			Position:            seg.Position,
			Text:                seg.Text,
			Speaker:             seg.Speaker,
			StartTime:           seg.StartTime,
			EndTime:             seg.EndTime,
			Sentiment:           seg.Sentiment,
			SentimentConfidence: seg.SentimentConfidence,
			Entities:            seg.Entities,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
