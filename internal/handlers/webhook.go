package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

type transcriptionWebhookPayload struct {
	TranscriptID  string  `json:"transcript_id"`
	Status        string  `json:"status"`
	Text          string  `json:"text,omitempty"`
	AudioDuration float64 `json:"audio_duration,omitempty"`
}

// AssemblyAIWebhook receives the provider's completion notification. The
// response contract: 200 with a status/message body for success and no-ops,
// 500 with an error body when processing fails.
func (h *Handlers) AssemblyAIWebhook(w http.ResponseWriter, r *http.Request) {
	var payload transcriptionWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}
	if payload.TranscriptID == "" {
		writeError(w, http.StatusBadRequest, "transcript_id is required")
		return
	}

	handled, err := h.transcriptions.ProcessWebhook(r.Context(), payload.TranscriptID, payload.Status, payload.Text, payload.AudioDuration)
	if err != nil {
		log.Printf("Error processing transcription webhook for %s: %v", payload.TranscriptID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	message := "transcription processed"
	if !handled {
		message = "ignored non-completed status"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": message})
}
