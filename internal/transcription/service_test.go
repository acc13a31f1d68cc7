package transcription

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"podlearn/internal/assemblyai"
	"podlearn/internal/models"
	"podlearn/internal/podcastindex"
	"podlearn/internal/test"
)

// newTestService wires the service to a fake provider and a mock database.
func newTestService(t *testing.T, provider http.Handler) (*Service, sqlmock.Sqlmock) {
	_, mock := test.NewMockDB(t)

	server := httptest.NewServer(provider)
	t.Cleanup(server.Close)

	client := assemblyai.NewClient("test-key")
	client.BaseURL = server.URL

	return NewService(client, nil, "https://app.example.com/webhooks/assemblyai"), mock
}

func withIndex(t *testing.T, s *Service, index http.Handler) {
	server := httptest.NewServer(index)
	t.Cleanup(server.Close)

	client := podcastindex.NewClient("key", "secret")
	client.BaseURL = server.URL
	s.Index = client
}

func strPtr(v string) *string       { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func processingEpisode(id int64, transcriptID string) models.Episode {
	now := time.Now()
	return models.Episode{
		ID:                     id,
		OriginalID:             "orig-1",
		TranscriptionStatus:    "processing",
		AssemblyAITranscriptID: strPtr(transcriptID),
		TranscriptionStartedAt: timePtr(now.Add(-time.Minute)),
		TranscriptionTimeoutAt: timePtr(now.Add(19 * time.Minute)),
	}
}
