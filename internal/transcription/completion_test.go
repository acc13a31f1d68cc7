package transcription

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"podlearn/internal/assemblyai"
)

func TestProcessCompletionStoresUtterances(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcript/abc123/utterances":
			w.Write([]byte(`{"utterances": [
				{"text": "Welcome to the show.", "speaker": "A", "start": 0, "end": 4000},
				{"text": "Glad to be here.", "speaker": "B", "start": 4000, "end": 7000}
			]}`))
		case "/transcript/abc123":
			json.NewEncoder(w).Encode(assemblyai.Transcript{
				ID:     "abc123",
				Status: assemblyai.StatusCompleted,
				SentimentAnalysisResults: []assemblyai.SentimentResult{
					{Text: "Glad to be here.", Sentiment: "POSITIVE", Confidence: 0.91, Start: 4000, End: 7000},
				},
				Entities: []assemblyai.Entity{
					{EntityType: "person_name", Text: "Ada", Start: 500, End: 900},
				},
			})
		default:
			t.Errorf("unexpected provider call: %s", r.URL.Path)
		}
	}))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcription_segments`).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO transcription_segments`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE episodes\s+SET transcription_status = \$1`).
		WithArgs("completed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ProcessCompletion(context.Background(), processingEpisode(10, "abc123"), "", 0)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessCompletionIdempotent(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("provider must not be called when segments already exist, got %s", r.URL.Path)
	}))

	// The watch loop or a prior delivery already stored segments; the episode
	// is re-marked completed without re-inserting.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcription_segments`).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectExec(`UPDATE episodes\s+SET transcription_status = \$1`).
		WithArgs("completed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ProcessCompletion(context.Background(), processingEpisode(10, "abc123"), "", 0)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessCompletionFallsBackToRawTranscript(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcript/abc123/utterances":
			http.NotFound(w, r)
		case "/transcript/abc123":
			json.NewEncoder(w).Encode(assemblyai.Transcript{
				ID:            "abc123",
				Status:        assemblyai.StatusCompleted,
				Text:          "the full transcript text",
				AudioDuration: 98,
			})
		default:
			t.Errorf("unexpected provider call: %s", r.URL.Path)
		}
	}))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcription_segments`).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Exactly one segment spanning the full audio duration.
	mock.ExpectExec(`INSERT INTO transcription_segments`).
		WithArgs(int64(10), 0, "the full transcript text", "", float64(0), float64(98), nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE episodes\s+SET transcription_status = \$1`).
		WithArgs("completed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ProcessCompletion(context.Background(), processingEpisode(10, "abc123"), "", 0)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessCompletionFallsBackToPayloadText(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcript/abc123/utterances":
			w.Write([]byte(`{"utterances": []}`))
		case "/transcript/abc123":
			http.Error(w, `{"error": "temporarily unavailable"}`, http.StatusInternalServerError)
		default:
			t.Errorf("unexpected provider call: %s", r.URL.Path)
		}
	}))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcription_segments`).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO transcription_segments`).
		WithArgs(int64(10), 0, "text from the webhook payload", "", float64(0), float64(31), nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE episodes\s+SET transcription_status = \$1`).
		WithArgs("completed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ProcessCompletion(context.Background(), processingEpisode(10, "abc123"), "text from the webhook payload", 31)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessCompletionNoTextResolvesToFailed(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcript/abc123/utterances":
			w.Write([]byte(`{"utterances": []}`))
		case "/transcript/abc123":
			json.NewEncoder(w).Encode(assemblyai.Transcript{ID: "abc123", Status: assemblyai.StatusCompleted})
		default:
			t.Errorf("unexpected provider call: %s", r.URL.Path)
		}
	}))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcription_segments`).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE episodes\s+SET transcription_status = \$1, transcription_error = \$2`).
		WithArgs("failed", "transcription completed but no transcript text was returned", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ProcessCompletion(context.Background(), processingEpisode(10, "abc123"), "", 0)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessCompletionHebrewUsesParagraphs(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcript/abc123/paragraphs":
			w.Write([]byte(`{"paragraphs": [{"text": "פסקה ראשונה", "start": 0, "end": 5000}]}`))
		default:
			t.Errorf("unexpected provider call: %s", r.URL.Path)
		}
	}))

	episode := processingEpisode(10, "abc123")
	episode.LanguageCode = strPtr("he")

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcription_segments`).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO transcription_segments`).
		WithArgs(int64(10), 0, "פסקה ראשונה", "", float64(0), float64(5), nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE episodes\s+SET transcription_status = \$1`).
		WithArgs("completed", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ProcessCompletion(context.Background(), episode, "", 0)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessWebhookIgnoresNonCompleted(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("provider must not be called for a non-completed webhook")
	}))

	handled, err := svc.ProcessWebhook(context.Background(), "abc123", "processing", "", 0)
	assert.NoError(t, err)
	assert.False(t, handled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessWebhookUnknownTranscript(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("provider must not be called for an unknown transcript")
	}))

	mock.ExpectQuery(`SELECT \* FROM episodes WHERE assemblyai_transcript_id = \$1`).WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.ProcessWebhook(context.Background(), "ghost", "completed", "", 0)
	assert.ErrorIs(t, err, ErrUnknownTranscript)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessWebhookRedeliveryIsIdempotent(t *testing.T) {
	svc, mock := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("provider must not be called on redelivery, got %s", r.URL.Path)
	}))

	episodeColumns := []string{"id", "original_id", "transcription_status", "assemblyai_transcript_id"}
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT \* FROM episodes WHERE assemblyai_transcript_id = \$1`).WithArgs("abc123").
			WillReturnRows(sqlmock.NewRows(episodeColumns).AddRow(10, "orig-1", "completed", "abc123"))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transcription_segments`).WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectExec(`UPDATE episodes\s+SET transcription_status = \$1`).
			WithArgs("completed", int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	for i := 0; i < 2; i++ {
		handled, err := svc.ProcessWebhook(context.Background(), "abc123", "completed", "", 0)
		assert.NoError(t, err)
		assert.True(t, handled)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
