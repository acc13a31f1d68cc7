// Package assemblyai is a minimal client for the transcription provider's
// REST API: job submission, status lookup and result retrieval.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.assemblyai.com/v2"

// Job statuses reported by the provider.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type SubmitRequest struct {
	AudioURL          string `json:"audio_url"`
	LanguageCode      string `json:"language_code,omitempty"`
	SpeakerLabels     bool   `json:"speaker_labels"`
	SentimentAnalysis bool   `json:"sentiment_analysis"`
	EntityDetection   bool   `json:"entity_detection"`
	WebhookURL        string `json:"webhook_url,omitempty"`
}

type SentimentResult struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

type Entity struct {
	EntityType string `json:"entity_type"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// Transcript is the provider's transcript resource. Start/end offsets are in
// milliseconds.
type Transcript struct {
	ID                       string            `json:"id"`
	Status                   string            `json:"status"`
	Text                     string            `json:"text"`
	Error                    string            `json:"error"`
	AudioDuration            float64           `json:"audio_duration"`
	LanguageCode             string            `json:"language_code"`
	SentimentAnalysisResults []SentimentResult `json:"sentiment_analysis_results"`
	Entities                 []Entity          `json:"entities"`
}

type Utterance struct {
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

type Paragraph struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Submit creates a new transcription job and returns the provider's job
// resource, whose ID identifies the job from then on.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Transcript, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submit request: %w", err)
	}

	transcript := &Transcript{}
	err = c.do(ctx, http.MethodPost, "/transcript", bytes.NewReader(body), transcript)
	if err != nil {
		return nil, err
	}
	return transcript, nil
}

// GetTranscript fetches the authoritative job status and, once completed, the
// raw transcript text plus sentiment/entity results.
func (c *Client) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	transcript := &Transcript{}
	err := c.do(ctx, http.MethodGet, "/transcript/"+id, nil, transcript)
	if err != nil {
		return nil, err
	}
	return transcript, nil
}

// GetUtterances fetches the speaker-segmented transcript.
func (c *Client) GetUtterances(ctx context.Context, id string) ([]Utterance, error) {
	var out struct {
		Utterances []Utterance `json:"utterances"`
	}
	err := c.do(ctx, http.MethodGet, "/transcript/"+id+"/utterances", nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Utterances, nil
}

// GetParagraphs fetches the paragraph segmentation, used for languages the
// provider cannot diarize.
func (c *Client) GetParagraphs(ctx context.Context, id string) ([]Paragraph, error) {
	var out struct {
		Paragraphs []Paragraph `json:"paragraphs"`
	}
	err := c.do(ctx, http.MethodGet, "/transcript/"+id+"/paragraphs", nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Paragraphs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("transcription provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// APIError is a non-2xx provider response; the body is preserved verbatim for
// the episode's error field.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription provider returned %d: %s", e.StatusCode, e.Body)
}
