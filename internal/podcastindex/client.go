// Package podcastindex looks up episode metadata in the public podcast index.
package podcastindex

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.podcastindex.org/api/1.0"

type Client struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	HTTPClient *http.Client
	now        func() time.Time
}

func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

// EpisodeMeta is the subset of index metadata the transcription pipeline
// needs.
type EpisodeMeta struct {
	Title     string
	AudioURL  string
	PodcastID int64
}

type episodeByIDResponse struct {
	Episode struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		EnclosureURL string `json:"enclosureUrl"`
		FeedID       int64  `json:"feedId"`
	} `json:"episode"`
}

// EpisodeByID fetches one episode's metadata by its index id.
func (c *Client) EpisodeByID(ctx context.Context, id string) (*EpisodeMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/episodes/byid?id="+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The index authenticates with sha1(key+secret+unix-time) over three
	// headers.
	ts := strconv.FormatInt(c.now().Unix(), 10)
	hash := sha1.Sum([]byte(c.APIKey + c.APISecret + ts))
	req.Header.Set("X-Auth-Date", ts)
	req.Header.Set("X-Auth-Key", c.APIKey)
	req.Header.Set("Authorization", fmt.Sprintf("%x", hash))
	req.Header.Set("User-Agent", "podlearn/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("podcast index request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read podcast index response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("podcast index returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed episodeByIDResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode podcast index response: %w", err)
	}
	if parsed.Episode.ID == 0 || parsed.Episode.EnclosureURL == "" {
		return nil, fmt.Errorf("episode %s not found in podcast index", id)
	}

	return &EpisodeMeta{
		Title:     parsed.Episode.Title,
		AudioURL:  parsed.Episode.EnclosureURL,
		PodcastID: parsed.Episode.FeedID,
	}, nil
}
