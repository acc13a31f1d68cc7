package feed

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/eduncan911/podcast"

	"podlearn/internal/models"
)

func getBaseURL(r *http.Request) string {
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		return baseURL
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS renders a user's completed, transcribed episodes as a podcast
// feed they can follow in any player.
func GenerateRSS(user *models.User, episodes []models.Episode, r *http.Request) (string, error) {
	baseURL := getBaseURL(r)

	p := podcast.New(
		fmt.Sprintf("%s's learned episodes", user.Email),
		fmt.Sprintf("%s/rss/%s", baseURL, user.FeedToken),
		"Episodes you transcribed and studied.",
		&time.Time{}, &time.Time{},
	)

	for _, episode := range episodes {
		if episode.Title == nil || episode.AudioURL == nil {
			continue
		}
		created := episode.CreatedAt
		item := podcast.Item{
			Title:       *episode.Title,
			Description: fmt.Sprintf("Transcribed episode %s", episode.OriginalID),
			PubDate:     &created,
		}
		item.AddEnclosure(*episode.AudioURL, podcast.MP3, 0)
		if _, err := p.AddItem(item); err != nil {
			return "", err
		}
	}

	return p.String(), nil
}
