package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"podlearn/internal/db"
	"podlearn/internal/feed"
)

// GetFeed serves a user's completed episodes as a podcast RSS feed, keyed by
// their private feed token.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	user, err := db.GetUserByFeedToken(token)
	if err != nil {
		http.Error(w, "Feed not found", http.StatusNotFound)
		return
	}

	episodes, err := db.ListCompletedEpisodesForUser(user.ID)
	if err != nil {
		log.Printf("Error getting episodes for feed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateRSS(user, episodes, r)
	if err != nil {
		log.Printf("Error generating RSS: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
