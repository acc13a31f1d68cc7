// Package access decides whether a user may start a new transcription.
package access

import (
	"log"
	"time"

	"podlearn/internal/db"
)

// TrialEpisodeLimit is the lifetime number of free episodes per user.
const TrialEpisodeLimit = 2

const (
	GrantSubscription = "subscription"
	GrantTrial        = "trial"
	GrantCredit       = "credit"
)

// CheckAccess reports whether userID may transcribe the episode identified by
// its external original id. Grant order: existing usage record (always free),
// active subscription, remaining trial allowance, then one credit. Any
// unexpected error denies access.
func CheckAccess(userID int64, originalEpisodeID string) (bool, error) {
	episode, err := db.GetOrCreateEpisodeByOriginalID(originalEpisodeID)
	if err != nil {
		log.Printf("Access check failed resolving episode %q for user %d at %s: %v",
			originalEpisodeID, userID, time.Now().UTC().Format(time.RFC3339), err)
		return false, err
	}

	used, err := db.HasEpisodeUsage(userID, episode.ID)
	if err != nil {
		log.Printf("Access check failed reading usage for user %d episode %d: %v", userID, episode.ID, err)
		return false, err
	}
	if used {
		return true, nil
	}

	user, err := db.GetUserByID(userID)
	if err != nil {
		log.Printf("Access check failed loading user %d: %v", userID, err)
		return false, err
	}

	if user.SubscriptionActive {
		recordUsage(userID, episode.ID, GrantSubscription)
		return true, nil
	}

	if user.TrialEpisodesUsed < TrialEpisodeLimit {
		if err := db.IncrementTrialEpisodesUsed(userID); err != nil {
			log.Printf("Access check failed consuming trial slot for user %d: %v", userID, err)
			return false, err
		}
		recordUsage(userID, episode.ID, GrantTrial)
		return true, nil
	}

	granted, err := db.UseCreditAndRecordUsage(userID, episode.ID)
	if err != nil {
		log.Printf("Access check failed debiting credit for user %d episode %d: %v", userID, episode.ID, err)
		return false, err
	}
	return granted, nil
}

// recordUsage is bookkeeping: a failure here must not block the transcription
// the user was already granted, so it is logged and swallowed.
func recordUsage(userID, episodeID int64, grantType string) {
	if err := db.RecordEpisodeUsage(userID, episodeID, grantType); err != nil {
		log.Printf("Failed to record %s usage for user %d episode %d: %v", grantType, userID, episodeID, err)
	}
}
