package models

import "time"

// EpisodeUsage records that a user already paid for an episode (by
// subscription, trial slot or credit), making repeat access free.
type EpisodeUsage struct {
	UserID    int64     `db:"user_id"`
	EpisodeID int64     `db:"episode_id"`
	GrantType string    `db:"grant_type"`
	CreatedAt time.Time `db:"created_at"`
}
