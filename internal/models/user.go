package models

import "time"

// User represents a user in the database.
type User struct {
	ID                 int64     `db:"id"`
	AuthSubject        string    `db:"auth_subject"`
	Email              string    `db:"email"`
	Credits            int       `db:"credits"`
	TrialEpisodesUsed  int       `db:"trial_episodes_used"`
	SubscriptionActive bool      `db:"subscription_active"`
	SubscriptionID     *string   `db:"subscription_id"`
	FeedToken          string    `db:"feed_token"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}
