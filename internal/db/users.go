package db

import (
	"database/sql"
	"errors"
	"log"

	"github.com/google/uuid"
	"podlearn/internal/models"
)

// UpsertUser inserts a new user or updates an existing one based on the auth
// provider subject.
func UpsertUser(authSubject, email string) (*models.User, error) {
	query := `
		INSERT INTO users (auth_subject, email, feed_token)
		VALUES ($1, $2, $3)
		ON CONFLICT (auth_subject) DO UPDATE SET
			email = EXCLUDED.email,
			updated_at = NOW()
		RETURNING *
	`
	user := &models.User{}
	err := DB.Get(user, query, authSubject, email, uuid.NewString())
	if err != nil {
		log.Printf("Error upserting user: %v", err)
		return nil, err
	}
	return user, nil
}

func GetUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	err := DB.Get(user, "SELECT * FROM users WHERE id = $1", id)
	return user, err
}

func GetUserByFeedToken(token string) (*models.User, error) {
	user := &models.User{}
	err := DB.Get(user, "SELECT * FROM users WHERE feed_token = $1", token)
	return user, err
}

func IncrementTrialEpisodesUsed(userID int64) error {
	_, err := DB.Exec("UPDATE users SET trial_episodes_used = trial_episodes_used + 1, updated_at = NOW() WHERE id = $1", userID)
	return err
}

func AddCredits(userID int64, amount int) error {
	_, err := DB.Exec("UPDATE users SET credits = credits + $1, updated_at = NOW() WHERE id = $2", amount, userID)
	return err
}

// SetSubscription toggles the subscription flag from payment-provider webhook
// events.
func SetSubscription(userID int64, subscriptionID string, active bool) error {
	_, err := DB.Exec(`
		UPDATE users
		SET subscription_active = $1, subscription_id = $2, updated_at = NOW()
		WHERE id = $3`,
		active, subscriptionID, userID)
	return err
}

// UseCreditAndRecordUsage atomically debits one credit and writes the usage
// record for (user, episode). Returns false without error when the user has no
// credits left.
func UseCreditAndRecordUsage(userID, episodeID int64) (bool, error) {
	tx, err := DB.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var remaining int
	err = tx.Get(&remaining, `
		UPDATE users
		SET credits = credits - 1, updated_at = NOW()
		WHERE id = $1 AND credits > 0
		RETURNING credits`,
		userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(`
		INSERT INTO episode_usage (user_id, episode_id, grant_type)
		VALUES ($1, $2, 'credit')
		ON CONFLICT (user_id, episode_id) DO NOTHING`,
		userID, episodeID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}
