package db

func HasEpisodeUsage(userID, episodeID int64) (bool, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM episode_usage WHERE user_id = $1 AND episode_id = $2", userID, episodeID)
	return count > 0, err
}

// RecordEpisodeUsage writes the usage record for a subscription or trial
// grant. Idempotent on (user, episode).
func RecordEpisodeUsage(userID, episodeID int64, grantType string) error {
	_, err := DB.Exec(`
		INSERT INTO episode_usage (user_id, episode_id, grant_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, episode_id) DO NOTHING`,
		userID, episodeID, grantType)
	return err
}
