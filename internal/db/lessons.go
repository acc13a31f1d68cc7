package db

import (
	"podlearn/internal/models"
)

func GetLessonByEpisodeID(episodeID int64) (models.GeneratedLesson, error) {
	lesson := models.GeneratedLesson{}
	err := DB.Get(&lesson, "SELECT * FROM generated_lessons WHERE episode_id = $1", episodeID)
	return lesson, err
}

// ReplaceLesson deletes any prior lesson for the episode and inserts the new
// one, so an episode carries at most one lesson.
func ReplaceLesson(episodeID int64, content, model string) error {
	tx, err := DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM generated_lessons WHERE episode_id = $1", episodeID); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO generated_lessons (episode_id, content, model)
		VALUES ($1, $2, $3)`,
		episodeID, content, model); err != nil {
		return err
	}

	return tx.Commit()
}
