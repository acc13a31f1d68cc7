package models

import "time"

type GeneratedLesson struct {
	ID        int64     `db:"id"`
	EpisodeID int64     `db:"episode_id"`
	Content   string    `db:"content"`
	Model     string    `db:"model"`
	CreatedAt time.Time `db:"created_at"`
}
