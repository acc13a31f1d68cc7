package db

import (
	"fmt"
	"strings"

	"podlearn/internal/models"
)

// segmentInsertBatchSize bounds the parameter count of a single INSERT.
const segmentInsertBatchSize = 100

func CountSegmentsByEpisode(episodeID int64) (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM transcription_segments WHERE episode_id = $1", episodeID)
	return count, err
}

func ListSegmentsByEpisode(episodeID int64) ([]models.TranscriptionSegment, error) {
	var segments []models.TranscriptionSegment
	err := DB.Select(&segments, `
		SELECT * FROM transcription_segments
		WHERE episode_id = $1
		ORDER BY start_time ASC, position ASC`,
		episodeID)
	return segments, err
}

func DeleteSegmentsByEpisode(episodeID int64) error {
	_, err := DB.Exec("DELETE FROM transcription_segments WHERE episode_id = $1", episodeID)
	return err
}

// InsertSegments writes segments in fixed-size batches. A failing batch aborts
// the whole insert; callers treat that as a failed transcription rather than
// reporting partial success.
func InsertSegments(episodeID int64, segments []models.TranscriptionSegment) error {
	for start := 0; start < len(segments); start += segmentInsertBatchSize {
		end := start + segmentInsertBatchSize
		if end > len(segments) {
			end = len(segments)
		}
		if err := insertSegmentBatch(episodeID, segments[start:end], start); err != nil {
			return fmt.Errorf("failed to insert segment batch starting at %d: %w", start, err)
		}
	}
	return nil
}

func insertSegmentBatch(episodeID int64, batch []models.TranscriptionSegment, offset int) error {
	placeholders := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*9)
	for i, seg := range batch {
		base := i * 9
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args, episodeID, offset+i, seg.Text, seg.Speaker, seg.StartTime, seg.EndTime,
			seg.Sentiment, seg.SentimentConfidence, seg.Entities)
	}

	query := `
		INSERT INTO transcription_segments
			(episode_id, position, text, speaker, start_time, end_time, sentiment, sentiment_confidence, entities)
		VALUES ` + strings.Join(placeholders, ", ")

	_, err := DB.Exec(query, args...)
	return err
}
