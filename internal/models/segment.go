package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Entity is a named entity detected inside a segment's text.
type Entity struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// EntityList is stored as a JSONB column on transcription_segments.
type EntityList []Entity

func (e EntityList) Value() (driver.Value, error) {
	if len(e) == 0 {
		return nil, nil
	}
	return json.Marshal(e)
}

func (e *EntityList) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into EntityList", src)
	}
	return json.Unmarshal(b, e)
}

type TranscriptionSegment struct {
	ID                  int64      `db:"id"`
	EpisodeID           int64      `db:"episode_id"`
	Position            int        `db:"position"`
	Text                string     `db:"text"`
	Speaker             string     `db:"speaker"`
	StartTime           float64    `db:"start_time"`
	EndTime             float64    `db:"end_time"`
	Sentiment           *string    `db:"sentiment"`
	SentimentConfidence *float64   `db:"sentiment_confidence"`
	Entities            EntityList `db:"entities"`
}
