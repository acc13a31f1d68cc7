// Package lesson turns a finished transcript into a structured study lesson.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"podlearn/internal/db"
	"podlearn/internal/openai"
)

// ErrNoTranscript means the episode has no stored segments yet. Callers use
// it to tell "wait for transcription" apart from generic failures.
var ErrNoTranscript = errors.New("episode has no transcript segments")

// maxTranscriptChars bounds the flattened transcript so the prompt fits the
// summarization model's context window. Truncation is deliberate and marked.
const maxTranscriptChars = 12000

const truncationMarker = "\n... [transcript truncated]"

const systemPrompt = "You are a language-learning assistant. Given a podcast transcript, " +
	"produce a structured lesson: a short summary, key vocabulary with definitions, " +
	"three discussion questions, and notable quotes."

type Generator struct {
	AI *openai.Client
}

func NewGenerator(ai *openai.Client) *Generator {
	return &Generator{AI: ai}
}

// Generate builds a lesson for the episode, replacing any prior one.
func (g *Generator) Generate(ctx context.Context, episodeID int64) error {
	segments, err := db.ListSegmentsByEpisode(episodeID)
	if err != nil {
		return fmt.Errorf("failed to load segments for episode %d: %w", episodeID, err)
	}
	if len(segments) == 0 {
		return ErrNoTranscript
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.Speaker != "" {
			b.WriteString(seg.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	transcript := Truncate(b.String(), maxTranscriptChars)

	content, err := g.AI.Complete(ctx, systemPrompt, "Transcript:\n\n"+transcript)
	if err != nil {
		return fmt.Errorf("lesson generation failed for episode %d: %w", episodeID, err)
	}

	if err := db.ReplaceLesson(episodeID, content, g.AI.Model); err != nil {
		return fmt.Errorf("failed to store lesson for episode %d: %w", episodeID, err)
	}
	return nil
}

// Truncate cuts text at the character budget, appending an explicit marker so
// the model (and anyone reading the prompt) can see the cut.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	// Avoid splitting a multi-byte rune at the boundary.
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut + truncationMarker
}
