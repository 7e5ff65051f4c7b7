// Package collab holds the contracts for the external collaborators this
// server calls into: speech-to-text, sentiment scoring, and meeting
// summarization. The calls are network-bound and potentially slow; callers
// must never hold room state locks while one is in flight.
package collab

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every collaborator transport or timeout failure so
// callers can apply the degradation policy for that call site (discard the
// flush cycle, keep a neutral sentiment, surface a user-visible summary
// error) without inspecting the cause.
var ErrUnavailable = errors.New("collaborator unavailable")

// Transcriber turns a concatenated audio buffer into text. An empty string
// with a nil error means the audio contained no recognizable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// SentimentAnalyzer scores a finalized utterance in [-1, 1].
type SentimentAnalyzer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Summarizer produces a natural-language summary of a full transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Disabled satisfies all three contracts and always reports the
// collaborator as unavailable. Used when no endpoint is configured.
type Disabled struct{}

func (Disabled) Transcribe(context.Context, []byte) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) Score(context.Context, string) (float64, error) {
	return 0, ErrUnavailable
}

func (Disabled) Summarize(context.Context, string) (string, error) {
	return "", ErrUnavailable
}
