package analytics

import (
	"strings"
	"time"

	"github.com/agamai/meet/internal/domain"
)

// sentimentKeep bounds the sentiment series; older points are discarded.
const sentimentKeep = 100

// Alert thresholds for a consistently negative room.
const (
	alertThreshold  = -0.5
	alertRun        = 3
	severeThreshold = -0.7
)

// SentimentPoint is one scored utterance in a room's sentiment series.
type SentimentPoint struct {
	TS      int64   `json:"timestamp"`
	Score   float64 `json:"score"`
	Speaker string  `json:"speaker"`
	Snippet string  `json:"text_snippet"`
}

// SentimentAlert flags a run of consecutive strongly negative utterances.
type SentimentAlert struct {
	Alert    bool    `json:"alert"`
	Message  string  `json:"message"`
	Severity string  `json:"severity,omitempty"`
	AvgScore float64 `json:"avg_score,omitempty"`
}

// TranscriptLog is a room's ordered transcript plus its derived sentiment
// series. Entries are appended in finalization order.
type TranscriptLog struct {
	entries    []domain.TranscriptEntry
	sentiments []SentimentPoint
}

func NewTranscriptLog() *TranscriptLog {
	return &TranscriptLog{}
}

// Append records a finalized entry and folds its sentiment into the series.
func (l *TranscriptLog) Append(e domain.TranscriptEntry) {
	l.entries = append(l.entries, e)

	snippet := e.Text
	if len(snippet) > 100 {
		snippet = snippet[:100]
	}
	l.sentiments = append(l.sentiments, SentimentPoint{
		TS:      e.TS,
		Score:   e.Sentiment,
		Speaker: e.SID,
		Snippet: snippet,
	})
	if len(l.sentiments) > sentimentKeep {
		l.sentiments = l.sentiments[len(l.sentiments)-sentimentKeep:]
	}
}

func (l *TranscriptLog) Len() int { return len(l.entries) }

// Entries returns a copy of the transcript.
func (l *TranscriptLog) Entries() []domain.TranscriptEntry {
	out := make([]domain.TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Text joins every entry for summarization.
func (l *TranscriptLog) Text() string {
	parts := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " ")
}

// Series returns sentiment points newer than the window, most recent last.
func (l *TranscriptLog) Series(window time.Duration, now time.Time) []SentimentPoint {
	cutoff := now.Add(-window).Unix()
	out := make([]SentimentPoint, 0, len(l.sentiments))
	for _, p := range l.sentiments {
		if p.TS >= cutoff {
			out = append(out, p)
		}
	}
	return out
}

// Overall averages the last n sentiment points.
func (l *TranscriptLog) Overall(n int) float64 {
	pts := l.sentiments
	if len(pts) > n {
		pts = pts[len(pts)-n:]
	}
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		sum += p.Score
	}
	return sum / float64(len(pts))
}

// Trend classifies an average score.
func Trend(score float64) string {
	switch {
	case score > 0.2:
		return "positive"
	case score < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}

// CheckAlert reports whether the last few utterances were all strongly
// negative.
func (l *TranscriptLog) CheckAlert() SentimentAlert {
	if len(l.sentiments) < alertRun {
		return SentimentAlert{}
	}
	recent := l.sentiments[len(l.sentiments)-alertRun:]
	var sum float64
	for _, p := range recent {
		if p.Score >= alertThreshold {
			return SentimentAlert{}
		}
		sum += p.Score
	}
	avg := sum / float64(len(recent))
	severity := "medium"
	if avg < severeThreshold {
		severity = "high"
	}
	return SentimentAlert{
		Alert:    true,
		Message:  "Meeting sentiment has been consistently negative. Consider addressing concerns or taking a break.",
		Severity: severity,
		AvgScore: avg,
	}
}
