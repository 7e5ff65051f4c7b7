package app

import (
	"context"
	"fmt"
	"time"

	"github.com/agamai/meet/internal/app/analytics"
	"github.com/agamai/meet/internal/collab"
	"github.com/agamai/meet/internal/core"
	"github.com/agamai/meet/internal/domain"
)

// sentimentWindow bounds the series returned by the sentiment query.
const sentimentWindow = 30 * time.Minute

// overallSamples is how many recent points the overall average uses.
const overallSamples = 10

// EngagementReport is the read-only engagement view of one room.
type EngagementReport struct {
	Room                 string                             `json:"room"`
	Leaderboard          []analytics.EngagementRow          `json:"leaderboard"`
	SpeakingDistribution map[string]analytics.SpeakingShare `json:"speaking_distribution"`
	TotalParticipants    int                                `json:"total_participants"`
	MeetingDuration      float64                            `json:"meeting_duration"` // seconds
}

// SentimentReport is the sentiment time series of one room.
type SentimentReport struct {
	Room             string                     `json:"room"`
	SentimentHistory []analytics.SentimentPoint `json:"sentiment_history"`
	OverallSentiment float64                    `json:"overall_sentiment"`
	Trend            string                     `json:"trend"`
}

// SummaryResult is the response of an on-demand summary request.
type SummaryResult struct {
	Room             string              `json:"room"`
	Result           string              `json:"result"`
	TranscriptLength int                 `json:"transcript_length"`
	Stats            collab.SummaryStats `json:"stats"`
	GeneratedAt      int64               `json:"timestamp"`
}

// Health is the status probe payload.
type Health struct {
	Status            string          `json:"status"`
	Timestamp         string          `json:"timestamp"`
	Features          map[string]bool `json:"features"`
	ActiveRooms       int             `json:"active_rooms"`
	TotalParticipants int             `json:"total_participants"`
}

// Transcript returns the full ordered transcript of a room.
func (c *Coordinator) Transcript(room domain.RoomID) ([]domain.TranscriptEntry, bool) {
	st := c.room(room)
	if st == nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.log.Entries(), true
}

// Engagement returns the leaderboard and speaking-time distribution.
func (c *Coordinator) Engagement(room domain.RoomID) (EngagementReport, bool) {
	st := c.room(room)
	if st == nil {
		return EngagementReport{}, false
	}
	st.mu.Lock()
	board := st.board.Leaderboard()
	dist := st.board.SpeakingDistribution()
	started := st.startedAt
	st.mu.Unlock()

	return EngagementReport{
		Room:                 string(room),
		Leaderboard:          board,
		SpeakingDistribution: dist,
		TotalParticipants:    len(board),
		MeetingDuration:      time.Since(started).Seconds(),
	}, true
}

// Sentiment returns the recent sentiment series and overall trend.
func (c *Coordinator) Sentiment(room domain.RoomID) (SentimentReport, bool) {
	st := c.room(room)
	if st == nil {
		return SentimentReport{}, false
	}
	st.mu.Lock()
	series := st.log.Series(sentimentWindow, time.Now())
	overall := st.log.Overall(overallSamples)
	st.mu.Unlock()

	return SentimentReport{
		Room:             string(room),
		SentimentHistory: series,
		OverallSentiment: overall,
		Trend:            analytics.Trend(overall),
	}, true
}

// Summarize asks the external summarizer for an on-demand summary of the
// room's transcript. Concurrent requests for the same room share one
// in-flight call. Fails with ErrEmptyTranscript when there is nothing to
// summarize and with collab.ErrUnavailable when the collaborator is down.
func (c *Coordinator) Summarize(ctx context.Context, room domain.RoomID) (*SummaryResult, error) {
	v, err, _ := c.summaries.Do(string(room), func() (any, error) {
		st := c.room(room)
		if st == nil {
			return nil, ErrRoomNotFound
		}
		st.mu.Lock()
		text := st.log.Text()
		length := st.log.Len()
		st.mu.Unlock()

		if length == 0 || text == "" {
			return nil, ErrEmptyTranscript
		}

		summary, err := c.summarizer.Summarize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("summarize room %q: %w", room, err)
		}
		return &SummaryResult{
			Room:             string(room),
			Result:           summary,
			TranscriptLength: length,
			Stats:            collab.Stats(text),
			GeneratedAt:      time.Now().Unix(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SummaryResult), nil
}

// NudgeQuiet sends a targeted nudge to each peer that has been idle with
// low engagement and returns their sids.
func (c *Coordinator) NudgeQuiet(room domain.RoomID) []string {
	st := c.room(room)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	quiet := st.board.QuietPeers(c.opts.IdleNudgeAfter, c.opts.NudgeBelow)
	st.mu.Unlock()

	for _, sid := range quiet {
		c.sendTo(room, core.SessionID(sid), struct {
			Type    string `json:"type"`
			Message string `json:"message"`
			Kind    string `json:"kind"`
		}{"nudge", "You've been quiet for a while. Would you like to share your thoughts?", "engagement"})
	}
	return quiet
}

// HealthStatus reports feature availability and current load.
func (c *Coordinator) HealthStatus() Health {
	rooms, peers := c.Registry.Counts()
	_, transcriptionOff := c.transcriber.(collab.Disabled)
	_, summarizationOff := c.summarizer.(collab.Disabled)
	_, sentimentOff := c.sentiment.(collab.Disabled)
	return Health{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Features: map[string]bool{
			"transcription":      !transcriptionOff,
			"summarization":      !summarizationOff,
			"sentiment":          !sentimentOff,
			"engagement":         true,
			"network_adaptation": true,
		},
		ActiveRooms:       rooms,
		TotalParticipants: peers,
	}
}
