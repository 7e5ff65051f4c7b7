package analytics

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agamai/meet/internal/domain"
)

// Engagement score weights. Attention dominates so a silent but attentive
// listener still registers; speaking share breaks the rest.
const (
	attentionWeight = 0.7
	speakingWeight  = 0.3
)

// secondsPerWord estimates speaking time from transcript length.
const secondsPerWord = 0.5

// EngagementRow is one leaderboard position, a read-only derived view.
type EngagementRow struct {
	SID          string  `json:"sid"`
	Name         string  `json:"name"`
	Score        float64 `json:"engagement_score"`
	SpeakingTime float64 `json:"speaking_time"` // seconds
	AvgAttention float64 `json:"avg_attention"`
	LastActivity int64   `json:"last_activity"`
	Title        string  `json:"title"`
}

// SpeakingShare is one peer's slice of the room's total speaking time.
type SpeakingShare struct {
	Name       string  `json:"name"`
	Time       float64 `json:"time"`
	Percentage float64 `json:"percentage"`
}

type engagementRecord struct {
	sid          string
	name         string
	joinSeq      int
	attentionSum float64
	attentionN   int
	speakingTime float64
	lastActivity time.Time
}

func (r *engagementRecord) avgAttention() float64 {
	if r.attentionN == 0 {
		return 0
	}
	return r.attentionSum / float64(r.attentionN)
}

// EngagementBoard keeps one rolling aggregate per peer: a cumulative-mean
// attention (O(1) memory) and a speaking-time total. The engagement score
// and leaderboard are recomputed on read and never mutate state.
type EngagementBoard struct {
	records map[string]*engagementRecord
	nextSeq int
	now     func() time.Time
}

func NewEngagementBoard() *EngagementBoard {
	return &EngagementBoard{
		records: make(map[string]*engagementRecord),
		now:     time.Now,
	}
}

// Track registers a peer; join order is the leaderboard tie-break.
func (b *EngagementBoard) Track(sid, name string) {
	if _, ok := b.records[sid]; ok {
		return
	}
	b.records[sid] = &engagementRecord{
		sid:          sid,
		name:         name,
		joinSeq:      b.nextSeq,
		lastActivity: b.now(),
	}
	b.nextSeq++
}

// Remove drops a peer's aggregate when it leaves the room.
func (b *EngagementBoard) Remove(sid string) {
	delete(b.records, sid)
}

// RecordAttention folds a sample into the peer's cumulative mean.
// Samples are clamped to [0, 1] before folding.
func (b *EngagementBoard) RecordAttention(sid string, score float64) {
	r, ok := b.records[sid]
	if !ok {
		return
	}
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	r.attentionSum += score
	r.attentionN++
	r.lastActivity = b.now()
}

// RecordSpeech credits speaking time estimated from the entry's length.
func (b *EngagementBoard) RecordSpeech(sid string, e domain.TranscriptEntry) {
	r, ok := b.records[sid]
	if !ok {
		return
	}
	r.speakingTime += float64(len(strings.Fields(e.Text))) * secondsPerWord
	r.lastActivity = b.now()
}

func (b *EngagementBoard) totalSpeaking() float64 {
	var total float64
	for _, r := range b.records {
		total += r.speakingTime
	}
	return total
}

func (b *EngagementBoard) score(r *engagementRecord, totalSpeaking float64) float64 {
	share := 0.0
	if totalSpeaking > 0 {
		share = r.speakingTime / totalSpeaking
	}
	return attentionWeight*r.avgAttention() + speakingWeight*share
}

// Leaderboard returns peers sorted descending by engagement score, ties
// broken by join order. Pure read.
func (b *EngagementBoard) Leaderboard() []EngagementRow {
	total := b.totalSpeaking()
	recs := make([]*engagementRecord, 0, len(b.records))
	for _, r := range b.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool {
		si, sj := b.score(recs[i], total), b.score(recs[j], total)
		if si != sj {
			return si > sj
		}
		return recs[i].joinSeq < recs[j].joinSeq
	})

	rows := make([]EngagementRow, 0, len(recs))
	for i, r := range recs {
		rows = append(rows, EngagementRow{
			SID:          r.sid,
			Name:         r.name,
			Score:        b.score(r, total),
			SpeakingTime: r.speakingTime,
			AvgAttention: r.avgAttention(),
			LastActivity: r.lastActivity.Unix(),
			Title:        rowTitle(i, len(recs)),
		})
	}
	return rows
}

func rowTitle(idx, total int) string {
	switch {
	case total > 1 && idx == 0:
		return "Meeting Champ"
	case total > 1 && idx == total-1:
		return "Silent Listener"
	default:
		return "#" + strconv.Itoa(idx+1) + " Participant"
	}
}

// SpeakingDistribution returns each peer's share of the room's total
// speaking time.
func (b *EngagementBoard) SpeakingDistribution() map[string]SpeakingShare {
	total := b.totalSpeaking()
	out := make(map[string]SpeakingShare, len(b.records))
	for sid, r := range b.records {
		pct := 0.0
		if total > 0 {
			pct = r.speakingTime / total * 100
		}
		out[sid] = SpeakingShare{Name: r.name, Time: r.speakingTime, Percentage: pct}
	}
	return out
}

// QuietPeers returns peers inactive longer than idle whose engagement
// score is below the threshold, candidates for an explicit nudge.
func (b *EngagementBoard) QuietPeers(idle time.Duration, below float64) []string {
	total := b.totalSpeaking()
	now := b.now()
	var out []string
	for sid, r := range b.records {
		if now.Sub(r.lastActivity) > idle && b.score(r, total) < below {
			out = append(out, sid)
		}
	}
	sort.Strings(out)
	return out
}
