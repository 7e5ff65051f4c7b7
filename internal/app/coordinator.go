package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/agamai/meet/internal/app/analytics"
	"github.com/agamai/meet/internal/collab"
	"github.com/agamai/meet/internal/core"
	"github.com/agamai/meet/internal/domain"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrEmptyTranscript = errors.New("no transcript available")
)

// autoSummaryEvery controls the periodic auto-summary hint broadcast.
const autoSummaryEvery = 20

// Options tune the per-room pipelines. Zero values fall back to the
// defaults the browser clients are built against.
type Options struct {
	FlushInterval  time.Duration
	FlushMinBytes  int
	RecoveryDwell  time.Duration
	NudgeAfter     time.Duration
	IdleNudgeAfter time.Duration
	NudgeBelow     float64
}

func (o Options) withDefaults() Options {
	if o.FlushInterval <= 0 {
		o.FlushInterval = 3 * time.Second
	}
	if o.FlushMinBytes <= 0 {
		o.FlushMinBytes = 1024
	}
	if o.RecoveryDwell <= 0 {
		o.RecoveryDwell = 10 * time.Second
	}
	if o.NudgeAfter <= 0 {
		o.NudgeAfter = 30 * time.Second
	}
	if o.IdleNudgeAfter <= 0 {
		o.IdleNudgeAfter = 5 * time.Minute
	}
	if o.NudgeBelow <= 0 {
		o.NudgeBelow = 0.3
	}
	return o
}

// Coordinator is the session root: it owns one roomState per active room,
// routes inbound events to the relay and the aggregators, broadcasts
// derived state back to peers and tears rooms down when the last peer
// leaves. A failure in one room's pipeline never affects other rooms.
type Coordinator struct {
	Registry *Registry

	opts        Options
	transcriber collab.Transcriber
	sentiment   collab.SentimentAnalyzer
	summarizer  collab.Summarizer

	baseCtx   context.Context
	baseStop  context.CancelFunc
	mu        sync.RWMutex
	rooms     map[domain.RoomID]*roomState
	summaries singleflight.Group
}

func NewCoordinator(reg *Registry, t collab.Transcriber, s collab.SentimentAnalyzer, sum collab.Summarizer, opts Options) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		Registry:    reg,
		opts:        opts.withDefaults(),
		transcriber: t,
		sentiment:   s,
		summarizer:  sum,
		baseCtx:     ctx,
		baseStop:    cancel,
		rooms:       make(map[domain.RoomID]*roomState),
	}
}

// Close stops every room's flush loop.
func (c *Coordinator) Close() {
	c.baseStop()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, st := range c.rooms {
		st.cancel()
		st.mu.Lock()
		st.alive = false
		st.mu.Unlock()
		delete(c.rooms, id)
	}
}

func (c *Coordinator) room(id domain.RoomID) *roomState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[id]
}

func (c *Coordinator) ensureRoom(id domain.RoomID) *roomState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.rooms[id]; ok {
		return st
	}
	st := c.newRoomState(id)
	ctx, cancel := context.WithCancel(c.baseCtx)
	st.cancel = cancel
	c.rooms[id] = st
	go c.runFlush(ctx, st)
	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Msg("room pipeline started")
	return st
}

func (c *Coordinator) teardown(id domain.RoomID) {
	c.mu.Lock()
	if len(c.Registry.Lookup(id)) > 0 {
		// A join repopulated the room after the leave that emptied it;
		// the pipeline stays up for the new member.
		c.mu.Unlock()
		return
	}
	st := c.rooms[id]
	delete(c.rooms, id)
	c.mu.Unlock()
	if st == nil {
		return
	}
	st.cancel()
	st.mu.Lock()
	st.alive = false
	st.mu.Unlock()
	log.Info().Str("module", "app.coordinator").Str("room", string(id)).Msg("room pipeline discarded")
}

// Join registers the peer, starts the room pipeline on first join, and
// notifies the room. It returns the peers that were already present so
// the caller can deliver the existing-peers reply.
func (c *Coordinator) Join(sid core.SessionID, room domain.RoomID, name string, conn core.SignalConnection) []domain.Peer {
	existing, _ := c.Registry.Join(room, sid, name, conn)
	st := c.ensureRoom(room)

	peer, _ := c.Registry.Peer(room, sid)
	st.mu.Lock()
	st.board.Track(string(sid), peer.Name)
	st.mu.Unlock()

	c.broadcastExcept(room, sid, struct {
		Type string      `json:"type"`
		Peer domain.Peer `json:"peer"`
	}{"new-peer", peer})
	return existing
}

// Leave deregisters the peer and notifies the remainder of the room.
// Leaving twice, or leaving after a disconnect already removed the peer,
// is a no-op.
func (c *Coordinator) Leave(sid core.SessionID, room domain.RoomID) {
	removed, empty := c.Registry.Leave(room, sid)
	if !removed {
		return
	}
	if empty {
		// teardown declines when a concurrent join repopulated the room;
		// the leaver's aggregates are then pruned like any other leave.
		c.teardown(room)
	}
	if st := c.room(room); st != nil {
		st.mu.Lock()
		st.board.Remove(string(sid))
		st.speech.Discard(string(sid))
		st.mu.Unlock()
	}
	c.broadcastExcept(room, sid, struct {
		Type string `json:"type"`
		SID  string `json:"sid"`
	}{"peer-left", string(sid)})
}

// Disconnect handles a transport-level drop without an explicit leave.
func (c *Coordinator) Disconnect(sid core.SessionID) {
	if room, ok := c.Registry.RoomOf(sid); ok {
		c.Leave(sid, room)
	}
}

// Relay forwards a negotiation envelope verbatim to one peer, tagged with
// the sender. The payload is opaque; it is never validated or mutated.
// If the target already left, the envelope is dropped and logged; the
// sender is not told.
func (c *Coordinator) Relay(from core.SessionID, event, to, payloadKey string, payload json.RawMessage) {
	room, ok := c.Registry.RoomOf(from)
	if !ok {
		log.Warn().Str("module", "app.coordinator").Str("sid", string(from)).Str("event", event).Msg("relay from peer outside any room, dropped")
		return
	}
	conn, ok := c.Registry.Conn(room, core.SessionID(to))
	if !ok {
		log.Warn().Str("module", "app.coordinator").Str("room", string(room)).Str("to", to).Str("event", event).Msg("relay target no longer registered, dropped")
		return
	}

	frame, err := json.Marshal(map[string]json.RawMessage{
		"type":     mustRaw(event),
		payloadKey: payload,
		"from":     mustRaw(string(from)),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("relay marshal")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Str("to", to).Str("event", event).Msg("relay delivery failed, dropped")
	}
}

func mustRaw(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// IngestText is the direct-path transcript ingestion: the utterance is
// already text and becomes an entry immediately.
func (c *Coordinator) IngestText(sid core.SessionID, room domain.RoomID, text string, ts int64, confidence float64) {
	st := c.room(room)
	if st == nil {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if ts == 0 {
		ts = time.Now().Unix()
	}
	speaker := domain.DisplayName("", string(sid))
	if p, ok := c.Registry.Peer(room, sid); ok {
		speaker = p.Name
	}
	c.finalize(c.baseCtx, st, domain.TranscriptEntry{
		SID:        string(sid),
		Speaker:    speaker,
		Text:       text,
		TS:         ts,
		Confidence: confidence,
		Source:     domain.SourceText,
	})
}

// IngestAudio buffers a raw-audio fragment until the next flush tick.
// The speaker must be a registered member of the room; otherwise a client
// could grow buffers under arbitrary ids that only teardown reclaims.
func (c *Coordinator) IngestAudio(room domain.RoomID, speaker string, data []byte) {
	st := c.room(room)
	if st == nil {
		return
	}
	if _, ok := c.Registry.Peer(room, core.SessionID(speaker)); !ok {
		log.Warn().Str("module", "app.coordinator").Str("room", string(room)).Str("speaker", speaker).Msg("audio for unregistered speaker, dropped")
		return
	}
	st.mu.Lock()
	st.speech.Append(speaker, data)
	st.mu.Unlock()
}

// finalize scores the entry's sentiment outside the room lock, appends it
// under the lock, and broadcasts the update. A late result for a room
// that no longer exists is discarded.
func (c *Coordinator) finalize(ctx context.Context, st *roomState, entry domain.TranscriptEntry) {
	score, err := c.sentiment.Score(ctx, entry.Text)
	if err != nil {
		// Neutral default; the entry is still appended.
		log.Warn().Err(err).Str("module", "app.coordinator").Str("room", string(st.id)).Msg("sentiment scoring failed")
		score = 0
	}
	entry.Sentiment = score

	st.mu.Lock()
	if !st.alive {
		st.mu.Unlock()
		return
	}
	st.log.Append(entry)
	st.board.RecordSpeech(entry.SID, entry)
	total := st.log.Len()
	alert := st.log.CheckAlert()
	st.mu.Unlock()

	c.broadcastExcept(st.id, "", struct {
		Type  string                 `json:"type"`
		Room  string                 `json:"room"`
		Entry domain.TranscriptEntry `json:"entry"`
	}{"transcript-update", string(st.id), entry})

	if alert.Alert {
		c.broadcastExcept(st.id, "", struct {
			Type string `json:"type"`
			analytics.SentimentAlert
		}{Type: "sentiment-alert", SentimentAlert: alert})
	}
	if total > 0 && total%autoSummaryEvery == 0 {
		c.broadcastExcept(st.id, "", struct {
			Type             string `json:"type"`
			Room             string `json:"room"`
			TranscriptLength int    `json:"transcript_length"`
			Message          string `json:"message"`
		}{"auto-summary-available", string(st.id), total, "Auto-summary available"})
	}
}

// RecordAttention folds an attention sample into the peer's aggregate and
// echoes it to the room.
func (c *Coordinator) RecordAttention(sid core.SessionID, room domain.RoomID, score float64) {
	st := c.room(room)
	if st == nil {
		return
	}
	st.mu.Lock()
	st.board.RecordAttention(string(sid), score)
	st.mu.Unlock()

	c.broadcastExcept(room, "", struct {
		Type  string  `json:"type"`
		SID   string  `json:"sid"`
		Score float64 `json:"score"`
	}{"attention-update", string(sid), score})
}

// ReportNetwork feeds a connection-quality report to the room's state
// machine and broadcasts a directive when the mode changes.
func (c *Coordinator) ReportNetwork(sid core.SessionID, room domain.RoomID, report domain.NetworkReport) {
	st := c.room(room)
	if st == nil {
		return
	}
	st.mu.Lock()
	verdict := st.net.Observe(report)
	st.mu.Unlock()

	if verdict.Changed {
		log.Info().Str("module", "app.coordinator").Str("room", string(room)).Str("mode", verdict.Mode.String()).Msg("network mode changed")
		c.broadcastExcept(room, "", struct {
			Type  string               `json:"type"`
			Mode  domain.NetworkMode   `json:"mode"`
			Stats domain.NetworkReport `json:"stats"`
		}{"network-adaptation", verdict.Mode, report})
	}
	if verdict.Nudge {
		c.broadcastExcept(room, "", struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{"nudge", "Network quality has been degraded for a while. Consider switching networks or turning off video."})
	}
}

// broadcastExcept marshals v once and fans it out to every peer in the
// room except skip (empty skip means everyone). Slow consumers are
// dropped, not waited on.
func (c *Coordinator) broadcastExcept(room domain.RoomID, skip core.SessionID, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("broadcast marshal")
		return
	}
	for _, conn := range c.Registry.Conns(room, skip) {
		if err := conn.TrySend(frame); err != nil {
			log.Debug().Err(err).Str("module", "app.coordinator").Str("room", string(room)).Msg("broadcast frame dropped")
		}
	}
}

func (c *Coordinator) sendTo(room domain.RoomID, sid core.SessionID, v any) {
	conn, ok := c.Registry.Conn(room, sid)
	if !ok {
		return
	}
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("send marshal")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "app.coordinator").Str("sid", string(sid)).Msg("frame dropped")
	}
}
