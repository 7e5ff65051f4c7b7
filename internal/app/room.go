package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agamai/meet/internal/app/analytics"
	"github.com/agamai/meet/internal/core"
	"github.com/agamai/meet/internal/domain"
)

// roomState bundles one room's aggregators behind a single lock. All
// mutations of a room's transcript, engagement, speech buffers and
// network mode are serialized here; collaborator calls happen outside
// the lock with a second short acquisition to reattach results.
type roomState struct {
	id        domain.RoomID
	startedAt time.Time

	mu     sync.Mutex
	alive  bool
	log    *analytics.TranscriptLog
	speech *analytics.SpeechBuffer
	board  *analytics.EngagementBoard
	net    *analytics.NetworkMonitor

	cancel context.CancelFunc
}

func (c *Coordinator) newRoomState(id domain.RoomID) *roomState {
	return &roomState{
		id:        id,
		startedAt: time.Now(),
		alive:     true,
		log:       analytics.NewTranscriptLog(),
		speech:    analytics.NewSpeechBuffer(c.opts.FlushMinBytes),
		board:     analytics.NewEngagementBoard(),
		net:       analytics.NewNetworkMonitor(c.opts.RecoveryDwell, c.opts.NudgeAfter),
	}
}

// runFlush is the room's recurring speech-buffer flush. It stops when the
// room is torn down.
func (c *Coordinator) runFlush(ctx context.Context, st *roomState) {
	ticker := time.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "app.room").Str("room", string(st.id)).Msg("flush loop stopped")
			return
		case <-ticker.C:
			c.flushOnce(st)
		}
	}
}

// flushOnce drains every buffer that reached the minimum size and hands
// each speaker's audio to transcription. The snapshot-and-clear happens
// under the room lock; the transcription call does not. Speakers are
// transcribed independently so one empty result never blocks another.
// Transcription runs on the coordinator's context, not the room's: a
// room torn down mid-call does not abort the call, its late result is
// discarded by the alive check in finalize.
func (c *Coordinator) flushOnce(st *roomState) {
	st.mu.Lock()
	drained := st.speech.Drain()
	st.mu.Unlock()

	for sid, audio := range drained {
		go c.transcribeBuffer(c.baseCtx, st, sid, audio)
	}
}

func (c *Coordinator) transcribeBuffer(ctx context.Context, st *roomState, sid string, audio []byte) {
	text, err := c.transcriber.Transcribe(ctx, audio)
	if err != nil {
		// The buffer was already cleared; this flush cycle is lost and
		// the stale audio is never retried.
		log.Warn().Err(err).Str("module", "app.room").Str("room", string(st.id)).Str("sid", sid).Int("bytes", len(audio)).Msg("transcription failed, flush cycle discarded")
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	speaker := domain.DisplayName("", sid)
	if p, ok := c.Registry.Peer(st.id, core.SessionID(sid)); ok {
		speaker = p.Name
	}
	c.finalize(ctx, st, domain.TranscriptEntry{
		SID:     sid,
		Speaker: speaker,
		Text:    text,
		TS:      time.Now().Unix(),
		Source:  domain.SourceAudio,
	})
}
