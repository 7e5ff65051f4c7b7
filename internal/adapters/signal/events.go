package signal

import (
	"encoding/base64"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/agamai/meet/internal/core"
	"github.com/agamai/meet/internal/domain"
)

// handleEvent decodes one inbound frame into a typed command and routes
// it. Malformed events are logged and ignored; the connection stays open.
func (ctl *Controller) handleEvent(sid core.SessionID, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json, event ignored")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(sid, c, data)
	case "leave":
		ctl.handleLeave(sid, data)
	case "offer":
		ctl.relay(sid, "offer", "sdp", data)
	case "answer":
		ctl.relay(sid, "answer", "sdp", data)
	case "ice-candidate":
		ctl.relay(sid, "ice-candidate", "candidate", data)
	case "transcript-text":
		ctl.handleTranscriptText(sid, data)
	case "audio-chunk":
		ctl.handleAudioChunk(sid, data)
	case "attention":
		ctl.handleAttention(sid, data)
	case "network-stats":
		ctl.handleNetworkStats(sid, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) handleJoin(sid core.SessionID, c *wsConn, data []byte) {
	var p struct {
		Room string `json:"room"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload, ignored")
		return
	}

	existing := ctl.Coord.Join(sid, domain.RoomID(p.Room), p.Name, c)
	ctl.sendJSON(c, struct {
		Type  string        `json:"type"`
		Peers []domain.Peer `json:"peers"`
	}{"existing-peers", existing})
}

func (ctl *Controller) handleLeave(sid core.SessionID, data []byte) {
	var p struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad leave payload, ignored")
		return
	}
	ctl.Coord.Leave(sid, domain.RoomID(p.Room))
}

// relay extracts the target and the opaque payload field and forwards it
// without ever decoding the payload itself.
func (ctl *Controller) relay(sid core.SessionID, event, payloadKey string, data []byte) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("event", event).Msg("bad relay payload, ignored")
		return
	}
	var to string
	if err := json.Unmarshal(fields["to"], &to); err != nil || to == "" {
		log.Warn().Str("module", "signal").Str("event", event).Str("sid", string(sid)).Msg("relay without target, ignored")
		return
	}
	payload, ok := fields[payloadKey]
	if !ok {
		log.Warn().Str("module", "signal").Str("event", event).Str("sid", string(sid)).Msg("relay without payload, ignored")
		return
	}
	ctl.Coord.Relay(sid, event, to, payloadKey, payload)
}

func (ctl *Controller) handleTranscriptText(sid core.SessionID, data []byte) {
	var p struct {
		Room       string  `json:"room"`
		Text       string  `json:"text"`
		TS         int64   `json:"ts"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Text == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad transcript-text payload, ignored")
		return
	}
	ctl.Coord.IngestText(sid, domain.RoomID(p.Room), p.Text, p.TS, p.Confidence)
}

func (ctl *Controller) handleAudioChunk(sid core.SessionID, data []byte) {
	var p struct {
		Room  string `json:"room"`
		Audio string `json:"audio"`
		TS    int64  `json:"ts"`
		Seq   int64  `json:"seq"`
		From  string `json:"from"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Audio == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad audio-chunk payload, ignored")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(p.Audio)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad audio encoding, chunk ignored")
		return
	}
	speaker := p.From
	if speaker == "" {
		speaker = string(sid)
	}
	ctl.Coord.IngestAudio(domain.RoomID(p.Room), speaker, raw)
}

func (ctl *Controller) handleAttention(sid core.SessionID, data []byte) {
	var p struct {
		Room  string   `json:"room"`
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Score == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad attention payload, ignored")
		return
	}
	ctl.Coord.RecordAttention(sid, domain.RoomID(p.Room), *p.Score)
}

func (ctl *Controller) handleNetworkStats(sid core.SessionID, data []byte) {
	var p struct {
		Room  string                `json:"room"`
		Stats *domain.NetworkReport `json:"stats"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" || p.Stats == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("bad network-stats payload, ignored")
		return
	}
	ctl.Coord.ReportNetwork(sid, domain.RoomID(p.Room), *p.Stats)
}
