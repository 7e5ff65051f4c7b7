package domain

// Transcript entry source tags.
const (
	SourceText  = "text"  // finalized utterance arrived as text
	SourceAudio = "audio" // derived from a transcribed audio buffer
)

// TranscriptEntry is immutable once appended to a room's transcript.
// Entries are ordered by finalization time, which may differ from speech
// order when two speakers' audio buffers flush at different times.
type TranscriptEntry struct {
	SID        string  `json:"sid"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	TS         int64   `json:"ts"`
	Sentiment  float64 `json:"sentiment"`
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source"`
}

// AttentionSample is ephemeral; it is folded into the speaker's rolling
// aggregate immediately and never stored as history.
type AttentionSample struct {
	SID   string  `json:"sid"`
	Score float64 `json:"score"`
	TS    int64   `json:"ts"`
}
