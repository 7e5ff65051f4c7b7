// Package analytics holds the per-room streaming aggregators: the speech
// buffer, the transcript log with its sentiment series, the engagement
// board, and the network adaptation state machine.
//
// None of these types synchronize internally. Each room owns exactly one
// instance of each, and the owning room serializes all access.
package analytics

// SpeechBuffer accumulates raw audio fragments per speaker until a flush
// tick hands them to transcription. Flush is time-driven, not
// length-driven: a speaker who never stops talking buffers until the next
// tick. Buffers below the minimum size survive the tick untouched and are
// eligible again on the next one.
type SpeechBuffer struct {
	minBytes int
	buffers  map[string][]byte
}

func NewSpeechBuffer(minBytes int) *SpeechBuffer {
	return &SpeechBuffer{
		minBytes: minBytes,
		buffers:  make(map[string][]byte),
	}
}

// Append adds a fragment to the speaker's buffer. Fragments are
// concatenated in arrival order; the client's seq is informational only.
func (b *SpeechBuffer) Append(sid string, data []byte) {
	if len(data) == 0 {
		return
	}
	b.buffers[sid] = append(b.buffers[sid], data...)
}

// Drain removes and returns every buffer that reached the minimum size.
// Smaller buffers are kept. An empty map means the tick is a no-op.
func (b *SpeechBuffer) Drain() map[string][]byte {
	out := make(map[string][]byte, len(b.buffers))
	for sid, buf := range b.buffers {
		if len(buf) < b.minBytes {
			continue
		}
		out[sid] = buf
		delete(b.buffers, sid)
	}
	return out
}

// Discard drops any buffered audio for a speaker, used when the peer
// leaves mid-interval.
func (b *SpeechBuffer) Discard(sid string) {
	delete(b.buffers, sid)
}

// Pending reports the buffered byte count for a speaker.
func (b *SpeechBuffer) Pending(sid string) int {
	return len(b.buffers[sid])
}
