package analytics

import (
	"bytes"
	"testing"
)

func TestSpeechBuffer_DrainConcatenatesInArrivalOrder(t *testing.T) {
	t.Parallel()
	b := NewSpeechBuffer(4)
	b.Append("p1", []byte{1, 2})
	b.Append("p1", []byte{3, 4, 5})

	drained := b.Drain()
	if !bytes.Equal(drained["p1"], []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("drained=%v, want fragments concatenated in arrival order", drained["p1"])
	}
	if b.Pending("p1") != 0 {
		t.Errorf("pending after drain=%d, want 0", b.Pending("p1"))
	}
}

func TestSpeechBuffer_BelowThresholdSurvivesTick(t *testing.T) {
	t.Parallel()
	b := NewSpeechBuffer(1024)
	b.Append("p1", make([]byte, 100))

	if drained := b.Drain(); len(drained) != 0 {
		t.Fatalf("drained %d buffers, want 0 (below minimum)", len(drained))
	}
	if b.Pending("p1") != 100 {
		t.Fatalf("pending=%d, want 100 (small buffer must survive the tick)", b.Pending("p1"))
	}

	// Once the buffer crosses the threshold it is eligible again.
	b.Append("p1", make([]byte, 1000))
	drained := b.Drain()
	if len(drained["p1"]) != 1100 {
		t.Errorf("drained %d bytes, want 1100", len(drained["p1"]))
	}
}

func TestSpeechBuffer_DrainIsPerSpeaker(t *testing.T) {
	t.Parallel()
	b := NewSpeechBuffer(10)
	b.Append("talker", make([]byte, 50))
	b.Append("whisperer", make([]byte, 3))

	drained := b.Drain()
	if _, ok := drained["talker"]; !ok {
		t.Errorf("talker not drained")
	}
	if _, ok := drained["whisperer"]; ok {
		t.Errorf("whisperer drained below threshold")
	}
	if b.Pending("whisperer") != 3 {
		t.Errorf("whisperer pending=%d, want 3", b.Pending("whisperer"))
	}
}

func TestSpeechBuffer_EmptyTickIsNoop(t *testing.T) {
	t.Parallel()
	b := NewSpeechBuffer(10)
	if drained := b.Drain(); len(drained) != 0 {
		t.Errorf("drained %d buffers from empty state, want 0", len(drained))
	}
}

func TestSpeechBuffer_Discard(t *testing.T) {
	t.Parallel()
	b := NewSpeechBuffer(10)
	b.Append("p1", make([]byte, 50))
	b.Discard("p1")
	if b.Pending("p1") != 0 {
		t.Errorf("pending after discard=%d, want 0", b.Pending("p1"))
	}
}

func TestSpeechBuffer_EmptyFragmentIgnored(t *testing.T) {
	t.Parallel()
	b := NewSpeechBuffer(10)
	b.Append("p1", nil)
	b.Append("p1", []byte{})
	if b.Pending("p1") != 0 {
		t.Errorf("pending=%d, want 0", b.Pending("p1"))
	}
}
