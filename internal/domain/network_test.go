package domain

import (
	"encoding/json"
	"testing"
)

func TestNetworkMode_StepsSaturate(t *testing.T) {
	t.Parallel()
	if got := ModeCaptionsOnly.Up(); got != ModeCaptionsOnly {
		t.Errorf("Up from captions-only=%s, want saturation", got)
	}
	if got := ModeNormal.Down(); got != ModeNormal {
		t.Errorf("Down from normal=%s, want saturation", got)
	}
	if got := ModeNormal.Up(); got != ModeDegradeVideo {
		t.Errorf("Up from normal=%s, want degrade-video", got)
	}
	if got := ModeCaptionsOnly.Down(); got != ModeAudioOnly {
		t.Errorf("Down from captions-only=%s, want audio-only", got)
	}
}

func TestNetworkMode_JSONRoundTrip(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(ModeAudioOnly)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"audio-only"` {
		t.Errorf("marshaled=%s, want quoted mode name", b)
	}

	var m NetworkMode
	if err := json.Unmarshal([]byte(`"captions-only"`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m != ModeCaptionsOnly {
		t.Errorf("unmarshaled=%s, want captions-only", m)
	}

	if err := json.Unmarshal([]byte(`"teleport"`), &m); err == nil {
		t.Error("unknown mode name accepted")
	}
}
