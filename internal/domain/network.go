package domain

import (
	"encoding/json"
	"fmt"
)

// NetworkReport is a periodic connection-quality sample from one peer.
// It is consumed by the adaptation state machine and not retained.
type NetworkReport struct {
	RTT        float64 `json:"rtt"`         // round-trip time, ms
	PacketLoss float64 `json:"packet_loss"` // ratio, 0..1
	Bandwidth  float64 `json:"bandwidth"`   // estimated, kbps
}

// NetworkMode is the room-wide quality-degradation state. Transitions
// move one step at a time.
type NetworkMode int

const (
	ModeNormal NetworkMode = iota
	ModeDegradeVideo
	ModeAudioOnly
	ModeCaptionsOnly
)

var modeNames = [...]string{"normal", "degrade-video", "audio-only", "captions-only"}

func (m NetworkMode) String() string {
	if m < ModeNormal || m > ModeCaptionsOnly {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Up returns the next-worse mode, saturating at captions-only.
func (m NetworkMode) Up() NetworkMode {
	if m >= ModeCaptionsOnly {
		return ModeCaptionsOnly
	}
	return m + 1
}

// Down returns the next-better mode, saturating at normal.
func (m NetworkMode) Down() NetworkMode {
	if m <= ModeNormal {
		return ModeNormal
	}
	return m - 1
}

func (m NetworkMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *NetworkMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range modeNames {
		if name == s {
			*m = NetworkMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown network mode %q", s)
}
