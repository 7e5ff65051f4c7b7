package analytics

import (
	"time"

	"github.com/agamai/meet/internal/domain"
)

// NetworkVerdict is the outcome of folding one report into the state
// machine. Changed means a directive must be broadcast; Nudge means the
// room has sat degraded long enough to warrant a one-time prompt.
type NetworkVerdict struct {
	Changed bool
	Mode    domain.NetworkMode
	Nudge   bool
}

// NetworkMonitor is the per-room quality-degradation state machine.
// Degradation advances one step per report regardless of how bad the
// report is; recovery steps back one level only after the reports have
// stayed below the current level for the dwell period.
type NetworkMonitor struct {
	mode          domain.NetworkMode
	changedAt     time.Time
	recoverySince time.Time
	nudged        bool

	dwell      time.Duration
	nudgeAfter time.Duration
	now        func() time.Time
}

func NewNetworkMonitor(dwell, nudgeAfter time.Duration) *NetworkMonitor {
	m := &NetworkMonitor{
		dwell:      dwell,
		nudgeAfter: nudgeAfter,
		now:        time.Now,
	}
	m.changedAt = m.now()
	return m
}

// Mode returns the room's current mode.
func (m *NetworkMonitor) Mode() domain.NetworkMode { return m.mode }

// classify maps a report to the degradation level its raw numbers call
// for. The thresholds are ordered worst-first.
func classify(r domain.NetworkReport) domain.NetworkMode {
	switch {
	case r.PacketLoss >= 0.35 || r.Bandwidth < 100:
		return domain.ModeCaptionsOnly
	case r.PacketLoss >= 0.20 || r.Bandwidth < 200:
		return domain.ModeAudioOnly
	case r.RTT >= 300 || r.PacketLoss >= 0.05 || r.Bandwidth < 400:
		return domain.ModeDegradeVideo
	default:
		return domain.ModeNormal
	}
}

// Observe folds one report into the state machine.
func (m *NetworkMonitor) Observe(r domain.NetworkReport) NetworkVerdict {
	now := m.now()
	target := classify(r)
	v := NetworkVerdict{Mode: m.mode}

	switch {
	case target > m.mode:
		m.transition(m.mode.Up(), now)
		m.recoverySince = time.Time{}
		v.Changed = true
	case target < m.mode:
		if m.recoverySince.IsZero() {
			m.recoverySince = now
		} else if now.Sub(m.recoverySince) >= m.dwell {
			m.transition(m.mode.Down(), now)
			m.recoverySince = now
			v.Changed = true
		}
	default:
		// Holding at the current level interrupts any recovery streak.
		m.recoverySince = time.Time{}
	}

	v.Mode = m.mode
	if !m.nudged && m.mode >= domain.ModeAudioOnly && now.Sub(m.changedAt) >= m.nudgeAfter {
		m.nudged = true
		v.Nudge = true
	}
	return v
}

func (m *NetworkMonitor) transition(to domain.NetworkMode, now time.Time) {
	m.mode = to
	m.changedAt = now
	if to < domain.ModeAudioOnly {
		// The nudge re-arms once the room recovers below the degraded
		// band; it fires again only after degrading anew.
		m.nudged = false
	}
}
