// SPDX-License-Identifier: Unlicense OR MIT

// Package activation implements focus-stealing prevention: the policy
// deciding whether a window may become active, driven by user-time
// timestamps and transient relations.
package activation

import (
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/wm"
)

// Level is the global focus-stealing-prevention strictness.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelNormal
	LevelHigh
	LevelExtreme
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelLow:
		return "low"
	case LevelNormal:
		return "normal"
	case LevelHigh:
		return "high"
	case LevelExtreme:
		return "extreme"
	}
	return "invalid"
}

// Request describes one activation attempt.
type Request struct {
	Candidate *wm.Window
	Active    *wm.Window
	// DescendantOfActive is true when the candidate is a transient
	// descendant of the active window.
	DescendantOfActive bool
	// SameApplication is true when candidate and active share a
	// window group or desktop file.
	SameApplication bool
	// FocusIn marks requests triggered by protocol focus events
	// rather than explicit activation asks.
	FocusIn bool
	// StartupGrace is true while the compositor is still in its
	// startup grace period, during which stealing checks are waived.
	StartupGrace bool
}

// Allow evaluates the policy. The caller applies per-window rule
// overrides to level before calling. A false return means the
// candidate gets demands-attention instead of focus.
func Allow(level Level, req Request) bool {
	if level < LevelNone || level > LevelExtreme {
		level = LevelNormal
	}
	if req.Candidate == nil || req.Candidate.Control == nil {
		return false
	}
	if req.StartupGrace || level == LevelNone {
		return true
	}
	if level == LevelExtreme {
		return false
	}

	active := req.Active
	if active == nil || active.Control == nil {
		return true
	}
	if req.DescendantOfActive || req.SameApplication {
		return true
	}

	cand := req.Candidate.Control.UserTime
	act := active.Control.UserTime

	switch level {
	case LevelLow:
		// When in doubt, allow.
		if !cand.Defined || !act.Defined {
			return true
		}
		if cand.Zero {
			return false
		}
	case LevelNormal:
		if !act.Defined {
			return true
		}
		if !cand.Defined {
			// No timestamp from the client at all: treat as current.
			return true
		}
		if cand.Zero {
			// The client explicitly said "do not steal focus".
			return false
		}
	case LevelHigh:
		// Only same-application windows may steal; reaching here the
		// candidate is foreign.
		return false
	}

	allowed := cand.AtLeast(act)
	if !allowed {
		log.WithFields(log.Fields{
			"candidate": req.Candidate.ID,
			"level":     level.String(),
		}).Debug("activation denied by focus stealing prevention")
	}
	return allowed
}
