// SPDX-License-Identifier: Unlicense OR MIT

package input

import (
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/input/xkb"
)

// Action is a bound shortcut handler.
type Action func()

type keyChord struct {
	mods xkb.Modifiers
	sym  uint32
}

type buttonChord struct {
	mods   xkb.Modifiers
	button Button
}

type axisChord struct {
	mods xkb.Modifiers
	dir  AxisDirection
}

type swipeChord struct {
	fingers int
	dir     Direction
}

// Shortcuts matches global shortcuts: modifier+key, modifier+button,
// modifier+axis, multi-finger swipes, and modifier-only taps. It is
// registered both as a spy (so the modifier-only tracker sees every
// event, consumed or not) and as a filter.
type Shortcuts struct {
	keys     map[keyChord]Action
	buttons  map[buttonChord]Action
	axes     map[axisChord]Action
	swipes   map[swipeChord]Action
	modsOnly map[xkb.Modifiers]Action

	// Locked suppresses everything while the screen is locked;
	// FocusDisables reflects the focused window's shortcut rule.
	Locked        bool
	FocusDisables func() bool

	pending       xkb.Modifiers
	pendingActive bool
}

func NewShortcuts() *Shortcuts {
	return &Shortcuts{
		keys:     make(map[keyChord]Action),
		buttons:  make(map[buttonChord]Action),
		axes:     make(map[axisChord]Action),
		swipes:   make(map[swipeChord]Action),
		modsOnly: make(map[xkb.Modifiers]Action),
	}
}

// BindKey registers mods+keysym.
func (s *Shortcuts) BindKey(mods xkb.Modifiers, sym uint32, a Action) {
	s.keys[keyChord{mods.NoCaps(), sym}] = a
}

// BindButton registers mods+pointer button.
func (s *Shortcuts) BindButton(mods xkb.Modifiers, b Button, a Action) {
	s.buttons[buttonChord{mods.NoCaps(), b}] = a
}

// BindAxis registers mods+scroll direction.
func (s *Shortcuts) BindAxis(mods xkb.Modifiers, d AxisDirection, a Action) {
	s.axes[axisChord{mods.NoCaps(), d}] = a
}

// BindSwipe registers an n-finger swipe in a direction.
func (s *Shortcuts) BindSwipe(fingers int, d Direction, a Action) {
	s.swipes[swipeChord{fingers, d}] = a
}

// BindModifierOnly registers a bare-modifier tap.
func (s *Shortcuts) BindModifierOnly(mod xkb.Modifiers, a Action) {
	s.modsOnly[mod] = a
}

func (s *Shortcuts) suppressed() bool {
	return s.Locked || (s.FocusDisables != nil && s.FocusDisables())
}

// Spy tracks the modifier-only press window. Any device event other
// than the press and release of the pending modifier cancels it; Caps
// Lock is its own modifier and never counts as Shift.
func (s *Shortcuts) Spy(e *Event) {
	if e.Kind != KindKey {
		s.pendingActive = false
		return
	}
	mod, isMod := xkb.ModifierForKeysym(e.Keysym)
	if e.Pressed {
		if isMod && mod != xkb.ModCapsLock && mod != xkb.ModNumLock && !s.pendingActive {
			if _, bound := s.modsOnly[mod]; bound {
				s.pending = mod
				s.pendingActive = true
				return
			}
		}
		s.pendingActive = false
		return
	}
	// Release of anything but the pending modifier cancels; the
	// matching release is handled in the filter stage.
	if !s.pendingActive || !isMod || mod != s.pending {
		s.pendingActive = false
	}
}

// Name implements Filter.
func (s *Shortcuts) Name() string { return "global-shortcuts" }

// Filter matches and consumes shortcut activations.
func (s *Shortcuts) Filter(e *Event) bool {
	switch e.Kind {
	case KindKey:
		return s.filterKey(e)
	case KindButton:
		if !e.Pressed || s.suppressed() {
			return false
		}
		if a, ok := s.buttons[buttonChord{e.Mods.NoCaps(), e.Button}]; ok {
			a()
			return true
		}
	case KindAxis:
		if s.suppressed() {
			return false
		}
		if a, ok := s.axes[axisChord{e.Mods.NoCaps(), e.Axis}]; ok {
			a()
			return true
		}
	}
	return false
}

func (s *Shortcuts) filterKey(e *Event) bool {
	if e.Pressed {
		if s.suppressed() {
			return false
		}
		if _, isMod := xkb.ModifierForKeysym(e.Keysym); isMod {
			return false
		}
		if a, ok := s.keys[keyChord{e.Mods.NoCaps(), e.Keysym}]; ok {
			a()
			return true
		}
		return false
	}
	// Modifier-only trigger on release.
	mod, isMod := xkb.ModifierForKeysym(e.Keysym)
	if !isMod || !s.pendingActive || mod != s.pending {
		return false
	}
	s.pendingActive = false
	if s.suppressed() {
		return false
	}
	if a, ok := s.modsOnly[mod]; ok {
		log.WithField("modifier", mod).Debug("modifier-only shortcut")
		a()
	}
	return false
}

// HandleSwipe is called by the gesture recognizer when a swipe
// completes.
func (s *Shortcuts) HandleSwipe(fingers int, d Direction) bool {
	if s.suppressed() {
		return false
	}
	if a, ok := s.swipes[swipeChord{fingers, d}]; ok {
		a()
		return true
	}
	return false
}
