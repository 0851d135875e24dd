// SPDX-License-Identifier: Unlicense OR MIT

// Package xkb tracks the per-seat keyboard state: modifier masks,
// layout list and switching, and LED state. The keymap itself is
// compiled by the backend; the core only consumes mask updates and
// keysym lookups the backend provides.
package xkb

import (
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/event"
)

// Modifiers is the logical modifier bitmask shared across protocols.
type Modifiers uint16

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
	ModCapsLock
	ModNumLock
)

// NoCaps strips the lock modifiers, which never count for shortcut
// matching.
func (m Modifiers) NoCaps() Modifiers {
	return m &^ (ModCapsLock | ModNumLock)
}

// Modifier keysyms, X11 keysym values.
const (
	KeyShiftL   = 0xffe1
	KeyShiftR   = 0xffe2
	KeyControlL = 0xffe3
	KeyControlR = 0xffe4
	KeyCapsLock = 0xffe5
	KeyAltL     = 0xffe9
	KeyAltR     = 0xffea
	KeySuperL   = 0xffeb
	KeySuperR   = 0xffec
	KeyNumLock  = 0xff7f
	KeyEscape   = 0xff1b
	KeyReturn   = 0xff0d
)

// ModifierForKeysym maps a modifier keysym to its logical modifier.
// Caps Lock maps to ModCapsLock, never to ModShift.
func ModifierForKeysym(sym uint32) (Modifiers, bool) {
	switch sym {
	case KeyShiftL, KeyShiftR:
		return ModShift, true
	case KeyControlL, KeyControlR:
		return ModCtrl, true
	case KeyAltL, KeyAltR:
		return ModAlt, true
	case KeySuperL, KeySuperR:
		return ModSuper, true
	case KeyCapsLock:
		return ModCapsLock, true
	case KeyNumLock:
		return ModNumLock, true
	}
	return 0, false
}

// Layout is one entry of the configured layout list.
type Layout struct {
	Name      string
	ShortName string
}

// SwitchPolicy scopes layout switching.
type SwitchPolicy uint8

const (
	// PolicyGlobal keeps one layout for the whole seat.
	PolicyGlobal SwitchPolicy = iota
	// PolicyDesktop remembers the layout per virtual desktop.
	PolicyDesktop
	// PolicyWindow remembers the layout per window.
	PolicyWindow
)

// State is the per-seat keyboard state.
type State struct {
	depressed Modifiers
	latched   Modifiers
	locked    Modifiers

	layouts []Layout
	layout  int
	policy  SwitchPolicy

	// Remembered layouts for the non-global policies.
	perDesktop map[int]int
	perWindow  map[uint64]int

	leds LEDs

	// LayoutChanged fires with the new layout index.
	LayoutChanged event.Feed[int]
	// ModifiersChanged fires with the new effective mask.
	ModifiersChanged event.Feed[Modifiers]
}

// LEDs is the keyboard indicator state.
type LEDs struct {
	CapsLock   bool
	NumLock    bool
	ScrollLock bool
}

func NewState(layouts []Layout, policy SwitchPolicy) *State {
	if len(layouts) == 0 {
		layouts = []Layout{{Name: "English (US)", ShortName: "us"}}
	}
	return &State{
		layouts:    layouts,
		policy:     policy,
		perDesktop: make(map[int]int),
		perWindow:  make(map[uint64]int),
	}
}

// UpdateMask applies a backend modifier update.
func (s *State) UpdateMask(depressed, latched, locked Modifiers, layout int) {
	old := s.Modifiers()
	s.depressed, s.latched, s.locked = depressed, latched, locked
	s.leds.CapsLock = locked&ModCapsLock != 0
	s.leds.NumLock = locked&ModNumLock != 0
	if layout != s.layout && layout >= 0 && layout < len(s.layouts) {
		s.layout = layout
		s.LayoutChanged.Emit(layout)
	}
	if m := s.Modifiers(); m != old {
		s.ModifiersChanged.Emit(m)
	}
}

// Modifiers is the effective mask: depressed, latched and locked
// combined.
func (s *State) Modifiers() Modifiers {
	return s.depressed | s.latched | s.locked
}

// Depressed is the physically held mask only, without latched or
// locked modifiers.
func (s *State) Depressed() Modifiers {
	return s.depressed
}

// LEDState reports the indicator state.
func (s *State) LEDState() LEDs {
	return s.leds
}

// Layouts returns the configured list.
func (s *State) Layouts() []Layout {
	return append([]Layout(nil), s.layouts...)
}

// Layout is the current layout index.
func (s *State) Layout() int {
	return s.layout
}

// SwitchTo selects a layout by index.
func (s *State) SwitchTo(i int) {
	if i < 0 || i >= len(s.layouts) || i == s.layout {
		return
	}
	s.layout = i
	log.WithField("layout", s.layouts[i].Name).Debug("keyboard layout switched")
	s.LayoutChanged.Emit(i)
}

// SwitchNext cycles forward through the layout list.
func (s *State) SwitchNext() {
	s.SwitchTo((s.layout + 1) % len(s.layouts))
}

// SwitchPrev cycles backward.
func (s *State) SwitchPrev() {
	s.SwitchTo((s.layout - 1 + len(s.layouts)) % len(s.layouts))
}

// EnterContext restores the remembered layout when the focus or
// desktop context changes, per the configured policy. window is 0
// when only the desktop is known.
func (s *State) EnterContext(desktop int, window uint64) {
	switch s.policy {
	case PolicyDesktop:
		if l, ok := s.perDesktop[desktop]; ok {
			s.SwitchTo(l)
		}
	case PolicyWindow:
		if l, ok := s.perWindow[window]; ok {
			s.SwitchTo(l)
		}
	}
}

// LeaveContext remembers the current layout for the departing
// context.
func (s *State) LeaveContext(desktop int, window uint64) {
	switch s.policy {
	case PolicyDesktop:
		s.perDesktop[desktop] = s.layout
	case PolicyWindow:
		if window != 0 {
			s.perWindow[window] = s.layout
		}
	}
}

// ForgetWindow drops the remembered layout of a closed window.
func (s *State) ForgetWindow(window uint64) {
	delete(s.perWindow, window)
}
