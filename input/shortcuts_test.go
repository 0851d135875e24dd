// SPDX-License-Identifier: Unlicense OR MIT

package input

import (
	"image"
	"testing"

	"github.com/halcyonwm/halcyon/input/xkb"
)

func shortcutRouter() (*Router, *Shortcuts) {
	r, scene, _ := newTestRouter()
	_ = scene
	s := NewShortcuts()
	r.AddSpy(s.Spy)
	r.AddFilter(s)
	return r, s
}

func press(r *Router, sym uint32) {
	r.Process(&Event{Kind: KindKey, Keysym: sym, Pressed: true})
}

func release(r *Router, sym uint32) {
	r.Process(&Event{Kind: KindKey, Keysym: sym, Pressed: false})
}

func TestModifierOnlyTap(t *testing.T) {
	r, s := shortcutRouter()
	fired := 0
	s.BindModifierOnly(xkb.ModShift, func() { fired++ })
	press(r, xkb.KeyShiftL)
	release(r, xkb.KeyShiftL)
	if fired != 1 {
		t.Errorf("fired %d times, want exactly 1", fired)
	}
}

func TestModifierOnlySuppressedByInterveningEvents(t *testing.T) {
	intervene := []struct {
		name string
		ev   Event
	}{
		{"key", Event{Kind: KindKey, Keysym: 'a', Pressed: true}},
		{"button", Event{Kind: KindButton, Button: BtnLeft, Pressed: true}},
		{"scroll", Event{Kind: KindAxis, Axis: AxisDown}},
		{"motion", Event{Kind: KindMotion, Delta: image.Pt(1, 0)}},
	}
	for _, tc := range intervene {
		t.Run(tc.name, func(t *testing.T) {
			r, s := shortcutRouter()
			fired := 0
			s.BindModifierOnly(xkb.ModShift, func() { fired++ })
			press(r, xkb.KeyShiftL)
			ev := tc.ev
			r.Process(&ev)
			release(r, xkb.KeyShiftL)
			if fired != 0 {
				t.Errorf("fired despite intervening %s event", tc.name)
			}
		})
	}
}

func TestModifierOnlyWithCapsLockOn(t *testing.T) {
	r, s := shortcutRouter()
	fired := 0
	s.BindModifierOnly(xkb.ModShift, func() { fired++ })
	// Caps Lock latched on the seat.
	r.XKB.UpdateMask(0, 0, xkb.ModCapsLock, 0)
	press(r, xkb.KeyShiftL)
	release(r, xkb.KeyShiftL)
	if fired != 1 {
		t.Errorf("bare shift with caps on fired %d times, want 1", fired)
	}
	// Caps Lock tap itself must not trigger the Shift binding.
	press(r, xkb.KeyCapsLock)
	release(r, xkb.KeyCapsLock)
	if fired != 1 {
		t.Error("caps lock tap triggered a shift-only shortcut")
	}
}

func TestModifierOnlyDisabledWhileLocked(t *testing.T) {
	r, s := shortcutRouter()
	fired := 0
	s.BindModifierOnly(xkb.ModSuper, func() { fired++ })
	s.Locked = true
	press(r, xkb.KeySuperL)
	release(r, xkb.KeySuperL)
	if fired != 0 {
		t.Error("modifier-only shortcut fired on locked screen")
	}
	s.Locked = false
	press(r, xkb.KeySuperL)
	release(r, xkb.KeySuperL)
	if fired != 1 {
		t.Errorf("fired %d after unlock, want 1", fired)
	}
}

func TestRegularKeyShortcut(t *testing.T) {
	r, s := shortcutRouter()
	fired := 0
	s.BindKey(xkb.ModCtrl|xkb.ModAlt, 't', func() { fired++ })
	r.Process(&Event{Kind: KindKey, Keysym: 't', Pressed: true, Mods: xkb.ModCtrl | xkb.ModAlt})
	if fired != 1 {
		t.Fatalf("fired = %d", fired)
	}
	// Caps lock in the mask does not break matching.
	r.Process(&Event{Kind: KindKey, Keysym: 't', Pressed: true, Mods: xkb.ModCtrl | xkb.ModAlt | xkb.ModCapsLock})
	if fired != 2 {
		t.Error("caps lock bit broke the chord match")
	}
	// Wrong mods pass through.
	r.Process(&Event{Kind: KindKey, Keysym: 't', Pressed: true, Mods: xkb.ModCtrl})
	if fired != 2 {
		t.Error("chord fired with wrong modifiers")
	}
}

func TestButtonAndAxisShortcuts(t *testing.T) {
	r, s := shortcutRouter()
	var got []string
	s.BindButton(xkb.ModSuper, BtnLeft, func() { got = append(got, "button") })
	s.BindAxis(xkb.ModSuper, AxisUp, func() { got = append(got, "axis") })
	r.Process(&Event{Kind: KindButton, Button: BtnLeft, Pressed: true, Mods: xkb.ModSuper})
	r.Process(&Event{Kind: KindAxis, Axis: AxisUp, Mods: xkb.ModSuper})
	if len(got) != 2 || got[0] != "button" || got[1] != "axis" {
		t.Errorf("got %v", got)
	}
}

func TestSwipeShortcut(t *testing.T) {
	r, s := shortcutRouter()
	rec := &Recognizer{Shortcuts: s}
	r.AddFilter(rec)
	fired := 0
	s.BindSwipe(4, DirWest, func() { fired++ })
	r.Process(&Event{Kind: KindSwipeBegin, Fingers: 4})
	r.Process(&Event{Kind: KindSwipeUpdate, Delta: image.Pt(-60, 4)})
	r.Process(&Event{Kind: KindSwipeEnd, Fingers: 4})
	if fired != 1 {
		t.Errorf("4-finger west swipe fired %d times, want 1", fired)
	}
	// Too-short travel does not classify.
	r.Process(&Event{Kind: KindSwipeBegin, Fingers: 4})
	r.Process(&Event{Kind: KindSwipeUpdate, Delta: image.Pt(-10, 0)})
	r.Process(&Event{Kind: KindSwipeEnd, Fingers: 4})
	if fired != 1 {
		t.Error("sub-threshold swipe fired")
	}
}

func TestFocusDisablesShortcuts(t *testing.T) {
	r, s := shortcutRouter()
	fired := 0
	disabled := true
	s.FocusDisables = func() bool { return disabled }
	s.BindKey(xkb.ModSuper, 'q', func() { fired++ })
	r.Process(&Event{Kind: KindKey, Keysym: 'q', Pressed: true, Mods: xkb.ModSuper})
	if fired != 0 {
		t.Error("shortcut fired for a window with shortcuts disabled")
	}
	disabled = false
	r.Process(&Event{Kind: KindKey, Keysym: 'q', Pressed: true, Mods: xkb.ModSuper})
	if fired != 1 {
		t.Errorf("fired = %d", fired)
	}
}
