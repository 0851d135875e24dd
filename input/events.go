// SPDX-License-Identifier: Unlicense OR MIT

// Package input routes device events across the stacked windows:
// spies observe, filters may consume, and whatever is left reaches
// the focused target. It also owns the pointer position, pointer
// constraints, gestures and global shortcuts.
package input

import (
	"image"

	"github.com/halcyonwm/halcyon/input/xkb"
)

// Kind tags a device event.
type Kind uint8

const (
	KindMotion Kind = iota
	KindMotionAbsolute
	KindButton
	KindAxis
	KindKey
	KindTouchDown
	KindTouchUp
	KindTouchMotion
	KindTouchCancel
	KindSwipeBegin
	KindSwipeUpdate
	KindSwipeEnd
	KindPinchBegin
	KindPinchUpdate
	KindPinchEnd
)

// Button is a pointer button code (BTN_LEFT etc. on Wayland, mapped
// from X11 detail by the adapter).
type Button uint32

const (
	BtnLeft   Button = 0x110
	BtnRight  Button = 0x111
	BtnMiddle Button = 0x112
)

// AxisDirection classifies a scroll step for shortcut matching.
type AxisDirection uint8

const (
	AxisNone AxisDirection = iota
	AxisUp
	AxisDown
	AxisLeft
	AxisRight
)

// Direction is a cardinal gesture/switch direction.
type Direction uint8

const (
	DirNone Direction = iota
	DirNorth
	DirSouth
	DirWest
	DirEast
)

// Event is one typed device event. Only the fields relevant to Kind
// are meaningful.
type Event struct {
	Kind Kind
	// Time is a 32-bit millisecond timestamp in server time.
	Time uint32

	// Pos is the absolute pointer/touch position; Delta the relative
	// motion that produced it.
	Pos   image.Point
	Delta image.Point

	Button  Button
	Pressed bool

	Axis      AxisDirection
	AxisValue float64

	// Keycode is the hardware code, Keysym the resolved symbol under
	// the current layout.
	Keycode uint32
	Keysym  uint32
	Mods    xkb.Modifiers

	TouchID int32

	Fingers int
	// Cancelled marks a gesture end that should discard the
	// sequence.
	Cancelled bool
}

// IsPointer reports whether the event is positioned by the pointer.
func (e *Event) IsPointer() bool {
	switch e.Kind {
	case KindMotion, KindMotionAbsolute, KindButton, KindAxis:
		return true
	}
	return false
}

// IsTouch reports whether the event belongs to a touch point.
func (e *Event) IsTouch() bool {
	switch e.Kind {
	case KindTouchDown, KindTouchUp, KindTouchMotion, KindTouchCancel:
		return true
	}
	return false
}
