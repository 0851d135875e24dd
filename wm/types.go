// SPDX-License-Identifier: Unlicense OR MIT

// Package wm holds the window model: the polymorphic window record
// shared by the X11, Wayland, internal and remnant variants, the
// transient graph, and the pure layer computation.
package wm

import "image"

// ID is the stable identifier of a managed window. IDs are never
// reused within a compositor run; 0 is the invalid ID.
type ID uint64

// Kind tags the window variant.
type Kind uint8

const (
	KindX11 Kind = iota
	KindWaylandToplevel
	KindWaylandPopup
	KindLayerSurface
	KindInternal
	KindRemnant
)

func (k Kind) String() string {
	switch k {
	case KindX11:
		return "x11"
	case KindWaylandToplevel:
		return "wayland-toplevel"
	case KindWaylandPopup:
		return "wayland-popup"
	case KindLayerSurface:
		return "layer-surface"
	case KindInternal:
		return "internal"
	case KindRemnant:
		return "remnant"
	}
	return "unknown"
}

// Layer is the coarse z-order bucket. Stacking is layer-major; the
// values are ordered bottom to top.
type Layer int8

const (
	LayerUnknown Layer = iota - 1
	LayerDesktop
	LayerBelow
	LayerNormal
	LayerDock
	LayerAbove
	LayerNotification
	LayerActive
	LayerPopup
	LayerCriticalNotification
	LayerOnScreenDisplay
	LayerUnmanaged
	NumLayers = LayerUnmanaged + 1
)

// MaximizeMode is the per-axis maximization bitmask.
type MaximizeMode uint8

const (
	MaximizeRestore    MaximizeMode = 0
	MaximizeVertical   MaximizeMode = 1
	MaximizeHorizontal MaximizeMode = 2
	MaximizeFull                    = MaximizeVertical | MaximizeHorizontal
)

// QuickTileMode is the bitmask of screen-edge snap flags.
type QuickTileMode uint8

const (
	QuickTileNone     QuickTileMode = 0
	QuickTileLeft     QuickTileMode = 1 << 0
	QuickTileRight    QuickTileMode = 1 << 1
	QuickTileTop      QuickTileMode = 1 << 2
	QuickTileBottom   QuickTileMode = 1 << 3
	QuickTileMaximize QuickTileMode = 1 << 4

	QuickTileTopLeft     = QuickTileTop | QuickTileLeft
	QuickTileTopRight    = QuickTileTop | QuickTileRight
	QuickTileBottomLeft  = QuickTileBottom | QuickTileLeft
	QuickTileBottomRight = QuickTileBottom | QuickTileRight
)

// WindowType is the NETWM-style window role used for layer and focus
// decisions. Adapters map protocol-specific types onto it.
type WindowType uint8

const (
	TypeNormal WindowType = iota
	TypeDialog
	TypeUtility
	TypeSplash
	TypeToolbar
	TypeMenu
	TypeDropdownMenu
	TypePopupMenu
	TypeTooltip
	TypeNotification
	TypeCriticalNotification
	TypeOnScreenDisplay
	TypeDock
	TypeDesktop
	TypeOverride
)

// PanelBehavior selects the layer a dock window stacks in.
type PanelBehavior uint8

const (
	PanelAlwaysVisible PanelBehavior = iota
	PanelAutoHide
	PanelWindowsCanCover
	PanelWindowsGoBelow
)

// DesktopAll marks a window present on every virtual desktop.
const DesktopAll = -1

// UserTime is an X11-style 32-bit interaction timestamp. The zero
// value is "unset"; an explicit zero timestamp ("never steal focus")
// is distinct and kept via the Zero flag.
type UserTime struct {
	Defined bool
	Zero    bool
	Time    uint32
}

// DefinedTime builds a set user time; t == 0 yields the explicit-zero
// value with the Zero flag.
func DefinedTime(t uint32) UserTime {
	if t == 0 {
		return UserTime{Defined: true, Zero: true}
	}
	return UserTime{Defined: true, Time: t}
}

// After reports whether u is newer than v under wrap-safe 32-bit
// comparison: the newer timestamp leads by less than 2^31.
func (u UserTime) After(v UserTime) bool {
	return int32(u.Time-v.Time) > 0
}

// AtLeast reports u >= v with the same wrap-safe arithmetic.
func (u UserTime) AtLeast(v UserTime) bool {
	return int32(u.Time-v.Time) >= 0
}

// PendingConfigure is one entry of the per-window configure FIFO.
type PendingConfigure struct {
	Serial     uint32
	Frame      image.Rectangle
	Client     image.Rectangle
	MaxMode    MaximizeMode
	Fullscreen bool
}

// Strut is the screen-edge reservation declared by a dock window.
// Widths are in pixels from the respective screen edge; the Start/End
// ranges bound the reservation along the edge.
type Strut struct {
	Left, Right, Top, Bottom                 int
	LeftStart, LeftEnd, RightStart, RightEnd int
	TopStart, TopEnd, BottomStart, BottomEnd int
}

// Empty reports whether no edge is reserved.
func (s Strut) Empty() bool {
	return s.Left == 0 && s.Right == 0 && s.Top == 0 && s.Bottom == 0
}
