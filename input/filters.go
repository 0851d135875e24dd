// SPDX-License-Identifier: Unlicense OR MIT

package input

import (
	"image"

	"github.com/halcyonwm/halcyon/input/xkb"
	"github.com/halcyonwm/halcyon/wm"
)

// FilterFunc adapts a function to the Filter interface.
type FilterFunc struct {
	FilterName string
	F          func(e *Event) bool
}

func (f FilterFunc) Name() string          { return f.FilterName }
func (f FilterFunc) Filter(e *Event) bool { return f.F(e) }

// LockScreenFilter swallows everything except what the lock screen
// itself needs while the session is locked.
type LockScreenFilter struct {
	Locked func() bool
	// DeliverToLock hands the event to the lock-screen surface.
	DeliverToLock func(e *Event)
}

func (f *LockScreenFilter) Name() string { return "lock-screen" }

func (f *LockScreenFilter) Filter(e *Event) bool {
	if f.Locked == nil || !f.Locked() {
		return false
	}
	if f.DeliverToLock != nil {
		f.DeliverToLock(e)
	}
	return true
}

// MoveResizeFilter owns the pointer while an interactive move/resize
// runs: motion drives the operation, release finishes it, Escape
// cancels, Return finishes.
type MoveResizeFilter struct {
	// Target returns the window being moved, 0 when idle.
	Target func() wm.ID
	Update func(pos image.Point)
	Finish func(cancel bool)
}

func (f *MoveResizeFilter) Name() string { return "move-resize" }

func (f *MoveResizeFilter) Filter(e *Event) bool {
	if f.Target() == 0 {
		return false
	}
	switch e.Kind {
	case KindMotion, KindMotionAbsolute:
		f.Update(e.Pos)
		return true
	case KindButton:
		if !e.Pressed {
			f.Finish(false)
		}
		return true
	case KindKey:
		if !e.Pressed {
			return true
		}
		switch e.Keysym {
		case xkb.KeyEscape:
			f.Finish(true)
		case xkb.KeyReturn:
			f.Finish(false)
		}
		return true
	case KindTouchDown, KindTouchUp, KindTouchMotion:
		return true
	}
	return false
}

// PopupGrabFilter tracks the chain of grabbing popups. A press
// outside the chain dismisses every popup, top-down, and eats the
// press.
type PopupGrabFilter struct {
	// Chain returns the grabbing popups, bottom to top.
	Chain func() []wm.ID
	// WindowAt hit tests the scene.
	WindowAt func(pos image.Point) wm.ID
	// Dismiss closes the popup chain top-down.
	Dismiss func()
	// DeliverTo routes the event to the top grab owner.
	DeliverTo func(id wm.ID, e *Event)
}

func (f *PopupGrabFilter) Name() string { return "popup-grab" }

func (f *PopupGrabFilter) Filter(e *Event) bool {
	chain := f.Chain()
	if len(chain) == 0 {
		return false
	}
	if e.Kind == KindButton && e.Pressed {
		target := f.WindowAt(e.Pos)
		inChain := false
		for _, id := range chain {
			if id == target {
				inChain = true
				break
			}
		}
		if !inChain {
			f.Dismiss()
			return true
		}
	}
	if e.Kind == KindKey || e.IsPointer() {
		if f.DeliverTo != nil {
			f.DeliverTo(chain[len(chain)-1], e)
		}
		return true
	}
	return false
}

// WindowSelectionFilter implements the interactive window picker: the
// next click selects a window (or Escape aborts) and every event is
// consumed meanwhile.
type WindowSelectionFilter struct {
	Active   func() bool
	WindowAt func(pos image.Point) wm.ID
	Done     func(id wm.ID)
}

func (f *WindowSelectionFilter) Name() string { return "window-selection" }

func (f *WindowSelectionFilter) Filter(e *Event) bool {
	if f.Active == nil || !f.Active() {
		return false
	}
	switch e.Kind {
	case KindButton:
		if e.Pressed {
			f.Done(f.WindowAt(e.Pos))
		}
		return true
	case KindKey:
		if e.Pressed && e.Keysym == xkb.KeyEscape {
			f.Done(0)
		}
		return true
	}
	return true
}

// InternalWindowFilter routes events landing on compositor-owned
// windows to their in-process handlers instead of any client.
type InternalWindowFilter struct {
	Lookup  func(pos image.Point) *wm.Window
	Deliver func(w *wm.Window, e *Event)
}

func (f *InternalWindowFilter) Name() string { return "internal-window" }

func (f *InternalWindowFilter) Filter(e *Event) bool {
	if !e.IsPointer() {
		return false
	}
	w := f.Lookup(e.Pos)
	if w == nil || w.Kind != wm.KindInternal {
		return false
	}
	if f.Deliver != nil {
		f.Deliver(w, e)
	}
	return true
}

// DecorationFilter gives server-side decorations first shot at
// pointer events inside the frame but outside the client area, where
// the titlebar and resize borders live.
type DecorationFilter struct {
	Lookup func(pos image.Point) *wm.Window
	// Pressed handles a decoration press, e.g. starting a move or a
	// resize from the border grip.
	Pressed func(w *wm.Window, e *Event)
}

func (f *DecorationFilter) Name() string { return "decoration" }

func (f *DecorationFilter) Filter(e *Event) bool {
	if !e.IsPointer() {
		return false
	}
	w := f.Lookup(e.Pos)
	if w == nil || w.Control == nil || w.NoBorderEffective() {
		return false
	}
	inFrame := e.Pos.In(w.Frame)
	inClient := e.Pos.In(w.Client)
	if !inFrame || inClient {
		return false
	}
	if e.Kind == KindButton && e.Pressed && f.Pressed != nil {
		f.Pressed(w, e)
	}
	return true
}
