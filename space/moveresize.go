// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	"image"

	"golang.org/x/exp/slices"

	"github.com/halcyonwm/halcyon/geosync"
	"github.com/halcyonwm/halcyon/input"
	"github.com/halcyonwm/halcyon/wm"
)

// StartInteractiveMove begins a pointer-driven move of the window.
func (s *Space) StartInteractiveMove(id wm.ID, pointer image.Point) bool {
	return s.startInteractive(id, geosync.GripMove, pointer)
}

// StartInteractiveResize begins a resize dragging the given grip.
func (s *Space) StartInteractiveResize(id wm.ID, grip geosync.Grip, pointer image.Point) bool {
	if grip == geosync.GripMove {
		return false
	}
	return s.startInteractive(id, grip, pointer)
}

func (s *Space) startInteractive(id wm.ID, grip geosync.Grip, pointer image.Point) bool {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return false
	}
	if s.moveTarget != 0 {
		return false
	}
	if !s.Sync.StartMoveResize(w, grip, pointer, false) {
		return false
	}
	// Un-tile when a tiled window is dragged away.
	if grip == geosync.GripMove && w.Control.QuickTile != wm.QuickTileNone {
		w.Control.QuickTile = wm.QuickTileNone
	}
	s.moveTarget = id
	s.Activate(id, true)
	return true
}

// MoveResizeTarget is the window of the running interactive
// operation, 0 when idle.
func (s *Space) MoveResizeTarget() wm.ID {
	return s.moveTarget
}

// UpdateInteractive advances the running operation.
func (s *Space) UpdateInteractive(pos image.Point) {
	if w := s.Get(s.moveTarget); w != nil {
		s.Sync.UpdateMoveResize(w, pos)
	}
}

// FinishInteractive ends the operation; cancel restores the original
// geometry.
func (s *Space) FinishInteractive(cancel bool) {
	w := s.Get(s.moveTarget)
	s.moveTarget = 0
	if w == nil {
		return
	}
	s.Sync.FinishMoveResize(w, cancel)
	if !cancel {
		if res := s.resolved[w.ID]; res != nil {
			res.RememberPosition(w.Frame.Min)
			res.RememberSize(w.Frame.Size())
		}
	}
}

// StartWindowSelection arms the interactive window picker: the next
// click reports the picked window (0 on abort) and ends the mode.
func (s *Space) StartWindowSelection(done func(wm.ID)) {
	s.windowSelect = done
}

// AddPopupGrab appends a popup to the grab chain.
func (s *Space) AddPopupGrab(id wm.ID) {
	if !slices.Contains(s.popupChain, id) {
		s.popupChain = append(s.popupChain, id)
	}
}

// RemovePopupGrab drops one popup from the chain.
func (s *Space) RemovePopupGrab(id wm.ID) {
	if i := slices.Index(s.popupChain, id); i >= 0 {
		s.popupChain = slices.Delete(s.popupChain, i, i+1)
	}
}

// PopupChain returns the grabbing popups bottom to top.
func (s *Space) PopupChain() []wm.ID {
	return append([]wm.ID(nil), s.popupChain...)
}

// DismissPopups closes the chain top-down, synchronously.
func (s *Space) DismissPopups() {
	for i := len(s.popupChain) - 1; i >= 0; i-- {
		if w := s.Get(s.popupChain[i]); w != nil {
			w.Close()
		}
	}
	s.popupChain = nil
}

// AttachRouter wires the workspace into an input router: the filter
// chain in dispatch order and the pointer-focus recheck.
func (s *Space) AttachRouter(r *input.Router, shortcuts *input.Shortcuts) {
	s.PointerFocusDirty.Subscribe(func(struct{}) {
		r.RecheckPointerFocus()
	})
	s.ActiveChanged.Subscribe(func(id wm.ID) {
		r.SetKeyboardFocus(id)
	})

	if shortcuts != nil {
		shortcuts.FocusDisables = func() bool {
			if s.locked {
				return true
			}
			w := s.Get(s.activeID)
			return w != nil && w.Control != nil && w.Control.DisableShortcuts
		}
		r.AddSpy(shortcuts.Spy)
	}

	r.AddFilter(&input.LockScreenFilter{
		Locked: func() bool { return s.locked },
	})
	r.AddFilter(&input.MoveResizeFilter{
		Target: s.MoveResizeTarget,
		Update: s.UpdateInteractive,
		Finish: s.FinishInteractive,
	})
	r.AddFilter(&input.PopupGrabFilter{
		Chain:    s.PopupChain,
		WindowAt: s.WindowAt,
		Dismiss:  s.DismissPopups,
		DeliverTo: func(id wm.ID, e *input.Event) {
			if r.Sink != nil {
				r.Sink.Deliver(id, e)
			}
		},
	})
	r.AddFilter(&input.WindowSelectionFilter{
		Active:   func() bool { return s.windowSelect != nil },
		WindowAt: s.WindowAt,
		Done: func(id wm.ID) {
			cb := s.windowSelect
			s.windowSelect = nil
			if cb != nil {
				cb(id)
			}
		},
	})
	if shortcuts != nil {
		r.AddFilter(shortcuts)
		r.AddFilter(&input.Recognizer{Shortcuts: shortcuts})
	}
	r.AddFilter(&input.DecorationFilter{
		Lookup: func(pos image.Point) *wm.Window { return s.Get(s.WindowAt(pos)) },
		Pressed: func(w *wm.Window, e *input.Event) {
			s.StartInteractiveMove(w.ID, e.Pos)
		},
	})
	r.AddFilter(&input.InternalWindowFilter{
		Lookup: func(pos image.Point) *wm.Window { return s.Get(s.WindowAt(pos)) },
	})
}
