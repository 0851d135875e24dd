// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	"image"

	"github.com/halcyonwm/halcyon/focus"
	"github.com/halcyonwm/halcyon/wm"
)

// SetFrameGeometry routes a geometry change through the sync
// machinery.
func (s *Space) SetFrameGeometry(id wm.ID, rect image.Rectangle) {
	w := s.Get(id)
	if w == nil {
		return
	}
	s.Sync.SetFrameGeometry(w, rect)
}

// Maximize changes the maximize mode, remembering the restore
// geometry on the way in and restoring it on the way out.
func (s *Space) Maximize(id wm.ID, mode wm.MaximizeMode) {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	c := w.Control
	if mode == c.MaxMode {
		return
	}
	if c.MaxMode == wm.MaximizeRestore {
		c.RestoreGeometry = w.Frame
	}
	c.MaxMode = mode
	if c.QuickTile != wm.QuickTileNone {
		c.QuickTile = wm.QuickTileNone
	}
	s.applyMaximize(w)
	s.Stack.Update()
}

func (s *Space) applyMaximize(w *wm.Window) {
	c := w.Control
	if c.MaxMode == wm.MaximizeRestore {
		if !c.RestoreGeometry.Empty() {
			s.Sync.SetFrameGeometry(w, c.RestoreGeometry)
		}
		return
	}
	area := s.ClientArea(AreaMaximize, s.outputIndexFor(w), s.currentDesktop)
	target := w.Frame
	if target.Empty() {
		target = area
	}
	if c.MaxMode&wm.MaximizeHorizontal != 0 {
		target.Min.X, target.Max.X = area.Min.X, area.Max.X
	}
	if c.MaxMode&wm.MaximizeVertical != 0 {
		target.Min.Y, target.Max.Y = area.Min.Y, area.Max.Y
	}
	s.Sync.SetFrameGeometry(w, target)
}

// SetFullScreen switches fullscreen, using the whole output and
// remembering the previous frame.
func (s *Space) SetFullScreen(id wm.ID, fs bool) {
	w := s.Get(id)
	if w == nil || w.Control == nil || w.Control.Fullscreen == fs {
		return
	}
	c := w.Control
	c.Fullscreen = fs
	if fs {
		if c.MaxMode == wm.MaximizeRestore {
			c.RestoreGeometry = w.Frame
		}
		area := s.ClientArea(AreaFullscreen, s.outputIndexFor(w), s.currentDesktop)
		s.Sync.SetFrameGeometry(w, area)
	} else if !c.RestoreGeometry.Empty() {
		s.Sync.SetFrameGeometry(w, c.RestoreGeometry)
	}
	s.Stack.Update()
	s.Repaint.Emit(s.Outputs.Bounds())
}

// SetKeepAbove and SetKeepBelow are mutually exclusive flags.
func (s *Space) SetKeepAbove(id wm.ID, above bool) {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	w.Control.KeepAbove = above
	if above {
		w.Control.KeepBelow = false
	}
	s.Stack.Update()
}

func (s *Space) SetKeepBelow(id wm.ID, below bool) {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	w.Control.KeepBelow = below
	if below {
		w.Control.KeepAbove = false
	}
	s.Stack.Update()
}

// SetDesktop moves a window between virtual desktops.
func (s *Space) SetDesktop(id wm.ID, desktop int) {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	if desktop == wm.DesktopAll {
		w.Control.OnAllDesktops = true
		w.Control.Desktop = wm.DesktopAll
	} else {
		w.Control.OnAllDesktops = false
		w.Control.Desktop = clampDesktop(desktop, s.opts.Desktops)
	}
	s.Chain.Update(w, focus.Touch)
	s.PointerFocusDirty.Emit(struct{}{})
	if s.activeID == id && !w.OnDesktop(s.currentDesktop) {
		s.deactivate()
		if cand := s.Chain.GetForActivation(s.currentDesktop, id); cand != nil {
			s.Activate(cand.ID, false)
		}
	}
}
