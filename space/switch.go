// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	"image"

	"github.com/halcyonwm/halcyon/input"
	"github.com/halcyonwm/halcyon/wm"
)

// SwitchWindow activates the nearest eligible window in a cardinal
// direction from the active window's centre, wrapping to the far side
// when nothing lies further in that direction. Fully occluded
// windows are skipped.
func (s *Space) SwitchWindow(dir input.Direction) {
	active := s.Get(s.activeID)
	if active == nil {
		if cand := s.Chain.GetForActivation(s.currentDesktop, 0); cand != nil {
			s.Activate(cand.ID, false)
		}
		return
	}
	from := center(active.Frame)

	var best, wrap *wm.Window
	for _, w := range s.switchCandidates() {
		if w.ID == active.ID {
			continue
		}
		c := center(w.Frame)
		if ahead(dir, from, c) {
			if best == nil || beats(dir, c, center(best.Frame)) {
				best = w
			}
		} else {
			// Wrap target: the window farthest in the opposite
			// direction, which the same comparator selects.
			if wrap == nil || beats(dir, c, center(wrap.Frame)) {
				wrap = w
			}
		}
	}
	switch {
	case best != nil:
		s.Activate(best.ID, false)
	case wrap != nil:
		s.Activate(wrap.ID, false)
	}
}

// switchCandidates are the shown, focusable, not fully occluded
// windows of the current desktop.
func (s *Space) switchCandidates() []*wm.Window {
	st := s.Stack.Stack()
	var out []*wm.Window
	for i, id := range st {
		w := s.windows[id]
		if w == nil || w.Control == nil || !w.IsShown() || !w.OnDesktop(s.currentDesktop) {
			continue
		}
		if !w.WantsInput() || w.Control.SkipSwitcher {
			continue
		}
		if s.occluded(w, st[i+1:]) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// occluded reports whether w is completely covered by a single shown
// window stacked above it.
func (s *Space) occluded(w *wm.Window, above []wm.ID) bool {
	for _, id := range above {
		o := s.windows[id]
		if o == nil || o.Control == nil || !o.IsShown() || !o.OnDesktop(s.currentDesktop) {
			continue
		}
		if w.Frame.In(o.Frame) {
			return true
		}
	}
	return false
}

func center(r image.Rectangle) image.Point {
	return r.Min.Add(r.Size().Div(2))
}

// ahead reports whether p lies in direction dir from origin.
func ahead(dir input.Direction, origin, p image.Point) bool {
	switch dir {
	case input.DirWest:
		return p.X < origin.X
	case input.DirEast:
		return p.X > origin.X
	case input.DirNorth:
		return p.Y < origin.Y
	case input.DirSouth:
		return p.Y > origin.Y
	}
	return false
}

// beats reports whether a is nearer than b along the axis of dir,
// i.e. the better candidate for a switch in that direction.
func beats(dir input.Direction, a, b image.Point) bool {
	switch dir {
	case input.DirWest:
		return a.X > b.X
	case input.DirEast:
		return a.X < b.X
	case input.DirNorth:
		return a.Y > b.Y
	case input.DirSouth:
		return a.Y < b.Y
	}
	return false
}

