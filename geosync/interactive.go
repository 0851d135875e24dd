// SPDX-License-Identifier: Unlicense OR MIT

package geosync

import (
	"image"

	"github.com/halcyonwm/halcyon/wm"
)

// Grip is the set of frame edges an interactive resize drags. The
// zero grip is a plain move.
type Grip uint8

const (
	GripMove   Grip = 0
	GripLeft   Grip = 1 << 0
	GripRight  Grip = 1 << 1
	GripTop    Grip = 1 << 2
	GripBottom Grip = 1 << 3
)

type interactiveState struct {
	grip      Grip
	origFrame image.Rectangle
	start     image.Point
	// unrestricted allows dragging beyond the movement area, used by
	// keyboard-driven moves.
	unrestricted bool
}

// Moving reports whether the window is in an interactive move or
// resize.
func (s *Syncer) Moving(w *wm.Window) bool {
	return s.state(w).interactive != nil
}

// StartMoveResize begins an interactive operation at the given
// pointer position. It fails when one is already running or the
// window cannot be resized interactively.
func (s *Syncer) StartMoveResize(w *wm.Window, grip Grip, pointer image.Point, unrestricted bool) bool {
	st := s.state(w)
	if st.interactive != nil || w.Control == nil || w.Kind == wm.KindRemnant {
		return false
	}
	if grip != GripMove && w.Control.Fullscreen {
		return false
	}
	st.interactive = &interactiveState{
		grip:         grip,
		origFrame:    w.Frame,
		start:        pointer,
		unrestricted: unrestricted,
	}
	return true
}

// UpdateMoveResize advances the operation to a new pointer position.
// During resize the anchor corner, opposite the drag grip, stays
// pinned even when size constraints reshape the request.
func (s *Syncer) UpdateMoveResize(w *wm.Window, pointer image.Point) {
	st := s.state(w)
	ia := st.interactive
	if ia == nil {
		return
	}
	d := pointer.Sub(ia.start)
	if ia.grip == GripMove {
		s.SetFrameGeometry(w, rectAt(ia.origFrame, ia.origFrame.Min.Add(d)))
		return
	}
	r := ia.origFrame
	if ia.grip&GripLeft != 0 {
		r.Min.X += d.X
	}
	if ia.grip&GripRight != 0 {
		r.Max.X += d.X
	}
	if ia.grip&GripTop != 0 {
		r.Min.Y += d.Y
	}
	if ia.grip&GripBottom != 0 {
		r.Max.Y += d.Y
	}
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	constrained := s.constrain(w, r)
	s.SetFrameGeometry(w, pinAnchor(constrained, r, ia.grip))
}

// FinishMoveResize ends the operation. Cancelling restores the
// geometry from before the drag through the normal sync path.
func (s *Syncer) FinishMoveResize(w *wm.Window, cancel bool) {
	st := s.state(w)
	ia := st.interactive
	if ia == nil {
		return
	}
	st.interactive = nil
	if cancel {
		s.SetFrameGeometry(w, ia.origFrame)
	}
}

// pinAnchor translates frame so its anchor corner, the one opposite
// grip, coincides with ref's.
func pinAnchor(frame, ref image.Rectangle, grip Grip) image.Rectangle {
	var dx, dy int
	if grip&GripLeft != 0 {
		dx = ref.Max.X - frame.Max.X
	} else {
		dx = ref.Min.X - frame.Min.X
	}
	if grip&GripTop != 0 {
		dy = ref.Max.Y - frame.Max.Y
	} else {
		dy = ref.Min.Y - frame.Min.Y
	}
	return frame.Add(image.Pt(dx, dy))
}
