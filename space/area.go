// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	"image"

	"github.com/halcyonwm/halcyon/wm"
)

// AreaKind selects which screen area ClientArea computes.
type AreaKind uint8

const (
	// AreaPlacement is the area new windows are placed in.
	AreaPlacement AreaKind = iota
	// AreaMovement bounds interactive moves.
	AreaMovement
	// AreaMaximize is the target of a maximize, minus struts.
	AreaMaximize
	// AreaMaximizeFull ignores struts.
	AreaMaximizeFull
	// AreaFullscreen is the whole output.
	AreaFullscreen
	// AreaWork is the combined working area of all outputs.
	AreaWork
	// AreaFull is the bounding rectangle of all outputs.
	AreaFull
	// AreaScreen is the whole output, struts ignored.
	AreaScreen
)

// ClientArea computes the requested area for an output index and
// desktop, subtracting the struts dock windows reserve where the
// kind honours them.
func (s *Space) ClientArea(kind AreaKind, screen, desktop int) image.Rectangle {
	full := s.Outputs.Bounds()
	out, ok := s.Outputs.Get(screen)
	scr := full
	if ok {
		scr = out.Geometry()
	}
	switch kind {
	case AreaFull:
		return full
	case AreaScreen, AreaFullscreen, AreaMaximizeFull:
		return scr
	case AreaWork:
		return s.subtractStruts(full, full, desktop)
	default:
		return s.subtractStruts(scr, full, desktop)
	}
}

// subtractStruts shrinks area by every strut of a shown dock on the
// given desktop. Struts are declared relative to the combined screen
// edges; a strut only applies when its edge range intersects the
// area. Conflicting struts that would consume the whole area are
// ignored from the point the area would vanish.
func (s *Space) subtractStruts(area, full image.Rectangle, desktop int) image.Rectangle {
	for _, id := range s.Stack.PreStack() {
		w := s.windows[id]
		if w == nil || w.X11 == nil || w.X11.Strut.Empty() {
			continue
		}
		if !w.IsShown() || !w.OnDesktop(desktop) {
			continue
		}
		st := w.X11.Strut
		next := area
		if st.Left > 0 && overlap(st.LeftStart, st.LeftEnd, area.Min.Y, area.Max.Y) {
			if edge := full.Min.X + st.Left; edge > next.Min.X {
				next.Min.X = edge
			}
		}
		if st.Right > 0 && overlap(st.RightStart, st.RightEnd, area.Min.Y, area.Max.Y) {
			if edge := full.Max.X - st.Right; edge < next.Max.X {
				next.Max.X = edge
			}
		}
		if st.Top > 0 && overlap(st.TopStart, st.TopEnd, area.Min.X, area.Max.X) {
			if edge := full.Min.Y + st.Top; edge > next.Min.Y {
				next.Min.Y = edge
			}
		}
		if st.Bottom > 0 && overlap(st.BottomStart, st.BottomEnd, area.Min.X, area.Max.X) {
			if edge := full.Max.Y - st.Bottom; edge < next.Max.Y {
				next.Max.Y = edge
			}
		}
		if next.Dx() < 1 || next.Dy() < 1 {
			continue
		}
		area = next
	}
	return area
}

// overlap reports whether the ranges [s1,e1) and [s2,e2) intersect.
// A zero-length strut range means the whole edge.
func overlap(s1, e1, s2, e2 int) bool {
	if s1 == 0 && e1 == 0 {
		return true
	}
	return s1 < e2 && e1 > s2
}

// SetStrut updates a dock window's reservation and reflows every
// maximized window, whatever its desktop.
func (s *Space) SetStrut(id wm.ID, strut wm.Strut) {
	w := s.Get(id)
	if w == nil || w.X11 == nil {
		return
	}
	w.X11.Strut = strut
	for _, other := range s.windows {
		if other.Control == nil || other.Control.MaxMode == wm.MaximizeRestore {
			continue
		}
		s.applyMaximize(other)
	}
	s.Repaint.Emit(s.Outputs.Bounds())
}
