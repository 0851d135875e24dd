// SPDX-License-Identifier: Unlicense OR MIT

package input

import (
	"image"

	"github.com/halcyonwm/halcyon/wm"
)

// ConstraintKind selects pointer confinement or locking.
type ConstraintKind uint8

const (
	ConstraintConfine ConstraintKind = iota
	ConstraintLock
)

// Constraint is a client-requested pointer constraint on one window.
type Constraint struct {
	Kind ConstraintKind
	// Region is the client-provided constraint region in surface
	// coordinates; the zero rectangle means the whole surface.
	Region image.Rectangle
	// CursorHint is the surface-local position to warp to on unlock.
	CursorHint image.Point
	HasHint    bool

	Enabled bool
}

// SetConstraint installs or replaces the constraint of a window.
func (r *Router) SetConstraint(id wm.ID, c Constraint) {
	cc := c
	r.constraints[id] = &cc
	r.applyConstraintPolicy()
}

// ClearConstraint removes a window's constraint, applying the cursor
// hint of an active lock.
func (r *Router) ClearConstraint(id wm.ID) {
	c := r.constraints[id]
	delete(r.constraints, id)
	if r.constraintActive == id {
		r.constraintActive = 0
		if c != nil && c.Kind == ConstraintLock && c.HasHint {
			if w := r.Scene.Get(id); w != nil {
				r.WarpPointer(w.Client.Min.Add(c.CursorHint))
			}
		}
	}
}

// applyConstraintPolicy reconciles which constraint, if any, is in
// force: the pointer-focused window's, and only while that window is
// also the active one.
func (r *Router) applyConstraintPolicy() {
	id := r.pointerFocus
	c := r.constraints[id]
	active := id != 0 && c != nil && c.Enabled && r.Scene.ActiveWindow() == id
	if active {
		if r.constraintActive != id {
			r.constraintActive = id
			r.lockedPos = r.pointerPos
		}
		return
	}
	if r.constraintActive != 0 {
		prev := r.constraints[r.constraintActive]
		if prev != nil && prev.Kind == ConstraintLock && prev.HasHint {
			if w := r.Scene.Get(r.constraintActive); w != nil {
				pos := w.Client.Min.Add(prev.CursorHint)
				r.constraintActive = 0
				r.WarpPointer(pos)
				return
			}
		}
		r.constraintActive = 0
	}
}

// constrainMotion applies the active constraint to a proposed
// movement and returns the resulting absolute position.
func (r *Router) constrainMotion(from image.Point, delta image.Point) image.Point {
	target := from.Add(delta)
	if r.constraintActive == 0 {
		return target
	}
	c := r.constraints[r.constraintActive]
	w := r.Scene.Get(r.constraintActive)
	if c == nil || w == nil {
		return target
	}
	switch c.Kind {
	case ConstraintLock:
		// The pointer is frozen at its lock position.
		return r.lockedPos
	case ConstraintConfine:
		region := w.Client
		if w.Surface != nil {
			region = region.Intersect(w.Surface.InputRegion().Add(w.Client.Min))
		}
		if c.Region != (image.Rectangle{}) {
			region = region.Intersect(c.Region.Add(w.Client.Min))
		}
		if region.Empty() {
			return from
		}
		if pointIn(region, target) {
			return target
		}
		// Per-axis fallback: allow sliding along one axis when the
		// diagonal target leaves the region.
		if x := image.Pt(target.X, from.Y); pointIn(region, x) {
			return x
		}
		if y := image.Pt(from.X, target.Y); pointIn(region, y) {
			return y
		}
		return clampToRect(region, target)
	}
	return target
}

func pointIn(r image.Rectangle, p image.Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

func clampToRect(r image.Rectangle, p image.Point) image.Point {
	if p.X < r.Min.X {
		p.X = r.Min.X
	}
	if p.X >= r.Max.X {
		p.X = r.Max.X - 1
	}
	if p.Y < r.Min.Y {
		p.Y = r.Min.Y
	}
	if p.Y >= r.Max.Y {
		p.Y = r.Max.Y - 1
	}
	return p
}
