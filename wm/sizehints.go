// SPDX-License-Identifier: Unlicense OR MIT

package wm

import "image"

// Gravity is the WM_NORMAL_HINTS win_gravity value deciding which
// frame point stays fixed when decoration margins change.
type Gravity uint8

const (
	GravityNorthWest Gravity = iota + 1
	GravityNorth
	GravityNorthEast
	GravityWest
	GravityCenter
	GravityEast
	GravitySouthWest
	GravitySouth
	GravitySouthEast
	GravityStatic
)

// SizeHints carries the ICCCM WM_NORMAL_HINTS constraints on client
// sizes. Zero fields mean "not set".
type SizeHints struct {
	MinSize  image.Point
	MaxSize  image.Point
	BaseSize image.Point
	Inc      image.Point
	// Aspect ratios as numerator/denominator pairs; zero denominators
	// disable the constraint.
	MinAspect image.Point
	MaxAspect image.Point
}

// Constrain clamps a proposed client size to the hints: min/max first,
// then resize increments relative to the base size, then aspect
// ratios. The result never goes below 1x1.
func (h SizeHints) Constrain(size image.Point) image.Point {
	min := h.MinSize
	if min.X < 1 {
		min.X = 1
	}
	if min.Y < 1 {
		min.Y = 1
	}
	max := h.MaxSize
	if max.X <= 0 {
		max.X = 1 << 24
	}
	if max.Y <= 0 {
		max.Y = 1 << 24
	}
	size.X = clamp(size.X, min.X, max.X)
	size.Y = clamp(size.Y, min.Y, max.Y)

	if h.Inc.X > 1 || h.Inc.Y > 1 {
		base := h.BaseSize
		if base == (image.Point{}) {
			base = min
		}
		if h.Inc.X > 1 && size.X > base.X {
			size.X = base.X + (size.X-base.X)/h.Inc.X*h.Inc.X
		}
		if h.Inc.Y > 1 && size.Y > base.Y {
			size.Y = base.Y + (size.Y-base.Y)/h.Inc.Y*h.Inc.Y
		}
	}

	// ICCCM aspect checks apply to the size minus the base size when a
	// base is given. Shrink the offending axis, then re-clamp.
	bw, bh := 0, 0
	if h.BaseSize != (image.Point{}) {
		bw, bh = h.BaseSize.X, h.BaseSize.Y
	}
	w, hgt := size.X-bw, size.Y-bh
	if h.MinAspect.Y > 0 && w > 0 && hgt > 0 {
		// w/h >= minX/minY
		if w*h.MinAspect.Y < hgt*h.MinAspect.X {
			hgt = w * h.MinAspect.Y / h.MinAspect.X
		}
	}
	if h.MaxAspect.Y > 0 && w > 0 && hgt > 0 {
		if w*h.MaxAspect.Y > hgt*h.MaxAspect.X {
			w = hgt * h.MaxAspect.X / h.MaxAspect.Y
		}
	}
	size.X = clamp(w+bw, min.X, max.X)
	size.Y = clamp(hgt+bh, min.Y, max.Y)
	return size
}

// GravityAdjust shifts a frame position so the gravity reference point
// keeps its place when decoration margins are applied. pos is the
// requested client origin; the return is the frame origin.
func GravityAdjust(g Gravity, pos image.Point, frame image.Point, m Margins) image.Point {
	switch g {
	case GravityNorth:
		pos.X -= (m.Left + m.Right) / 2
		pos.Y += 0
	case GravityNorthEast:
		pos.X -= m.Left + m.Right
	case GravityWest:
		pos.Y -= (m.Top + m.Bottom) / 2
	case GravityCenter:
		pos.X -= (m.Left + m.Right) / 2
		pos.Y -= (m.Top + m.Bottom) / 2
	case GravityEast:
		pos.X -= m.Left + m.Right
		pos.Y -= (m.Top + m.Bottom) / 2
	case GravitySouthWest:
		pos.Y -= m.Top + m.Bottom
	case GravitySouth:
		pos.X -= (m.Left + m.Right) / 2
		pos.Y -= m.Top + m.Bottom
	case GravitySouthEast:
		pos.X -= m.Left + m.Right
		pos.Y -= m.Top + m.Bottom
	case GravityStatic:
		pos.X -= m.Left
		pos.Y -= m.Top
	}
	_ = frame
	return pos
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
