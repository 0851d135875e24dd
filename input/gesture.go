// SPDX-License-Identifier: Unlicense OR MIT

package input

import "image"

// minSwipeDistance is how far the fingers must travel before a swipe
// classifies.
const minSwipeDistance = 30

// Recognizer folds multi-finger swipe sequences into cardinal swipe
// gestures and hands completed ones to the shortcut table. It is
// installed as a router filter.
type Recognizer struct {
	Shortcuts *Shortcuts

	active   bool
	fingers  int
	progress image.Point
}

func (r *Recognizer) Name() string { return "gestures" }

// Filter consumes swipe events; a swipe that matches a registered
// shortcut never reaches the focused window.
func (r *Recognizer) Filter(e *Event) bool {
	switch e.Kind {
	case KindSwipeBegin:
		r.active = true
		r.fingers = e.Fingers
		r.progress = image.Point{}
		return true
	case KindSwipeUpdate:
		if !r.active {
			return false
		}
		r.progress = r.progress.Add(e.Delta)
		return true
	case KindSwipeEnd:
		if !r.active {
			return false
		}
		r.active = false
		if e.Cancelled {
			return true
		}
		dir := classify(r.progress)
		if dir == DirNone {
			return true
		}
		if r.Shortcuts != nil {
			r.Shortcuts.HandleSwipe(r.fingers, dir)
		}
		return true
	}
	return false
}

// classify picks the dominant axis of the accumulated travel.
func classify(d image.Point) Direction {
	ax, ay := abs(d.X), abs(d.Y)
	if ax < minSwipeDistance && ay < minSwipeDistance {
		return DirNone
	}
	if ax >= ay {
		if d.X > 0 {
			return DirEast
		}
		return DirWest
	}
	if d.Y > 0 {
		return DirSouth
	}
	return DirNorth
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
