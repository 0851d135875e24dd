// SPDX-License-Identifier: Unlicense OR MIT

package input

import (
	"image"

	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/input/xkb"
	"github.com/halcyonwm/halcyon/wm"
)

// Scene is the router's view of the workspace: hit testing and
// focus state.
type Scene interface {
	// WindowAt returns the topmost shown window accepting input at
	// pos, 0 when none.
	WindowAt(pos image.Point) wm.ID
	Get(wm.ID) *wm.Window
	ActiveWindow() wm.ID
}

// Sink receives the events the router resolved: focus crossings and
// events dispatched to a window. Protocol adapters translate these
// into Wayland seat events or X11 core events.
type Sink interface {
	Enter(id wm.ID, pos image.Point)
	Leave(id wm.ID)
	Deliver(id wm.ID, e *Event)
}

// Filter inspects an event before target dispatch; returning true
// consumes it.
type Filter interface {
	Name() string
	Filter(e *Event) bool
}

// Spy observes every event without being able to consume it.
type Spy func(e *Event)

// Router is the single-threaded input dispatch pipeline.
type Router struct {
	Scene Scene
	Sink  Sink
	XKB   *xkb.State

	spies   []Spy
	filters []Filter

	pointerPos    image.Point
	pointerFocus  wm.ID
	keyboardFocus wm.ID
	buttons       map[Button]bool
	touchTargets  map[int32]wm.ID

	// Nested pointer-focus updates are deferred: the outermost call
	// drains the queue.
	updating int
	deferred []deferredUpdate

	constraints      map[wm.ID]*Constraint
	constraintActive wm.ID
	lockedPos        image.Point
}

type deferredUpdate struct {
	pos    image.Point
	motion bool
}

func NewRouter(scene Scene, sink Sink, state *xkb.State) *Router {
	return &Router{
		Scene:        scene,
		Sink:         sink,
		XKB:          state,
		buttons:      make(map[Button]bool),
		touchTargets: make(map[int32]wm.ID),
		constraints:  make(map[wm.ID]*Constraint),
	}
}

// AddSpy appends an observer; spies run in insertion order before any
// filter.
func (r *Router) AddSpy(s Spy) {
	r.spies = append(r.spies, s)
}

// AddFilter appends a filter; filters run in insertion order.
func (r *Router) AddFilter(f Filter) {
	r.filters = append(r.filters, f)
}

// PointerPos is the current logical pointer position.
func (r *Router) PointerPos() image.Point {
	return r.pointerPos
}

// PointerFocus is the window currently receiving pointer events.
func (r *Router) PointerFocus() wm.ID {
	return r.pointerFocus
}

// KeyboardFocus is the window receiving key events.
func (r *Router) KeyboardFocus() wm.ID {
	return r.keyboardFocus
}

// SetKeyboardFocus moves keyboard focus; space calls this from
// activate.
func (r *Router) SetKeyboardFocus(id wm.ID) {
	r.keyboardFocus = id
	r.applyConstraintPolicy()
}

// ButtonsPressed reports whether any pointer button is held.
func (r *Router) ButtonsPressed() bool {
	for _, down := range r.buttons {
		if down {
			return true
		}
	}
	return false
}

// Process runs one device event through the pipeline: position
// bookkeeping, spies, filters, then target dispatch.
func (r *Router) Process(e *Event) {
	if r.XKB != nil && e.Mods == 0 {
		e.Mods = r.XKB.Modifiers()
	}

	switch e.Kind {
	case KindMotion:
		e.Pos = r.constrainMotion(r.pointerPos, e.Delta)
		e.Delta = e.Pos.Sub(r.pointerPos)
	case KindMotionAbsolute:
		e.Pos = r.constrainMotion(e.Pos, image.Point{})
	case KindButton:
		r.buttons[e.Button] = e.Pressed
		e.Pos = r.pointerPos
	case KindAxis:
		e.Pos = r.pointerPos
	}

	for _, s := range r.spies {
		s(e)
	}

	consumed := false
	for _, f := range r.filters {
		if f.Filter(e) {
			consumed = true
			break
		}
	}

	if e.Kind == KindMotion || e.Kind == KindMotionAbsolute {
		// Focus follows the pointer even when a filter consumed the
		// motion; only the delivery is suppressed then.
		r.updatePointerFocus(e.Pos, !consumed, e)
		r.applyConstraintPolicy()
		return
	}
	if consumed {
		return
	}
	r.dispatch(e)
}

func (r *Router) dispatch(e *Event) {
	if r.Sink == nil {
		return
	}
	switch {
	case e.Kind == KindKey:
		if r.keyboardFocus != 0 {
			r.Sink.Deliver(r.keyboardFocus, e)
		}
	case e.IsPointer():
		if r.pointerFocus != 0 {
			r.Sink.Deliver(r.pointerFocus, e)
		}
	case e.IsTouch():
		r.dispatchTouch(e)
	default:
		// Gesture events are consumed by the recognizer filter or
		// dropped.
	}
}

func (r *Router) dispatchTouch(e *Event) {
	switch e.Kind {
	case KindTouchDown:
		target := r.Scene.WindowAt(e.Pos)
		r.touchTargets[e.TouchID] = target
		if target != 0 {
			r.Sink.Deliver(target, e)
		}
	case KindTouchMotion, KindTouchUp, KindTouchCancel:
		if target := r.touchTargets[e.TouchID]; target != 0 {
			r.Sink.Deliver(target, e)
		}
		if e.Kind == KindTouchUp || e.Kind == KindTouchCancel {
			delete(r.touchTargets, e.TouchID)
		}
	}
}

// RecheckPointerFocus recomputes the pointer target after a change
// that moved windows under the resting pointer (stacking, geometry,
// desktop switch). No synthetic motion is delivered.
func (r *Router) RecheckPointerFocus() {
	r.updatePointerFocus(r.pointerPos, false, nil)
	r.applyConstraintPolicy()
}

// updatePointerFocus is nested-call safe: handlers run from Enter or
// Leave may restack windows and re-enter; those updates queue behind
// the outermost call.
func (r *Router) updatePointerFocus(pos image.Point, motion bool, e *Event) {
	if r.updating > 0 {
		r.deferred = append(r.deferred, deferredUpdate{pos: pos, motion: motion})
		return
	}
	r.updating++
	r.doUpdatePointerFocus(pos, motion, e)
	for len(r.deferred) > 0 {
		d := r.deferred[0]
		r.deferred = r.deferred[1:]
		r.doUpdatePointerFocus(d.pos, d.motion, nil)
	}
	r.updating--
}

func (r *Router) doUpdatePointerFocus(pos image.Point, motion bool, e *Event) {
	r.pointerPos = pos

	// A pressed button keeps the focus frozen on its window; buttons
	// released, focus follows the stack.
	if r.ButtonsPressed() && r.pointerFocus != 0 {
		if motion && e != nil && r.Sink != nil {
			r.Sink.Deliver(r.pointerFocus, e)
		}
		return
	}

	target := r.Scene.WindowAt(pos)
	if target != r.pointerFocus {
		// Leave before enter, with no motion event in between when
		// the change is caused solely by stacking.
		if r.pointerFocus != 0 && r.Sink != nil {
			r.Sink.Leave(r.pointerFocus)
		}
		r.pointerFocus = target
		if target != 0 && r.Sink != nil {
			r.Sink.Enter(target, pos)
		}
	} else if motion && target != 0 && e != nil && r.Sink != nil {
		r.Sink.Deliver(target, e)
	}
}

// CancelTouches synthesises cancellation for every live touch point,
// used when a filter starts an exclusive grab.
func (r *Router) CancelTouches() {
	for id, target := range r.touchTargets {
		if target != 0 && r.Sink != nil {
			r.Sink.Deliver(target, &Event{Kind: KindTouchCancel, TouchID: id})
		}
		delete(r.touchTargets, id)
	}
}

// WarpPointer moves the logical pointer without generating deltas,
// e.g. for the unlock cursor hint.
func (r *Router) WarpPointer(pos image.Point) {
	log.WithField("pos", pos).Debug("pointer warped")
	r.updatePointerFocus(pos, false, nil)
}
