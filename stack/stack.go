// SPDX-License-Identifier: Unlicense OR MIT

// Package stack maintains the window z-order. Two representations are
// kept: the user-visible intent order (preStack, ignoring layer
// overrides) and the effective order (winStack), rebuilt by
// partitioning the intent order into layers bottom to top.
package stack

import (
	"golang.org/x/exp/slices"

	"github.com/halcyonwm/halcyon/event"
	"github.com/halcyonwm/halcyon/wm"
)

// Order is the stacking engine. Not safe for concurrent use.
type Order struct {
	R wm.Resolver

	// Env feeds the layer computation; may be nil in tests.
	Env wm.LayerEnv

	preStack []wm.ID
	winStack []wm.ID
	top      wm.ID

	blockers int
	dirty    bool

	// Changed fires with the effective order, bottom to top, after
	// every rebuild that alters it.
	Changed event.Feed[[]wm.ID]
	// TopChanged fires when the topmost managed window changes.
	TopChanged event.Feed[wm.ID]
}

// Blocker coalesces stacking updates over a batch of changes: exactly
// one rebuild and at most one TopChanged emission happen when the
// last blocker is closed.
type Blocker struct {
	o    *Order
	done bool
}

// Block defers updates until the returned blocker is closed.
func (o *Order) Block() *Blocker {
	o.blockers++
	return &Blocker{o: o}
}

// Close releases the blocker, running any deferred update.
func (b *Blocker) Close() {
	if b.done {
		return
	}
	b.done = true
	b.o.blockers--
	if b.o.blockers == 0 && b.o.dirty {
		b.o.Update()
	}
}

// Add inserts a window above everything in the intent order.
func (o *Order) Add(id wm.ID) {
	if slices.Contains(o.preStack, id) {
		return
	}
	o.preStack = append(o.preStack, id)
	o.schedule()
}

// Remove drops a window from both representations.
func (o *Order) Remove(id wm.ID) {
	if i := slices.Index(o.preStack, id); i >= 0 {
		o.preStack = slices.Delete(o.preStack, i, i+1)
		o.schedule()
	}
}

// Raise moves the window to the top of the intent order, carrying its
// transient children along above it.
func (o *Order) Raise(id wm.ID) {
	i := slices.Index(o.preStack, id)
	if i < 0 {
		return
	}
	o.preStack = slices.Delete(o.preStack, i, i+1)
	o.preStack = append(o.preStack, id)
	o.raiseChildren(id)
	o.schedule()
}

func (o *Order) raiseChildren(id wm.ID) {
	w := o.R.Get(id)
	if w == nil {
		return
	}
	for _, ch := range w.Children {
		if i := slices.Index(o.preStack, ch); i >= 0 {
			o.preStack = slices.Delete(o.preStack, i, i+1)
			o.preStack = append(o.preStack, ch)
			o.raiseChildren(ch)
		}
	}
}

// Lower moves the window to the bottom of the intent order.
func (o *Order) Lower(id wm.ID) {
	i := slices.Index(o.preStack, id)
	if i < 0 {
		return
	}
	o.preStack = slices.Delete(o.preStack, i, i+1)
	o.preStack = slices.Insert(o.preStack, 0, id)
	o.schedule()
}

// RestackBelow places the window directly under reference in the
// intent order. A stale reference degrades to Lower.
func (o *Order) RestackBelow(id, reference wm.ID) {
	i := slices.Index(o.preStack, id)
	if i < 0 || id == reference {
		return
	}
	o.preStack = slices.Delete(o.preStack, i, i+1)
	ri := slices.Index(o.preStack, reference)
	if ri < 0 {
		o.preStack = slices.Insert(o.preStack, 0, id)
	} else {
		o.preStack = slices.Insert(o.preStack, ri, id)
	}
	o.schedule()
}

func (o *Order) schedule() {
	if o.blockers > 0 {
		o.dirty = true
		return
	}
	o.Update()
}

// Update rebuilds the effective order. It is idempotent; TopChanged
// is re-emitted only when the top actually changes.
func (o *Order) Update() {
	o.dirty = false

	var layers [wm.NumLayers][]wm.ID
	for _, id := range o.preStack {
		w := o.R.Get(id)
		if w == nil {
			continue
		}
		l := wm.ComputeLayer(w, o.Env)
		w.Layer = l
		li := int(l)
		if li < 0 || li >= int(wm.NumLayers) {
			li = int(wm.LayerNormal)
		}
		layers[li] = append(layers[li], id)
	}
	newStack := make([]wm.ID, 0, len(o.preStack))
	for _, l := range layers {
		newStack = append(newStack, l...)
	}

	changed := !slices.Equal(newStack, o.winStack)
	o.winStack = newStack
	if changed {
		o.Changed.Emit(o.Stack())
	}

	top := o.topManaged()
	if top != o.top {
		o.top = top
		o.TopChanged.Emit(top)
	}
}

func (o *Order) topManaged() wm.ID {
	for i := len(o.winStack) - 1; i >= 0; i-- {
		w := o.R.Get(o.winStack[i])
		if w != nil && w.Control != nil && w.IsShown() {
			return w.ID
		}
	}
	return 0
}

// Stack returns the effective order bottom to top.
func (o *Order) Stack() []wm.ID {
	return append([]wm.ID(nil), o.winStack...)
}

// PreStack returns the intent order bottom to top, used for session
// save and focus-chain fallback.
func (o *Order) PreStack() []wm.ID {
	return append([]wm.ID(nil), o.preStack...)
}

// Index reports the position of id in the intent order, -1 if absent.
func (o *Order) Index(id wm.ID) int {
	return slices.Index(o.preStack, id)
}

// Above reports whether a is stacked above b in the effective order.
func (o *Order) Above(a, b wm.ID) bool {
	return slices.Index(o.winStack, a) > slices.Index(o.winStack, b)
}

// Top returns the topmost shown managed window, 0 when none.
func (o *Order) Top() wm.ID {
	return o.top
}
