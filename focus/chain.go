// SPDX-License-Identifier: Unlicense OR MIT

// Package focus keeps the most-recently-used window chains used for
// activation fallback and switcher ordering. One chain exists per
// virtual desktop plus a desktop-independent one.
package focus

import (
	"golang.org/x/exp/slices"

	"github.com/halcyonwm/halcyon/wm"
)

// Reason selects where Update places a window in its chains.
type Reason uint8

const (
	// MakeFirst marks the window as just used.
	MakeFirst Reason = iota
	// MakeLast demotes the window, e.g. on minimize.
	MakeLast
	// Touch moves the window to the front only if already chained.
	Touch
)

// Chain is the MRU bookkeeping. The front of each list is the most
// recently used window.
type Chain struct {
	R wm.Resolver

	desktops map[int][]wm.ID
	all      []wm.ID
}

func NewChain(r wm.Resolver) *Chain {
	return &Chain{R: r, desktops: make(map[int][]wm.ID)}
}

// Update records a use of w according to reason across every desktop
// chain the window belongs to.
func (c *Chain) Update(w *wm.Window, reason Reason) {
	if w.Control == nil {
		return
	}
	c.updateList(&c.all, w.ID, reason)
	if w.Control.OnAllDesktops || w.Control.Desktop == wm.DesktopAll {
		for d := range c.desktops {
			l := c.desktops[d]
			c.updateList(&l, w.ID, reason)
			c.desktops[d] = l
		}
		return
	}
	d := w.Control.Desktop
	l := c.desktops[d]
	c.updateList(&l, w.ID, reason)
	c.desktops[d] = l
}

func (c *Chain) updateList(l *[]wm.ID, id wm.ID, reason Reason) {
	i := slices.Index(*l, id)
	switch reason {
	case Touch:
		if i < 0 {
			return
		}
		fallthrough
	case MakeFirst:
		if i >= 0 {
			*l = slices.Delete(*l, i, i+1)
		}
		*l = slices.Insert(*l, 0, id)
	case MakeLast:
		if i >= 0 {
			*l = slices.Delete(*l, i, i+1)
		}
		*l = append(*l, id)
	}
}

// EnsureDesktop creates the chain for a new virtual desktop, seeding
// it with the on-all-desktops windows in global MRU order.
func (c *Chain) EnsureDesktop(d int) {
	if _, ok := c.desktops[d]; ok {
		return
	}
	var seed []wm.ID
	for _, id := range c.all {
		if w := c.R.Get(id); w != nil && w.Control != nil && w.Control.OnAllDesktops {
			seed = append(seed, id)
		}
	}
	c.desktops[d] = seed
}

// Remove drops the window from every chain.
func (c *Chain) Remove(id wm.ID) {
	c.dropFrom(&c.all, id)
	for d := range c.desktops {
		l := c.desktops[d]
		c.dropFrom(&l, id)
		c.desktops[d] = l
	}
}

func (c *Chain) dropFrom(l *[]wm.ID, id wm.ID) {
	if i := slices.Index(*l, id); i >= 0 {
		*l = slices.Delete(*l, i, i+1)
	}
}

// Front returns the MRU window of a desktop chain, 0 when empty.
func (c *Chain) Front(desktop int) wm.ID {
	l := c.desktops[desktop]
	if len(l) == 0 {
		return 0
	}
	return l[0]
}

// Desktop returns a copy of a desktop chain, MRU first.
func (c *Chain) Desktop(desktop int) []wm.ID {
	return append([]wm.ID(nil), c.desktops[desktop]...)
}

// All returns the desktop-independent chain, MRU first.
func (c *Chain) All() []wm.ID {
	return append([]wm.ID(nil), c.all...)
}

// GetForActivation picks the best activation candidate on a desktop:
// the most recently used shown window that wants input, skipping
// exclude.
func (c *Chain) GetForActivation(desktop int, exclude wm.ID) *wm.Window {
	for _, id := range c.desktops[desktop] {
		if id == exclude {
			continue
		}
		w := c.R.Get(id)
		if w == nil || w.Control == nil {
			continue
		}
		if !w.IsShown() || !w.WantsInput() {
			continue
		}
		if !w.OnDesktop(desktop) {
			continue
		}
		return w
	}
	return nil
}
