// SPDX-License-Identifier: Unlicense OR MIT

package wm

import (
	"errors"

	"golang.org/x/exp/slices"
)

// ErrTransientCycle rejects an edge that would make the transient
// graph cyclic.
var ErrTransientCycle = errors.New("wm: transient relation would cycle")

// Resolver looks windows up by ID; stale IDs yield nil.
type Resolver interface {
	Get(ID) *Window
}

// Graph maintains the parent/child transient relations over the
// windows a Resolver can see. Edges live on the windows themselves:
// TransientFor on the child, Children mirrored on the parent.
type Graph struct {
	R Resolver
}

// AddChild inserts the edge parent→child. Pre-existing edges that
// would conflict with the new relation are severed first; an edge
// that would still cycle is rejected.
func (g Graph) AddChild(parent, child ID) error {
	p, c := g.R.Get(parent), g.R.Get(child)
	if p == nil || c == nil || parent == child {
		return ErrTransientCycle
	}
	// Break the cycle at the far end: if parent is (indirectly)
	// transient for child, drop that lead first.
	if g.IsDescendant(child, parent) {
		g.severLeadTowards(parent, child)
	}
	if g.IsDescendant(child, parent) {
		return ErrTransientCycle
	}
	if c.TransientFor == parent {
		return nil
	}
	if c.TransientFor != 0 {
		g.RemoveChild(c.TransientFor, child)
	}
	// Primary relation replaces group-wide transience.
	c.GroupTransient = false
	c.TransientFor = parent
	if !slices.Contains(p.Children, child) {
		p.Children = append(p.Children, child)
	}
	return nil
}

// RemoveChild severs the edge parent→child. A removed child that was
// a group transient falls back to the group-wide relation.
func (g Graph) RemoveChild(parent, child ID) {
	if p := g.R.Get(parent); p != nil {
		if i := slices.Index(p.Children, child); i >= 0 {
			p.Children = slices.Delete(p.Children, i, i+1)
		}
	}
	if c := g.R.Get(child); c != nil && c.TransientFor == parent {
		c.TransientFor = 0
		if c.GroupID != 0 {
			c.GroupTransient = true
		}
	}
}

// Detach removes every edge touching id, reparenting its children to
// nothing (or their group) and dropping it from its parent.
func (g Graph) Detach(id ID) {
	w := g.R.Get(id)
	if w == nil {
		return
	}
	if w.TransientFor != 0 {
		g.RemoveChild(w.TransientFor, id)
	}
	for _, ch := range slices.Clone(w.Children) {
		g.RemoveChild(id, ch)
	}
	w.Children = nil
	w.GroupTransient = false
}

// AddGroupMember registers w in group and materialises the implicit
// group-transient edges: a group transient is transient for every
// older non-transient member, inserting only edges that keep the
// graph acyclic.
func (g Graph) AddGroupMember(w *Window, group uint64, olderMembers []ID) {
	w.GroupID = group
	if !w.GroupTransient {
		return
	}
	for _, m := range olderMembers {
		mw := g.R.Get(m)
		if mw == nil || m == w.ID {
			continue
		}
		// Group transients are transient only for non-transient
		// members; this is what keeps two group transients from
		// forming a loop.
		if mw.TransientFor != 0 || mw.GroupTransient {
			continue
		}
		if g.IsDescendant(w.ID, m) {
			continue
		}
		if !slices.Contains(mw.Children, w.ID) {
			mw.Children = append(mw.Children, w.ID)
		}
	}
}

// IsDescendant reports whether desc is reachable from anc through
// child edges.
func (g Graph) IsDescendant(anc, desc ID) bool {
	if anc == desc {
		return false
	}
	return g.walk(anc, func(w *Window) bool { return w.ID == desc })
}

// FindModal returns the first shown, non-minimized modal descendant
// of id in depth-first order, or nil. Modal focus capture only
// applies while the lead itself is shown.
func (g Graph) FindModal(id ID) *Window {
	lead := g.R.Get(id)
	if lead == nil || (lead.Control != nil && lead.Control.Minimized) {
		return nil
	}
	var found *Window
	g.walk(id, func(w *Window) bool {
		if w.Control != nil && w.Control.Modal && w.IsShown() {
			found = w
			return true
		}
		return false
	})
	return found
}

// walk runs fn over all descendants depth-first, stopping when fn
// returns true. Reports whether the walk was stopped.
func (g Graph) walk(id ID, fn func(*Window) bool) bool {
	w := g.R.Get(id)
	if w == nil {
		return false
	}
	for _, ch := range w.Children {
		cw := g.R.Get(ch)
		if cw == nil {
			continue
		}
		if fn(cw) || g.walk(ch, fn) {
			return true
		}
	}
	return false
}

// severLeadTowards walks the lead chain upward from w and cuts the
// edge that reaches target, breaking the prospective cycle.
func (g Graph) severLeadTowards(from, target ID) {
	w := g.R.Get(from)
	for w != nil && w.TransientFor != 0 {
		next := w.TransientFor
		if next == target {
			g.RemoveChild(next, w.ID)
			w.GroupTransient = false
			w.TransientFor = 0
			return
		}
		w = g.R.Get(next)
	}
}

// MainWindows returns the lead(s) of w: its direct parent, or for a
// group transient every non-transient group member.
func (g Graph) MainWindows(w *Window, groupMembers []ID) []*Window {
	if w.TransientFor != 0 {
		if p := g.R.Get(w.TransientFor); p != nil {
			return []*Window{p}
		}
		return nil
	}
	if !w.GroupTransient {
		return nil
	}
	var mains []*Window
	for _, m := range groupMembers {
		mw := g.R.Get(m)
		if mw == nil || m == w.ID || mw.GroupTransient || mw.TransientFor != 0 {
			continue
		}
		mains = append(mains, mw)
	}
	return mains
}
