// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/activation"
	"github.com/halcyonwm/halcyon/focus"
	"github.com/halcyonwm/halcyon/wm"
)

// Activate makes the window active: focus transfer, raise when forced
// or allowed, focus chain update, subscriber notification. Modal
// dialogs capture the activation of their lead.
func (s *Space) Activate(id wm.ID, force bool) {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	// A shown modal dialog keeps its lead unreachable.
	if modal := s.Graph.FindModal(id); modal != nil && modal.ID != id {
		s.Activate(modal.ID, force)
		return
	}
	if w.Control.Minimized {
		s.Unminimize(id)
	}
	if s.showingDesktop {
		s.SetShowingDesktop(false)
	}
	if !w.IsShown() {
		return
	}
	if !w.OnDesktop(s.currentDesktop) && w.Control.Desktop != wm.DesktopAll {
		s.SetCurrentDesktop(w.Control.Desktop)
	}

	if s.activeID == id {
		if force {
			s.Stack.Raise(id)
		}
		return
	}
	if prev := s.Get(s.activeID); prev != nil && prev.Control != nil {
		prev.Control.Active = false
		s.lastActiveID = prev.ID
	}
	s.activeID = id
	w.Control.Active = true
	w.Control.DemandsAttention = false

	bl := s.Stack.Block()
	s.Stack.Raise(id)
	bl.Close()

	s.Chain.Update(w, focus.MakeFirst)
	if !w.TakeFocus() {
		log.WithField("window", id).Debug("client refused focus")
	}
	s.ActiveChanged.Emit(id)
	s.Repaint.Emit(w.RenderGeometry())
}

// RequestActivation runs a client-initiated activation through the
// focus-stealing policy. A denial marks the candidate as demanding
// attention instead.
func (s *Space) RequestActivation(id wm.ID, userTime wm.UserTime, focusIn bool) {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	if userTime.Defined {
		w.Control.UserTime = userTime
	}
	level := s.opts.FocusStealing
	if res := s.resolved[id]; res != nil {
		level = activation.Level(res.CheckFSPLevel(int(level)))
	}
	active := s.Get(s.activeID)
	req := activation.Request{
		Candidate:          w,
		Active:             active,
		DescendantOfActive: s.activeID != 0 && s.Graph.IsDescendant(s.activeID, id),
		SameApplication:    active != nil && sameApplication(active, w),
		FocusIn:            focusIn,
		StartupGrace:       s.InStartupGrace(),
	}
	if activation.Allow(level, req) {
		s.Activate(id, false)
		return
	}
	w.Control.DemandsAttention = true
	s.ShouldGetFocus.Emit(w)
	log.WithField("window", id).Debug("activation denied, demanding attention")
}

func sameApplication(a, b *wm.Window) bool {
	if a.GroupID != 0 && a.GroupID == b.GroupID {
		return true
	}
	return a.DesktopFile != "" && a.DesktopFile == b.DesktopFile
}

// ActivateShortcut activates the window bound to the given shortcut
// string, if any.
func (s *Space) ActivateShortcut(shortcut string) bool {
	if shortcut == "" {
		return false
	}
	for _, w := range s.windows {
		if w.Control != nil && w.Control.Shortcut == shortcut {
			s.Activate(w.ID, true)
			return true
		}
	}
	return false
}

// Minimize hides the window and demotes it in the focus chain,
// passing focus to the next candidate.
func (s *Space) Minimize(id wm.ID) {
	w := s.Get(id)
	if w == nil || w.Control == nil || w.Control.Minimized {
		return
	}
	w.Control.Minimized = true
	s.Chain.Update(w, focus.MakeLast)
	s.Stack.Update()
	s.Repaint.Emit(w.RenderGeometry())
	s.PointerFocusDirty.Emit(struct{}{})
	if s.activeID == id {
		s.activeID = 0
		w.Control.Active = false
		if cand := s.Chain.GetForActivation(s.currentDesktop, id); cand != nil {
			s.Activate(cand.ID, false)
		} else {
			s.ActiveChanged.Emit(0)
		}
	}
}

// Unminimize shows the window again.
func (s *Space) Unminimize(id wm.ID) {
	w := s.Get(id)
	if w == nil || w.Control == nil || !w.Control.Minimized {
		return
	}
	w.Control.Minimized = false
	s.Chain.Update(w, focus.MakeFirst)
	s.Stack.Update()
	s.Repaint.Emit(w.RenderGeometry())
	s.PointerFocusDirty.Emit(struct{}{})
}
