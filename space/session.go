// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/session"
	"github.com/halcyonwm/halcyon/wm"
)

// SaveSession serialises every managed window, in intent stacking
// order so restore can rebuild it.
func (s *Space) SaveSession() *session.File {
	f := &session.File{}
	for idx, id := range s.Stack.PreStack() {
		w := s.windows[id]
		if w == nil || w.Control == nil {
			continue
		}
		c := w.Control
		f.Windows = append(f.Windows, session.Window{
			SessionID:     w.SessionID,
			WindowRole:    w.Role,
			ResourceName:  w.Title,
			ResourceClass: w.AppID,
			ClientMachine: w.Machine,
			Geometry:      session.FromRectangle(w.Frame),
			Restore:       session.FromRectangle(c.RestoreGeometry),
			Desktop:       c.Desktop,
			MaxMode:       uint8(c.MaxMode),
			Fullscreen:    c.Fullscreen,
			Minimized:     c.Minimized,
			OnAllDesktops: c.OnAllDesktops,
			KeepAbove:     c.KeepAbove,
			KeepBelow:     c.KeepBelow,
			SkipTaskbar:   c.SkipTaskbar,
			SkipPager:     c.SkipPager,
			SkipSwitcher:  c.SkipSwitcher,
			NoBorder:      c.NoBorder,
			WindowType:    uint8(w.Type),
			Shortcut:      c.Shortcut,
			Active:        w.ID == s.activeID,
			StackingIndex: idx,
			Opacity:       w.Opacity,
		})
	}
	return f
}

// LoadSession arms the pending session records consumed by adoption.
func (s *Space) LoadSession(f *session.File) {
	s.pendingSession = append([]session.Window(nil), f.Windows...)
	log.WithField("windows", len(f.Windows)).Info("session loaded")
}

// takeSessionInfo claims the saved record matching a new window:
// first on (session id, window role), then on (resource class,
// window role). A claimed record is consumed.
func (s *Space) takeSessionInfo(w *wm.Window) *session.Window {
	match := func(pred func(r *session.Window) bool) *session.Window {
		for i := range s.pendingSession {
			r := &s.pendingSession[i]
			if pred(r) {
				rec := *r
				s.pendingSession = append(s.pendingSession[:i], s.pendingSession[i+1:]...)
				return &rec
			}
		}
		return nil
	}
	if w.SessionID != "" {
		if r := match(func(r *session.Window) bool {
			return r.SessionID == w.SessionID && r.WindowRole == w.Role
		}); r != nil {
			return r
		}
	}
	return match(func(r *session.Window) bool {
		return r.ResourceClass == w.AppID && r.WindowRole == w.Role && r.ResourceClass != ""
	})
}

func (s *Space) applySessionInfo(w *wm.Window, r *session.Window) {
	c := w.Control
	w.Frame = r.Geometry.Rectangle()
	w.Client = w.ClientFromFrame(w.Frame)
	c.RestoreGeometry = r.Restore.Rectangle()
	c.Desktop = clampDesktop(r.Desktop, s.opts.Desktops)
	c.MaxMode = wm.MaximizeMode(r.MaxMode)
	c.Fullscreen = r.Fullscreen
	c.Minimized = r.Minimized
	c.OnAllDesktops = r.OnAllDesktops
	c.KeepAbove = r.KeepAbove
	c.KeepBelow = r.KeepBelow
	c.SkipTaskbar = r.SkipTaskbar
	c.SkipPager = r.SkipPager
	c.SkipSwitcher = r.SkipSwitcher
	c.NoBorder = r.NoBorder
	c.Shortcut = r.Shortcut
	w.Opacity = r.Opacity
	log.WithFields(log.Fields{"window": w.ID, "class": r.ResourceClass}).
		Debug("session state restored")
}
