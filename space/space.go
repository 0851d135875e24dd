// SPDX-License-Identifier: Unlicense OR MIT

// Package space is the workspace orchestrator: it owns the windows,
// the stacking order, the focus chain, the rules engine and the
// session state, and coordinates all of them across window
// lifecycles.
package space

import (
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/activation"
	"github.com/halcyonwm/halcyon/event"
	"github.com/halcyonwm/halcyon/focus"
	"github.com/halcyonwm/halcyon/geosync"
	"github.com/halcyonwm/halcyon/internal/timerq"
	"github.com/halcyonwm/halcyon/output"
	"github.com/halcyonwm/halcyon/rules"
	"github.com/halcyonwm/halcyon/session"
	"github.com/halcyonwm/halcyon/stack"
	"github.com/halcyonwm/halcyon/wm"
)

// Options is the static workspace configuration.
type Options struct {
	Desktops            int
	FocusStealing       activation.Level
	BorderlessMaximized bool
	// QuickTileCombine is the debounce window within which chained
	// tile requests combine (top then left makes top-left).
	QuickTileCombine time.Duration
	// StartupGrace waives focus-stealing checks right after start.
	StartupGrace time.Duration
}

// DefaultOptions mirror the stock configuration.
func DefaultOptions() Options {
	return Options{
		Desktops:         4,
		FocusStealing:    activation.LevelNormal,
		QuickTileCombine: 300 * time.Millisecond,
		StartupGrace:     5 * time.Second,
	}
}

// Space is the singleton workspace.
type Space struct {
	Q       *timerq.Queue
	Outputs *output.Set
	Rules   *rules.Engine
	Sync    *geosync.Syncer
	Stack   *stack.Order
	Chain   *focus.Chain
	Graph   wm.Graph

	opts Options

	windows  map[wm.ID]*wm.Window
	resolved map[wm.ID]*rules.Resolved
	remnants map[wm.ID]*wm.Window
	nextID   wm.ID

	currentDesktop int
	activeID       wm.ID
	lastActiveID   wm.ID
	showingDesktop bool
	locked         bool
	started        time.Time

	pendingSession []session.Window

	lastTile     wm.QuickTileMode
	lastTileWin  wm.ID
	lastTileTime time.Time

	moveTarget wm.ID
	popupChain []wm.ID

	// WantsRemnant lets the compositor keep a destroyed window
	// around for its close animation.
	WantsRemnant func(*wm.Window) bool

	windowSelect func(wm.ID)

	// WindowAdded and WindowRemoved fire on adopt/remove;
	// ActiveChanged with the new active window id (0 for none);
	// ShouldGetFocus when activation is denied and the candidate is
	// marked as demanding attention; Repaint with damaged regions.
	WindowAdded    event.Feed[*wm.Window]
	WindowRemoved  event.Feed[*wm.Window]
	ActiveChanged  event.Feed[wm.ID]
	DesktopChanged event.Feed[int]
	ShouldGetFocus event.Feed[*wm.Window]
	ShowingChanged event.Feed[bool]
	Repaint        event.Feed[image.Rectangle]

	// PointerFocusDirty asks the input layer to recheck the pointer
	// target after stacking or geometry changes.
	PointerFocusDirty event.Feed[struct{}]
}

// New assembles a workspace over the given collaborators.
func New(opts Options, q *timerq.Queue, outs *output.Set, eng *rules.Engine) *Space {
	if opts.Desktops < 1 {
		opts.Desktops = 1
	}
	s := &Space{
		Q:              q,
		Outputs:        outs,
		Rules:          eng,
		opts:           opts,
		windows:        make(map[wm.ID]*wm.Window),
		resolved:       make(map[wm.ID]*rules.Resolved),
		remnants:       make(map[wm.ID]*wm.Window),
		currentDesktop: 1,
		started:        q.Now(),
	}
	s.Graph = wm.Graph{R: s}
	s.Chain = focus.NewChain(s)
	for d := 1; d <= opts.Desktops; d++ {
		s.Chain.EnsureDesktop(d)
	}
	s.Stack = &stack.Order{R: s, Env: s}
	s.Sync = geosync.New(q)
	s.Sync.Rules = func(w *wm.Window) geosync.RuleView {
		if res := s.resolved[w.ID]; res != nil {
			return res
		}
		return nil
	}
	s.Sync.GeometryChanged.Subscribe(func(w *wm.Window) {
		s.Repaint.Emit(w.RenderGeometry())
		s.PointerFocusDirty.Emit(struct{}{})
	})
	s.Stack.Changed.Subscribe(func([]wm.ID) {
		s.PointerFocusDirty.Emit(struct{}{})
	})
	return s
}

// Get implements wm.Resolver; remnants resolve too so effects can
// keep reading them.
func (s *Space) Get(id wm.ID) *wm.Window {
	if w, ok := s.windows[id]; ok {
		return w
	}
	return s.remnants[id]
}

// NewID allocates a window identifier. IDs are never reused.
func (s *Space) NewID() wm.ID {
	s.nextID++
	return s.nextID
}

// Windows returns every managed window in intent stacking order,
// bottom to top.
func (s *Space) Windows() []*wm.Window {
	out := make([]*wm.Window, 0, len(s.windows))
	for _, id := range s.Stack.PreStack() {
		if w, ok := s.windows[id]; ok {
			out = append(out, w)
		}
	}
	return out
}

// ActiveWindow implements input.Scene.
func (s *Space) ActiveWindow() wm.ID {
	return s.activeID
}

// CurrentDesktop is the visible virtual desktop, 1-based.
func (s *Space) CurrentDesktop() int {
	return s.currentDesktop
}

// SetCurrentDesktop switches desktops, refocusing from the target
// desktop's chain.
func (s *Space) SetCurrentDesktop(d int) {
	if d < 1 || d > s.opts.Desktops || d == s.currentDesktop {
		return
	}
	s.currentDesktop = d
	s.DesktopChanged.Emit(d)
	s.PointerFocusDirty.Emit(struct{}{})
	if a := s.Get(s.activeID); a != nil && a.OnDesktop(d) {
		return
	}
	if cand := s.Chain.GetForActivation(d, 0); cand != nil {
		s.Activate(cand.ID, false)
	} else {
		s.deactivate()
	}
}

// IsActiveOrDescendant implements wm.LayerEnv: a fullscreen window
// keeps the active layer when it is the active window or shares a
// transient relation with it.
func (s *Space) IsActiveOrDescendant(id wm.ID) bool {
	if s.activeID == 0 {
		return false
	}
	if id == s.activeID {
		return true
	}
	return s.Graph.IsDescendant(s.activeID, id) || s.Graph.IsDescendant(id, s.activeID)
}

// LeadLayer implements wm.LayerEnv for modal layer inheritance.
func (s *Space) LeadLayer(id wm.ID) wm.Layer {
	w := s.Get(id)
	if w == nil || w.TransientFor == 0 {
		return wm.LayerUnknown
	}
	lead := s.Get(w.TransientFor)
	if lead == nil {
		return wm.LayerUnknown
	}
	return wm.ComputeLayer(lead, s)
}

// WindowAt implements input.Scene: the topmost shown window under
// pos, honouring the surface input region when one is known.
func (s *Space) WindowAt(pos image.Point) wm.ID {
	st := s.Stack.Stack()
	for i := len(st) - 1; i >= 0; i-- {
		w := s.windows[st[i]]
		if w == nil || !w.IsShown() || !w.OnDesktop(s.currentDesktop) {
			continue
		}
		if w.Kind == wm.KindRemnant {
			continue
		}
		if !pos.In(w.Frame) {
			continue
		}
		if w.Surface != nil {
			region := w.Surface.InputRegion().Add(w.Client.Min)
			if !pos.In(region) && !frameOnly(w, pos) {
				continue
			}
		}
		return w.ID
	}
	return 0
}

// frameOnly reports whether pos hits the server-side decoration: the
// part of the frame outside the client rectangle.
func frameOnly(w *wm.Window, pos image.Point) bool {
	if w.NoBorderEffective() {
		return false
	}
	return pos.In(w.Frame) && !pos.In(w.Client)
}

// Adopt takes ownership of a window built by a protocol adapter:
// rules are applied, session state patched in, placement done, and
// the window inserted into stacking and focus bookkeeping.
func (s *Space) Adopt(w *wm.Window) {
	if w.ID == 0 {
		w.ID = s.NewID()
	}
	if w.Opacity == 0 {
		w.Opacity = 1
	}
	s.windows[w.ID] = w

	if w.Control != nil {
		res := s.Rules.Match(subject(w))
		s.resolved[w.ID] = res
		s.applyInitialRules(w, res)
		if info := s.takeSessionInfo(w); info != nil {
			s.applySessionInfo(w, info)
		} else {
			s.place(w)
		}
		res.Discard()
		w.Control.BorderlessMaximize = s.opts.BorderlessMaximized
	}

	bl := s.Stack.Block()
	s.Stack.Add(w.ID)
	bl.Close()

	if w.Control != nil {
		s.Chain.Update(w, focus.MakeFirst)
	}
	s.WindowAdded.Emit(w)
	s.Repaint.Emit(w.RenderGeometry())

	if w.Control != nil && !w.Control.Minimized && w.WantsInput() {
		s.RequestActivation(w.ID, w.Control.UserTime, false)
	}
	log.WithFields(log.Fields{"window": w.ID, "kind": w.Kind.String(), "title": w.Title}).
		Debug("window adopted")
}

func subject(w *wm.Window) rules.Subject {
	return rules.Subject{
		Class:   w.AppID,
		Name:    w.Title,
		Role:    w.Role,
		Title:   w.Title,
		Machine: w.Machine,
		Type:    w.Type,
	}
}

func (s *Space) applyInitialRules(w *wm.Window, res *rules.Resolved) {
	c := w.Control
	w.Type = res.CheckType(w.Type)
	desk := c.Desktop
	if desk == 0 {
		desk = s.currentDesktop
	}
	c.Desktop = clampDesktop(res.CheckDesktop(desk, true), s.opts.Desktops)
	c.Minimized = res.CheckMinimized(c.Minimized, true)
	c.Fullscreen = res.CheckFullscreen(c.Fullscreen, true)
	c.MaxMode = res.CheckMaximized(c.MaxMode, true)
	c.KeepAbove = res.CheckKeepAbove(c.KeepAbove, true)
	c.KeepBelow = res.CheckKeepBelow(c.KeepBelow, true)
	c.NoBorder = res.CheckNoBorder(c.NoBorder, true)
	c.SkipTaskbar = res.CheckSkipTaskbar(c.SkipTaskbar)
	c.SkipPager = res.CheckSkipPager(c.SkipPager)
	c.SkipSwitcher = res.CheckSkipSwitcher(c.SkipSwitcher)
	c.AcceptsFocus = res.CheckAcceptFocus(c.AcceptsFocus)
	c.Shortcut = res.CheckShortcut(c.Shortcut)
	c.DisableShortcuts = res.CheckDisableShortcuts(c.DisableShortcuts)
	w.DesktopFile = res.CheckDesktopFile(w.DesktopFile)
	w.Opacity = res.CheckOpacity(w.Opacity)
	if size := res.CheckSize(w.Frame.Size(), true); size != w.Frame.Size() && size != (image.Point{}) {
		w.Frame.Max = w.Frame.Min.Add(size)
		w.Client = w.ClientFromFrame(w.Frame)
	}
	if pos, ok := res.CheckPosition(w.Frame.Min, true); ok {
		w.Frame = w.Frame.Sub(w.Frame.Min).Add(pos)
		w.Client = w.ClientFromFrame(w.Frame)
	}
}

func clampDesktop(d, max int) int {
	if d == wm.DesktopAll {
		return d
	}
	if d < 1 {
		return 1
	}
	if d > max {
		return max
	}
	return d
}

// place runs the placement strategy for windows without a
// client-specified or session position: centered on the output under
// the window's current centre, cascading on collision.
func (s *Space) place(w *wm.Window) {
	if w.Kind == wm.KindWaylandPopup || w.Kind == wm.KindLayerSurface || w.Control == nil {
		return
	}
	switch w.Type {
	case wm.TypeDock, wm.TypeDesktop, wm.TypeNotification, wm.TypeCriticalNotification, wm.TypeOnScreenDisplay:
		return
	}
	if res := s.resolved[w.ID]; res != nil {
		if res.CheckPlacement("") == "none" {
			return
		}
	}
	if w.Frame.Min != (image.Point{}) {
		return // client or adapter positioned it already
	}
	area := s.ClientArea(AreaPlacement, s.outputIndexFor(w), s.currentDesktop)
	size := w.Frame.Size()
	pos := image.Pt(
		area.Min.X+(area.Dx()-size.X)/2,
		area.Min.Y+(area.Dy()-size.Y)/2,
	)
	offset := 0
	for _, other := range s.windows {
		if other.ID != w.ID && other.Control != nil && other.Frame.Min == pos.Add(image.Pt(offset, offset)) {
			offset += 24
		}
	}
	pos = pos.Add(image.Pt(offset, offset))
	w.Frame = image.Rectangle{Min: pos, Max: pos.Add(size)}
	w.Client = w.ClientFromFrame(w.Frame)
}

func (s *Space) outputIndexFor(w *wm.Window) int {
	center := w.Frame.Min.Add(w.Frame.Size().Div(2))
	return s.Outputs.IndexOf(center)
}

// Release removes a window whose client unmapped it. The window stops
// resolving at once and no remnant is kept; a later Destroy of the
// same id is a no-op.
func (s *Space) Release(id wm.ID) {
	s.removeWindow(id, false, false)
}

// Destroy removes a window whose server resources are gone. A
// remnant is kept iff the caller or the compositor wants to paint a
// close animation, reference counted by effects.
func (s *Space) Destroy(id wm.ID, wantRemnant bool) {
	s.removeWindow(id, wantRemnant, true)
}

func (s *Space) removeWindow(id wm.ID, wantRemnant, allowRemnant bool) {
	w := s.windows[id]
	if w == nil {
		return
	}
	w.StopPing()
	if allowRemnant && !wantRemnant && s.WantsRemnant != nil {
		wantRemnant = s.WantsRemnant(w)
	}
	if wantRemnant {
		s.remnants[id] = wm.NewRemnant(w, 0)
	}
	delete(s.windows, id)
	delete(s.resolved, id)
	s.Graph.Detach(id)
	s.Sync.Remove(id)
	s.Chain.Remove(id)

	bl := s.Stack.Block()
	s.Stack.Remove(id)
	bl.Close()

	wasActive := s.activeID == id
	if wasActive {
		s.activeID = 0
	}
	if s.lastActiveID == id {
		s.lastActiveID = 0
	}
	s.WindowRemoved.Emit(w)
	s.Repaint.Emit(w.RenderGeometry())
	s.PointerFocusDirty.Emit(struct{}{})

	if wasActive {
		if cand := s.Chain.GetForActivation(s.currentDesktop, id); cand != nil {
			s.Activate(cand.ID, false)
		} else {
			s.ActiveChanged.Emit(0)
		}
	}
}

// DropRemnant releases an effect reference; the remnant disappears at
// zero.
func (s *Space) DropRemnant(id wm.ID) {
	r := s.remnants[id]
	if r == nil {
		return
	}
	if r.Remnant.Unref() {
		delete(s.remnants, id)
		s.Repaint.Emit(r.RenderGeometry())
	}
}

// InStartupGrace reports whether the startup grace period is still
// running.
func (s *Space) InStartupGrace() bool {
	return s.Q.Now().Sub(s.started) < s.opts.StartupGrace
}

// SetLocked toggles the screen-lock input gate; the lock-screen
// filter swallows everything while set.
func (s *Space) SetLocked(locked bool) {
	s.locked = locked
}

// Locked reports the screen-lock state.
func (s *Space) Locked() bool {
	return s.locked
}

// ShowingDesktop reports the showing-desktop mode.
func (s *Space) ShowingDesktop() bool {
	return s.showingDesktop
}

// SetShowingDesktop toggles the mode: windows other than desktop and
// dock are hidden until a window is activated or the mode is reset.
func (s *Space) SetShowingDesktop(show bool) {
	if show == s.showingDesktop {
		return
	}
	s.showingDesktop = show
	for _, w := range s.windows {
		if w.Control == nil || w.Type == wm.TypeDesktop || w.Type == wm.TypeDock {
			continue
		}
		w.Control.Hidden = show
	}
	bl := s.Stack.Block()
	s.Stack.Update()
	bl.Close()
	s.ShowingChanged.Emit(show)
	s.Repaint.Emit(s.Outputs.Bounds())
	if show {
		s.deactivate()
	} else if cand := s.Chain.GetForActivation(s.currentDesktop, 0); cand != nil {
		s.Activate(cand.ID, false)
	}
}

func (s *Space) deactivate() {
	if s.activeID == 0 {
		return
	}
	if w := s.Get(s.activeID); w != nil && w.Control != nil {
		w.Control.Active = false
	}
	s.lastActiveID = s.activeID
	s.activeID = 0
	s.ActiveChanged.Emit(0)
}
