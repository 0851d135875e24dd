// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	"image"
	"testing"
	"time"

	"github.com/halcyonwm/halcyon/focus"
	"github.com/halcyonwm/halcyon/input"
	"github.com/halcyonwm/halcyon/internal/timerq"
	"github.com/halcyonwm/halcyon/output"
	"github.com/halcyonwm/halcyon/rules"
	"github.com/halcyonwm/halcyon/wm"
)

func twoScreenSpace() (*Space, *timerq.Queue) {
	q := timerq.New(time.Unix(100, 0))
	outs := new(output.Set)
	outs.Reconfigure([]output.Output{
		{ID: 1, Name: "DP-1", Position: image.Pt(0, 0), Size: image.Pt(1280, 1024), Scale: 1, Enabled: true},
		{ID: 2, Name: "DP-2", Position: image.Pt(1280, 0), Size: image.Pt(1280, 1024), Scale: 1, Enabled: true},
	})
	s := New(DefaultOptions(), q, outs, rules.NewEngine(nil))
	return s, q
}

// internalWin builds a window that applies geometry synchronously,
// letting tests skip ack round trips.
func internalWin(frame image.Rectangle) *wm.Window {
	return &wm.Window{
		Kind:     wm.KindInternal,
		Internal: &wm.InternalData{},
		Frame:    frame,
		Client:   frame,
		Type:     wm.TypeNormal,
		AppID:    "test.app",
		Control:  &wm.Control{Desktop: 1, AcceptsFocus: true},
	}
}

func adopt(s *Space, frame image.Rectangle) *wm.Window {
	w := internalWin(frame)
	s.Adopt(w)
	return w
}

func TestAdoptActivates(t *testing.T) {
	s, _ := twoScreenSpace()
	w := adopt(s, image.Rect(10, 10, 210, 160))
	if s.ActiveWindow() != w.ID {
		t.Errorf("active = %d, want adopted %d", s.ActiveWindow(), w.ID)
	}
	// The focus chain front matches the active window.
	if s.Chain.Front(1) != w.ID {
		t.Errorf("chain front = %d", s.Chain.Front(1))
	}
}

func TestAdoptRemoveIsNoop(t *testing.T) {
	s, _ := twoScreenSpace()
	a := adopt(s, image.Rect(0, 0, 100, 100))
	before := len(s.Windows())
	stackBefore := s.Stack.Stack()
	w := adopt(s, image.Rect(50, 50, 150, 150))
	s.Release(w.ID)
	if len(s.Windows()) != before {
		t.Errorf("window count = %d, want %d", len(s.Windows()), before)
	}
	after := s.Stack.Stack()
	if len(after) != len(stackBefore) {
		t.Errorf("stack = %v, want %v", after, stackBefore)
	}
	if s.ActiveWindow() != a.ID {
		t.Errorf("active = %d, want focus returned to %d", s.ActiveWindow(), a.ID)
	}
	if s.Get(w.ID) != nil {
		t.Error("released window still resolvable")
	}
}

func TestMaximizeRestoreRoundTrip(t *testing.T) {
	s, _ := twoScreenSpace()
	orig := image.Rect(30, 40, 430, 340)
	w := adopt(s, orig)
	s.Maximize(w.ID, wm.MaximizeFull)
	if w.Frame == orig {
		t.Fatal("maximize had no effect")
	}
	if w.Frame != image.Rect(0, 0, 1280, 1024) {
		t.Errorf("maximized frame = %v", w.Frame)
	}
	s.Maximize(w.ID, wm.MaximizeRestore)
	if w.Frame != orig {
		t.Errorf("restored frame = %v, want %v", w.Frame, orig)
	}
}

func TestBorderlessMaximizePolicy(t *testing.T) {
	s, _ := twoScreenSpace()
	s.opts.BorderlessMaximized = true
	w := adopt(s, image.Rect(0, 0, 300, 200))
	w.Control.DecoMargins = wm.Margins{Left: 2, Top: 20, Right: 2, Bottom: 2}
	s.Maximize(w.ID, wm.MaximizeFull)
	if !w.NoBorderEffective() {
		t.Error("borderless-maximize policy kept the border")
	}
	s.Maximize(w.ID, wm.MaximizeRestore)
	if w.NoBorderEffective() {
		t.Error("border did not come back after restore")
	}
}

func TestQuickTileRestoreRoundTrip(t *testing.T) {
	s, q := twoScreenSpace()
	orig := image.Rect(200, 200, 600, 500)
	w := adopt(s, orig)
	s.QuickTile(w.ID, wm.QuickTileLeft)
	if w.Frame != image.Rect(0, 0, 640, 1024) {
		t.Errorf("left tile frame = %v", w.Frame)
	}
	// Outside the combine window, tiling to none restores.
	q.Advance(q.Now().Add(time.Second))
	s.QuickTile(w.ID, wm.QuickTileNone)
	if w.Frame != orig {
		t.Errorf("frame = %v, want pre-tile %v", w.Frame, orig)
	}
}

func TestQuickTileCombine(t *testing.T) {
	s, _ := twoScreenSpace()
	w := adopt(s, image.Rect(100, 100, 500, 400))
	// Top then left within the debounce combine to top-left.
	s.QuickTile(w.ID, wm.QuickTileTop)
	s.QuickTile(w.ID, wm.QuickTileLeft)
	if w.Control.QuickTile != wm.QuickTileTopLeft {
		t.Errorf("tile mode = %v, want top-left", w.Control.QuickTile)
	}
	if w.Frame != image.Rect(0, 0, 640, 512) {
		t.Errorf("frame = %v, want top-left quadrant", w.Frame)
	}
}

func TestQuickTileCombineExpires(t *testing.T) {
	s, q := twoScreenSpace()
	w := adopt(s, image.Rect(100, 100, 500, 400))
	s.QuickTile(w.ID, wm.QuickTileTop)
	q.Advance(q.Now().Add(time.Second))
	s.QuickTile(w.ID, wm.QuickTileLeft)
	if w.Control.QuickTile != wm.QuickTileLeft {
		t.Errorf("tile mode = %v, want plain left after debounce expiry", w.Control.QuickTile)
	}
}

func TestQuickTileForcedPositionRule(t *testing.T) {
	// Open-question decision: a forced position rule wins over the
	// tile slot.
	q := timerq.New(time.Unix(100, 0))
	outs := new(output.Set)
	outs.Reconfigure([]output.Output{{ID: 1, Size: image.Pt(1280, 1024), Scale: 1, Enabled: true}})
	eng := rules.NewEngine([]*rules.Rule{{
		Class:    rules.Matcher{Kind: rules.MatchExact, Value: "pinned.app"},
		Position: rules.Override[image.Point]{Policy: rules.Force, Value: image.Pt(111, 222)},
	}})
	s := New(DefaultOptions(), q, outs, eng)
	w := internalWin(image.Rect(0, 0, 400, 300))
	w.AppID = "pinned.app"
	s.Adopt(w)
	s.QuickTile(w.ID, wm.QuickTileLeft)
	if w.Frame.Min != image.Pt(111, 222) {
		t.Errorf("forced position lost to tile: %v", w.Frame.Min)
	}
	if w.Control.QuickTile != wm.QuickTileLeft {
		t.Error("tile mode not recorded")
	}
}

func TestSwitchWindowAcrossScreens(t *testing.T) {
	s, _ := twoScreenSpace()
	mk := func(x int) *wm.Window { return adopt(s, image.Rect(x, 200, x+100, 300)) }
	a, b, c, d := mk(300), mk(500), mk(1380), mk(1580)
	s.Activate(d.ID, false)

	want := []wm.ID{c.ID, b.ID, a.ID, d.ID}
	for i, id := range want {
		s.SwitchWindow(input.DirWest)
		if s.ActiveWindow() != id {
			t.Fatalf("switch %d: active = %d, want %d", i+1, s.ActiveWindow(), id)
		}
	}
}

func TestSwitchWindowSkipsOccluded(t *testing.T) {
	s, _ := twoScreenSpace()
	a := adopt(s, image.Rect(300, 200, 400, 300))
	b := adopt(s, image.Rect(500, 200, 600, 300))
	c := adopt(s, image.Rect(1380, 200, 1480, 300))
	d := adopt(s, image.Rect(1580, 200, 1680, 300))
	// Maximize A then B on the left screen; B ends stacked above A.
	s.Maximize(a.ID, wm.MaximizeFull)
	s.Maximize(b.ID, wm.MaximizeFull)
	s.Stack.Raise(b.ID)
	s.Activate(d.ID, false)

	want := []wm.ID{c.ID, b.ID, d.ID}
	for i, id := range want {
		s.SwitchWindow(input.DirWest)
		if s.ActiveWindow() != id {
			t.Fatalf("switch %d: active = %d, want %d", i+1, s.ActiveWindow(), id)
		}
	}
}

func TestFocusStealingPrevention(t *testing.T) {
	s, q := twoScreenSpace()
	// Leave the startup grace period first.
	q.Advance(q.Now().Add(10 * time.Second))
	a := adopt(s, image.Rect(0, 0, 100, 100))
	a.Control.UserTime = wm.DefinedTime(1000)
	s.Activate(a.ID, false)

	b := internalWin(image.Rect(200, 0, 300, 100))
	b.Control.UserTime = wm.DefinedTime(500)
	b.AppID = "other.app"
	s.windows[s.NewID()] = b // adopt manually to control activation
	b.ID = s.nextID
	s.Stack.Add(b.ID)
	s.Chain.Update(b, focus.MakeFirst)

	denied := 0
	s.ShouldGetFocus.Subscribe(func(*wm.Window) { denied++ })
	s.RequestActivation(b.ID, wm.DefinedTime(500), false)
	if s.ActiveWindow() != a.ID {
		t.Fatal("older user time stole focus")
	}
	if !b.Control.DemandsAttention || denied != 1 {
		t.Errorf("demandsAttention=%v denied=%d", b.Control.DemandsAttention, denied)
	}
	s.RequestActivation(b.ID, wm.DefinedTime(2000), false)
	if s.ActiveWindow() != b.ID {
		t.Error("newer user time was denied")
	}
	if b.Control.DemandsAttention {
		t.Error("attention flag not cleared on activation")
	}
}

func TestModalCapturesActivation(t *testing.T) {
	s, _ := twoScreenSpace()
	lead := adopt(s, image.Rect(0, 0, 400, 300))
	dlg := internalWin(image.Rect(100, 100, 300, 250))
	dlg.Type = wm.TypeDialog
	dlg.Control.Modal = true
	s.Adopt(dlg)
	if err := s.Graph.AddChild(lead.ID, dlg.ID); err != nil {
		t.Fatal(err)
	}
	s.Activate(lead.ID, false)
	if s.ActiveWindow() != dlg.ID {
		t.Errorf("active = %d, want modal dialog %d", s.ActiveWindow(), dlg.ID)
	}
}

func TestClientAreaStruts(t *testing.T) {
	s, _ := twoScreenSpace()
	dock := internalWin(image.Rect(0, 0, 1280, 30))
	dock.Kind = wm.KindX11
	dock.Internal = nil
	dock.X11 = &wm.X11Data{Strut: wm.Strut{Top: 30, TopStart: 0, TopEnd: 1280}}
	dock.Type = wm.TypeDock
	dock.Control.AcceptsFocus = false
	s.Adopt(dock)

	got := s.ClientArea(AreaMaximize, 0, 1)
	want := image.Rect(0, 30, 1280, 1024)
	if got != want {
		t.Errorf("maximize area = %v, want %v", got, want)
	}
	// Struts are ignored for the full-maximize and fullscreen kinds.
	if got := s.ClientArea(AreaMaximizeFull, 0, 1); got != image.Rect(0, 0, 1280, 1024) {
		t.Errorf("maximize-full area = %v", got)
	}
	// The right screen is unaffected by a left-edge-ranged strut.
	if got := s.ClientArea(AreaMaximize, 1, 1); got != image.Rect(1280, 0, 2560, 1024) {
		t.Errorf("right screen area = %v", got)
	}
}

func TestShowingDesktop(t *testing.T) {
	s, _ := twoScreenSpace()
	w := adopt(s, image.Rect(0, 0, 300, 200))
	s.SetShowingDesktop(true)
	if w.IsShown() {
		t.Error("normal window still shown in showing-desktop mode")
	}
	if s.ActiveWindow() != 0 {
		t.Error("a window stayed active in showing-desktop mode")
	}
	// Activating a window leaves the mode.
	s.Activate(w.ID, false)
	if s.ShowingDesktop() {
		t.Error("activation did not reset showing-desktop")
	}
	if !w.IsShown() {
		t.Error("window still hidden after mode reset")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := twoScreenSpace()
	w := adopt(s, image.Rect(40, 50, 440, 350))
	w.Role = "mainwindow"
	w.Control.KeepAbove = true
	s.Maximize(w.ID, wm.MaximizeFull)
	saved := s.SaveSession()
	if len(saved.Windows) != 1 {
		t.Fatalf("saved %d windows", len(saved.Windows))
	}

	// A fresh workspace restores the record during adoption.
	s2, _ := twoScreenSpace()
	s2.LoadSession(saved)
	w2 := internalWin(image.Rect(0, 0, 200, 100))
	w2.Role = "mainwindow"
	s2.Adopt(w2)
	if w2.Control.MaxMode != wm.MaximizeFull || !w2.Control.KeepAbove {
		t.Error("session state not applied")
	}
	if w2.Control.RestoreGeometry != image.Rect(40, 50, 440, 350) {
		t.Errorf("restore geometry = %v", w2.Control.RestoreGeometry)
	}
	// Resaving yields the same serialisable state.
	resaved := s2.SaveSession()
	if len(resaved.Windows) != 1 {
		t.Fatalf("resaved %d windows", len(resaved.Windows))
	}
	if a, b := saved.Windows[0], resaved.Windows[0]; a != b {
		t.Errorf("session record drifted:\n%+v\n%+v", a, b)
	}
}

func TestLayerInvariantAfterUpdate(t *testing.T) {
	s, _ := twoScreenSpace()
	w := adopt(s, image.Rect(0, 0, 100, 100))
	dock := internalWin(image.Rect(0, 0, 1280, 30))
	dock.Type = wm.TypeDock
	dock.Control.AcceptsFocus = false
	s.Adopt(dock)
	// The stored layer matches the computed layer for every window.
	for _, win := range s.Windows() {
		if got := wm.ComputeLayer(win, s); got != win.Layer {
			t.Errorf("window %d layer %v, computed %v", win.ID, win.Layer, got)
		}
	}
	_ = w
}

