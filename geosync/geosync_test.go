// SPDX-License-Identifier: Unlicense OR MIT

package geosync

import (
	"image"
	"testing"
	"time"

	"github.com/halcyonwm/halcyon/internal/timerq"
	"github.com/halcyonwm/halcyon/wm"
)

type recDriver struct {
	serial     uint32
	sync       bool // false: configures apply synchronously (no ack)
	configures []image.Rectangle
	moves      []image.Point
}

func (d *recDriver) SendConfigure(frame, client image.Rectangle, m wm.MaximizeMode, fs bool) (uint32, bool) {
	d.configures = append(d.configures, frame)
	if !d.sync {
		return 0, false
	}
	d.serial++
	return d.serial, true
}
func (d *recDriver) MoveFrame(p image.Point) { d.moves = append(d.moves, p) }
func (d *recDriver) RequestClose()           {}
func (d *recDriver) Kill()                   {}
func (d *recDriver) TakeFocus() bool         { return true }
func (d *recDriver) Ping(uint32)             {}

func newSyncer() (*Syncer, *timerq.Queue) {
	q := timerq.New(time.Unix(0, 0))
	return New(q), q
}

func wayland(id wm.ID, d *recDriver) *wm.Window {
	d.sync = true
	return &wm.Window{
		ID: id, Kind: wm.KindWaylandToplevel,
		Wayland: &wm.WaylandData{},
		Control: &wm.Control{Desktop: 1},
		Driver:  d,
	}
}

func TestConfigureAckCommit(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	target := image.Rect(10, 20, 410, 320)
	s.SetFrameGeometry(w, target)
	if len(w.Pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(w.Pending))
	}
	if w.Frame == target {
		t.Fatal("frame committed before ack")
	}
	s.HandleAck(w, w.Pending[0].Serial)
	if w.Frame != target {
		t.Errorf("frame = %v, want %v after ack", w.Frame, target)
	}
	if len(w.Pending) != 0 {
		t.Errorf("pending not drained: %v", w.Pending)
	}
	if !w.ReadyForPainting {
		t.Error("first ack did not mark ready for painting")
	}
}

func TestAckPromotesLowerSerials(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	s.SetFrameGeometry(w, image.Rect(0, 0, 100, 100))
	s.SetFrameGeometry(w, image.Rect(0, 0, 200, 200))
	s.SetFrameGeometry(w, image.Rect(0, 0, 300, 300))
	if len(w.Pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(w.Pending))
	}
	s.HandleAck(w, w.Pending[1].Serial)
	if len(w.Pending) != 1 {
		t.Fatalf("pending after partial ack = %d, want 1", len(w.Pending))
	}
	if w.Frame.Dx() != 200 {
		t.Errorf("committed frame %v, want the last promoted entry", w.Frame)
	}
	s.HandleAck(w, w.Pending[0].Serial)
	if w.Frame.Dx() != 300 {
		t.Errorf("final frame %v, want 300 wide", w.Frame)
	}
}

func TestMoveOnlySkipsRoundTrip(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	s.SetFrameGeometry(w, image.Rect(0, 0, 100, 100))
	s.HandleAck(w, 1)
	sent := len(d.configures)
	s.SetFrameGeometry(w, image.Rect(50, 60, 150, 160))
	if len(d.configures) != sent {
		t.Error("pure move produced a configure")
	}
	if len(d.moves) != 1 || d.moves[0] != image.Pt(50, 60) {
		t.Errorf("moves = %v, want [(50,60)]", d.moves)
	}
	if w.Frame.Min != image.Pt(50, 60) {
		t.Errorf("frame min = %v", w.Frame.Min)
	}
}

func TestMoveRewritesPendingPositions(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	s.SetFrameGeometry(w, image.Rect(0, 0, 100, 100))
	s.HandleAck(w, 1)
	s.SetFrameGeometry(w, image.Rect(0, 0, 200, 200)) // pending size change
	s.SetFrameGeometry(w, image.Rect(40, 40, 240, 240))
	if len(w.Pending) != 1 {
		t.Fatalf("pending = %d, want 1 (move rewrote in place)", len(w.Pending))
	}
	if w.Pending[0].Frame.Min != image.Pt(40, 40) {
		t.Errorf("pending position = %v, want (40,40)", w.Pending[0].Frame.Min)
	}
	s.HandleAck(w, w.Pending[0].Serial)
	if w.Frame != image.Rect(40, 40, 240, 240) {
		t.Errorf("frame = %v", w.Frame)
	}
}

func TestFirstConfigureWatchdog(t *testing.T) {
	s, q := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	s.SetFrameGeometry(w, image.Rect(0, 0, 640, 480))
	if w.ReadyForPainting {
		t.Fatal("ready before ack or timeout")
	}
	q.Advance(time.Unix(0, 0).Add(1100 * time.Millisecond))
	if !w.ReadyForPainting {
		t.Error("watchdog did not force ready-for-painting")
	}
	if w.Frame.Size() != image.Pt(640, 480) {
		t.Errorf("frame = %v, want requested geometry", w.Frame)
	}
}

func TestSynclessRetarder(t *testing.T) {
	s, q := newSyncer()
	d := &recDriver{}
	w := &wm.Window{
		ID: 1, Kind: wm.KindX11,
		X11:     &wm.X11Data{},
		Control: &wm.Control{Desktop: 1},
		Driver:  d,
	}
	base := time.Unix(0, 0)
	// 100 px wider every 4 ms; the retarder must coalesce to one
	// configure per 16 ms window.
	width := 100
	for i := 0; i < 8; i++ {
		q.Advance(base.Add(time.Duration(i*4) * time.Millisecond))
		width += 100
		s.SetFrameGeometry(w, image.Rect(0, 0, width, 100))
	}
	// 8 requests over 28 ms: first fires immediately, then one per
	// interval tick.
	if len(d.configures) > 3 {
		t.Errorf("%d configures for 8 rapid resizes, want <= 3", len(d.configures))
	}
	// Convergence within 32 ms of the last event.
	q.Advance(base.Add(60 * time.Millisecond))
	if w.Frame.Dx() != 900 {
		t.Errorf("frame width = %d, want 900", w.Frame.Dx())
	}
	last := d.configures[len(d.configures)-1]
	if last.Dx() != 900 {
		t.Errorf("last configure %v, want final size", last)
	}
}

func TestBufferSizeWins(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	s.SetFrameGeometry(w, image.Rect(0, 0, 400, 300))
	s.HandleAck(w, 1)
	// Client attaches a smaller buffer than configured.
	s.HandleCommit(w, image.Pt(380, 290))
	if w.Frame.Size() != image.Pt(380, 290) {
		t.Errorf("frame size = %v, want buffer size", w.Frame.Size())
	}
}

func TestInteractiveResizeAnchor(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	s.SetFrameGeometry(w, image.Rect(100, 100, 400, 300))
	s.HandleAck(w, 1)

	if !s.StartMoveResize(w, GripLeft|GripTop, image.Pt(100, 100), false) {
		t.Fatal("StartMoveResize failed")
	}
	s.UpdateMoveResize(w, image.Pt(80, 90))
	if len(w.Pending) == 0 {
		t.Fatal("resize produced no configure")
	}
	p := w.Pending[len(w.Pending)-1]
	// Bottom-right corner stays pinned while dragging the top-left.
	if p.Frame.Max != image.Pt(400, 300) {
		t.Errorf("anchor corner moved: %v", p.Frame)
	}
	if p.Frame.Min != image.Pt(80, 90) {
		t.Errorf("dragged corner = %v, want (80,90)", p.Frame.Min)
	}
	s.HandleAck(w, p.Serial)

	// The client attaches smaller than configured; the anchor still
	// holds.
	s.HandleCommit(w, image.Pt(310, 205))
	if w.Frame.Max != image.Pt(400, 300) {
		t.Errorf("anchor moved on short commit: %v", w.Frame)
	}
	s.FinishMoveResize(w, false)
}

func TestInteractiveCancelRestores(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{}
	w := wayland(1, d)
	orig := image.Rect(100, 100, 400, 300)
	s.SetFrameGeometry(w, orig)
	s.HandleAck(w, 1)

	s.StartMoveResize(w, GripRight|GripBottom, image.Pt(400, 300), false)
	s.UpdateMoveResize(w, image.Pt(500, 420))
	s.HandleAck(w, w.Pending[0].Serial)
	if w.Frame == orig {
		t.Fatal("resize had no effect")
	}
	s.FinishMoveResize(w, true)
	s.HandleAck(w, w.Pending[0].Serial)
	if w.Frame != orig {
		t.Errorf("frame = %v, want restored %v", w.Frame, orig)
	}
}

type strictRules struct{}

func (strictRules) CheckPosition(def image.Point, initial bool) (image.Point, bool) { return def, false }
func (strictRules) CheckSize(def image.Point, initial bool) image.Point             { return def }
func (strictRules) CheckMinSize(def image.Point) image.Point                        { return def }
func (strictRules) CheckMaxSize(def image.Point) image.Point                        { return def }
func (strictRules) CheckIgnoreGeometry(def bool) bool                               { return true }

func TestStrictGeometryDropsClientRequest(t *testing.T) {
	s, _ := newSyncer()
	s.Rules = func(*wm.Window) RuleView { return strictRules{} }
	d := &recDriver{}
	w := wayland(1, d)
	s.SetFrameGeometry(w, image.Rect(0, 0, 300, 200))
	s.HandleAck(w, 1)
	cur := w.Frame
	sent := len(d.configures)
	s.HandleClientGeometryRequest(w, image.Rect(50, 50, 500, 500))
	if w.Frame != cur || len(w.Pending) != 0 {
		t.Error("strict geometry did not drop the client request")
	}
	// The current geometry is confirmed back to the client.
	if len(d.configures) != sent+1 || d.configures[sent] != cur {
		t.Errorf("confirmation configure = %v, want %v", d.configures[sent:], cur)
	}
}

func TestInternalWindowSynchronous(t *testing.T) {
	s, _ := newSyncer()
	w := &wm.Window{ID: 1, Kind: wm.KindInternal, Internal: &wm.InternalData{}, Control: &wm.Control{Desktop: 1}}
	r := image.Rect(5, 5, 105, 105)
	s.SetFrameGeometry(w, r)
	if w.Frame != r || len(w.Pending) != 0 || !w.ReadyForPainting {
		t.Errorf("internal window not applied synchronously: %v", w.Frame)
	}
}

func TestSyncSuppressorBlocksAck(t *testing.T) {
	s, _ := newSyncer()
	d := &recDriver{sync: true}
	w := &wm.Window{
		ID: 1, Kind: wm.KindX11,
		X11:     &wm.X11Data{SyncCounter: 7},
		Control: &wm.Control{Desktop: 1},
		Driver:  d,
	}
	s.SetFrameGeometry(w, image.Rect(0, 0, 100, 100))
	w.X11.SyncSuppress++
	s.HandleSyncAlarm(w, w.Pending[0].Serial)
	if len(w.Pending) == 0 || w.Frame.Dx() == 100 {
		t.Error("suppressed alarm still committed")
	}
	w.X11.SyncSuppress--
	s.HandleSyncAlarm(w, w.Pending[0].Serial)
	if w.Frame.Dx() != 100 {
		t.Errorf("frame = %v after unsuppressed alarm", w.Frame)
	}
}
