// SPDX-License-Identifier: Unlicense OR MIT

package wm

import (
	"image"
	"testing"
)

type mapResolver map[ID]*Window

func (m mapResolver) Get(id ID) *Window { return m[id] }

func newManaged(id ID, typ WindowType) *Window {
	return &Window{
		ID:      id,
		Kind:    KindWaylandToplevel,
		Type:    typ,
		Opacity: 1,
		Control: &Control{Desktop: 1, AcceptsFocus: true},
	}
}

func TestUserTimeWrap(t *testing.T) {
	tests := []struct {
		a, b uint32
		want bool // a newer than b
	}{
		{2000, 1000, true},
		{1000, 2000, false},
		{10, 0xfffffff0, true}, // wrapped
		{0xfffffff0, 10, false},
	}
	for _, tc := range tests {
		got := DefinedTime(tc.a).After(DefinedTime(tc.b))
		if got != tc.want {
			t.Errorf("After(%#x, %#x) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTransientCycleRejected(t *testing.T) {
	m := mapResolver{}
	for i := ID(1); i <= 3; i++ {
		m[i] = newManaged(i, TypeNormal)
	}
	g := Graph{R: m}
	if err := g.AddChild(1, 2); err != nil {
		t.Fatal(err)
	}
	if err := g.AddChild(2, 3); err != nil {
		t.Fatal(err)
	}
	// 3 → 1 would cycle; the conflicting lead edge is severed first,
	// so the insert succeeds and the graph stays a DAG.
	if err := g.AddChild(3, 1); err != nil {
		t.Fatalf("AddChild(3,1) = %v, want cycle broken", err)
	}
	if g.IsDescendant(1, 1) || g.IsDescendant(2, 2) || g.IsDescendant(3, 3) {
		t.Error("graph has a cycle after edge severing")
	}
	if m[1].TransientFor != 3 {
		t.Errorf("1.TransientFor = %d, want 3", m[1].TransientFor)
	}
	// Self edge is rejected outright.
	if err := g.AddChild(2, 2); err == nil {
		t.Error("self edge accepted")
	}
}

func TestDetachPromotesGroupTransient(t *testing.T) {
	m := mapResolver{}
	for i := ID(1); i <= 2; i++ {
		m[i] = newManaged(i, TypeNormal)
		m[i].GroupID = 7
	}
	g := Graph{R: m}
	if err := g.AddChild(1, 2); err != nil {
		t.Fatal(err)
	}
	g.Detach(1)
	if m[2].TransientFor != 0 || !m[2].GroupTransient {
		t.Errorf("orphaned group member: TransientFor=%d GroupTransient=%v, want 0/true",
			m[2].TransientFor, m[2].GroupTransient)
	}
}

func TestFindModal(t *testing.T) {
	m := mapResolver{}
	for i := ID(1); i <= 4; i++ {
		m[i] = newManaged(i, TypeNormal)
	}
	g := Graph{R: m}
	g.AddChild(1, 2)
	g.AddChild(2, 3)
	g.AddChild(1, 4)
	m[3].Control.Modal = true
	m[4].Control.Modal = true
	// Depth first: 2's subtree before 4.
	if got := g.FindModal(1); got == nil || got.ID != 3 {
		t.Fatalf("FindModal(1) = %v, want 3", got)
	}
	// A minimized modal does not capture focus.
	m[3].Control.Minimized = true
	if got := g.FindModal(1); got == nil || got.ID != 4 {
		t.Fatalf("FindModal(1) with 3 minimized = %v, want 4", got)
	}
	// Modal semantics are off while the lead is minimized.
	m[1].Control.Minimized = true
	if got := g.FindModal(1); got != nil {
		t.Fatalf("FindModal(minimized lead) = %v, want nil", got)
	}
}

func TestGroupTransientEdges(t *testing.T) {
	m := mapResolver{}
	for i := ID(1); i <= 3; i++ {
		m[i] = newManaged(i, TypeNormal)
	}
	g := Graph{R: m}
	// 2 is a plain transient of 1; 3 is a group transient.
	g.AddChild(1, 2)
	m[3].GroupTransient = true
	g.AddGroupMember(m[3], 7, []ID{1, 2})
	// Only the non-transient member 1 gains the implicit edge.
	if len(m[1].Children) != 2 {
		t.Errorf("leader children = %v, want [2 3]", m[1].Children)
	}
	if len(m[2].Children) != 0 {
		t.Errorf("transient member gained children %v", m[2].Children)
	}
}

type layerEnv struct {
	active ID
	leads  map[ID]Layer
}

func (e layerEnv) IsActiveOrDescendant(id ID) bool { return id == e.active }
func (e layerEnv) LeadLayer(id ID) Layer {
	if l, ok := e.leads[id]; ok {
		return l
	}
	return LayerUnknown
}

func TestComputeLayer(t *testing.T) {
	env := layerEnv{active: 1}
	w := newManaged(1, TypeNormal)
	if l := ComputeLayer(w, env); l != LayerNormal {
		t.Errorf("normal window layer = %v, want %v", l, LayerNormal)
	}
	w.Control.Fullscreen = true
	if l := ComputeLayer(w, env); l != LayerActive {
		t.Errorf("active fullscreen layer = %v, want %v", l, LayerActive)
	}
	w.ID = 2 // not active anymore
	if l := ComputeLayer(w, env); l != LayerNormal {
		t.Errorf("inactive fullscreen layer = %v, want %v", l, LayerNormal)
	}
	w.Control.Fullscreen = false
	w.Control.KeepBelow = true
	if l := ComputeLayer(w, env); l != LayerBelow {
		t.Errorf("keep-below layer = %v, want %v", l, LayerBelow)
	}

	dock := newManaged(3, TypeDock)
	if l := ComputeLayer(dock, env); l != LayerDock {
		t.Errorf("dock layer = %v, want %v", l, LayerDock)
	}
	dock.Control.PanelBehavior = PanelWindowsCanCover
	if l := ComputeLayer(dock, env); l != LayerNormal {
		t.Errorf("coverable dock layer = %v, want %v", l, LayerNormal)
	}

	unmanaged := &Window{ID: 4, Kind: KindX11, X11: &X11Data{OverrideRedirect: true}}
	if l := ComputeLayer(unmanaged, env); l != LayerUnmanaged {
		t.Errorf("override-redirect layer = %v, want %v", l, LayerUnmanaged)
	}

	// Modal transients inherit their lead's layer, never lower.
	modal := newManaged(5, TypeDialog)
	modal.Control.Modal = true
	env.leads = map[ID]Layer{5: LayerAbove}
	if l := ComputeLayer(modal, env); l != LayerAbove {
		t.Errorf("modal under above-lead layer = %v, want %v", l, LayerAbove)
	}
	env.leads = map[ID]Layer{5: LayerBelow}
	if l := ComputeLayer(modal, env); l != LayerNormal {
		t.Errorf("modal dialog under below-lead layer = %v, want its own %v", l, LayerNormal)
	}
}

func TestSizeHintsConstrain(t *testing.T) {
	h := SizeHints{
		MinSize: image.Pt(100, 80),
		MaxSize: image.Pt(800, 600),
		Inc:     image.Pt(10, 10),
	}
	tests := []struct {
		in, want image.Point
	}{
		{image.Pt(50, 50), image.Pt(100, 80)},
		{image.Pt(1000, 1000), image.Pt(800, 600)},
		{image.Pt(153, 127), image.Pt(150, 120)},
	}
	for _, tc := range tests {
		if got := h.Constrain(tc.in); got != tc.want {
			t.Errorf("Constrain(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSizeHintsAspect(t *testing.T) {
	h := SizeHints{
		MinAspect: image.Pt(1, 1),
		MaxAspect: image.Pt(1, 1),
	}
	got := h.Constrain(image.Pt(300, 200))
	if got.X != got.Y {
		t.Errorf("square aspect produced %v", got)
	}
}

func TestFrameClientConversion(t *testing.T) {
	w := newManaged(1, TypeNormal)
	w.Control.DecoMargins = Margins{Left: 4, Top: 24, Right: 4, Bottom: 4}
	frame := image.Rect(100, 100, 500, 400)
	client := w.ClientFromFrame(frame)
	if want := image.Rect(104, 124, 496, 396); client != want {
		t.Errorf("ClientFromFrame = %v, want %v", client, want)
	}
	if back := w.FrameFromClient(client); back != frame {
		t.Errorf("FrameFromClient = %v, want %v", back, frame)
	}
	// Fullscreen implies borderless: margins collapse.
	w.Control.Fullscreen = true
	if got := w.ClientFromFrame(frame); got != frame {
		t.Errorf("fullscreen ClientFromFrame = %v, want %v", got, frame)
	}
}

func TestRemnantRefcount(t *testing.T) {
	w := newManaged(9, TypeNormal)
	w.Control.Active = true
	r := NewRemnant(w, 42)
	if r.Kind != KindRemnant || r.Control != nil || r.Surface != nil {
		t.Fatal("remnant must have no control and no surface")
	}
	r.Remnant.Ref()
	if r.Remnant.Unref() {
		t.Error("remnant deletable while referenced")
	}
	if !r.Remnant.Unref() {
		t.Error("remnant not deletable at refcount 0")
	}
}

func TestCloseFallsBackToKill(t *testing.T) {
	var killed, closed bool
	w := newManaged(1, TypeNormal)
	w.Kind = KindX11
	w.X11 = &X11Data{SupportsDelete: false}
	w.Driver = &fakeDriver{onKill: func() { killed = true }, onClose: func() { closed = true }}
	w.Close()
	if !killed || closed {
		t.Errorf("killed=%v closed=%v, want kill fallback", killed, closed)
	}
	killed, closed = false, false
	w.X11.SupportsDelete = true
	w.Close()
	if killed || !closed {
		t.Errorf("killed=%v closed=%v, want graceful close", killed, closed)
	}
}

type fakeDriver struct {
	onKill  func()
	onClose func()
}

func (d *fakeDriver) SendConfigure(frame, client image.Rectangle, m MaximizeMode, fs bool) (uint32, bool) {
	return 0, false
}
func (d *fakeDriver) MoveFrame(image.Point) {}
func (d *fakeDriver) RequestClose() {
	if d.onClose != nil {
		d.onClose()
	}
}
func (d *fakeDriver) Kill() {
	if d.onKill != nil {
		d.onKill()
	}
}
func (d *fakeDriver) TakeFocus() bool { return true }
func (d *fakeDriver) Ping(uint32)     {}
