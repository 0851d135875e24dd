// SPDX-License-Identifier: Unlicense OR MIT

package waylandadapter

import (
	"image"
	"testing"
	"time"

	"github.com/halcyonwm/halcyon/internal/timerq"
	"github.com/halcyonwm/halcyon/output"
	"github.com/halcyonwm/halcyon/rules"
	"github.com/halcyonwm/halcyon/space"
	"github.com/halcyonwm/halcyon/wm"
)

type fakeConn struct {
	configures []struct {
		surface uint32
		size    image.Point
		serial  uint32
	}
	closes []uint32
	pings  []uint32
}

func (c *fakeConn) SendConfigure(surface uint32, size image.Point, states []uint32, serial uint32) {
	c.configures = append(c.configures, struct {
		surface uint32
		size    image.Point
		serial  uint32
	}{surface, size, serial})
}
func (c *fakeConn) SendClose(surface uint32)                  { c.closes = append(c.closes, surface) }
func (c *fakeConn) SendPing(serial uint32)                    { c.pings = append(c.pings, serial) }
func (c *fakeConn) SendFrameDone(surface uint32, t uint32)    {}
func (c *fakeConn) KillClient(surface uint32)                 {}

func newAdapter() (*Adapter, *fakeConn, *space.Space) {
	q := timerq.New(time.Unix(0, 0))
	outs := new(output.Set)
	outs.Reconfigure([]output.Output{{ID: 1, Size: image.Pt(1920, 1080), Scale: 1, Enabled: true}})
	sp := space.New(space.DefaultOptions(), q, outs, rules.NewEngine(nil))
	conn := &fakeConn{}
	return New(sp, conn), conn, sp
}

func TestToplevelLifecycle(t *testing.T) {
	a, conn, sp := newAdapter()
	id := a.OnSurfaceMapped(7, RoleToplevel, 0, false, image.Pt(640, 480))
	if id == 0 {
		t.Fatal("mapping failed")
	}
	a.OnSetTitle(7, "editor")
	a.OnSetAppID(7, "org.example.editor")
	w := sp.Get(id)
	if w.Title != "editor" || w.AppID != "org.example.editor" {
		t.Errorf("metadata not applied: %q %q", w.Title, w.AppID)
	}

	// Maximize round trip: configure goes out, ack+commit applies.
	a.OnStateRequest(7, StateMaximize, image.Point{}, 0)
	if len(conn.configures) == 0 {
		t.Fatal("maximize sent no configure")
	}
	last := conn.configures[len(conn.configures)-1]
	if last.size != image.Pt(1920, 1080) {
		t.Errorf("configured size = %v", last.size)
	}
	a.OnAckConfigure(7, last.serial)
	a.OnCommit(7, last.size)
	if w.Frame.Size() != image.Pt(1920, 1080) {
		t.Errorf("frame = %v after ack", w.Frame)
	}

	a.OnDestroy(7)
	if sp.Get(id) != nil {
		t.Error("window survived destroy without remnant refs")
	}
}

func TestPopupGrabRegistration(t *testing.T) {
	a, _, sp := newAdapter()
	parent := a.OnSurfaceMapped(1, RoleToplevel, 0, false, image.Pt(400, 300))
	popup := a.OnSurfaceMapped(2, RolePopup, 1, true, image.Pt(100, 80))
	w := sp.Get(popup)
	if w.TransientFor != parent {
		t.Errorf("popup parent = %d, want %d", w.TransientFor, parent)
	}
	chain := sp.PopupChain()
	if len(chain) != 1 || chain[0] != popup {
		t.Errorf("popup chain = %v", chain)
	}
	a.OnUnmap(2)
	if len(sp.PopupChain()) != 0 {
		t.Error("grab not dropped on unmap")
	}
}

func TestLayerSurfaceLayers(t *testing.T) {
	a, _, sp := newAdapter()
	top := a.OnSurfaceMapped(3, RoleLayerTop, 0, false, image.Pt(1920, 30))
	overlay := a.OnSurfaceMapped(4, RoleLayerOverlay, 0, false, image.Pt(300, 100))
	if sp.Get(top).Layer != wm.LayerDock {
		t.Errorf("top layer surface in %v", sp.Get(top).Layer)
	}
	if sp.Get(overlay).Layer != wm.LayerOnScreenDisplay {
		t.Errorf("overlay surface in %v", sp.Get(overlay).Layer)
	}
}

func TestDuplicateMapIgnored(t *testing.T) {
	a, _, _ := newAdapter()
	if a.OnSurfaceMapped(9, RoleToplevel, 0, false, image.Pt(10, 10)) == 0 {
		t.Fatal("first map failed")
	}
	if a.OnSurfaceMapped(9, RoleToplevel, 0, false, image.Pt(10, 10)) != 0 {
		t.Error("duplicate map accepted")
	}
}
