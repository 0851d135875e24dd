// SPDX-License-Identifier: Unlicense OR MIT

// Package waylandadapter binds xdg-shell surfaces to the core. The
// wire marshalling lives outside the core; this adapter receives
// typed calls from the protocol layer and answers through a Conn the
// protocol layer implements. State sets use the xdg-shell enum values
// so the protocol layer can forward them verbatim.
package waylandadapter

import (
	"image"

	xdg_shell "github.com/rajveermalviya/go-wayland/wayland/stable/xdg-shell"
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/geosync"
	"github.com/halcyonwm/halcyon/space"
	"github.com/halcyonwm/halcyon/wm"
)

// Conn is the outbound half: what the adapter asks the protocol
// layer to put on the wire.
type Conn interface {
	// SendConfigure emits xdg_surface.configure with the toplevel
	// size and state list for the given surface.
	SendConfigure(surface uint32, size image.Point, states []uint32, serial uint32)
	// SendClose emits xdg_toplevel.close.
	SendClose(surface uint32)
	// SendPing emits xdg_wm_base.ping.
	SendPing(serial uint32)
	// SendFrameDone completes the surface's frame callbacks.
	SendFrameDone(surface uint32, timeMs uint32)
	// KillClient disconnects the client owning the surface.
	KillClient(surface uint32)
}

// SurfaceRole tags what a registered surface is.
type SurfaceRole uint8

const (
	RoleToplevel SurfaceRole = iota
	RolePopup
	RoleLayerTop
	RoleLayerBottom
	RoleLayerOverlay
	RoleLayerBackground
)

// Adapter tracks the live surfaces of one Wayland display.
type Adapter struct {
	Space *space.Space
	Conn  Conn

	bySurface map[uint32]wm.ID
	serials   uint32
}

func New(sp *space.Space, conn Conn) *Adapter {
	return &Adapter{Space: sp, Conn: conn, bySurface: make(map[uint32]wm.ID)}
}

type surfaceRef struct {
	a       *Adapter
	surface uint32
	region  image.Rectangle
	alive   bool
}

func (s *surfaceRef) InputRegion() image.Rectangle { return s.region }
func (s *surfaceRef) Alive() bool                  { return s.alive }

// OnSurfaceMapped registers a surface taking a role and adopts the
// resulting window. Popups carry their parent surface and whether
// they grab.
func (a *Adapter) OnSurfaceMapped(surface uint32, role SurfaceRole, parent uint32, grab bool, size image.Point) wm.ID {
	if _, dup := a.bySurface[surface]; dup {
		log.WithField("surface", surface).Warn("surface mapped twice, ignoring")
		return 0
	}
	ref := &surfaceRef{a: a, surface: surface, alive: true,
		region: image.Rectangle{Max: size}}
	w := &wm.Window{
		Surface: ref,
		Frame:   image.Rectangle{Max: size},
		Client:  image.Rectangle{Max: size},
		Opacity: 1,
		Wayland: &wm.WaylandData{},
	}
	switch role {
	case RoleToplevel:
		w.Kind = wm.KindWaylandToplevel
		w.Type = wm.TypeNormal
		w.Control = &wm.Control{Desktop: a.Space.CurrentDesktop(), AcceptsFocus: true}
	case RolePopup:
		w.Kind = wm.KindWaylandPopup
		w.Type = wm.TypePopupMenu
		w.Control = &wm.Control{Desktop: a.Space.CurrentDesktop()}
		if id, ok := a.bySurface[parent]; ok {
			w.Wayland.PopupParent = id
		}
		w.Wayland.PopupGrab = grab
	default:
		w.Kind = wm.KindLayerSurface
		w.Control = &wm.Control{Desktop: wm.DesktopAll, OnAllDesktops: true}
		w.Type = layerType(role)
		w.Wayland.LayerKind = w.Type
	}
	w.Driver = &driver{a: a, surface: surface, win: w}
	w.ID = a.Space.NewID()
	a.bySurface[surface] = w.ID
	a.Space.Adopt(w)
	if w.Wayland.PopupParent != 0 {
		if err := a.Space.Graph.AddChild(w.Wayland.PopupParent, w.ID); err != nil {
			log.WithField("surface", surface).Warn("popup parent relation rejected")
		}
		if grab {
			a.Space.AddPopupGrab(w.ID)
		}
	}
	return w.ID
}

func layerType(role SurfaceRole) wm.WindowType {
	switch role {
	case RoleLayerOverlay:
		return wm.TypeOnScreenDisplay
	case RoleLayerBackground:
		return wm.TypeDesktop
	default:
		return wm.TypeDock
	}
}

// OnUnmap releases the surface's window but keeps the id until
// destroy.
func (a *Adapter) OnUnmap(surface uint32) {
	if id, ok := a.bySurface[surface]; ok {
		a.Space.RemovePopupGrab(id)
		a.Space.Release(id)
	}
}

// OnDestroy drops the surface entirely.
func (a *Adapter) OnDestroy(surface uint32) {
	id, ok := a.bySurface[surface]
	if !ok {
		return
	}
	delete(a.bySurface, surface)
	if w := a.Space.Get(id); w != nil {
		if ref, ok := w.Surface.(*surfaceRef); ok {
			ref.alive = false
		}
	}
	a.Space.RemovePopupGrab(id)
	a.Space.Destroy(id, false)
}

// OnAckConfigure relays the client's ack_configure serial.
func (a *Adapter) OnAckConfigure(surface uint32, serial uint32) {
	if w := a.win(surface); w != nil {
		a.Space.Sync.HandleAck(w, serial)
	}
}

// OnCommit applies a committed buffer of the given size.
func (a *Adapter) OnCommit(surface uint32, bufferSize image.Point) {
	w := a.win(surface)
	if w == nil {
		return
	}
	if ref, ok := w.Surface.(*surfaceRef); ok && ref.region.Empty() {
		ref.region = image.Rectangle{Max: bufferSize}
	}
	a.Space.Sync.HandleCommit(w, bufferSize)
}

// OnWindowGeometry records the client-declared content rectangle
// inside the surface.
func (a *Adapter) OnWindowGeometry(surface uint32, rect image.Rectangle) {
	if w := a.win(surface); w != nil && w.Wayland != nil {
		w.Wayland.WindowGeometry = rect
	}
}

// OnInputRegion replaces the surface input region.
func (a *Adapter) OnInputRegion(surface uint32, region image.Rectangle) {
	if w := a.win(surface); w != nil {
		if ref, ok := w.Surface.(*surfaceRef); ok {
			ref.region = region
		}
	}
}

// OnSetTitle and OnSetAppID track toplevel metadata.
func (a *Adapter) OnSetTitle(surface uint32, title string) {
	if w := a.win(surface); w != nil {
		w.Title = title
	}
}

func (a *Adapter) OnSetAppID(surface uint32, appID string) {
	if w := a.win(surface); w != nil {
		w.AppID = appID
	}
}

// OnSetParent links toplevel transiency.
func (a *Adapter) OnSetParent(surface uint32, parent uint32) {
	w := a.win(surface)
	if w == nil {
		return
	}
	if parent == 0 {
		if w.TransientFor != 0 {
			a.Space.Graph.RemoveChild(w.TransientFor, w.ID)
		}
		return
	}
	if pid, ok := a.bySurface[parent]; ok {
		if err := a.Space.Graph.AddChild(pid, w.ID); err != nil {
			log.WithField("surface", surface).Warn("transient cycle rejected")
		}
	}
}

// StateRequest is an xdg_toplevel state ask from the client.
type StateRequest uint8

const (
	StateMaximize StateRequest = iota
	StateUnmaximize
	StateFullscreen
	StateUnfullscreen
	StateMinimize
	StateMove
	StateResize
	StateClose
	StateWindowMenu
)

// OnStateRequest services a toplevel request.
func (a *Adapter) OnStateRequest(surface uint32, req StateRequest, pointer image.Point, grip uint8) {
	w := a.win(surface)
	if w == nil || w.Control == nil {
		return
	}
	switch req {
	case StateMaximize:
		a.Space.Maximize(w.ID, wm.MaximizeFull)
	case StateUnmaximize:
		a.Space.Maximize(w.ID, wm.MaximizeRestore)
	case StateFullscreen:
		a.Space.SetFullScreen(w.ID, true)
	case StateUnfullscreen:
		a.Space.SetFullScreen(w.ID, false)
	case StateMinimize:
		a.Space.Minimize(w.ID)
	case StateMove:
		a.Space.StartInteractiveMove(w.ID, pointer)
	case StateResize:
		a.Space.StartInteractiveResize(w.ID, resizeGrip(grip), pointer)
	case StateClose:
		w.Close()
	case StateWindowMenu:
		// The shell's window menu is outside the core.
	}
}

// OnPong clears a liveness probe.
func (a *Adapter) OnPong(surface uint32, serial uint32) {
	if w := a.win(surface); w != nil {
		w.HandlePong(serial)
	}
}

// FrameDone relays a presentation completion to the surface.
func (a *Adapter) FrameDone(surface uint32, timeMs uint32) {
	a.Conn.SendFrameDone(surface, timeMs)
}

// resizeGrip maps xdg_toplevel resize edges to drag grips.
func resizeGrip(edge uint8) geosync.Grip {
	var g geosync.Grip
	if edge&uint8(xdg_shell.ToplevelResizeEdgeTop) != 0 {
		g |= geosync.GripTop
	}
	if edge&uint8(xdg_shell.ToplevelResizeEdgeBottom) != 0 {
		g |= geosync.GripBottom
	}
	if edge&uint8(xdg_shell.ToplevelResizeEdgeLeft) != 0 {
		g |= geosync.GripLeft
	}
	if edge&uint8(xdg_shell.ToplevelResizeEdgeRight) != 0 {
		g |= geosync.GripRight
	}
	return g
}

func (a *Adapter) win(surface uint32) *wm.Window {
	id, ok := a.bySurface[surface]
	if !ok {
		return nil
	}
	return a.Space.Get(id)
}

// driver is the wm.Driver over one xdg surface.
type driver struct {
	a       *Adapter
	surface uint32
	win     *wm.Window
}

// SendConfigure emits a configure with a fresh serial; geometry sync
// waits for the matching ack.
func (d *driver) SendConfigure(frame, client image.Rectangle, mode wm.MaximizeMode, fs bool) (uint32, bool) {
	d.a.serials++
	serial := d.a.serials
	var states []uint32
	if mode == wm.MaximizeFull {
		states = append(states, uint32(xdg_shell.ToplevelStateMaximized))
	}
	if fs {
		states = append(states, uint32(xdg_shell.ToplevelStateFullscreen))
	}
	if d.win.Control != nil && d.win.Control.Active {
		states = append(states, uint32(xdg_shell.ToplevelStateActivated))
	}
	d.a.Conn.SendConfigure(d.surface, client.Size(), states, serial)
	return serial, true
}

// MoveFrame is server-side only on Wayland; nothing reaches the
// client for a pure move.
func (d *driver) MoveFrame(pos image.Point) {}

func (d *driver) RequestClose() {
	d.a.Conn.SendClose(d.surface)
	// Pair the close with a ping so an unresponsive client is
	// noticed.
	d.win.StartPing(d.a.Space.Q, nil)
}

func (d *driver) Kill() {
	d.a.Conn.KillClient(d.surface)
}

func (d *driver) TakeFocus() bool {
	// Keyboard focus on Wayland is compositor-side; the seat focus
	// moves when space updates the router.
	return true
}

func (d *driver) Ping(serial uint32) {
	d.a.Conn.SendPing(serial)
}
