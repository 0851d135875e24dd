// SPDX-License-Identifier: Unlicense OR MIT

// Package x11adapter pumps X11 events into the core: it owns the xcb
// connection, reparents managed clients into frame windows, and
// translates between the wire protocol and typed core calls. The
// core never sees an X11 type.
package x11adapter

import (
	"fmt"
	"image"

	"github.com/jezek/xgb"
	xsync "github.com/jezek/xgb/sync"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/ewmh"
	"github.com/jezek/xgbutil/icccm"
	"github.com/jezek/xgbutil/motif"
	"github.com/jezek/xgbutil/xprop"
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/space"
	"github.com/halcyonwm/halcyon/wm"
)

// Adapter bridges one X11 display to the workspace.
type Adapter struct {
	X     *xgbutil.XUtil
	Conn  *xgb.Conn
	Root  xproto.Window
	Space *space.Space

	// byXID maps client windows (not frames) to core ids.
	byXID   map[xproto.Window]wm.ID
	byFrame map[xproto.Window]wm.ID
	byAlarm map[uint32]wm.ID

	atoms map[string]xproto.Atom

	// serials allocates configure serials fed into the sync counter.
	serials uint32

	replaced bool
}

// New connects to DISPLAY and claims substructure redirection on the
// root window. With replace, the WM_S0 selection is taken over from a
// running window manager first.
func New(sp *space.Space, display string, replace bool) (*Adapter, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("x11adapter: connect: %w", err)
	}
	a := &Adapter{
		X:       xu,
		Conn:    xu.Conn(),
		Root:    xu.RootWin(),
		Space:   sp,
		byXID:   make(map[xproto.Window]wm.ID),
		byFrame: make(map[xproto.Window]wm.ID),
		atoms:   make(map[string]xproto.Atom),
	}
	if err := xsync.Init(a.Conn); err != nil {
		log.WithError(err).Warn("sync extension unavailable, clients fall back to retarded resizes")
	}
	if err := a.claimSelection(replace); err != nil {
		xu.Conn().Close()
		return nil, err
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect |
		xproto.EventMaskSubstructureNotify |
		xproto.EventMaskPropertyChange |
		xproto.EventMaskFocusChange)
	if err := xproto.ChangeWindowAttributesChecked(a.Conn, a.Root,
		xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("x11adapter: another window manager is running: %w", err)
	}
	return a, nil
}

// claimSelection acquires the WM_Sn manager selection. When replacing,
// ownership is taken at once; it does not wait for the previous owner
// to go away.
func (a *Adapter) claimSelection(replace bool) error {
	sel := a.atom(fmt.Sprintf("WM_S%d", a.X.Conn().DefaultScreen))
	owner, err := xproto.GetSelectionOwner(a.Conn, sel).Reply()
	if err != nil {
		return fmt.Errorf("x11adapter: selection owner: %w", err)
	}
	if owner.Owner != xproto.WindowNone && !replace {
		return fmt.Errorf("x11adapter: window manager selection owned; use --replace")
	}
	holder, err := xproto.NewWindowId(a.Conn)
	if err != nil {
		return err
	}
	screen := a.X.Screen()
	xproto.CreateWindow(a.Conn, screen.RootDepth, holder, a.Root,
		-1, -1, 1, 1, 0, xproto.WindowClassInputOnly, screen.RootVisual, 0, nil)
	xproto.SetSelectionOwner(a.Conn, holder, sel, xproto.TimeCurrentTime)
	a.replaced = owner.Owner != xproto.WindowNone
	return nil
}

func (a *Adapter) atom(name string) xproto.Atom {
	if at, ok := a.atoms[name]; ok {
		return at
	}
	at, err := xprop.Atm(a.X, name)
	if err != nil {
		log.WithField("atom", name).Warn("atom intern failed")
		return xproto.AtomNone
	}
	a.atoms[name] = at
	return at
}

// Pump processes every queued X event and flushes the connection
// afterwards; the host loop calls it when the display fd is readable.
func (a *Adapter) Pump() error {
	for {
		ev, err := a.Conn.PollForEvent()
		if err != nil {
			log.WithError(err).Warn("x11 protocol error, continuing")
			continue
		}
		if ev == nil {
			break
		}
		a.handle(ev)
	}
	a.Conn.Sync()
	return nil
}

func (a *Adapter) handle(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		a.manage(e.Window)
	case xproto.UnmapNotifyEvent:
		if id, ok := a.byXID[e.Window]; ok {
			a.unmanage(e.Window, id, false)
		}
	case xproto.DestroyNotifyEvent:
		if id, ok := a.byXID[e.Window]; ok {
			a.unmanage(e.Window, id, true)
		}
	case xproto.ConfigureRequestEvent:
		a.configureRequest(e)
	case xproto.PropertyNotifyEvent:
		if id, ok := a.byXID[e.Window]; ok {
			a.propertyChanged(id, e.Window, e.Atom)
		}
	case xproto.ClientMessageEvent:
		a.clientMessage(e)
	case xproto.MapNotifyEvent, xproto.ConfigureNotifyEvent, xproto.ReparentNotifyEvent:
		// Bookkeeping-only notifies.
	default:
		a.handleExtension(ev)
	}
}

// manage adopts a top-level client: read its conventions, build the
// window record, reparent into a frame, and hand it to the space.
func (a *Adapter) manage(xwin xproto.Window) {
	attr, err := xproto.GetWindowAttributes(a.Conn, xwin).Reply()
	if err != nil {
		return
	}
	geom, err := xproto.GetGeometry(a.Conn, xproto.Drawable(xwin)).Reply()
	if err != nil {
		return
	}
	frame := image.Rect(int(geom.X), int(geom.Y),
		int(geom.X)+int(geom.Width), int(geom.Y)+int(geom.Height))

	w := &wm.Window{
		Kind:    wm.KindX11,
		Frame:   frame,
		Client:  frame,
		Opacity: 1,
		X11: &wm.X11Data{
			WindowID:         uint32(xwin),
			OverrideRedirect: attr.OverrideRedirect,
		},
	}
	w.ID = a.Space.NewID()
	if !attr.OverrideRedirect {
		w.Control = &wm.Control{Desktop: a.Space.CurrentDesktop(), AcceptsFocus: true}
		a.readConventions(w, xwin)
		a.reparent(w, xwin)
	}
	w.Driver = &driver{a: a, win: w}
	a.byXID[xwin] = w.ID
	a.Space.Adopt(w)
	xproto.MapWindow(a.Conn, xwin)
}

func (a *Adapter) unmanage(xwin xproto.Window, id wm.ID, destroyed bool) {
	delete(a.byXID, xwin)
	if w := a.Space.Get(id); w != nil && w.X11 != nil {
		delete(a.byFrame, xproto.Window(w.X11.FrameID))
		delete(a.byAlarm, w.X11.SyncAlarm)
		if w.X11.FrameID != 0 {
			xproto.DestroyWindow(a.Conn, xproto.Window(w.X11.FrameID))
		}
	}
	if destroyed {
		a.Space.Destroy(id, false)
	} else {
		a.Space.Release(id)
	}
}

// reparent wraps the client in a frame window carrying the
// decoration.
func (a *Adapter) reparent(w *wm.Window, xwin xproto.Window) {
	frameID, err := xproto.NewWindowId(a.Conn)
	if err != nil {
		return
	}
	screen := a.X.Screen()
	f := w.Frame
	xproto.CreateWindow(a.Conn, screen.RootDepth, frameID, a.Root,
		int16(f.Min.X), int16(f.Min.Y), uint16(f.Dx()), uint16(f.Dy()), 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask,
		[]uint32{uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify |
			xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease | xproto.EventMaskPointerMotion)})
	m := w.Control.DecoMargins
	xproto.ReparentWindow(a.Conn, xwin, frameID, int16(m.Left), int16(m.Top))
	w.X11.FrameID = uint32(frameID)
	a.byFrame[frameID] = w.ID
}

// configureRequest services a client resize/move ask, honouring the
// request mask and routing the result through geometry sync.
func (a *Adapter) configureRequest(e xproto.ConfigureRequestEvent) {
	id, managed := a.byXID[e.Window]
	if !managed {
		// Pass unmanaged requests straight through, in mask order.
		var mask uint16
		var vals []uint32
		add := func(bit uint16, v uint32) {
			if e.ValueMask&bit != 0 {
				mask |= bit
				vals = append(vals, v)
			}
		}
		add(xproto.ConfigWindowX, uint32(e.X))
		add(xproto.ConfigWindowY, uint32(e.Y))
		add(xproto.ConfigWindowWidth, uint32(e.Width))
		add(xproto.ConfigWindowHeight, uint32(e.Height))
		if mask != 0 {
			xproto.ConfigureWindow(a.Conn, e.Window, mask, vals)
		}
		return
	}
	w := a.Space.Get(id)
	if w == nil {
		return
	}
	if w.Control == nil {
		// Override-redirect windows configure themselves.
		xproto.ConfigureWindow(a.Conn, e.Window,
			xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{uint32(e.X), uint32(e.Y), uint32(e.Width), uint32(e.Height)})
		return
	}
	rect := w.Frame
	client := w.Client
	if e.ValueMask&xproto.ConfigWindowX != 0 {
		client.Max.X = int(e.X) + client.Dx()
		client.Min.X = int(e.X)
	}
	if e.ValueMask&xproto.ConfigWindowY != 0 {
		client.Max.Y = int(e.Y) + client.Dy()
		client.Min.Y = int(e.Y)
	}
	if e.ValueMask&xproto.ConfigWindowWidth != 0 {
		client.Max.X = client.Min.X + int(e.Width)
	}
	if e.ValueMask&xproto.ConfigWindowHeight != 0 {
		client.Max.Y = client.Min.Y + int(e.Height)
	}
	pos := wm.GravityAdjust(w.X11.Gravity, client.Min, rect.Size(), w.Control.DecoMargins)
	rect = w.FrameFromClient(image.Rectangle{Min: client.Min, Max: client.Max})
	rect = rect.Sub(rect.Min).Add(pos)
	a.Space.Sync.HandleClientGeometryRequest(w, rect)
}

func (a *Adapter) clientMessage(e xproto.ClientMessageEvent) {
	switch e.Type {
	case a.atom("_NET_ACTIVE_WINDOW"):
		if id, ok := a.byXID[xproto.Window(e.Window)]; ok {
			data := e.Data.Data32
			t := wm.UserTime{}
			if len(data) > 1 && data[1] != 0 {
				t = wm.DefinedTime(data[1])
			}
			a.Space.RequestActivation(id, t, false)
		}
	case a.atom("_NET_WM_STATE"):
		a.netWMState(e)
	case a.atom("_NET_CURRENT_DESKTOP"):
		if len(e.Data.Data32) > 0 {
			a.Space.SetCurrentDesktop(int(e.Data.Data32[0]) + 1)
		}
	case a.atom("_NET_SHOWING_DESKTOP"):
		if len(e.Data.Data32) > 0 {
			a.Space.SetShowingDesktop(e.Data.Data32[0] != 0)
		}
	}
}

func (a *Adapter) netWMState(e xproto.ClientMessageEvent) {
	id, ok := a.byXID[xproto.Window(e.Window)]
	if !ok {
		return
	}
	data := e.Data.Data32
	if len(data) < 2 {
		return
	}
	const (
		remove = 0
		add    = 1
		toggle = 2
	)
	w := a.Space.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	apply := func(prop xproto.Atom, cur bool) bool {
		if xproto.Atom(data[1]) != prop && (len(data) < 3 || xproto.Atom(data[2]) != prop) {
			return cur
		}
		switch data[0] {
		case add:
			return true
		case remove:
			return false
		default:
			return !cur
		}
	}
	if fs := apply(a.atom("_NET_WM_STATE_FULLSCREEN"), w.Control.Fullscreen); fs != w.Control.Fullscreen {
		a.Space.SetFullScreen(id, fs)
	}
	maxH := apply(a.atom("_NET_WM_STATE_MAXIMIZED_HORZ"), w.Control.MaxMode&wm.MaximizeHorizontal != 0)
	maxV := apply(a.atom("_NET_WM_STATE_MAXIMIZED_VERT"), w.Control.MaxMode&wm.MaximizeVertical != 0)
	mode := wm.MaximizeRestore
	if maxH {
		mode |= wm.MaximizeHorizontal
	}
	if maxV {
		mode |= wm.MaximizeVertical
	}
	if mode != w.Control.MaxMode {
		a.Space.Maximize(id, mode)
	}
	if above := apply(a.atom("_NET_WM_STATE_ABOVE"), w.Control.KeepAbove); above != w.Control.KeepAbove {
		a.Space.SetKeepAbove(id, above)
	}
	if below := apply(a.atom("_NET_WM_STATE_BELOW"), w.Control.KeepBelow); below != w.Control.KeepBelow {
		a.Space.SetKeepBelow(id, below)
	}
	if att := apply(a.atom("_NET_WM_STATE_DEMANDS_ATTENTION"), w.Control.DemandsAttention); att != w.Control.DemandsAttention {
		w.Control.DemandsAttention = att
	}
}

// readConventions pulls the ICCCM/EWMH/Motif state of a fresh window.
func (a *Adapter) readConventions(w *wm.Window, xwin xproto.Window) {
	if name, err := ewmh.WmNameGet(a.X, xwin); err == nil && name != "" {
		w.Title = name
	} else if name, err := icccm.WmNameGet(a.X, xwin); err == nil {
		w.Title = name
	}
	if cls, err := icccm.WmClassGet(a.X, xwin); err == nil {
		w.AppID = cls.Class
	}
	if role, err := xprop.PropValStr(xprop.GetProperty(a.X, xwin, "WM_WINDOW_ROLE")); err == nil {
		w.Role = role
	}
	if machine, err := icccm.WmClientMachineGet(a.X, xwin); err == nil {
		w.Machine = machine
	}
	if pid, err := ewmh.WmPidGet(a.X, xwin); err == nil {
		w.PID = int(pid)
	}
	if leader, err := xprop.PropValWindow(xprop.GetProperty(a.X, xwin, "WM_CLIENT_LEADER")); err == nil {
		w.GroupID = uint64(leader)
	}
	a.readHints(w, xwin)
	a.readTransient(w, xwin)
	a.readType(w, xwin)
	a.readProtocols(w, xwin)
	a.readMotif(w, xwin)
	a.readStrut(w, xwin)
	a.readSyncCounter(w, xwin)
	if t, err := ewmh.WmUserTimeGet(a.X, xwin); err == nil {
		w.Control.UserTime = wm.DefinedTime(uint32(t))
	}
}

func (a *Adapter) readHints(w *wm.Window, xwin xproto.Window) {
	nh, err := icccm.WmNormalHintsGet(a.X, xwin)
	if err != nil {
		return
	}
	h := wm.SizeHints{}
	if nh.Flags&icccm.SizeHintPMinSize != 0 {
		h.MinSize = image.Pt(int(nh.MinWidth), int(nh.MinHeight))
	}
	if nh.Flags&icccm.SizeHintPMaxSize != 0 {
		h.MaxSize = image.Pt(int(nh.MaxWidth), int(nh.MaxHeight))
	}
	if nh.Flags&icccm.SizeHintPBaseSize != 0 {
		h.BaseSize = image.Pt(int(nh.BaseWidth), int(nh.BaseHeight))
	}
	if nh.Flags&icccm.SizeHintPResizeInc != 0 {
		h.Inc = image.Pt(int(nh.WidthInc), int(nh.HeightInc))
	}
	if nh.Flags&icccm.SizeHintPAspect != 0 {
		h.MinAspect = image.Pt(int(nh.MinAspectNum), int(nh.MinAspectDen))
		h.MaxAspect = image.Pt(int(nh.MaxAspectNum), int(nh.MaxAspectDen))
	}
	w.X11.Hints = h
	if nh.Flags&icccm.SizeHintPWinGravity != 0 {
		w.X11.Gravity = wm.Gravity(nh.WinGravity)
	}
	if hints, err := icccm.WmHintsGet(a.X, xwin); err == nil {
		if hints.Flags&icccm.HintInput != 0 {
			w.Control.AcceptsFocus = hints.Input != 0
		}
		if hints.Flags&icccm.HintWindowGroup != 0 {
			w.GroupID = uint64(hints.WindowGroup)
		}
	}
}

func (a *Adapter) readTransient(w *wm.Window, xwin xproto.Window) {
	lead, err := icccm.WmTransientForGet(a.X, xwin)
	if err != nil {
		return
	}
	if lead == a.Root || lead == 0 {
		// Transient for the root window means group transient.
		w.GroupTransient = true
		return
	}
	if id, ok := a.byXID[lead]; ok {
		w.TransientFor = id
	}
}

func (a *Adapter) readType(w *wm.Window, xwin xproto.Window) {
	types, err := ewmh.WmWindowTypeGet(a.X, xwin)
	if err != nil {
		return
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_DOCK":
			w.Type = wm.TypeDock
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			w.Type = wm.TypeDesktop
		case "_NET_WM_WINDOW_TYPE_DIALOG":
			w.Type = wm.TypeDialog
		case "_NET_WM_WINDOW_TYPE_UTILITY":
			w.Type = wm.TypeUtility
		case "_NET_WM_WINDOW_TYPE_SPLASH":
			w.Type = wm.TypeSplash
		case "_NET_WM_WINDOW_TYPE_TOOLBAR":
			w.Type = wm.TypeToolbar
		case "_NET_WM_WINDOW_TYPE_MENU":
			w.Type = wm.TypeMenu
		case "_NET_WM_WINDOW_TYPE_DROPDOWN_MENU":
			w.Type = wm.TypeDropdownMenu
		case "_NET_WM_WINDOW_TYPE_POPUP_MENU":
			w.Type = wm.TypePopupMenu
		case "_NET_WM_WINDOW_TYPE_TOOLTIP":
			w.Type = wm.TypeTooltip
		case "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			w.Type = wm.TypeNotification
		default:
			continue
		}
		return
	}
}

func (a *Adapter) readProtocols(w *wm.Window, xwin xproto.Window) {
	protos, err := icccm.WmProtocolsGet(a.X, xwin)
	if err != nil {
		return
	}
	for _, p := range protos {
		switch p {
		case "WM_DELETE_WINDOW":
			w.X11.SupportsDelete = true
		case "WM_TAKE_FOCUS":
			w.X11.SupportsTakeFocus = true
		case "_NET_WM_PING":
			w.X11.SupportsPing = true
		}
	}
}

func (a *Adapter) readMotif(w *wm.Window, xwin xproto.Window) {
	mh, err := motif.WmHintsGet(a.X, xwin)
	if err != nil {
		return
	}
	if !motif.Decor(mh) {
		w.X11.MotifNoBorder = true
		w.Control.NoBorder = true
	}
}

func (a *Adapter) readStrut(w *wm.Window, xwin xproto.Window) {
	if p, err := ewmh.WmStrutPartialGet(a.X, xwin); err == nil {
		w.X11.Strut = wm.Strut{
			Left: int(p.Left), Right: int(p.Right), Top: int(p.Top), Bottom: int(p.Bottom),
			LeftStart: int(p.LeftStartY), LeftEnd: int(p.LeftEndY),
			RightStart: int(p.RightStartY), RightEnd: int(p.RightEndY),
			TopStart: int(p.TopStartX), TopEnd: int(p.TopEndX),
			BottomStart: int(p.BottomStartX), BottomEnd: int(p.BottomEndX),
		}
		return
	}
	if st, err := ewmh.WmStrutGet(a.X, xwin); err == nil {
		w.X11.Strut = wm.Strut{
			Left: int(st.Left), Right: int(st.Right), Top: int(st.Top), Bottom: int(st.Bottom),
		}
	}
}

// propertyChanged re-reads the property a client updated.
func (a *Adapter) propertyChanged(id wm.ID, xwin xproto.Window, atom xproto.Atom) {
	w := a.Space.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	switch atom {
	case xproto.AtomWmName, a.atom("_NET_WM_NAME"):
		if name, err := ewmh.WmNameGet(a.X, xwin); err == nil {
			w.Title = name
		}
	case xproto.AtomWmNormalHints:
		a.readHints(w, xwin)
	case xproto.AtomWmTransientFor:
		a.readTransient(w, xwin)
		if w.TransientFor != 0 {
			if err := a.Space.Graph.AddChild(w.TransientFor, id); err != nil {
				log.WithField("window", id).Warn("transient loop rejected")
			}
		}
	case a.atom("_NET_WM_STRUT_PARTIAL"), a.atom("_NET_WM_STRUT"):
		a.readStrut(w, xwin)
		a.Space.SetStrut(id, w.X11.Strut)
	case a.atom("_MOTIF_WM_HINTS"):
		a.readMotif(w, xwin)
	case a.atom("_NET_WM_USER_TIME"):
		if t, err := ewmh.WmUserTimeGet(a.X, xwin); err == nil {
			w.Control.UserTime = wm.DefinedTime(uint32(t))
		}
	case a.atom("_NET_WM_ICON_GEOMETRY"):
		if g, err := ewmh.WmIconGeometryGet(a.X, xwin); err == nil {
			w.SetIconGeometry(image.Rect(int(g.X), int(g.Y),
				int(g.X)+int(g.Width), int(g.Y)+int(g.Height)))
		}
	}
}
