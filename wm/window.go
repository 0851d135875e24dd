// SPDX-License-Identifier: Unlicense OR MIT

package wm

import (
	"image"

	log "github.com/sirupsen/logrus"
)

// Driver is the protocol half of a window. Adapters implement it; the
// core calls it and never touches wire formats. A nil driver (internal
// windows, remnants) means every call is a local no-op.
type Driver interface {
	// SendConfigure proposes a client geometry and state to the
	// client and returns the serial the client will ack. ok is false
	// when the variant applies geometry synchronously and no ack will
	// follow.
	SendConfigure(frame, client image.Rectangle, maxMode MaximizeMode, fullscreen bool) (serial uint32, ok bool)
	// MoveFrame repositions the server-side frame without a client
	// round trip.
	MoveFrame(pos image.Point)
	// RequestClose asks the client to close the window.
	RequestClose()
	// Kill forcibly disconnects the client.
	Kill()
	// TakeFocus transfers protocol-level input focus to the window.
	TakeFocus() bool
	// Ping sends a liveness probe carrying serial.
	Ping(serial uint32)
}

// Surface is the weak reference to the client surface backing a
// window. Remnants and pre-manage X11 windows have none.
type Surface interface {
	// InputRegion is the surface-local region accepting input.
	InputRegion() image.Rectangle
	// Alive reports whether the client resource still exists.
	Alive() bool
}

// Control carries the managed-window state that unmanaged
// (override-redirect) windows and remnants do not have. A window
// participates in focus, layering and rules iff Control is non-nil.
type Control struct {
	Minimized        bool
	Hidden           bool
	OnAllDesktops    bool
	KeepAbove        bool
	KeepBelow        bool
	SkipTaskbar      bool
	SkipPager        bool
	SkipSwitcher     bool
	NoBorder         bool
	DemandsAttention bool
	Fullscreen       bool
	MaxMode          MaximizeMode
	QuickTile        QuickTileMode

	// Desktop is 1..N, or DesktopAll.
	Desktop int

	// Active mirrors space's active-window pointer.
	Active bool

	// AcceptsFocus is the client's declared focus policy (WM_HINTS
	// input flag / xdg capabilities); NoFocusRecorded is set after a
	// refused TakeFocus.
	AcceptsFocus     bool
	NoFocusRecorded  bool
	Modal            bool
	Shortcut         string
	PanelBehavior    PanelBehavior
	DisableShortcuts bool
	// BorderlessMaximize applies the global policy of dropping the
	// decoration while fully maximized.
	BorderlessMaximize bool

	// RestoreGeometry is the frame rectangle to return to from
	// maximize/fullscreen, RestoreTile from quick tiling.
	RestoreGeometry image.Rectangle
	RestoreTile     image.Rectangle

	UserTime UserTime

	// Decoration margins; zero for undecorated windows.
	DecoMargins Margins
}

// Margins are the server-side decoration extents around the client
// rectangle.
type Margins struct {
	Left, Top, Right, Bottom int
}

func (m Margins) Empty() bool {
	return m == Margins{}
}

// Window is the ownership record of one managed surface. Exactly one
// variant payload is non-nil, matching Kind.
type Window struct {
	ID   ID
	Kind Kind

	Surface Surface
	Driver  Driver

	// Frame is the outer rectangle including server-side decoration;
	// Client is the inner content rectangle. They are equal for
	// undecorated windows. RenderOffsets extends Frame to the painted
	// rectangle (client-side shadows).
	Frame         image.Rectangle
	Client        image.Rectangle
	RenderOffsets Margins

	Layer      Layer
	Type       WindowType
	Title      string
	AppID      string
	Role       string
	Machine    string
	SessionID  string
	DesktopFile string
	PID        int
	Opacity    float64

	// Transient links. TransientFor is 0 for roots; GroupID clusters
	// windows of one client leader. Children is ordered by insertion.
	TransientFor ID
	Children     []ID
	GroupID      uint64
	// GroupTransient marks an X11 window transient for its whole
	// group rather than a specific parent.
	GroupTransient bool

	// Pending is the configure FIFO; see geosync.
	Pending []PendingConfigure

	// Control is nil iff the window is unmanaged or a remnant.
	Control *Control

	X11      *X11Data
	Wayland  *WaylandData
	Internal *InternalData
	Remnant  *RemnantData

	// ReadyForPainting is set once the first configure was acked (or
	// the watchdog gave up waiting).
	ReadyForPainting bool

	iconGeometry image.Rectangle

	ping pingState
}

// X11Data is the X11-managed variant payload.
type X11Data struct {
	WindowID uint32
	FrameID  uint32

	Hints     SizeHints
	Gravity   Gravity
	MotifNoBorder bool
	Strut     Strut

	SyncCounter uint32
	SyncAlarm   uint32
	SyncSerial  uint32
	// SyncSuppress counts scopes that temporarily disable sync
	// handling (unmap, shading); positive means acks are ignored.
	SyncSuppress int

	SupportsDelete    bool
	SupportsTakeFocus bool
	SupportsPing      bool
	OverrideRedirect  bool
}

// WaylandData is the payload shared by xdg toplevels, popups and
// layer surfaces.
type WaylandData struct {
	AckedSerial uint32
	// WindowGeometry is the client-declared content rectangle inside
	// the surface, zero until set_window_geometry.
	WindowGeometry image.Rectangle

	PopupParent ID
	PopupGrab   bool

	// LayerKind applies to layer surfaces only.
	LayerKind WindowType
}

// InternalData marks a compositor-owned offscreen widget. Geometry is
// applied synchronously; Target is the in-process render target
// handle.
type InternalData struct {
	Target uintptr
}

// RemnantData is the immutable snapshot kept for close animations.
type RemnantData struct {
	Pixmap uint64
	refs   int

	// Snapshot of fields callers may still read.
	WasX11     bool
	WasActive  bool
	MinimizedSnapshot bool
}

// RenderGeometry is the rectangle the compositor paints, the frame
// extended by client-side shadow offsets.
func (w *Window) RenderGeometry() image.Rectangle {
	r := w.Frame
	r.Min.X -= w.RenderOffsets.Left
	r.Min.Y -= w.RenderOffsets.Top
	r.Max.X += w.RenderOffsets.Right
	r.Max.Y += w.RenderOffsets.Bottom
	return r
}

// ClientFromFrame derives the client rectangle for a frame rectangle
// under the window's decoration margins.
func (w *Window) ClientFromFrame(frame image.Rectangle) image.Rectangle {
	m := w.decoMargins()
	return image.Rect(frame.Min.X+m.Left, frame.Min.Y+m.Top, frame.Max.X-m.Right, frame.Max.Y-m.Bottom)
}

// FrameFromClient is the inverse of ClientFromFrame.
func (w *Window) FrameFromClient(client image.Rectangle) image.Rectangle {
	m := w.decoMargins()
	return image.Rect(client.Min.X-m.Left, client.Min.Y-m.Top, client.Max.X+m.Right, client.Max.Y+m.Bottom)
}

func (w *Window) decoMargins() Margins {
	if w.Control == nil || w.NoBorderEffective() {
		return Margins{}
	}
	return w.Control.DecoMargins
}

// NoBorderEffective reports whether the window renders without
// server-side decoration, folding in the fullscreen and
// borderless-maximize overrides.
func (w *Window) NoBorderEffective() bool {
	c := w.Control
	if c == nil {
		return true
	}
	if c.Fullscreen {
		return true
	}
	if c.BorderlessMaximize && c.MaxMode == MaximizeFull {
		return true
	}
	return c.NoBorder
}

// IsShown reports whether the window should currently be presented.
func (w *Window) IsShown() bool {
	if w.Kind == KindRemnant {
		return true
	}
	if w.Control == nil {
		return w.Surface != nil && w.Surface.Alive()
	}
	return !w.Control.Minimized && !w.Control.Hidden
}

// OnDesktop reports presence on the given virtual desktop.
func (w *Window) OnDesktop(desktop int) bool {
	c := w.Control
	if c == nil {
		return true
	}
	return c.OnAllDesktops || c.Desktop == desktop || c.Desktop == DesktopAll
}

// WantsInput reports whether the window takes keyboard input at all.
func (w *Window) WantsInput() bool {
	c := w.Control
	if c == nil || w.Kind == KindRemnant {
		return false
	}
	if w.Type == TypeDock || w.Type == TypeNotification || w.Type == TypeCriticalNotification ||
		w.Type == TypeOnScreenDisplay || w.Type == TypeTooltip || w.Type == TypeSplash {
		return false
	}
	return c.AcceptsFocus || (w.X11 != nil && w.X11.SupportsTakeFocus)
}

// AcceptsFocus reports whether the client declared it accepts focus
// assignment.
func (w *Window) AcceptsFocus() bool {
	return w.Control != nil && w.Control.AcceptsFocus
}

// IsCloseable reports whether Close can have an effect.
func (w *Window) IsCloseable() bool {
	if w.Control == nil || w.Kind == KindRemnant || w.Kind == KindInternal {
		return false
	}
	return w.Type != TypeDesktop && w.Type != TypeDock
}

// Close asks the client to close the window. Closing a non-closeable
// window is a no-op; an X11 client without WM_DELETE_WINDOW support is
// killed instead.
func (w *Window) Close() {
	if !w.IsCloseable() || w.Driver == nil {
		return
	}
	if w.Kind == KindX11 && !w.X11.SupportsDelete {
		w.Kill()
		return
	}
	w.Driver.RequestClose()
}

// Kill forcibly removes the client through the driver, which destroys
// the client connection. The PID is only logged; no process is
// signalled, even when its id is known.
func (w *Window) Kill() {
	if w.Driver == nil {
		return
	}
	log.WithFields(log.Fields{"window": w.ID, "pid": w.PID}).Warn("killing client")
	w.Driver.Kill()
}

// TakeFocus transfers input focus. A refusal is recorded on the
// control so activation can stop retrying.
func (w *Window) TakeFocus() bool {
	if w.Driver == nil {
		return w.Kind == KindInternal
	}
	ok := w.Driver.TakeFocus()
	if !ok && w.Control != nil {
		w.Control.NoFocusRecorded = true
	}
	return ok
}

// IconGeometry is the taskbar rectangle to animate minimize towards.
// Zero when no taskbar published one.
func (w *Window) IconGeometry() image.Rectangle {
	return w.iconGeometry
}

// SetIconGeometry records the taskbar-published target rectangle.
func (w *Window) SetIconGeometry(r image.Rectangle) {
	w.iconGeometry = r
}
