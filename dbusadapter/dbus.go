// SPDX-License-Identifier: Unlicense OR MIT

// Package dbusadapter exports a read-only introspection surface over
// the session bus. It only reads the same accessors tests use; no
// core code depends on it.
package dbusadapter

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/halcyonwm/halcyon/space"
	"github.com/halcyonwm/halcyon/wm"
)

const (
	busName = "org.halcyonwm.Halcyon"
	objPath = "/Compositor"
	iface   = "org.halcyonwm.Compositor"
)

// Service is the exported object.
type Service struct {
	sp   *space.Space
	conn *dbus.Conn
}

// Start claims the bus name and exports the object.
func Start(sp *space.Space) (*Service, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbusadapter: session bus: %w", err)
	}
	s := &Service{sp: sp, conn: conn}
	if err := conn.Export(s, dbus.ObjectPath(objPath), iface); err != nil {
		conn.Close()
		return nil, err
	}
	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil || reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("dbusadapter: name %s unavailable", busName)
	}
	return s, nil
}

// Close releases the bus connection.
func (s *Service) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// WindowInfo is the wire shape of one window record.
type WindowInfo struct {
	ID        uint64
	Title     string
	AppID     string
	Desktop   int32
	X, Y      int32
	W, H      int32
	Minimized bool
	Active    bool
}

// ActiveWindow returns the focused window's id, 0 when none.
func (s *Service) ActiveWindow() (uint64, *dbus.Error) {
	return uint64(s.sp.ActiveWindow()), nil
}

// ListWindows enumerates the managed windows bottom to top.
func (s *Service) ListWindows() ([]WindowInfo, *dbus.Error) {
	var out []WindowInfo
	for _, w := range s.sp.Windows() {
		if w.Control == nil {
			continue
		}
		out = append(out, infoFor(w, s.sp.ActiveWindow()))
	}
	return out, nil
}

// QueryWindowInfo resolves a single window.
func (s *Service) QueryWindowInfo(id uint64) (WindowInfo, *dbus.Error) {
	w := s.sp.Get(wm.ID(id))
	if w == nil {
		return WindowInfo{}, dbus.MakeFailedError(fmt.Errorf("no such window %d", id))
	}
	return infoFor(w, s.sp.ActiveWindow()), nil
}

func infoFor(w *wm.Window, active wm.ID) WindowInfo {
	info := WindowInfo{
		ID:     uint64(w.ID),
		Title:  w.Title,
		AppID:  w.AppID,
		X:      int32(w.Frame.Min.X),
		Y:      int32(w.Frame.Min.Y),
		W:      int32(w.Frame.Dx()),
		H:      int32(w.Frame.Dy()),
		Active: w.ID == active,
	}
	if w.Control != nil {
		info.Desktop = int32(w.Control.Desktop)
		info.Minimized = w.Control.Minimized
	}
	return info
}
