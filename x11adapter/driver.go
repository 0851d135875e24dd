// SPDX-License-Identifier: Unlicense OR MIT

package x11adapter

import (
	"image"

	"github.com/jezek/xgb"
	xsync "github.com/jezek/xgb/sync"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil/xprop"
	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/wm"
)

// driver is the wm.Driver implementation for X11 windows.
type driver struct {
	a   *Adapter
	win *wm.Window
}

// SendConfigure resizes the frame and client windows, arms the sync
// alarm on a fresh serial, and tells the client its new geometry via
// a synthetic ConfigureNotify. Clients without a sync counter apply
// immediately; ok is false for them.
func (d *driver) SendConfigure(frame, client image.Rectangle, mode wm.MaximizeMode, fs bool) (uint32, bool) {
	a, w := d.a, d.win
	x := w.X11
	if x.FrameID != 0 {
		xproto.ConfigureWindow(a.Conn, xproto.Window(x.FrameID),
			xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{uint32(frame.Min.X), uint32(frame.Min.Y), uint32(frame.Dx()), uint32(frame.Dy())})
		xproto.ConfigureWindow(a.Conn, xproto.Window(x.WindowID),
			xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{uint32(client.Min.X - frame.Min.X), uint32(client.Min.Y - frame.Min.Y),
				uint32(client.Dx()), uint32(client.Dy())})
	} else {
		xproto.ConfigureWindow(a.Conn, xproto.Window(x.WindowID),
			xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{uint32(client.Min.X), uint32(client.Min.Y), uint32(client.Dx()), uint32(client.Dy())})
	}

	serial := uint32(0)
	if x.SyncCounter != 0 {
		a.serials++
		serial = a.serials
		d.sendSyncRequest(serial)
		d.armAlarm(serial)
	}
	d.sendSyntheticConfigure(client)
	return serial, x.SyncCounter != 0
}

// sendSyncRequest asks the client to bump its counter to serial once
// it finished drawing the configured size.
func (d *driver) sendSyncRequest(serial uint32) {
	a, x := d.a, d.win.X11
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(x.WindowID),
		Type:   a.atom("WM_PROTOCOLS"),
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(a.atom("_NET_WM_SYNC_REQUEST")),
			uint32(xproto.TimeCurrentTime),
			serial,
			0, 0,
		}),
	}
	xproto.SendEvent(a.Conn, false, xproto.Window(x.WindowID),
		xproto.EventMaskNoEvent, string(ev.Bytes()))
}

// armAlarm points the window's alarm at the serial the next ack must
// reach.
func (d *driver) armAlarm(serial uint32) {
	a, x := d.a, d.win.X11
	if x.SyncAlarm == 0 {
		return
	}
	xsync.ChangeAlarm(a.Conn, xsync.Alarm(x.SyncAlarm),
		xsync.CaValue|xsync.CaTestType,
		[]uint32{0, serial, uint32(xsync.TesttypePositiveComparison)})
}

func (d *driver) sendSyntheticConfigure(client image.Rectangle) {
	a, x := d.a, d.win.X11
	ev := xproto.ConfigureNotifyEvent{
		Event:  xproto.Window(x.WindowID),
		Window: xproto.Window(x.WindowID),
		X:      int16(client.Min.X),
		Y:      int16(client.Min.Y),
		Width:  uint16(client.Dx()),
		Height: uint16(client.Dy()),
	}
	xproto.SendEvent(a.Conn, false, xproto.Window(x.WindowID),
		xproto.EventMaskStructureNotify, string(ev.Bytes()))
}

// MoveFrame repositions the frame without touching sizes and informs
// the client with a synthetic notify, no sync round trip.
func (d *driver) MoveFrame(pos image.Point) {
	a, w := d.a, d.win
	target := xproto.Window(w.X11.FrameID)
	if target == 0 {
		target = xproto.Window(w.X11.WindowID)
	}
	xproto.ConfigureWindow(a.Conn, target,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(pos.X), uint32(pos.Y)})
	d.sendSyntheticConfigure(w.ClientFromFrame(image.Rectangle{Min: pos, Max: pos.Add(w.Frame.Size())}))
}

// RequestClose sends WM_DELETE_WINDOW; the caller already verified
// support.
func (d *driver) RequestClose() {
	a, x := d.a, d.win.X11
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(x.WindowID),
		Type:   a.atom("WM_PROTOCOLS"),
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(a.atom("WM_DELETE_WINDOW")),
			uint32(xproto.TimeCurrentTime),
			0, 0, 0,
		}),
	}
	xproto.SendEvent(a.Conn, false, xproto.Window(x.WindowID),
		xproto.EventMaskNoEvent, string(ev.Bytes()))
}

// Kill disconnects the client outright.
func (d *driver) Kill() {
	xproto.KillClient(d.a.Conn, uint32(d.win.X11.WindowID))
}

// TakeFocus assigns input focus, preferring the WM_TAKE_FOCUS
// handshake when the client supports it.
func (d *driver) TakeFocus() bool {
	a, x := d.a, d.win.X11
	if d.win.Control != nil && !d.win.Control.AcceptsFocus && !x.SupportsTakeFocus {
		return false
	}
	if x.SupportsTakeFocus {
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: xproto.Window(x.WindowID),
			Type:   a.atom("WM_PROTOCOLS"),
			Data: xproto.ClientMessageDataUnionData32New([]uint32{
				uint32(a.atom("WM_TAKE_FOCUS")),
				uint32(xproto.TimeCurrentTime),
				0, 0, 0,
			}),
		}
		xproto.SendEvent(a.Conn, false, xproto.Window(x.WindowID),
			xproto.EventMaskNoEvent, string(ev.Bytes()))
	}
	if d.win.Control == nil || d.win.Control.AcceptsFocus {
		xproto.SetInputFocus(a.Conn, xproto.InputFocusPointerRoot,
			xproto.Window(x.WindowID), xproto.TimeCurrentTime)
	}
	return true
}

// Ping sends _NET_WM_PING carrying the probe serial in the timestamp
// slot.
func (d *driver) Ping(serial uint32) {
	a, x := d.a, d.win.X11
	if !x.SupportsPing {
		return
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(x.WindowID),
		Type:   a.atom("WM_PROTOCOLS"),
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(a.atom("_NET_WM_PING")),
			serial,
			uint32(x.WindowID),
			0, 0,
		}),
	}
	xproto.SendEvent(a.Conn, false, xproto.Window(x.WindowID),
		xproto.EventMaskNoEvent, string(ev.Bytes()))
}

// readSyncCounter picks up _NET_WM_SYNC_REQUEST_COUNTER and creates
// the alarm the acks arrive through.
func (a *Adapter) readSyncCounter(w *wm.Window, xwin xproto.Window) {
	nums, err := xprop.PropValNums(xprop.GetProperty(a.X, xwin, "_NET_WM_SYNC_REQUEST_COUNTER"))
	if err != nil || len(nums) == 0 {
		return
	}
	w.X11.SyncCounter = uint32(nums[0])
	alarm, err := xsync.NewAlarmId(a.Conn)
	if err != nil {
		log.WithError(err).Warn("sync alarm allocation failed")
		return
	}
	xsync.CreateAlarm(a.Conn, alarm,
		xsync.CaCounter|xsync.CaValueType|xsync.CaTestType|xsync.CaEvents,
		[]uint32{w.X11.SyncCounter, uint32(xsync.ValuetypeAbsolute),
			uint32(xsync.TesttypePositiveComparison), 1})
	w.X11.SyncAlarm = uint32(alarm)
	if a.byAlarm == nil {
		a.byAlarm = make(map[uint32]wm.ID)
	}
	a.byAlarm[uint32(alarm)] = w.ID
}

// handleExtension routes extension events; sync alarms carry
// configure acks.
func (a *Adapter) handleExtension(ev xgb.Event) {
	alarm, ok := ev.(xsync.AlarmNotifyEvent)
	if !ok {
		return
	}
	id, ok := a.byAlarm[uint32(alarm.Alarm)]
	if !ok {
		return
	}
	w := a.Space.Get(id)
	if w == nil || w.X11 == nil {
		return
	}
	a.Space.Sync.HandleSyncAlarm(w, alarm.CounterValue.Lo)
}
