// SPDX-License-Identifier: Unlicense OR MIT

// Package geosync reconciles compositor-driven geometry changes with
// the asynchronous clients owning the window contents. A change
// either applies immediately (moves, internal windows, sync-less
// clients) or is queued as a pending configure awaiting the client's
// ack before it becomes canonical.
package geosync

import (
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/event"
	"github.com/halcyonwm/halcyon/internal/timerq"
	"github.com/halcyonwm/halcyon/wm"
)

const (
	// firstConfigureTimeout bounds how long an unacked first
	// configure may hold back painting.
	firstConfigureTimeout = time.Second
	// retardInterval coalesces resizes of X11 clients without a sync
	// counter.
	retardInterval = 16 * time.Millisecond
)

// RuleView is the slice of the rules engine geometry cares about.
type RuleView interface {
	CheckPosition(def image.Point, initial bool) (image.Point, bool)
	CheckSize(def image.Point, initial bool) image.Point
	CheckMinSize(def image.Point) image.Point
	CheckMaxSize(def image.Point) image.Point
	CheckIgnoreGeometry(def bool) bool
}

// Syncer drives the per-window geometry state machines.
type Syncer struct {
	Q *timerq.Queue

	// Rules yields the resolved rule view of a window; may be nil.
	Rules func(*wm.Window) RuleView

	// GeometryChanged fires whenever a window's canonical frame
	// geometry changes (move fast path or configure commit).
	GeometryChanged event.Feed[*wm.Window]

	states map[wm.ID]*syncState
}

type syncState struct {
	firstDone   bool
	watchdog    *timerq.Timer
	retarder    *timerq.Timer
	retardGoal  image.Rectangle
	retardDirty bool

	interactive *interactiveState
}

func New(q *timerq.Queue) *Syncer {
	return &Syncer{Q: q, states: make(map[wm.ID]*syncState)}
}

func (s *Syncer) state(w *wm.Window) *syncState {
	st := s.states[w.ID]
	if st == nil {
		st = &syncState{}
		s.states[w.ID] = st
	}
	return st
}

// Remove forgets a window's sync state and cancels its timers.
func (s *Syncer) Remove(id wm.ID) {
	st := s.states[id]
	if st == nil {
		return
	}
	if st.watchdog != nil {
		st.watchdog.Stop()
	}
	if st.retarder != nil {
		st.retarder.Stop()
	}
	delete(s.states, id)
}

// FirstSyncDone reports whether the window completed its initial
// configure round trip (or its watchdog expired).
func (s *Syncer) FirstSyncDone(w *wm.Window) bool {
	return s.state(w).firstDone
}

// SetFrameGeometry requests the window's frame to become rect. Rules
// and size hints are applied first; the result is either committed
// directly or queued for the client's ack.
func (s *Syncer) SetFrameGeometry(w *wm.Window, rect image.Rectangle) {
	rect = s.constrain(w, rect)
	st := s.state(w)

	if rect == w.Frame && st.firstDone && len(w.Pending) == 0 {
		return
	}

	// Remnants are immutable; internal windows respond synchronously.
	switch w.Kind {
	case wm.KindRemnant:
		return
	case wm.KindInternal:
		s.commit(w, rect)
		return
	}

	// A translation is size-preserving relative to the newest queued
	// size, so a move during a pending resize only rewrites the
	// queued positions.
	target := w.Frame.Size()
	if n := len(w.Pending); n > 0 {
		target = w.Pending[n-1].Frame.Size()
	}
	if rect.Size() == target && st.firstDone {
		s.moveOnly(w, rect)
		return
	}

	if w.Kind == wm.KindX11 && w.X11.SyncCounter == 0 {
		s.retardedResize(w, st, rect)
		return
	}

	s.pushConfigure(w, st, rect)
}

// moveOnly applies a translation without a client round trip. Queued
// configures keep their sizes but follow the new position.
func (s *Syncer) moveOnly(w *wm.Window, rect image.Rectangle) {
	for i := range w.Pending {
		w.Pending[i].Frame = rectAt(w.Pending[i].Frame, rect.Min)
		w.Pending[i].Client = w.ClientFromFrame(w.Pending[i].Frame)
	}
	if rect.Min == w.Frame.Min {
		return
	}
	// The on-screen size is still the old one while a resize is
	// pending; only the position moves now.
	w.Frame = rectAt(w.Frame, rect.Min)
	w.Client = w.ClientFromFrame(w.Frame)
	if w.Driver != nil {
		w.Driver.MoveFrame(rect.Min)
	}
	s.GeometryChanged.Emit(w)
}

// retardedResize coalesces rapid resizes of sync-less X11 clients
// into at most one configure per retard interval, applying the
// geometry without waiting since no ack will come.
func (s *Syncer) retardedResize(w *wm.Window, st *syncState, rect image.Rectangle) {
	st.retardGoal = rect
	if st.retarder.Active() {
		st.retardDirty = true
		return
	}
	s.commitSyncless(w, rect)
	st.retardDirty = false
	st.retarder = s.Q.Schedule(retardInterval, func() { s.retardFlush(w, st) })
}

func (s *Syncer) retardFlush(w *wm.Window, st *syncState) {
	if !st.retardDirty {
		return
	}
	st.retardDirty = false
	s.commitSyncless(w, st.retardGoal)
	st.retarder = s.Q.Schedule(retardInterval, func() { s.retardFlush(w, st) })
}

func (s *Syncer) commitSyncless(w *wm.Window, rect image.Rectangle) {
	if w.Driver != nil {
		w.Driver.SendConfigure(rect, w.ClientFromFrame(rect), ctrlMaxMode(w), ctrlFullscreen(w))
	}
	s.commit(w, rect)
}

// pushConfigure queues a configure and programs the ack mechanism:
// the X11 sync alarm on the new serial, or the Wayland serial
// returned by the driver, plus the first-configure watchdog.
func (s *Syncer) pushConfigure(w *wm.Window, st *syncState, rect image.Rectangle) {
	client := w.ClientFromFrame(rect)
	if w.Driver == nil {
		s.commit(w, rect)
		return
	}
	serial, ok := w.Driver.SendConfigure(rect, client, ctrlMaxMode(w), ctrlFullscreen(w))
	if !ok {
		s.commit(w, rect)
		return
	}
	w.Pending = append(w.Pending, wm.PendingConfigure{
		Serial:     serial,
		Frame:      rect,
		Client:     client,
		MaxMode:    ctrlMaxMode(w),
		Fullscreen: ctrlFullscreen(w),
	})
	if !st.firstDone && st.watchdog == nil {
		st.watchdog = s.Q.Schedule(firstConfigureTimeout, func() {
			st.watchdog = nil
			if st.firstDone || len(w.Pending) == 0 {
				return
			}
			log.WithField("window", w.ID).Warn("client never acked first configure, forcing ready")
			s.forceAck(w, st)
		})
	}
}

// forceAck treats the newest pending configure as acked so a stuck
// client cannot block painting.
func (s *Syncer) forceAck(w *wm.Window, st *syncState) {
	last := w.Pending[len(w.Pending)-1]
	w.Pending = w.Pending[:0]
	st.firstDone = true
	w.ReadyForPainting = true
	s.commit(w, last.Frame)
}

// HandleAck processes a Wayland ack_configure: every entry with a
// serial not newer than the acked one is promoted; the last of them
// is committed as the synced geometry right away.
func (s *Syncer) HandleAck(w *wm.Window, serial uint32) {
	st := s.state(w)
	var acked *wm.PendingConfigure
	n := 0
	for i := range w.Pending {
		if serialLEQ(w.Pending[i].Serial, serial) {
			acked = &w.Pending[i]
			n = i + 1
		}
	}
	if acked == nil {
		return
	}
	a := *acked
	w.Pending = append(w.Pending[:0], w.Pending[n:]...)
	if w.Wayland != nil {
		w.Wayland.AckedSerial = serial
	}
	s.finishFirst(w, st)
	s.commit(w, a.Frame)
}

// HandleSyncAlarm processes an X11 sync counter alarm. The counter
// value equals the serial of the configure the client finished
// drawing. Acks are ignored while the window's sync handling is
// suppressed.
func (s *Syncer) HandleSyncAlarm(w *wm.Window, counter uint32) {
	if w.X11 == nil {
		return
	}
	if w.X11.SyncSuppress > 0 {
		return
	}
	w.X11.SyncSerial = counter
	s.HandleAck(w, counter)
}

// HandleCommit applies a client commit. When the attached buffer's
// size differs from the configured client size (the configure acts as
// a maximum during interactive resize), the buffer size wins and the
// frame is rewritten around it, keeping the interactive anchor
// pinned.
func (s *Syncer) HandleCommit(w *wm.Window, bufferSize image.Point) {
	st := s.state(w)
	if bufferSize == (image.Point{}) || bufferSize == w.Client.Size() {
		s.finishFirst(w, st)
		return
	}
	client := image.Rectangle{Min: w.Client.Min, Max: w.Client.Min.Add(bufferSize)}
	frame := w.FrameFromClient(client)
	if st.interactive != nil {
		frame = pinAnchor(frame, w.Frame, st.interactive.grip)
	}
	w.Frame = frame
	w.Client = w.ClientFromFrame(frame)
	s.finishFirst(w, st)
	s.GeometryChanged.Emit(w)
}

func (s *Syncer) finishFirst(w *wm.Window, st *syncState) {
	if st.firstDone {
		return
	}
	st.firstDone = true
	w.ReadyForPainting = true
	if st.watchdog != nil {
		st.watchdog.Stop()
		st.watchdog = nil
	}
}

// HandleClientGeometryRequest services a client-initiated configure
// request. A position rule marks the window's geometry as not client
// controlled: the request is dropped and the current geometry is
// confirmed back.
func (s *Syncer) HandleClientGeometryRequest(w *wm.Window, rect image.Rectangle) {
	rv := s.rules(w)
	if rv != nil && rv.CheckIgnoreGeometry(false) {
		if w.Driver != nil {
			w.Driver.SendConfigure(w.Frame, w.Client, ctrlMaxMode(w), ctrlFullscreen(w))
		}
		return
	}
	s.SetFrameGeometry(w, rect)
}

func (s *Syncer) commit(w *wm.Window, rect image.Rectangle) {
	st := s.state(w)
	changed := w.Frame != rect
	w.Frame = rect
	w.Client = w.ClientFromFrame(rect)
	if !st.firstDone {
		st.firstDone = true
		w.ReadyForPainting = true
		if st.watchdog != nil {
			st.watchdog.Stop()
			st.watchdog = nil
		}
	}
	if changed {
		s.GeometryChanged.Emit(w)
	}
}

func (s *Syncer) constrain(w *wm.Window, rect image.Rectangle) image.Rectangle {
	rv := s.rules(w)
	size := rect.Size()
	if w.Kind == wm.KindX11 {
		clientSize := w.ClientFromFrame(rect).Size()
		clientSize = w.X11.Hints.Constrain(clientSize)
		m := wm.Margins{}
		if !w.NoBorderEffective() && w.Control != nil {
			m = w.Control.DecoMargins
		}
		size = image.Pt(clientSize.X+m.Left+m.Right, clientSize.Y+m.Top+m.Bottom)
	}
	if rv != nil {
		min := rv.CheckMinSize(image.Point{})
		max := rv.CheckMaxSize(image.Point{})
		if min.X > 0 && size.X < min.X {
			size.X = min.X
		}
		if min.Y > 0 && size.Y < min.Y {
			size.Y = min.Y
		}
		if max.X > 0 && size.X > max.X {
			size.X = max.X
		}
		if max.Y > 0 && size.Y > max.Y {
			size.Y = max.Y
		}
	}
	if size.X < 1 {
		size.X = 1
	}
	if size.Y < 1 {
		size.Y = 1
	}
	rect.Max = rect.Min.Add(size)
	if rv != nil {
		if pos, ok := rv.CheckPosition(rect.Min, false); ok {
			rect = rectAt(rect, pos)
		}
	}
	return rect
}

func (s *Syncer) rules(w *wm.Window) RuleView {
	if s.Rules == nil {
		return nil
	}
	return s.Rules(w)
}

func ctrlMaxMode(w *wm.Window) wm.MaximizeMode {
	if w.Control == nil {
		return wm.MaximizeRestore
	}
	return w.Control.MaxMode
}

func ctrlFullscreen(w *wm.Window) bool {
	return w.Control != nil && w.Control.Fullscreen
}

func rectAt(r image.Rectangle, pos image.Point) image.Rectangle {
	return image.Rectangle{Min: pos, Max: pos.Add(r.Size())}
}

// serialLEQ compares configure serials with wrap-safe arithmetic.
func serialLEQ(a, b uint32) bool {
	return int32(b-a) >= 0
}
