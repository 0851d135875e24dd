// SPDX-License-Identifier: Unlicense OR MIT

package wm

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/internal/timerq"
)

// pongTimeout is how long a client may take to answer a ping before
// it is marked unresponsive; a second timeout offers to kill it.
const pongTimeout = 5 * time.Second

type pingState struct {
	serial       uint32
	timer        *timerq.Timer
	unresponsive bool
	timeouts     int
}

// Unresponsive reports whether the last ping went unanswered.
func (w *Window) Unresponsive() bool {
	return w.ping.unresponsive
}

// StartPing probes the client. onUnresponsive fires on each missed
// pong with offerKill true from the second miss on. Pinging a window
// whose protocol has no liveness probe is a no-op.
func (w *Window) StartPing(q *timerq.Queue, onUnresponsive func(w *Window, offerKill bool)) {
	if w.Driver == nil {
		return
	}
	if w.Kind == KindX11 && !w.X11.SupportsPing {
		return
	}
	if w.ping.timer.Active() {
		return
	}
	w.ping.serial++
	serial := w.ping.serial
	w.Driver.Ping(serial)
	w.ping.timer = q.Schedule(pongTimeout, func() {
		if w.ping.serial != serial {
			return
		}
		w.ping.unresponsive = true
		w.ping.timeouts++
		log.WithField("window", w.ID).Warn("client stopped answering pings")
		if onUnresponsive != nil {
			onUnresponsive(w, w.ping.timeouts >= 2)
		}
		// Keep probing so a recovered client clears the flag.
		w.ping.timer = nil
		w.StartPing(q, onUnresponsive)
	})
}

// HandlePong records a ping answer and clears the unresponsive mark.
func (w *Window) HandlePong(serial uint32) {
	if serial != w.ping.serial {
		return
	}
	if w.ping.timer != nil {
		w.ping.timer.Stop()
		w.ping.timer = nil
	}
	w.ping.unresponsive = false
	w.ping.timeouts = 0
}

// StopPing cancels any outstanding probe, e.g. on release.
func (w *Window) StopPing() {
	if w.ping.timer != nil {
		w.ping.timer.Stop()
		w.ping.timer = nil
	}
}
