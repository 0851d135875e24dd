// SPDX-License-Identifier: Unlicense OR MIT

package wm

import (
	"testing"
	"time"

	"github.com/halcyonwm/halcyon/internal/timerq"
)

func TestPingTimeouts(t *testing.T) {
	q := timerq.New(time.Unix(0, 0))
	w := newManaged(1, TypeNormal)
	w.Kind = KindWaylandToplevel
	w.Driver = &fakeDriver{}

	var offers []bool
	w.StartPing(q, func(w *Window, offerKill bool) {
		offers = append(offers, offerKill)
	})
	if w.Unresponsive() {
		t.Fatal("unresponsive before any timeout")
	}
	q.Advance(time.Unix(6, 0))
	if !w.Unresponsive() {
		t.Fatal("missed pong did not mark unresponsive")
	}
	if len(offers) != 1 || offers[0] {
		t.Errorf("offers = %v, want one non-kill offer", offers)
	}
	// The second missed pong offers to kill.
	q.Advance(time.Unix(12, 0))
	if len(offers) != 2 || !offers[1] {
		t.Errorf("offers = %v, want kill offer on second miss", offers)
	}
}

func TestPongClears(t *testing.T) {
	q := timerq.New(time.Unix(0, 0))
	w := newManaged(1, TypeNormal)
	w.Kind = KindWaylandToplevel
	w.Driver = &fakeDriver{}
	w.StartPing(q, nil)
	q.Advance(time.Unix(6, 0))
	if !w.Unresponsive() {
		t.Fatal("not marked unresponsive")
	}
	// The follow-up probe is answered; the mark clears.
	w.HandlePong(3)
	w.StartPing(q, nil)
	pingSerialAnswer(w)
	if w.Unresponsive() {
		t.Error("answered pong left the window unresponsive")
	}
	// No further timeout fires once answered.
	q.Advance(time.Unix(20, 0))
	if w.Unresponsive() {
		t.Error("cancelled probe timed out anyway")
	}
}

func pingSerialAnswer(w *Window) {
	w.HandlePong(w.ping.serial)
}

func TestStaleSerialIgnored(t *testing.T) {
	q := timerq.New(time.Unix(0, 0))
	w := newManaged(1, TypeNormal)
	w.Kind = KindWaylandToplevel
	w.Driver = &fakeDriver{}
	w.StartPing(q, nil)
	w.HandlePong(999)
	q.Advance(time.Unix(6, 0))
	if !w.Unresponsive() {
		t.Error("stale pong serial satisfied the probe")
	}
}
