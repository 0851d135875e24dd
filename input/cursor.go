// SPDX-License-Identifier: Unlicense OR MIT

package input

import (
	"image"
	"time"

	"github.com/halcyonwm/halcyon/event"
	"github.com/halcyonwm/halcyon/internal/timerq"
)

// pollInterval is the fallback pointer polling cadence for backends
// without motion events while tracking is requested.
const pollInterval = 50 * time.Millisecond

// CursorShape is one cached cursor image reference. The backend
// resolves names to theme images; the core only tracks identity and
// the hotspot.
type CursorShape struct {
	Name    string
	Serial  uint32
	Hotspot image.Point
}

// Cursor owns the logical cursor: the current shape and the optional
// position polling used by backends that cannot deliver motion while
// another client grabs the device.
type Cursor struct {
	Q *timerq.Queue
	// Poll queries the backend pointer position.
	Poll func() image.Point

	shapes map[string]*CursorShape
	serial uint32
	shape  *CursorShape

	trackers int
	timer    *timerq.Timer
	lastPos  image.Point

	// ShapeChanged fires when the effective cursor image changes;
	// Moved fires from polling with the new position.
	ShapeChanged event.Feed[*CursorShape]
	Moved        event.Feed[image.Point]
}

func NewCursor(q *timerq.Queue) *Cursor {
	return &Cursor{Q: q, shapes: make(map[string]*CursorShape)}
}

// Shape resolves a named shape through the cache.
func (c *Cursor) Shape(name string) *CursorShape {
	if s, ok := c.shapes[name]; ok {
		return s
	}
	c.serial++
	s := &CursorShape{Name: name, Serial: c.serial}
	c.shapes[name] = s
	return s
}

// SetShape makes the named shape current.
func (c *Cursor) SetShape(name string) {
	s := c.Shape(name)
	if s == c.shape {
		return
	}
	c.shape = s
	c.ShapeChanged.Emit(s)
}

// Current returns the current shape, nil before the first SetShape.
func (c *Cursor) Current() *CursorShape {
	return c.shape
}

// StartTracking begins position polling; calls nest.
func (c *Cursor) StartTracking() {
	c.trackers++
	if c.trackers > 1 || c.Poll == nil {
		return
	}
	c.lastPos = c.Poll()
	c.timer = c.Q.Schedule(pollInterval, c.pollTick)
}

// StopTracking ends one tracking request; polling stops when the
// last tracker is gone.
func (c *Cursor) StopTracking() {
	if c.trackers == 0 {
		return
	}
	c.trackers--
	if c.trackers == 0 && c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Cursor) pollTick() {
	if c.trackers == 0 || c.Poll == nil {
		return
	}
	if pos := c.Poll(); pos != c.lastPos {
		c.lastPos = pos
		c.Moved.Emit(pos)
	}
	c.timer = c.Q.Schedule(pollInterval, c.pollTick)
}
