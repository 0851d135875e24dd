// SPDX-License-Identifier: Unlicense OR MIT

package space

import (
	"image"

	"github.com/halcyonwm/halcyon/wm"
)

// QuickTile snaps the window to a half or quadrant of its screen.
// Chained requests inside the combine window merge: top then left
// yields top-left. Tiling to none restores the pre-tile geometry.
func (s *Space) QuickTile(id wm.ID, mode wm.QuickTileMode) {
	w := s.Get(id)
	if w == nil || w.Control == nil {
		return
	}
	c := w.Control

	now := s.Q.Now()
	if mode != wm.QuickTileNone && s.lastTileWin == id &&
		now.Sub(s.lastTileTime) <= s.opts.QuickTileCombine {
		if combined := combineTiles(s.lastTile, mode); combined != 0 {
			mode = combined
		}
	}
	s.lastTileWin = id
	s.lastTileTime = now
	s.lastTile = mode

	if mode == wm.QuickTileNone {
		if c.QuickTile == wm.QuickTileNone {
			return
		}
		c.QuickTile = wm.QuickTileNone
		if !c.RestoreTile.Empty() {
			s.Sync.SetFrameGeometry(w, c.RestoreTile)
			c.RestoreTile = image.Rectangle{}
		}
		return
	}

	if mode&wm.QuickTileMaximize != 0 {
		s.Maximize(id, wm.MaximizeFull)
		c.QuickTile = wm.QuickTileMaximize
		return
	}

	if c.QuickTile == wm.QuickTileNone {
		c.RestoreTile = w.Frame
	}
	if c.MaxMode != wm.MaximizeRestore {
		c.MaxMode = wm.MaximizeRestore
	}
	c.QuickTile = mode
	area := s.ClientArea(AreaMaximize, s.outputIndexFor(w), s.currentDesktop)
	target := tileRect(area, mode)
	// A forced position rule wins over the tile slot; the request
	// still records the tile mode so un-tiling restores correctly.
	s.Sync.SetFrameGeometry(w, target)
}

// combineTiles merges two chained tile requests when they address
// perpendicular edges; repeating the same edge keeps it.
func combineTiles(prev, next wm.QuickTileMode) wm.QuickTileMode {
	if prev == wm.QuickTileNone || prev&wm.QuickTileMaximize != 0 {
		return 0
	}
	horiz := next & (wm.QuickTileLeft | wm.QuickTileRight)
	vert := next & (wm.QuickTileTop | wm.QuickTileBottom)
	if horiz != 0 && prev&(wm.QuickTileTop|wm.QuickTileBottom) != 0 {
		return prev&(wm.QuickTileTop|wm.QuickTileBottom) | horiz
	}
	if vert != 0 && prev&(wm.QuickTileLeft|wm.QuickTileRight) != 0 {
		return prev&(wm.QuickTileLeft|wm.QuickTileRight) | vert
	}
	return 0
}

// tileRect computes the slot rectangle for a tile mode inside area.
func tileRect(area image.Rectangle, mode wm.QuickTileMode) image.Rectangle {
	r := area
	midX := area.Min.X + area.Dx()/2
	midY := area.Min.Y + area.Dy()/2
	if mode&wm.QuickTileLeft != 0 {
		r.Max.X = midX
	}
	if mode&wm.QuickTileRight != 0 {
		r.Min.X = midX
	}
	if mode&wm.QuickTileTop != 0 {
		r.Max.Y = midY
	}
	if mode&wm.QuickTileBottom != 0 {
		r.Min.Y = midY
	}
	return r
}
