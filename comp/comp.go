// SPDX-License-Identifier: Unlicense OR MIT

// Package comp is the boundary to the rendering backends: the core
// hands them repaint regions and the stacking list, and receives
// buffer-swap and presentation completions.
package comp

import (
	"image"

	"github.com/halcyonwm/halcyon/space"
	"github.com/halcyonwm/halcyon/wm"
)

// Backend is implemented by the GL/software/XRender compositors.
type Backend interface {
	RequestRepaint(region image.Rectangle)
	StackingOrderChanged(order []wm.ID)
	// OverlayWindowVisibility only matters to the X11 backends.
	OverlayWindowVisibility(visible bool)
	// WantsRemnant asks whether a closing window should be kept for
	// an exit animation.
	WantsRemnant(w *wm.Window) bool
}

// FrameSink receives per-window frame completions, normally the
// Wayland adapter relaying frame callbacks.
type FrameSink interface {
	FrameDone(w *wm.Window, timeMs uint32)
}

// Bridge fans workspace changes out to the backend and presentation
// completions back to the windows.
type Bridge struct {
	Space   *space.Space
	Backend Backend
	Frames  FrameSink

	overlayVisible bool
}

// Attach subscribes the bridge to the workspace feeds.
func (b *Bridge) Attach() {
	b.Space.Repaint.Subscribe(func(r image.Rectangle) {
		if !r.Empty() {
			b.Backend.RequestRepaint(r)
		}
	})
	b.Space.Stack.Changed.Subscribe(func(order []wm.ID) {
		b.Backend.StackingOrderChanged(order)
		visible := len(order) > 0
		if visible != b.overlayVisible {
			b.overlayVisible = visible
			b.Backend.OverlayWindowVisibility(visible)
		}
	})
	b.Space.WantsRemnant = b.Backend.WantsRemnant
}

// PresentComplete reports that an output finished presenting frame
// seq; every shown window on that output gets its frame callbacks
// completed.
func (b *Bridge) PresentComplete(outputIndex int, seq uint64, timeMs uint32) {
	out, ok := b.Space.Outputs.Get(outputIndex)
	if !ok {
		return
	}
	g := out.Geometry()
	for _, w := range b.Space.Windows() {
		if !w.IsShown() || !w.Frame.Overlaps(g) {
			continue
		}
		if b.Frames != nil {
			b.Frames.FrameDone(w, timeMs)
		}
	}
	_ = seq
}
