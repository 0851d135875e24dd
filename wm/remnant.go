// SPDX-License-Identifier: Unlicense OR MIT

package wm

// NewRemnant snapshots a window that is going away so effects can
// keep painting it. The remnant starts with one reference held by the
// creator; it reports deletable at refcount 0.
func NewRemnant(w *Window, pixmap uint64) *Window {
	r := &Window{
		ID:            w.ID,
		Kind:          KindRemnant,
		Frame:         w.Frame,
		Client:        w.Client,
		RenderOffsets: w.RenderOffsets,
		Layer:         w.Layer,
		Type:          w.Type,
		Title:         w.Title,
		AppID:         w.AppID,
		Role:          w.Role,
		Opacity:       w.Opacity,
		Remnant: &RemnantData{
			Pixmap: pixmap,
			refs:   1,
			WasX11: w.Kind == KindX11,
		},
	}
	if w.Control != nil {
		r.Remnant.WasActive = w.Control.Active
		r.Remnant.MinimizedSnapshot = w.Control.Minimized
	}
	return r
}

// Ref takes an effect reference on the remnant.
func (d *RemnantData) Ref() { d.refs++ }

// Unref drops a reference and reports whether the remnant should be
// destroyed.
func (d *RemnantData) Unref() bool {
	d.refs--
	return d.refs <= 0
}

// Refs reports the current reference count.
func (d *RemnantData) Refs() int { return d.refs }
