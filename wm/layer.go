// SPDX-License-Identifier: Unlicense OR MIT

package wm

// LayerEnv is the workspace context ComputeLayer needs beyond the
// window itself.
type LayerEnv interface {
	// IsActiveOrDescendant reports whether id is the active window or
	// related to it through the transient graph.
	IsActiveOrDescendant(id ID) bool
	// LeadLayer returns the layer of the window's transient lead, or
	// LayerUnknown for windows without one.
	LeadLayer(id ID) Layer
}

// ComputeLayer is the pure layer assignment function. Modal transients
// inherit their lead's layer, never lower.
func ComputeLayer(w *Window, env LayerEnv) Layer {
	l := baseLayer(w, env)
	if env != nil && w.Control != nil && w.Control.Modal {
		if ll := env.LeadLayer(w.ID); ll > l {
			l = ll
		}
	}
	return l
}

func baseLayer(w *Window, env LayerEnv) Layer {
	if w.Control == nil {
		return LayerUnmanaged
	}
	c := w.Control
	switch w.Type {
	case TypeDesktop:
		return LayerDesktop
	case TypeDock:
		return dockLayer(c)
	case TypeNotification:
		return LayerNotification
	case TypeCriticalNotification:
		return LayerCriticalNotification
	case TypeOnScreenDisplay:
		return LayerOnScreenDisplay
	case TypeDropdownMenu, TypePopupMenu, TypeTooltip, TypeMenu:
		return LayerPopup
	}
	if c.KeepBelow {
		return LayerBelow
	}
	if c.Fullscreen && env != nil && env.IsActiveOrDescendant(w.ID) {
		return LayerActive
	}
	if c.KeepAbove {
		return LayerAbove
	}
	return LayerNormal
}

func dockLayer(c *Control) Layer {
	switch c.PanelBehavior {
	case PanelWindowsCanCover:
		return LayerNormal
	case PanelWindowsGoBelow:
		return LayerAbove
	default:
		return LayerDock
	}
}
