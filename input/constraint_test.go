// SPDX-License-Identifier: Unlicense OR MIT

package input

import (
	"image"
	"testing"
)

func TestConfineClampsMotion(t *testing.T) {
	r, scene, _ := newTestRouter()
	scene.windows[1] = surfaceWin(1, image.Rect(0, 0, 100, 100))
	scene.stack = append(scene.stack, 1)
	scene.active = 1
	r.Process(&Event{Kind: KindMotionAbsolute, Pos: image.Pt(50, 50)})
	r.SetConstraint(1, Constraint{Kind: ConstraintConfine, Enabled: true})

	// A diagonal escape slides along the allowed axis instead.
	r.Process(&Event{Kind: KindMotion, Delta: image.Pt(100, 10)})
	if got := r.PointerPos(); got != image.Pt(50, 60) {
		t.Errorf("pos = %v, want per-axis fallback (50,60)", got)
	}
	// Fully inside moves freely.
	r.Process(&Event{Kind: KindMotion, Delta: image.Pt(-20, -20)})
	if got := r.PointerPos(); got != image.Pt(30, 40) {
		t.Errorf("pos = %v, want (30,40)", got)
	}
}

func TestConfineRequiresActiveWindow(t *testing.T) {
	r, scene, _ := newTestRouter()
	scene.windows[1] = surfaceWin(1, image.Rect(0, 0, 100, 100))
	scene.stack = append(scene.stack, 1)
	scene.active = 0 // focused but not active
	r.Process(&Event{Kind: KindMotionAbsolute, Pos: image.Pt(50, 50)})
	r.SetConstraint(1, Constraint{Kind: ConstraintConfine, Enabled: true})
	r.Process(&Event{Kind: KindMotion, Delta: image.Pt(100, 0)})
	if got := r.PointerPos(); got != image.Pt(150, 50) {
		t.Errorf("pos = %v; inactive window must not constrain", got)
	}
}

func TestLockFreezesAndHints(t *testing.T) {
	r, scene, _ := newTestRouter()
	scene.windows[1] = surfaceWin(1, image.Rect(0, 0, 100, 100))
	scene.stack = append(scene.stack, 1)
	scene.active = 1
	r.Process(&Event{Kind: KindMotionAbsolute, Pos: image.Pt(40, 40)})
	r.SetConstraint(1, Constraint{
		Kind: ConstraintLock, Enabled: true,
		CursorHint: image.Pt(10, 10), HasHint: true,
	})
	r.Process(&Event{Kind: KindMotion, Delta: image.Pt(30, 30)})
	if got := r.PointerPos(); got != image.Pt(40, 40) {
		t.Errorf("pos = %v, want frozen (40,40)", got)
	}
	// Unlock warps to the client-provided hint (surface local).
	r.ClearConstraint(1)
	if got := r.PointerPos(); got != image.Pt(10, 10) {
		t.Errorf("pos = %v, want hint (10,10)", got)
	}
}

func TestConstraintRegionIntersect(t *testing.T) {
	r, scene, _ := newTestRouter()
	scene.windows[1] = surfaceWin(1, image.Rect(0, 0, 100, 100))
	scene.stack = append(scene.stack, 1)
	scene.active = 1
	r.Process(&Event{Kind: KindMotionAbsolute, Pos: image.Pt(20, 20)})
	// Client confines to the left half only.
	r.SetConstraint(1, Constraint{
		Kind: ConstraintConfine, Enabled: true,
		Region: image.Rect(0, 0, 50, 100),
	})
	r.Process(&Event{Kind: KindMotion, Delta: image.Pt(60, 0)})
	if got := r.PointerPos(); got.X >= 50 {
		t.Errorf("pos = %v escaped the client region", got)
	}
}
