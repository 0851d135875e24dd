// SPDX-License-Identifier: Unlicense OR MIT

// Package output models the set of active outputs the compositor
// arranges windows on. Outputs are immutable values; the set is
// replaced atomically by Reconfigure.
package output

import (
	"image"

	"github.com/halcyonwm/halcyon/event"
)

// Transform is one of the eight output rotations/reflections.
type Transform uint8

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// DPMSMode is the power state of an output.
type DPMSMode uint8

const (
	DPMSOn DPMSMode = iota
	DPMSStandby
	DPMSSuspend
	DPMSOff
)

// Output describes one active head. Values are immutable within a
// frame; a mode change produces a new value via Reconfigure.
type Output struct {
	ID        uint64
	Name      string
	Position  image.Point
	Size      image.Point
	Scale     float64
	RefreshmHz int
	Transform Transform
	DPMS      DPMSMode
	Enabled   bool
}

// Geometry is the output rectangle in the global compositor space.
func (o Output) Geometry() image.Rectangle {
	return image.Rectangle{Min: o.Position, Max: o.Position.Add(o.Size)}
}

// Set holds the active outputs. Index order is the order of the list
// last passed to Reconfigure; outputs are not matched by ID across
// calls.
type Set struct {
	outputs []Output

	// Changed fires after every Reconfigure with the new list.
	Changed event.Feed[[]Output]
}

// Reconfigure atomically replaces the output list. Disabled outputs
// are kept in the set but excluded from geometry queries.
func (s *Set) Reconfigure(outputs []Output) {
	s.outputs = append(s.outputs[:0:0], outputs...)
	s.Changed.Emit(s.Outputs())
}

// Outputs returns a copy of the current list.
func (s *Set) Outputs() []Output {
	return append([]Output(nil), s.outputs...)
}

// Count reports the number of enabled outputs.
func (s *Set) Count() int {
	n := 0
	for _, o := range s.outputs {
		if o.Enabled {
			n++
		}
	}
	return n
}

// Get returns the enabled output with the given index among enabled
// outputs, in set order.
func (s *Set) Get(index int) (Output, bool) {
	i := 0
	for _, o := range s.outputs {
		if !o.Enabled {
			continue
		}
		if i == index {
			return o, true
		}
		i++
	}
	return Output{}, false
}

// ByName finds an output by connector name.
func (s *Set) ByName(name string) (Output, bool) {
	for _, o := range s.outputs {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}

// At returns the enabled output containing p, falling back to the
// output nearest to p so that off-screen coordinates still resolve.
func (s *Set) At(p image.Point) (Output, bool) {
	var nearest Output
	found := false
	best := -1
	for _, o := range s.outputs {
		if !o.Enabled {
			continue
		}
		g := o.Geometry()
		if p.In(g) {
			return o, true
		}
		d := distance(g, p)
		if best < 0 || d < best {
			best = d
			nearest = o
			found = true
		}
	}
	return nearest, found
}

// IndexOf returns the enabled-output index of the output containing p.
func (s *Set) IndexOf(p image.Point) int {
	i := 0
	for _, o := range s.outputs {
		if !o.Enabled {
			continue
		}
		if p.In(o.Geometry()) {
			return i
		}
		i++
	}
	return 0
}

// Bounds is the union rectangle of all enabled outputs.
func (s *Set) Bounds() image.Rectangle {
	var r image.Rectangle
	for _, o := range s.outputs {
		if o.Enabled {
			r = r.Union(o.Geometry())
		}
	}
	return r
}

func distance(r image.Rectangle, p image.Point) int {
	dx := 0
	if p.X < r.Min.X {
		dx = r.Min.X - p.X
	} else if p.X >= r.Max.X {
		dx = p.X - r.Max.X + 1
	}
	dy := 0
	if p.Y < r.Min.Y {
		dy = r.Min.Y - p.Y
	} else if p.Y >= r.Max.Y {
		dy = p.Y - r.Max.Y + 1
	}
	return dx + dy
}
