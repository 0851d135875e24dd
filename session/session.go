// SPDX-License-Identifier: Unlicense OR MIT

// Package session round-trips the per-window records the compositor
// persists across restarts.
package session

import (
	"fmt"
	"image"
	"io"

	"gopkg.in/yaml.v3"
)

// Rect is the yaml shape of a rectangle record.
type Rect struct {
	X, Y, W, H int
}

// FromRectangle converts an image.Rectangle.
func FromRectangle(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Rectangle converts back.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Window is one saved window record.
type Window struct {
	SessionID     string  `yaml:"session_id"`
	WindowRole    string  `yaml:"window_role"`
	ResourceName  string  `yaml:"resource_name"`
	ResourceClass string  `yaml:"resource_class"`
	ClientMachine string  `yaml:"client_machine"`
	Geometry      Rect    `yaml:"geometry"`
	Restore       Rect    `yaml:"restore"`
	Desktop       int     `yaml:"desktop"`
	MaxMode       uint8   `yaml:"max_mode"`
	Fullscreen    bool    `yaml:"fullscreen"`
	Minimized     bool    `yaml:"minimized"`
	OnAllDesktops bool    `yaml:"on_all_desktops"`
	KeepAbove     bool    `yaml:"keep_above"`
	KeepBelow     bool    `yaml:"keep_below"`
	SkipTaskbar   bool    `yaml:"skip_taskbar"`
	SkipPager     bool    `yaml:"skip_pager"`
	SkipSwitcher  bool    `yaml:"skip_switcher"`
	NoBorder      bool    `yaml:"no_border"`
	WindowType    uint8   `yaml:"window_type"`
	Shortcut      string  `yaml:"shortcut"`
	Active        bool    `yaml:"active"`
	StackingIndex int     `yaml:"stacking_index"`
	Opacity       float64 `yaml:"opacity"`
}

// File is a whole saved session.
type File struct {
	Windows []Window `yaml:"windows"`
}

// Save writes the session to w.
func Save(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	return nil
}

// Load reads a session; an empty stream yields an empty session.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &File{}, nil
		}
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &f, nil
}
