// SPDX-License-Identifier: Unlicense OR MIT

package activation

import (
	"testing"

	"github.com/halcyonwm/halcyon/wm"
)

func winWithTime(id wm.ID, t wm.UserTime) *wm.Window {
	return &wm.Window{ID: id, Control: &wm.Control{UserTime: t, AcceptsFocus: true}}
}

func TestNormalLevel(t *testing.T) {
	active := winWithTime(1, wm.DefinedTime(1000))
	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{
			name: "no active window",
			req:  Request{Candidate: winWithTime(2, wm.DefinedTime(500))},
			want: true,
		},
		{
			name: "active without user time",
			req: Request{
				Candidate: winWithTime(2, wm.DefinedTime(500)),
				Active:    winWithTime(1, wm.UserTime{}),
			},
			want: true,
		},
		{
			name: "transient descendant of active",
			req: Request{
				Candidate:          winWithTime(2, wm.DefinedTime(1)),
				Active:             active,
				DescendantOfActive: true,
			},
			want: true,
		},
		{
			name: "explicit zero user time",
			req: Request{
				Candidate: winWithTime(2, wm.DefinedTime(0)),
				Active:    active,
			},
			want: false,
		},
		{
			name: "older timestamp denied",
			req: Request{
				Candidate: winWithTime(2, wm.DefinedTime(500)),
				Active:    active,
			},
			want: false,
		},
		{
			name: "newer timestamp allowed",
			req: Request{
				Candidate: winWithTime(2, wm.DefinedTime(2000)),
				Active:    active,
			},
			want: true,
		},
		{
			name: "equal timestamp allowed",
			req: Request{
				Candidate: winWithTime(2, wm.DefinedTime(1000)),
				Active:    active,
			},
			want: true,
		},
		{
			name: "wrapped newer timestamp allowed",
			req: Request{
				Candidate: winWithTime(2, wm.DefinedTime(5)),
				Active:    winWithTime(1, wm.DefinedTime(0xfffffff0)),
			},
			want: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Allow(LevelNormal, tc.req); got != tc.want {
				t.Errorf("Allow = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLevelExtremes(t *testing.T) {
	active := winWithTime(1, wm.DefinedTime(1000))
	newer := Request{Candidate: winWithTime(2, wm.DefinedTime(2000)), Active: active}
	if !Allow(LevelNone, Request{Candidate: winWithTime(2, wm.DefinedTime(0))}) {
		t.Error("LevelNone denied")
	}
	if Allow(LevelExtreme, newer) {
		t.Error("LevelExtreme allowed a steal")
	}
	// High: foreign windows never steal, same-app descendants do.
	if Allow(LevelHigh, newer) {
		t.Error("LevelHigh allowed a foreign window")
	}
	desc := newer
	desc.DescendantOfActive = true
	if !Allow(LevelHigh, desc) {
		t.Error("LevelHigh denied a transient descendant")
	}
}

func TestStartupGrace(t *testing.T) {
	req := Request{
		Candidate:    winWithTime(2, wm.DefinedTime(1)),
		Active:       winWithTime(1, wm.DefinedTime(1000)),
		StartupGrace: true,
	}
	if !Allow(LevelHigh, req) {
		t.Error("startup grace did not waive prevention")
	}
}

func TestSameApplication(t *testing.T) {
	req := Request{
		Candidate:       winWithTime(2, wm.DefinedTime(1)),
		Active:          winWithTime(1, wm.DefinedTime(1000)),
		SameApplication: true,
	}
	if !Allow(LevelNormal, req) {
		t.Error("same-application window denied at normal level")
	}
}
