// SPDX-License-Identifier: Unlicense OR MIT

// Package rules applies per-window policy records: matchers select
// windows, overrides force or seed their properties.
package rules

import (
	"image"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/halcyonwm/halcyon/wm"
)

// Policy decides how an override interacts with the client value.
type Policy uint8

const (
	DontAffect Policy = iota
	Apply
	Remember
	Force
	ApplyNow
	ForceTemporarily
)

// oneShot reports whether the policy is consumed after first use.
func (p Policy) oneShot() bool {
	return p == ApplyNow || p == ForceTemporarily
}

func (p Policy) String() string {
	switch p {
	case DontAffect:
		return "dont-affect"
	case Apply:
		return "apply"
	case Remember:
		return "remember"
	case Force:
		return "force"
	case ApplyNow:
		return "apply-now"
	case ForceTemporarily:
		return "force-temporarily"
	}
	return "unknown"
}

// MatchKind selects the string comparison of a matcher.
type MatchKind uint8

const (
	MatchUnimportant MatchKind = iota
	MatchExact
	MatchSubstring
	MatchRegex
)

// Matcher is one string predicate of a rule.
type Matcher struct {
	Kind  MatchKind `yaml:"kind"`
	Value string    `yaml:"value"`

	re *regexp.Regexp
}

func (m *Matcher) matches(s string) bool {
	switch m.Kind {
	case MatchUnimportant:
		return true
	case MatchExact:
		return m.Value == s
	case MatchSubstring:
		return m.Value != "" && strings.Contains(s, m.Value)
	case MatchRegex:
		if m.re == nil {
			re, err := regexp.Compile(m.Value)
			if err != nil {
				log.WithField("pattern", m.Value).Warn("bad rule regexp, matcher disabled")
				m.Kind = MatchUnimportant
				return true
			}
			m.re = re
		}
		return m.re.MatchString(s)
	}
	return false
}

// Rule is a conjunction of matchers plus a set of property overrides.
// Zero-policy overrides do not participate.
type Rule struct {
	Description string `yaml:"description"`

	Class         Matcher `yaml:"class"`
	ClassComplete bool    `yaml:"class_complete"`
	Role          Matcher `yaml:"role"`
	Title         Matcher `yaml:"title"`
	Machine       Matcher `yaml:"machine"`
	// Types restricts the rule to the listed window types; empty
	// means any.
	Types []wm.WindowType `yaml:"types,omitempty"`

	Position       Override[image.Point]     `yaml:"position"`
	Size           Override[image.Point]     `yaml:"size"`
	MinSize        Override[image.Point]     `yaml:"min_size"`
	MaxSize        Override[image.Point]     `yaml:"max_size"`
	IgnoreGeometry Override[bool]            `yaml:"ignore_geometry"`
	Desktop        Override[int]             `yaml:"desktop"`
	Screen         Override[int]             `yaml:"screen"`
	Activity       Override[string]          `yaml:"activity"`
	Type           Override[wm.WindowType]   `yaml:"type"`
	Maximized      Override[wm.MaximizeMode] `yaml:"maximized"`
	Minimized      Override[bool]            `yaml:"minimized"`
	Fullscreen     Override[bool]            `yaml:"fullscreen"`
	Above          Override[bool]            `yaml:"above"`
	Below          Override[bool]            `yaml:"below"`
	NoBorder       Override[bool]            `yaml:"no_border"`
	SkipTaskbar    Override[bool]            `yaml:"skip_taskbar"`
	SkipPager      Override[bool]            `yaml:"skip_pager"`
	SkipSwitcher   Override[bool]            `yaml:"skip_switcher"`
	Opacity        Override[float64]         `yaml:"opacity"`
	Placement      Override[string]          `yaml:"placement"`
	AcceptFocus    Override[bool]            `yaml:"accept_focus"`
	FSPLevel       Override[int]             `yaml:"fsp_level"`
	Closeable      Override[bool]            `yaml:"closeable"`
	Shortcut       Override[string]          `yaml:"shortcut"`
	DesktopFile    Override[string]          `yaml:"desktop_file"`
	DisableShortcuts Override[bool]          `yaml:"disable_shortcuts"`
	BlockCompositing Override[bool]          `yaml:"block_compositing"`
}

// Override is one controlled property with its policy.
type Override[T any] struct {
	Policy Policy `yaml:"policy"`
	Value  T      `yaml:"value"`
}

// Subject is the window identity a rule matches against.
type Subject struct {
	Class       string
	Name        string
	Role        string
	Title       string
	Machine     string
	Type        wm.WindowType
}

func (r *Rule) matches(s Subject) bool {
	if r.ClassComplete {
		if !r.Class.matches(s.Class + " " + s.Name) {
			return false
		}
	} else if !r.Class.matches(s.Class) {
		return false
	}
	if !r.Role.matches(s.Role) || !r.Title.matches(s.Title) || !r.Machine.matches(s.Machine) {
		return false
	}
	if len(r.Types) > 0 {
		ok := false
		for _, t := range r.Types {
			if t == s.Type {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Engine evaluates an ordered rule list. The first matching rule with
// a non-DontAffect policy for a property wins.
type Engine struct {
	rules []*Rule
}

func NewEngine(rules []*Rule) *Engine {
	return &Engine{rules: rules}
}

// Rules exposes the backing list, e.g. for persisting Remember
// values.
func (e *Engine) Rules() []*Rule { return e.rules }

// Append adds a rule with lowest precedence.
func (e *Engine) Append(r *Rule) { e.rules = append(e.rules, r) }

// Resolved is the per-window view of the rule list: the matching
// rules at match time, in precedence order. Building it consumes
// nothing; one-shot policies are retired by Discard.
type Resolved struct {
	rules []*Rule
}

// Match resolves the rule list for a subject.
func (e *Engine) Match(s Subject) *Resolved {
	var matched []*Rule
	for _, r := range e.rules {
		if r.matches(s) {
			matched = append(matched, r)
		}
	}
	return &Resolved{rules: matched}
}

// Discard drops consumed one-shot overrides after initial rule
// application. It retires ApplyNow and ForceTemporarily only for
// position, size, min/max size, ignore-geometry, desktop, screen,
// minimized, fullscreen, above, below and no-border; one-shot
// policies on the other properties keep acting on every check.
func (res *Resolved) Discard() {
	for _, r := range res.rules {
		discardOneShot(&r.Position)
		discardOneShot(&r.Size)
		discardOneShot(&r.MinSize)
		discardOneShot(&r.MaxSize)
		discardOneShotB(&r.IgnoreGeometry)
		discardOneShotI(&r.Desktop)
		discardOneShotI(&r.Screen)
		discardOneShotB(&r.Minimized)
		discardOneShotB(&r.Fullscreen)
		discardOneShotB(&r.Above)
		discardOneShotB(&r.Below)
		discardOneShotB(&r.NoBorder)
	}
}

func discardOneShot(o *Override[image.Point]) {
	if o.Policy.oneShot() {
		o.Policy = DontAffect
	}
}

func discardOneShotB(o *Override[bool]) {
	if o.Policy.oneShot() {
		o.Policy = DontAffect
	}
}

func discardOneShotI(o *Override[int]) {
	if o.Policy.oneShot() {
		o.Policy = DontAffect
	}
}

// check evaluates one property across the resolved rules.
func check[T any](res *Resolved, get func(*Rule) *Override[T], def T, initial bool) T {
	if res == nil {
		return def
	}
	for _, r := range res.rules {
		o := get(r)
		switch o.Policy {
		case DontAffect:
			continue
		case Force, ForceTemporarily, ApplyNow:
			// ApplyNow acts regardless of the window's age; Discard
			// retires it after the application batch.
			return o.Value
		case Apply, Remember:
			// Seeding policies only act on initial application; the
			// client value wins afterwards.
			if initial {
				return o.Value
			}
			return def
		}
	}
	return def
}

// CheckPosition returns the rule-decided position. ok is false when
// no rule constrains it.
func (res *Resolved) CheckPosition(def image.Point, initial bool) (image.Point, bool) {
	if res == nil {
		return def, false
	}
	for _, r := range res.rules {
		if r.Position.Policy == DontAffect {
			continue
		}
		if r.Position.Policy == Force || r.Position.Policy == ForceTemporarily ||
			r.Position.Policy == ApplyNow || initial {
			return r.Position.Value, true
		}
		return def, false
	}
	return def, false
}

func (res *Resolved) CheckSize(def image.Point, initial bool) image.Point {
	return check(res, func(r *Rule) *Override[image.Point] { return &r.Size }, def, initial)
}

func (res *Resolved) CheckMinSize(def image.Point) image.Point {
	return check(res, func(r *Rule) *Override[image.Point] { return &r.MinSize }, def, false)
}

func (res *Resolved) CheckMaxSize(def image.Point) image.Point {
	return check(res, func(r *Rule) *Override[image.Point] { return &r.MaxSize }, def, false)
}

func (res *Resolved) CheckIgnoreGeometry(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.IgnoreGeometry }, def, false)
}

func (res *Resolved) CheckDesktop(def int, initial bool) int {
	return check(res, func(r *Rule) *Override[int] { return &r.Desktop }, def, initial)
}

func (res *Resolved) CheckScreen(def int, initial bool) int {
	return check(res, func(r *Rule) *Override[int] { return &r.Screen }, def, initial)
}

func (res *Resolved) CheckType(def wm.WindowType) wm.WindowType {
	return check(res, func(r *Rule) *Override[wm.WindowType] { return &r.Type }, def, false)
}

func (res *Resolved) CheckMaximized(def wm.MaximizeMode, initial bool) wm.MaximizeMode {
	return check(res, func(r *Rule) *Override[wm.MaximizeMode] { return &r.Maximized }, def, initial)
}

func (res *Resolved) CheckMinimized(def bool, initial bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.Minimized }, def, initial)
}

func (res *Resolved) CheckFullscreen(def bool, initial bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.Fullscreen }, def, initial)
}

func (res *Resolved) CheckKeepAbove(def bool, initial bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.Above }, def, initial)
}

func (res *Resolved) CheckKeepBelow(def bool, initial bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.Below }, def, initial)
}

func (res *Resolved) CheckNoBorder(def bool, initial bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.NoBorder }, def, initial)
}

func (res *Resolved) CheckSkipTaskbar(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.SkipTaskbar }, def, false)
}

func (res *Resolved) CheckSkipPager(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.SkipPager }, def, false)
}

func (res *Resolved) CheckSkipSwitcher(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.SkipSwitcher }, def, false)
}

func (res *Resolved) CheckOpacity(def float64) float64 {
	return check(res, func(r *Rule) *Override[float64] { return &r.Opacity }, def, false)
}

func (res *Resolved) CheckPlacement(def string) string {
	return check(res, func(r *Rule) *Override[string] { return &r.Placement }, def, false)
}

func (res *Resolved) CheckAcceptFocus(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.AcceptFocus }, def, false)
}

func (res *Resolved) CheckFSPLevel(def int) int {
	return check(res, func(r *Rule) *Override[int] { return &r.FSPLevel }, def, false)
}

func (res *Resolved) CheckCloseable(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.Closeable }, def, false)
}

func (res *Resolved) CheckShortcut(def string) string {
	return check(res, func(r *Rule) *Override[string] { return &r.Shortcut }, def, false)
}

func (res *Resolved) CheckDesktopFile(def string) string {
	return check(res, func(r *Rule) *Override[string] { return &r.DesktopFile }, def, false)
}

func (res *Resolved) CheckDisableShortcuts(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.DisableShortcuts }, def, false)
}

func (res *Resolved) CheckBlockCompositing(def bool) bool {
	return check(res, func(r *Rule) *Override[bool] { return &r.BlockCompositing }, def, false)
}

// RememberPosition writes a moved window's position back into the
// first matching Remember rule.
func (res *Resolved) RememberPosition(p image.Point) {
	for _, r := range res.rules {
		if r.Position.Policy == Remember {
			r.Position.Value = p
			return
		}
	}
}

// RememberSize writes a resized window's size back into the first
// matching Remember rule.
func (res *Resolved) RememberSize(s image.Point) {
	for _, r := range res.rules {
		if r.Size.Policy == Remember {
			r.Size.Value = s
			return
		}
	}
}
