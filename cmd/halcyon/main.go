// SPDX-License-Identifier: Unlicense OR MIT

// Command halcyon is the host binary around the compositor core: it
// wires the workspace, the protocol adapters and the event loop, and
// owns process-level concerns (flags, environment, exit codes).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/halcyonwm/halcyon/dbusadapter"
	"github.com/halcyonwm/halcyon/input"
	"github.com/halcyonwm/halcyon/input/xkb"
	"github.com/halcyonwm/halcyon/internal/timerq"
	"github.com/halcyonwm/halcyon/output"
	"github.com/halcyonwm/halcyon/rules"
	"github.com/halcyonwm/halcyon/session"
	"github.com/halcyonwm/halcyon/space"
	"github.com/halcyonwm/halcyon/x11adapter"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		startXwayland = flag.Bool("start-xwayland", false, "spawn an Xwayland server for X11 clients")
		replace       = flag.Bool("replace", false, "replace a running window manager")
		sessionPath   = flag.String("session", "", "session file to restore and save")
		rulesPath     = flag.String("rules", "", "window rules file")
		verbose       = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *replace && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "replace the running window manager? [y/N] ")
		var answer string
		fmt.Fscanln(os.Stdin, &answer)
		if answer != "y" && answer != "Y" {
			return 0
		}
	}

	q := timerq.New(time.Now())
	outs := new(output.Set)

	ruleList, err := rules.LoadFile(*rulesPath)
	if err != nil {
		log.WithError(err).Warn("rules file unreadable, starting without rules")
	}
	sp := space.New(space.DefaultOptions(), q, outs, rules.NewEngine(ruleList))

	if *sessionPath != "" {
		if f, err := os.Open(*sessionPath); err == nil {
			saved, err := session.Load(f)
			f.Close()
			if err != nil {
				log.WithError(err).Warn("session file corrupt, ignoring")
			} else {
				sp.LoadSession(saved)
			}
		}
	}

	shortcuts := input.NewShortcuts()
	state := xkb.NewState(nil, xkb.PolicyGlobal)
	router := input.NewRouter(sp, nil, state)
	sp.AttachRouter(router, shortcuts)
	bindDefaultShortcuts(sp, shortcuts)

	if *startXwayland {
		if err := spawnXwayland(); err != nil {
			log.WithError(err).Error("failed to start Xwayland")
			return 1
		}
	}

	x11, err := x11adapter.New(sp, os.Getenv("DISPLAY"), *replace)
	if err != nil {
		log.WithError(err).Error("failed to bind the X display")
		return 1
	}

	if svc, err := dbusadapter.Start(sp); err != nil {
		log.WithError(err).Warn("dbus introspection unavailable")
	} else {
		defer svc.Close()
	}

	saveSession := func() {
		if *sessionPath == "" {
			return
		}
		f, err := os.Create(*sessionPath)
		if err != nil {
			log.WithError(err).Warn("cannot write session")
			return
		}
		defer f.Close()
		if err := session.Save(f, sp.SaveSession()); err != nil {
			log.WithError(err).Warn("session save failed")
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	log.WithFields(log.Fields{
		"display":         os.Getenv("DISPLAY"),
		"wayland_display": os.Getenv("WAYLAND_DISPLAY"),
	}).Info("compositor core running")

	for {
		select {
		case <-stop:
			saveSession()
			return 0
		default:
		}
		q.Advance(time.Now())
		if err := x11.Pump(); err != nil {
			log.WithError(err).Error("display connection lost")
			saveSession()
			return 1
		}
		waitNext(q)
	}
}

// waitNext sleeps until the next timer deadline or a short poll
// tick, whichever comes first.
func waitNext(q *timerq.Queue) {
	d := 50 * time.Millisecond
	if deadline, ok := q.NextDeadline(); ok {
		if until := deadline.Sub(time.Now()); until < d {
			d = until
		}
	}
	if d <= 0 {
		return
	}
	ts := unix.NsecToTimespec(d.Nanoseconds())
	unix.Nanosleep(&ts, nil)
}

func spawnXwayland() error {
	cmd := exec.Command("Xwayland", "-rootless", "-terminate")
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func bindDefaultShortcuts(sp *space.Space, s *input.Shortcuts) {
	s.BindKey(xkb.ModSuper, 'f', func() {
		if id := sp.ActiveWindow(); id != 0 {
			if w := sp.Get(id); w != nil && w.Control != nil {
				sp.SetFullScreen(id, !w.Control.Fullscreen)
			}
		}
	})
	s.BindSwipe(4, input.DirWest, func() { sp.SwitchWindow(input.DirWest) })
	s.BindSwipe(4, input.DirEast, func() { sp.SwitchWindow(input.DirEast) })
	for _, d := range []input.Direction{input.DirWest, input.DirEast, input.DirNorth, input.DirSouth} {
		dir := d
		s.BindKey(xkb.ModSuper|xkb.ModShift, keyFor(dir), func() { sp.SwitchWindow(dir) })
	}
}

func keyFor(d input.Direction) uint32 {
	switch d {
	case input.DirWest:
		return 'h'
	case input.DirEast:
		return 'l'
	case input.DirNorth:
		return 'k'
	default:
		return 'j'
	}
}
