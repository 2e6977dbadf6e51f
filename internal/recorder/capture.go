package recorder

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"macrorec/internal/input"
	"macrorec/internal/macro"
)

// session is the state of one recording. Its fields other than capture,
// quit and done are guarded by Core.mu.
type session struct {
	id       uuid.UUID
	section  int // -1 once the section has been deleted
	pressed  map[string]bool
	last     time.Time
	stopping bool

	capture input.Capture
	quit    chan struct{}
	done    chan struct{}
}

// StartRecording begins appending captured input to section. It does
// nothing if a recording is already running or section does not exist.
// A request made during a replay is not a silent no-op: it fails with
// ErrAlreadyPlaying, which the API reports as 409 Conflict.
func (c *Core) StartRecording(section int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing.Load() {
		return ErrAlreadyPlaying
	}

	if c.session != nil || !c.macro.ValidSection(section) {
		return nil
	}

	capture, err := c.newCapture()
	if err != nil {
		return fmt.Errorf("recorder: open capture: %w", err)
	}
	if err := capture.Start(); err != nil {
		return fmt.Errorf("recorder: start capture: %w", err)
	}

	s := &session{
		id:      uuid.New(),
		section: section,
		pressed: make(map[string]bool),
		last:    c.now(),
		capture: capture,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	c.session = s
	go c.drain(s)

	log.Printf("Capture: session %s recording into section %d", s.id, section)
	return nil
}

// StopRecording stops the capture, waits for every delivered event to be
// recorded and applies the trailing-click rule. It does nothing when idle.
func (c *Core) StopRecording() {
	c.mu.Lock()
	s := c.session
	if s == nil || s.stopping {
		c.mu.Unlock()
		return
	}
	s.stopping = true
	c.mu.Unlock()

	if err := s.capture.Stop(); err != nil {
		log.Printf("Capture: stop failed: %v", err)
	}
	close(s.quit)
	<-s.done

	c.mu.Lock()
	changed := false
	if c.dropTrailing && c.macro.ValidSection(s.section) {
		steps := c.macro.Sections[s.section].Steps
		if n := len(steps); n > 0 && macro.IsMouse(steps[n-1]) {
			c.macro.Sections[s.section].Steps = steps[:n-1]
			changed = true
		}
	}
	c.session = nil
	c.mu.Unlock()

	log.Printf("Capture: session %s stopped", s.id)
	if changed {
		c.notifier.Changed()
	}
}

// IsRecording reports whether a recording session is active.
func (c *Core) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// ActiveSection returns the section being recorded into, or -1.
func (c *Core) ActiveSection() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return -1
	}
	return c.session.section
}

// SessionID returns the id of the active recording, or "" when idle.
func (c *Core) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.id.String()
}

// drain records events until quit is closed, then records whatever is
// still buffered.
func (c *Core) drain(s *session) {
	defer close(s.done)
	events := s.capture.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.record(s, ev)
		case <-s.quit:
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					c.record(s, ev)
				default:
					return
				}
			}
		}
	}
}

func (c *Core) record(s *session, ev input.Event) {
	c.mu.Lock()
	changed := false
	if c.session == s && c.macro.ValidSection(s.section) {
		at := c.now()
		if ev.Timestamp != 0 {
			at = time.UnixMilli(ev.Timestamp)
		}
		changed = s.apply(&c.macro.Sections[s.section], ev, at)
	}
	c.mu.Unlock()
	if changed {
		c.notifier.Changed()
	}
}

// apply appends the steps for one event. Keys are recorded only on their
// first press and on a release matching a recorded press. Every key step is
// preceded by the elapsed delay; mouse steps skip a zero delay.
func (s *session) apply(sec *macro.Section, ev input.Event, at time.Time) bool {
	switch ev.Type {
	case input.TypeKey:
		if ev.Key == "" || s.pressed[ev.Key] == ev.Pressed {
			return false
		}
		var step macro.Step = macro.KeyRelease{Key: ev.Key}
		if ev.Pressed {
			s.pressed[ev.Key] = true
			step = macro.KeyPress{Key: ev.Key}
		} else {
			delete(s.pressed, ev.Key)
		}
		sec.Steps = append(sec.Steps, macro.Millis(s.elapsed(at)), step)

	case input.TypeMouseButton:
		btn := macro.Button(ev.Button)
		var step macro.Step = macro.MouseRelease{X: ev.X, Y: ev.Y, Button: btn}
		if ev.Pressed {
			step = macro.MousePress{X: ev.X, Y: ev.Y, Button: btn}
		}
		if ms := s.elapsed(at); ms > 0 {
			sec.Steps = append(sec.Steps, macro.Millis(ms))
		}
		sec.Steps = append(sec.Steps, step)

	default:
		return false
	}
	s.last = at
	return true
}

func (s *session) elapsed(at time.Time) int {
	ms := at.Sub(s.last).Milliseconds()
	if ms < 0 {
		return 0
	}
	return int(ms)
}
