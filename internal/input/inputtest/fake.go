// Package inputtest provides in-memory Capture and Injector implementations
// for tests.
package inputtest

import (
	"fmt"
	"sync"

	"macrorec/internal/input"
)

// Capture is a Capture whose events are pushed by the test.
type Capture struct {
	mu       sync.Mutex
	events   chan input.Event
	done     chan struct{}
	sending  sync.WaitGroup
	started  bool
	stopped  bool
	StartErr error
}

// NewCapture returns a fake capture with a buffered event channel.
func NewCapture() *Capture {
	return &Capture{
		events: make(chan input.Event, 256),
		done:   make(chan struct{}),
	}
}

func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StartErr != nil {
		return c.StartErr
	}
	c.started = true
	return nil
}

// Stop unblocks pending sends and closes the event channel once they have
// returned. Events already buffered stay readable.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.done)
	c.mu.Unlock()

	c.sending.Wait()
	close(c.events)
	return nil
}

func (c *Capture) Events() <-chan input.Event { return c.events }

// Send delivers ev unless the capture has been stopped. It blocks while the
// buffer is full and gives up when Stop is called.
func (c *Capture) Send(ev input.Event) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.sending.Add(1)
	c.mu.Unlock()
	defer c.sending.Done()

	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Key sends a key event.
func (c *Capture) Key(key string, pressed bool, ts int64) {
	c.Send(input.Event{Type: input.TypeKey, Key: key, Pressed: pressed, Timestamp: ts})
}

// Mouse sends a mouse button event.
func (c *Capture) Mouse(button string, x, y int, pressed bool, ts int64) {
	c.Send(input.Event{Type: input.TypeMouseButton, Button: button, X: x, Y: y, Pressed: pressed, Timestamp: ts})
}

// Started reports whether Start succeeded.
func (c *Capture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Stopped reports whether Stop has been called.
func (c *Capture) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Injector records every call as a string such as "down a" or "move 3,4".
type Injector struct {
	mu    sync.Mutex
	calls []string
	// FailOn makes the call with this exact string return an error.
	FailOn string
	// OnCall, if set, runs after each recorded call.
	OnCall func(call string)
}

func (i *Injector) record(call string) error {
	i.mu.Lock()
	i.calls = append(i.calls, call)
	fail := i.FailOn != "" && call == i.FailOn
	hook := i.OnCall
	i.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	if fail {
		return fmt.Errorf("injection failed: %s", call)
	}
	return nil
}

func (i *Injector) KeyDown(key string) error      { return i.record("down " + key) }
func (i *Injector) KeyUp(key string) error        { return i.record("up " + key) }
func (i *Injector) MouseDown(button string) error { return i.record("mdown " + button) }
func (i *Injector) MouseUp(button string) error   { return i.record("mup " + button) }

func (i *Injector) MouseMove(x, y int) error {
	return i.record(fmt.Sprintf("move %d,%d", x, y))
}

// Calls returns a copy of the recorded calls.
func (i *Injector) Calls() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.calls...)
}
