//go:build !windows

package input

// Stub implementation for platforms without low-level hooks

type stubCapture struct {
	events chan Event
}

// NewCapture returns a capture whose Start always fails with ErrUnsupported
func NewCapture(withMouse bool) Capture {
	ch := make(chan Event)
	close(ch)
	return &stubCapture{events: ch}
}

func (c *stubCapture) Start() error         { return ErrUnsupported }
func (c *stubCapture) Stop() error          { return nil }
func (c *stubCapture) Events() <-chan Event { return c.events }
