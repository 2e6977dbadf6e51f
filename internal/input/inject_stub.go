//go:build !windows && !(darwin && cgo)

package input

// Stub implementation for platforms without SendInput or CoreGraphics

// StubInjector rejects every injection with ErrUnsupported
type StubInjector struct{}

// NewInjector creates a new stub injector
func NewInjector() Injector {
	return &StubInjector{}
}

// KeyDown injects a key press (stub)
func (i *StubInjector) KeyDown(key string) error { return ErrUnsupported }

// KeyUp injects a key release (stub)
func (i *StubInjector) KeyUp(key string) error { return ErrUnsupported }

// MouseMove moves the pointer (stub)
func (i *StubInjector) MouseMove(x, y int) error { return ErrUnsupported }

// MouseDown injects a button press (stub)
func (i *StubInjector) MouseDown(button string) error { return ErrUnsupported }

// MouseUp injects a button release (stub)
func (i *StubInjector) MouseUp(button string) error { return ErrUnsupported }
