// Package input provides global keyboard/mouse capture and input injection
// for recording and replaying macros.
package input

import "errors"

// Event types delivered by a Capture.
const (
	TypeKey         = "key"
	TypeMouseButton = "mouse_btn"
)

// Mouse button identifiers.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

var (
	// ErrUnsupported is returned by the capture and injection stubs on
	// platforms without a native implementation.
	ErrUnsupported = errors.New("input: not supported on this platform")

	// ErrUnknownKey is returned when a key identifier has no platform
	// key code.
	ErrUnknownKey = errors.New("input: unknown key")

	// ErrUnknownButton is returned for a mouse button other than
	// left, right or middle.
	ErrUnknownButton = errors.New("input: unknown mouse button")
)

// Event represents a keyboard or mouse button event observed by a hook.
type Event struct {
	Type      string `json:"type"`               // TypeKey or TypeMouseButton
	Key       string `json:"key,omitempty"`      // normalized key identifier
	X         int    `json:"x,omitempty"`        // screen coordinates for mouse events
	Y         int    `json:"y,omitempty"`        //
	Button    string `json:"button,omitempty"`   // left, right, middle
	Pressed   bool   `json:"pressed"`
	Injected  bool   `json:"injected,omitempty"` // synthesized by SendInput rather than a device
	Timestamp int64  `json:"ts"`                 // Unix ms timestamp, 0 if unknown
}

// Capture is a started/stopped pair of global keyboard and mouse hooks.
// Events are delivered on a channel from a goroutine the caller does not
// control. A Capture is single use: once stopped it cannot be restarted.
type Capture interface {
	Start() error
	Stop() error
	Events() <-chan Event
}

// Injector synthesizes input events. Key identifiers use the same
// normalized names a Capture produces; "cmd", "cmd_r" and "win" map to the
// platform's OS key.
type Injector interface {
	KeyDown(key string) error
	KeyUp(key string) error
	MouseMove(x, y int) error
	MouseDown(button string) error
	MouseUp(button string) error
}
