// Package macro defines the section/step data model of a recorded macro,
// the gap bookkeeping between sections and the on-disk JSON format.
package macro

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Unit is the time unit of a Delay step.
type Unit string

const (
	UnitMillis  Unit = "ms"
	UnitSeconds Unit = "secs"
	UnitMinutes Unit = "mins"
	UnitHours   Unit = "hrs"
)

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case UnitMillis, UnitSeconds, UnitMinutes, UnitHours:
		return true
	}
	return false
}

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Step is one atomic action of a section. The set of implementations is
// closed: Delay, KeyPress, KeyRelease, MousePress, MouseRelease and Unknown.
type Step interface {
	// Type returns the wire tag of the step ("delay", "press", ...).
	Type() string
	isStep()
}

// Delay pauses replay for Amount units.
type Delay struct {
	Amount int
	Unit   Unit
}

// KeyPress presses a key. Key is a printable character or a symbolic name
// such as "ctrl", "enter" or "cmd".
type KeyPress struct {
	Key string
}

// KeyRelease releases a key.
type KeyRelease struct {
	Key string
}

// MousePress presses a mouse button at screen coordinates.
type MousePress struct {
	X, Y   int
	Button Button
}

// MouseRelease releases a mouse button at screen coordinates.
type MouseRelease struct {
	X, Y   int
	Button Button
}

// Unknown holds a step whose type tag was not recognised when loading.
// It is kept verbatim so saving the macro again does not lose it.
type Unknown struct {
	Tag string
	Raw json.RawMessage
}

func (Delay) Type() string        { return "delay" }
func (KeyPress) Type() string     { return "press" }
func (KeyRelease) Type() string   { return "release" }
func (MousePress) Type() string   { return "mouse_press" }
func (MouseRelease) Type() string { return "mouse_release" }
func (u Unknown) Type() string    { return u.Tag }

func (Delay) isStep()        {}
func (KeyPress) isStep()     {}
func (KeyRelease) isStep()   {}
func (MousePress) isStep()   {}
func (MouseRelease) isStep() {}
func (Unknown) isStep()      {}

// Millis returns a Delay of ms milliseconds.
func Millis(ms int) Delay {
	return Delay{Amount: ms, Unit: UnitMillis}
}

// MaxDuration is the longest wait a delay or a macro total reports.
const MaxDuration = time.Duration(math.MaxInt64)

// Duration converts the delay to a time.Duration. Unknown units are
// treated as milliseconds. Negative amounts count as zero and results
// saturate at MaxDuration.
func (d Delay) Duration() time.Duration {
	if d.Amount <= 0 {
		return 0
	}
	unit := time.Millisecond
	switch d.Unit {
	case UnitSeconds:
		unit = time.Second
	case UnitMinutes:
		unit = time.Minute
	case UnitHours:
		unit = time.Hour
	}
	if int64(d.Amount) > int64(MaxDuration/unit) {
		return MaxDuration
	}
	return time.Duration(d.Amount) * unit
}

// addDuration adds two non-negative durations, saturating at MaxDuration.
func addDuration(a, b time.Duration) time.Duration {
	if b > MaxDuration-a {
		return MaxDuration
	}
	return a + b
}

// IsMouse reports whether s is a mouse press or release.
func IsMouse(s Step) bool {
	switch s.(type) {
	case MousePress, MouseRelease:
		return true
	}
	return false
}

// Label renders a step the way an editor lists it.
func Label(s Step) string {
	switch v := s.(type) {
	case Delay:
		unit := v.Unit
		if unit == "" {
			unit = UnitMillis
		}
		return fmt.Sprintf("Delay %d %s", v.Amount, unit)
	case KeyPress:
		return fmt.Sprintf("%s (pressed)", v.Key)
	case KeyRelease:
		return fmt.Sprintf("%s (released)", v.Key)
	case MousePress:
		return fmt.Sprintf("%s click (%d, %d)", v.Button, v.X, v.Y)
	case MouseRelease:
		return fmt.Sprintf("%s release (%d, %d)", v.Button, v.X, v.Y)
	default:
		return "Unknown"
	}
}

func cloneStep(s Step) Step {
	if u, ok := s.(Unknown); ok {
		raw := make(json.RawMessage, len(u.Raw))
		copy(raw, u.Raw)
		return Unknown{Tag: u.Tag, Raw: raw}
	}
	return s
}
