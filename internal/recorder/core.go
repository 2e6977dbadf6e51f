// Package recorder owns the macro being edited, records new steps from a
// global input capture and replays the macro.
//
// All state lives in a Core guarded by a single mutex. Every operation
// applies completely under that lock and sends its change notification after
// releasing it, so a Sink may call back into the Core.
package recorder

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"macrorec/internal/input"
	"macrorec/internal/macro"
)

// DefaultNotifyInterval is the minimum spacing of structure-changed
// notifications.
const DefaultNotifyInterval = 100 * time.Millisecond

// CaptureFactory opens a new, unstarted capture for one recording session.
type CaptureFactory func() (input.Capture, error)

// Core is the recording and editing state machine.
type Core struct {
	mu       sync.Mutex
	macro    macro.Macro
	session  *session
	lastHash string

	now          func() time.Time
	newCapture   CaptureFactory
	injector     input.Injector
	notifier     *Notifier
	dropTrailing bool
	sectionName  string

	playing atomic.Bool
}

// Option configures a Core
type Option func(*Core)

// WithClock replaces time.Now for event timestamps that carry none.
func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

// WithCaptureFactory sets how recording sessions open their capture.
func WithCaptureFactory(f CaptureFactory) Option {
	return func(c *Core) { c.newCapture = f }
}

// WithInjector sets the injector used by Play.
func WithInjector(inj input.Injector) Option {
	return func(c *Core) { c.injector = inj }
}

// WithNotifyInterval sets the structure-changed coalescing interval.
func WithNotifyInterval(d time.Duration) Option {
	return func(c *Core) { c.notifier = NewNotifier(d) }
}

// WithDropTrailingClick controls whether StopRecording removes a final mouse
// step (normally the click on a stop control).
func WithDropTrailingClick(drop bool) Option {
	return func(c *Core) { c.dropTrailing = drop }
}

// WithDefaultSectionName sets the prefix for sections added without a name.
func WithDefaultSectionName(prefix string) Option {
	return func(c *Core) { c.sectionName = prefix }
}

// New creates an empty Core. Without options it records from the platform
// capture (keyboard and mouse) and replays through the platform injector.
func New(opts ...Option) *Core {
	c := &Core{
		macro:        macro.Macro{Sections: []macro.Section{}, Gaps: []int{}},
		now:          time.Now,
		dropTrailing: true,
		sectionName:  "Section",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.newCapture == nil {
		c.newCapture = func() (input.Capture, error) { return input.NewCapture(true), nil }
	}
	if c.injector == nil {
		c.injector = input.NewInjector()
	}
	if c.notifier == nil {
		c.notifier = NewNotifier(DefaultNotifyInterval)
	}
	return c
}

// Notifier returns the notifier whose Run delivers this core's events.
func (c *Core) Notifier() *Notifier {
	return c.notifier
}

// Snapshot returns a deep copy of the current macro.
func (c *Core) Snapshot() macro.Macro {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.macro.Clone()
}

// update runs fn under the lock and notifies if it reports a change.
func (c *Core) update(fn func(m *macro.Macro) bool) {
	c.mu.Lock()
	changed := fn(&c.macro)
	c.mu.Unlock()
	if changed {
		c.notifier.Changed()
	}
}

// AddSection appends an empty section and returns its index. An empty name
// becomes "<prefix> N".
func (c *Core) AddSection(name string) int {
	var idx int
	c.update(func(m *macro.Macro) bool {
		if name == "" {
			name = fmt.Sprintf("%s %d", c.sectionName, len(m.Sections)+1)
		}
		idx = m.AppendSection(name)
		return true
	})
	return idx
}

// RenameSection renames section index.
func (c *Core) RenameSection(index int, name string) {
	c.update(func(m *macro.Macro) bool {
		if !m.ValidSection(index) {
			return false
		}
		m.Sections[index].Name = name
		return true
	})
}

// DeleteSection removes section index, merging the gaps around it.
func (c *Core) DeleteSection(index int) {
	c.update(func(m *macro.Macro) bool {
		if !m.RemoveSection(index) {
			return false
		}
		if s := c.session; s != nil {
			switch {
			case s.section == index:
				s.section = -1
			case s.section > index:
				s.section--
			}
		}
		return true
	})
}

// MoveSectionLeft swaps section index with its left neighbour.
func (c *Core) MoveSectionLeft(index int) {
	c.swapSections(index-1, index)
}

// MoveSectionRight swaps section index with its right neighbour.
func (c *Core) MoveSectionRight(index int) {
	c.swapSections(index, index+1)
}

func (c *Core) swapSections(a, b int) {
	c.update(func(m *macro.Macro) bool {
		if !m.SwapSections(a, b) {
			return false
		}
		if s := c.session; s != nil {
			switch s.section {
			case a:
				s.section = b
			case b:
				s.section = a
			}
		}
		return true
	})
}

// AddDelayStep appends a millisecond delay to section.
func (c *Core) AddDelayStep(section, ms int) {
	c.update(func(m *macro.Macro) bool {
		if !m.ValidSection(section) {
			return false
		}
		m.Sections[section].Steps = append(m.Sections[section].Steps, macro.Millis(max(ms, 0)))
		return true
	})
}

// DeleteStep removes one step.
func (c *Core) DeleteStep(section, step int) {
	c.update(func(m *macro.Macro) bool {
		return m.RemoveStep(section, step)
	})
}

// MoveStepUp swaps a step with the one before it.
func (c *Core) MoveStepUp(section, step int) {
	c.update(func(m *macro.Macro) bool {
		return m.SwapSteps(section, step-1, step)
	})
}

// MoveStepDown swaps a step with the one after it.
func (c *Core) MoveStepDown(section, step int) {
	c.update(func(m *macro.Macro) bool {
		return m.SwapSteps(section, step, step+1)
	})
}

// MoveStepsUp moves the selected steps one position up as a block and
// returns their new indices, or nil if the move is not possible.
func (c *Core) MoveStepsUp(section int, indices []int) []int {
	return c.moveSteps(section, indices, -1)
}

// MoveStepsDown is the downward counterpart of MoveStepsUp.
func (c *Core) MoveStepsDown(section int, indices []int) []int {
	return c.moveSteps(section, indices, 1)
}

func (c *Core) moveSteps(section int, indices []int, delta int) []int {
	var moved []int
	c.update(func(m *macro.Macro) bool {
		moved = m.MoveSteps(section, indices, delta)
		return moved != nil
	})
	return moved
}

// EditDelay sets a delay step to ms milliseconds. Other step kinds are left
// alone.
func (c *Core) EditDelay(section, step, ms int) {
	c.update(func(m *macro.Macro) bool {
		if !m.ValidStep(section, step) {
			return false
		}
		if _, ok := m.Sections[section].Steps[step].(macro.Delay); !ok {
			return false
		}
		m.Sections[section].Steps[step] = macro.Millis(max(ms, 0))
		return true
	})
}

// SetDelayUnit changes the unit of a delay step, keeping its amount.
func (c *Core) SetDelayUnit(section, step int, unit macro.Unit) {
	c.update(func(m *macro.Macro) bool {
		if !unit.Valid() || !m.ValidStep(section, step) {
			return false
		}
		d, ok := m.Sections[section].Steps[step].(macro.Delay)
		if !ok || d.Unit == unit {
			return false
		}
		d.Unit = unit
		m.Sections[section].Steps[step] = d
		return true
	})
}

// SetBetweenDelay sets gap index to ms milliseconds.
func (c *Core) SetBetweenDelay(gap, ms int) {
	c.update(func(m *macro.Macro) bool {
		if gap < 0 || gap >= len(m.Gaps) {
			return false
		}
		m.Gaps[gap] = max(ms, 0)
		return true
	})
}

// ClearAll removes every section and gap. A running recording keeps its
// capture but drops events until it is stopped.
func (c *Core) ClearAll() {
	c.update(func(m *macro.Macro) bool {
		m.Sections = []macro.Section{}
		m.Gaps = []int{}
		if c.session != nil {
			c.session.section = -1
		}
		return true
	})
}

// Replace swaps in a new macro, repairing its gap count.
func (c *Core) Replace(m macro.Macro) {
	m = m.Clone()
	m.EnsureGaps()
	c.update(func(cur *macro.Macro) bool {
		*cur = m
		if c.session != nil {
			c.session.section = -1
		}
		return true
	})
}
